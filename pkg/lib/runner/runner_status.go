package runner

import (
	"github.com/SanjoDeundiak/build-runner/pkg/lib"
	"go.trai.ch/zerr"
)

// Status returns a snapshot of the current run, or of the last one while idle.
func (runner *Runner) Status() lib.Status {
	runner.mu.Lock()
	last := runner.last
	running := last != nil && runner.current == last
	runner.mu.Unlock()

	if last == nil {
		return lib.Status{State: lib.RunStateIdle}
	}
	return last.status(running)
}

// Running reports whether a run is active.
func (runner *Runner) Running() bool {
	runner.mu.Lock()
	defer runner.mu.Unlock()
	return runner.current != nil
}

// getRun resolves runID to the last run. An empty id means the last run.
func (runner *Runner) getRun(runID string) (*run, error) {
	runner.mu.Lock()
	last := runner.last
	runner.mu.Unlock()

	if last == nil {
		return nil, lib.ErrNoRun
	}
	if runID != "" && runID != last.id {
		return nil, zerr.With(zerr.Wrap(lib.ErrUnknownRun, "run "+runID), "run_id", runID)
	}
	return last, nil
}

func (r *run) status(running bool) lib.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	command := r.command
	command.Args = append([]string(nil), r.command.Args...)
	st := lib.Status{
		State:     lib.RunStateIdle,
		RunID:     r.id,
		Command:   &command,
		PID:       r.pid,
		StartTime: r.start,
	}
	if running {
		st.State = lib.RunStateRunning
	}
	if r.end != nil {
		t := *r.end
		st.EndTime = &t
	}
	if r.exit != nil {
		e := *r.exit
		st.Exit = &e
	}
	return st
}
