package runner

import (
	"time"

	"github.com/SanjoDeundiak/build-runner/pkg/lib"
	"go.trai.ch/zerr"
)

// Stop requests termination of the active run: SIGTERM to its process group,
// escalated to SIGKILL after the stop grace period. It returns before the
// process is gone; the exit is reported through OnExit. Stop fails with
// lib.ErrNotRunning when idle.
func (runner *Runner) Stop() error {
	runner.mu.Lock()
	r := runner.current
	runner.mu.Unlock()
	if r == nil {
		return lib.ErrNotRunning
	}

	r.mu.Lock()
	repeated := r.stopRequested
	r.stopRequested = true
	reaped := r.reaped
	r.mu.Unlock()
	if reaped {
		// Reaped already; only the exit callback is pending.
		return nil
	}

	log := runner.logger.With("run_id", r.id)
	if runner.stopGrace <= 0 || repeated {
		log.Info("runner stop: kill", "pid", r.pid, "repeated", repeated)
		r.kill(runner.logger)
		return nil
	}

	log.Info("runner stop: terminate", "pid", r.pid, "grace", runner.stopGrace.String())
	r.terminate(runner.logger)

	r.mu.Lock()
	if r.killTimer == nil {
		r.killTimer = time.AfterFunc(runner.stopGrace, func() {
			if r.isReaped() {
				return
			}
			log.Warn("runner stop: grace period expired, killing", "pid", r.pid)
			r.kill(runner.logger)
		})
	}
	r.mu.Unlock()
	return nil
}

// StopRun stops the active run only if it is runID.
func (runner *Runner) StopRun(runID string) error {
	runner.mu.Lock()
	current := runner.current
	runner.mu.Unlock()
	if current == nil {
		return lib.ErrNotRunning
	}
	if runID != "" && current.id != runID {
		return zerr.With(zerr.Wrap(lib.ErrNotRunning, "stop"), "run_id", runID)
	}
	return runner.Stop()
}
