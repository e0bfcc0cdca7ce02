package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/SanjoDeundiak/build-runner/pkg/lib"
	"github.com/SanjoDeundiak/build-runner/pkg/lib/output_storage"
	"go.trai.ch/zerr"
)

// outputBacklog is the channel capacity between the transcript and the dispatcher.
const outputBacklog = 16

type StartResult struct {
	ID     string
	Status *lib.Status
}

// Start launches command with args. See StartCommand.
func (runner *Runner) Start(command string, args ...string) (*StartResult, error) {
	return runner.StartCommand(lib.Command{Command: command, Args: args})
}

// StartCommand launches spec and begins asynchronous output delivery. It fails
// with lib.ErrAlreadyRunning while a run is active (including one whose exit
// has not been delivered yet) and with lib.ErrLaunchFailure when the process
// cannot be spawned; the runner stays idle in both cases.
func (runner *Runner) StartCommand(spec lib.Command) (*StartResult, error) {
	if spec.Command == "" {
		return nil, lib.ErrCommandRequired
	}
	spec.Args = append([]string(nil), spec.Args...)
	spec.Env = append([]string(nil), spec.Env...)

	r, err := runner.launch(spec)
	if err != nil {
		return nil, err
	}

	if sl, ok := runner.listener.(StartListener); ok {
		runner.dispatch(func() { sl.OnStart(r.id, spec) })
	}

	forwarded := make(chan struct{})
	go runner.forward(r, forwarded)
	go runner.wait(r, forwarded)

	status := r.status(true)
	return &StartResult{ID: r.id, Status: &status}, nil
}

// launch spawns the process and makes it the current run.
func (runner *Runner) launch(spec lib.Command) (*run, error) {
	runner.mu.Lock()
	defer runner.mu.Unlock()

	if runner.closed {
		return nil, lib.ErrRunnerClosed
	}
	if runner.current != nil {
		return nil, zerr.With(zerr.Wrap(lib.ErrAlreadyRunning, "start"), "run_id", runner.current.id)
	}

	processID := lib.NewID()
	log := runner.logger.With("run_id", processID)

	r := &run{
		id:         processID,
		command:    spec,
		workDir:    spec.Dir,
		start:      time.Now(),
		output:     output_storage.RunNewOutputStorage(),
		limitsRoot: runner.limits.root(),
		done:       make(chan struct{}),
	}
	if r.workDir == "" {
		r.workDir = filepath.Join(runner.baseDir, processID)
		if err := os.MkdirAll(r.workDir, 0o700); err != nil {
			return nil, runner.launchFailed(r, err)
		}
		r.tempDir = true
	}

	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = r.workDir
	cmd.Env = append(append(os.Environ(), runner.env...), spec.Env...)
	// cmd.Stdin stays nil, so the child reads /dev/null.
	// The same writer for both streams makes exec share one pipe, which keeps
	// stdout and stderr interleaved in production order.
	cmd.Stdout = r.output
	cmd.Stderr = r.output
	cmd.WaitDelay = runner.waitDelay

	attr, err := procAttr(processID, runner.limits)
	if err != nil {
		return nil, runner.launchFailed(r, err)
	}
	cmd.SysProcAttr = attr.Raw
	r.cgroup = attr.cgroup

	log.Info("runner start", "command", spec.String(), "dir", r.workDir, "task", spec.Task)
	err = cmd.Start()
	attr.Release()
	if err != nil {
		if r.cgroup {
			_ = cleanupCgroup(r.limitsRoot, processID)
		}
		return nil, runner.launchFailed(r, err)
	}

	r.cmd = cmd
	r.pid = cmd.Process.Pid
	runner.current = r
	runner.last = r
	log.Debug("runner started", "pid", r.pid, "cgroup", r.cgroup)
	return r, nil
}

// launchFailed records r as the last run with a launch error and returns that
// error. No listener callback is made: the caller is told synchronously.
// Must be called with runner.mu held.
func (runner *Runner) launchFailed(r *run, cause error) error {
	err := zerr.With(fmt.Errorf("%w: %w", lib.ErrLaunchFailure, cause), "command", r.command.String())
	runner.logger.Warn("runner launch failed", "run_id", r.id, "command", r.command.String(), "err", cause)

	now := time.Now()
	exit := lib.ExitStatus{Code: -1, Err: err}
	r.mu.Lock()
	r.end = &now
	r.exit = &exit
	r.mu.Unlock()
	r.output.Stop()
	close(r.done)
	if r.tempDir {
		_ = os.RemoveAll(r.workDir)
	}
	runner.last = r
	return err
}

// forward relays the transcript to the listener in order.
func (runner *Runner) forward(r *run, forwarded chan<- struct{}) {
	defer close(forwarded)
	for chunk := range r.output.Subscribe(context.Background(), outputBacklog) {
		runner.dispatch(func() { runner.listener.OnOutput(r.id, chunk) })
	}
}

// wait reaps the process, then dispatches the exit after the last output
// chunk. The run stays current until that callback runs.
func (runner *Runner) wait(r *run, forwarded <-chan struct{}) {
	waitErr := r.cmd.Wait()

	r.mu.Lock()
	r.reaped = true
	stopped := r.stopRequested
	if r.killTimer != nil {
		r.killTimer.Stop()
	}
	r.mu.Unlock()

	exit := exitStatusFrom(r.cmd.ProcessState, waitErr, stopped)
	runner.logger.Info("runner process exited", "run_id", r.id, "pid", r.pid, "exit_code", exit.Code, "signal", exit.Signal, "stopped", stopped)

	r.output.Stop()
	<-forwarded
	runner.logger.Debug("runner output drained", "run_id", r.id, "bytes", r.output.Len(), "chunks", r.output.Chunks())

	if r.cgroup {
		if err := cleanupCgroup(r.limitsRoot, r.id); err != nil {
			runner.logger.Debug("runner cgroup cleanup failed", "run_id", r.id, "err", err)
		}
	}
	if r.tempDir {
		_ = os.RemoveAll(r.workDir)
	}

	runner.dispatch(func() {
		now := time.Now()
		r.mu.Lock()
		r.end = &now
		r.exit = &exit
		r.mu.Unlock()

		runner.mu.Lock()
		if runner.current == r {
			runner.current = nil
		}
		runner.mu.Unlock()

		runner.listener.OnExit(r.id, exit)
		close(r.done)
	})
}

func exitStatusFrom(state *os.ProcessState, waitErr error, stopped bool) lib.ExitStatus {
	exit := lib.ExitStatus{Code: -1, Stopped: stopped}
	if state == nil {
		exit.Err = zerr.With(fmt.Errorf("%w: %w", lib.ErrAbnormalExit, waitErr), "exit_code", exit.Code)
		return exit
	}

	exit.Code = state.ExitCode()
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		exit.Signal = ws.Signal().String()
	}

	switch {
	case exit.Code == 0 && exit.Signal == "":
		// Output pipes held open by an orphan past WaitDelay do not fail a clean exit.
		if waitErr != nil && !errors.Is(waitErr, exec.ErrWaitDelay) {
			exit.Err = zerr.With(fmt.Errorf("%w: %w", lib.ErrAbnormalExit, waitErr), "exit_code", exit.Code)
		}
	case exit.Signal != "":
		exit.Err = zerr.With(fmt.Errorf("%w: signal: %s", lib.ErrAbnormalExit, exit.Signal), "signal", exit.Signal)
	default:
		exit.Err = zerr.With(fmt.Errorf("%w: exit status %d", lib.ErrAbnormalExit, exit.Code), "exit_code", exit.Code)
	}
	return exit
}
