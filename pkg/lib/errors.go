package lib

import "go.trai.ch/zerr"

var (
	// ErrAlreadyRunning is returned by Start while a process is active.
	ErrAlreadyRunning = zerr.New("process already running")

	// ErrNotRunning is returned by Stop when no process is active.
	ErrNotRunning = zerr.New("no process running")

	// ErrLaunchFailure is returned when the operating system could not spawn the process.
	ErrLaunchFailure = zerr.New("failed to launch process")

	// ErrAbnormalExit is reported when a process terminates with a non-zero status or a signal.
	ErrAbnormalExit = zerr.New("process exited abnormally")

	// ErrCommandRequired is returned when Start is called without a command.
	ErrCommandRequired = zerr.New("command is required")

	// ErrUnknownTask is returned when a task name is not configured.
	ErrUnknownTask = zerr.New("unknown task")

	// ErrUnknownRun is returned when a run identifier does not match the current or last run.
	ErrUnknownRun = zerr.New("unknown run")

	// ErrRunnerClosed is returned by Start after the runner was closed.
	ErrRunnerClosed = zerr.New("runner is closed")

	// ErrNoRun is returned when a run is requested before any process was started.
	ErrNoRun = zerr.New("no run has been started")
)
