package lib

import (
	"strings"
	"time"
)

// RunState is the lifecycle state of a runner. A runner is Running from a
// successful start until the exit of its process has been delivered.
type RunState int

const (
	RunStateIdle RunState = iota
	RunStateRunning
)

func (s RunState) String() string {
	switch s {
	case RunStateIdle:
		return "Idle"
	case RunStateRunning:
		return "Running"
	default:
		return "Unknown"
	}
}

// Command captures command metadata used to start a process.
type Command struct {
	Command string
	Args    []string
	// Dir is the working directory. Empty means a fresh per-run directory.
	Dir string
	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string
	// Task is the configured task name the command came from, if any.
	Task string
}

// String renders the command line the way it was requested.
func (c Command) String() string {
	all := append([]string{c.Command}, c.Args...)
	return strings.TrimSpace(strings.Join(all, " "))
}

// ExitStatus describes how a run ended.
type ExitStatus struct {
	// Code is the process exit code, -1 when the process never started or
	// was terminated by a signal.
	Code int
	// Signal names the terminating signal, e.g. "killed".
	Signal string
	// Stopped is set when termination was requested through Stop.
	Stopped bool
	// Err is nil for a clean exit. Otherwise it wraps ErrAbnormalExit or
	// ErrLaunchFailure.
	Err error
}

// Success reports whether the process exited with status 0.
func (e ExitStatus) Success() bool {
	return e.Err == nil && e.Code == 0
}

// Status captures runtime state and timestamps of the current or last run.
type Status struct {
	State     RunState
	RunID     string
	Command   *Command
	PID       int
	StartTime time.Time
	EndTime   *time.Time
	Exit      *ExitStatus
}
