// Package apiv1 defines the buildrunner.v1.BuildRunner control API: message
// types, the gRPC service description and a typed client.
package apiv1

import (
	"time"

	"github.com/SanjoDeundiak/build-runner/pkg/lib"
)

// RunState mirrors lib.RunState on the wire.
type RunState string

const (
	RunStateUnspecified RunState = ""
	RunStateIdle        RunState = "IDLE"
	RunStateRunning     RunState = "RUNNING"
)

// Command is a process invocation.
type Command struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
	Dir     string   `json:"dir,omitempty"`
	Env     []string `json:"env,omitempty"`
	Task    string   `json:"task,omitempty"`
}

// ExitStatus describes how a run ended. Error is empty for a clean exit.
type ExitStatus struct {
	Code    int32  `json:"code"`
	Signal  string `json:"signal,omitempty"`
	Stopped bool   `json:"stopped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Status is a snapshot of the current or last run.
type Status struct {
	State     RunState    `json:"state"`
	RunID     string      `json:"run_id,omitempty"`
	Command   *Command    `json:"command,omitempty"`
	PID       int32       `json:"pid,omitempty"`
	StartTime *time.Time  `json:"start_time,omitempty"`
	EndTime   *time.Time  `json:"end_time,omitempty"`
	Exit      *ExitStatus `json:"exit,omitempty"`
}

// GetState returns the state, or RunStateUnspecified for a nil status.
func (s *Status) GetState() RunState {
	if s == nil {
		return RunStateUnspecified
	}
	return s.State
}

// GetExit returns the exit status or nil.
func (s *Status) GetExit() *ExitStatus {
	if s == nil {
		return nil
	}
	return s.Exit
}

// Task describes a configured build task.
type Task struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Command     string   `json:"command"`
	Args        []string `json:"args,omitempty"`
	Dir         string   `json:"dir,omitempty"`
}

// StartRequest names either a configured Task or an explicit Command.
type StartRequest struct {
	Task    string   `json:"task,omitempty"`
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`
	Dir     string   `json:"dir,omitempty"`
	Env     []string `json:"env,omitempty"`
}

type StartResponse struct {
	RunID  string  `json:"run_id"`
	Status *Status `json:"status"`
}

// StopRequest stops the active run. A non-empty RunID must match it.
type StopRequest struct {
	RunID string `json:"run_id,omitempty"`
}

type StopResponse struct {
	Status *Status `json:"status"`
}

type StatusRequest struct{}

type StatusResponse struct {
	Status *Status `json:"status"`
}

type ListTasksRequest struct{}

type ListTasksResponse struct {
	Tasks []*Task `json:"tasks"`
}

// WatchRequest follows a run. An empty RunID means the current or last run.
type WatchRequest struct {
	RunID string `json:"run_id,omitempty"`
}

// EventType discriminates Watch events.
type EventType string

const (
	EventTypeOutput EventType = "OUTPUT"
	EventTypeExit   EventType = "EXIT"
)

// Event is one Watch stream message: an output chunk, or the final exit.
type Event struct {
	Type  EventType   `json:"type"`
	RunID string      `json:"run_id"`
	Data  []byte      `json:"data,omitempty"`
	Exit  *ExitStatus `json:"exit,omitempty"`
}

// FromLibCommand converts a runner command.
func FromLibCommand(c *lib.Command) *Command {
	if c == nil {
		return nil
	}
	return &Command{
		Command: c.Command,
		Args:    append([]string(nil), c.Args...),
		Dir:     c.Dir,
		Env:     append([]string(nil), c.Env...),
		Task:    c.Task,
	}
}

// FromLibExit converts a runner exit status.
func FromLibExit(e *lib.ExitStatus) *ExitStatus {
	if e == nil {
		return nil
	}
	out := &ExitStatus{
		Code:    int32(e.Code),
		Signal:  e.Signal,
		Stopped: e.Stopped,
	}
	if e.Err != nil {
		out.Error = e.Err.Error()
	}
	return out
}

// FromLibStatus converts a runner status snapshot.
func FromLibStatus(st lib.Status) *Status {
	out := &Status{
		State:   fromLibState(st.State),
		RunID:   st.RunID,
		Command: FromLibCommand(st.Command),
		PID:     int32(st.PID),
		Exit:    FromLibExit(st.Exit),
	}
	if !st.StartTime.IsZero() {
		t := st.StartTime
		out.StartTime = &t
	}
	if st.EndTime != nil {
		t := *st.EndTime
		out.EndTime = &t
	}
	return out
}

func fromLibState(s lib.RunState) RunState {
	switch s {
	case lib.RunStateIdle:
		return RunStateIdle
	case lib.RunStateRunning:
		return RunStateRunning
	default:
		return RunStateUnspecified
	}
}
