package main

import (
	"fmt"

	apiv1 "github.com/SanjoDeundiak/build-runner/api/v1"
)

// buildExitError carries an unsuccessful build exit so brn can mirror it.
type buildExitError struct {
	runID string
	exit  *apiv1.ExitStatus
}

func (e *buildExitError) Error() string {
	if e.exit.Error != "" {
		return fmt.Sprintf("run %s: %s", e.runID, e.exit.Error)
	}
	return fmt.Sprintf("run %s: exit status %d", e.runID, e.exit.Code)
}

// ExitCode returns the build's exit code, or 1 when it has none.
func (e *buildExitError) ExitCode() int {
	if e.exit.Code > 0 {
		return int(e.exit.Code)
	}
	return 1
}

// exitResult returns nil for a clean exit and a buildExitError otherwise.
func exitResult(runID string, exit *apiv1.ExitStatus) error {
	if exit == nil || (exit.Code == 0 && exit.Signal == "" && exit.Error == "") {
		return nil
	}
	return &buildExitError{runID: runID, exit: exit}
}
