package runner

import (
	"context"

	"github.com/SanjoDeundiak/build-runner/pkg/lib"
)

// Subscription follows the transcript and exit of one run.
type Subscription struct {
	RunID string
	// Output replays everything from the first chunk, follows live output and
	// closes when the run's output ends or the subscribing ctx is done.
	Output <-chan []byte

	run *run
}

// Wait blocks until the run's exit has been delivered to the listener.
func (s *Subscription) Wait(ctx context.Context) (lib.ExitStatus, error) {
	return s.run.wait(ctx)
}

// Subscribe follows runID, or the current/last run when runID is empty.
func (runner *Runner) Subscribe(ctx context.Context, runID string) (*Subscription, error) {
	r, err := runner.getRun(runID)
	if err != nil {
		return nil, err
	}
	runner.logger.Debug("runner output subscribe", "run_id", r.id)
	return &Subscription{
		RunID:  r.id,
		Output: r.output.Subscribe(ctx, outputBacklog),
		run:    r,
	}, nil
}

// Output subscribes to the transcript of runID (empty for the last run).
func (runner *Runner) Output(ctx context.Context, runID string) (string, <-chan []byte, error) {
	sub, err := runner.Subscribe(ctx, runID)
	if err != nil {
		return "", nil, err
	}
	return sub.RunID, sub.Output, nil
}

// Wait blocks until the exit of runID (empty for the last run) has been
// delivered to the listener.
func (runner *Runner) Wait(ctx context.Context, runID string) (lib.ExitStatus, error) {
	r, err := runner.getRun(runID)
	if err != nil {
		return lib.ExitStatus{}, err
	}
	return r.wait(ctx)
}

func (r *run) wait(ctx context.Context) (lib.ExitStatus, error) {
	select {
	case <-r.done:
	case <-ctx.Done():
		return lib.ExitStatus{}, ctx.Err()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return *r.exit, nil
}
