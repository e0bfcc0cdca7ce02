package main

import (
	"context"
	"errors"
	"io"

	apiv1 "github.com/SanjoDeundiak/build-runner/api/v1"
	"github.com/spf13/cobra"
)

func newLogsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs [run_id]",
		Short: "Stream build output from the beginning until the build exits",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}

			conn, client, err := dial(opts)
			if err != nil {
				return err
			}
			defer conn.Close()

			return followRun(cmd.Context(), client, runID, cmd.OutOrStdout())
		},
	}
	return cmd
}

// followRun copies the output of runID to w and returns the build's exit as
// an error when it did not succeed.
func followRun(ctx context.Context, client apiv1.BuildRunnerClient, runID string, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := client.Watch(ctx, &apiv1.WatchRequest{RunID: runID})
	if err != nil {
		return clientError(err)
	}
	for {
		event, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return errors.New("output stream ended before the build exited")
		}
		if err != nil {
			return clientError(err)
		}

		switch event.Type {
		case apiv1.EventTypeOutput:
			if _, err := w.Write(event.Data); err != nil {
				return err
			}
		case apiv1.EventTypeExit:
			return exitResult(event.RunID, event.Exit)
		}
	}
}
