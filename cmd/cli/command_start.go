package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	apiv1 "github.com/SanjoDeundiak/build-runner/api/v1"
	"github.com/spf13/cobra"
)

func newStartCmd(opts *rootOptions) *cobra.Command {
	var (
		follow bool
		dir    string
		env    []string
	)
	cmd := &cobra.Command{
		Use:   "start <task> [-- args...] | start -- <command> [args...]",
		Short: "Start a configured task or an explicit command",
		Args: func(cmd *cobra.Command, args []string) error {
			_, err := parseStartArgs(args, cmd.ArgsLenAtDash())
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := parseStartArgs(args, cmd.ArgsLenAtDash())
			if err != nil {
				return err
			}
			request.Dir = dir
			request.Env = env

			conn, client, err := dial(opts)
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			resp, err := client.Start(ctx, request)
			cancel()
			if err != nil {
				return clientError(err)
			}
			if !follow {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.RunID)
				return err
			}
			return followRun(cmd.Context(), client, resp.RunID, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "stream output and exit with the build's exit code")
	cmd.Flags().StringVar(&dir, "dir", "", "working directory (overrides the task's)")
	cmd.Flags().StringArrayVarP(&env, "env", "e", nil, "extra KEY=VALUE environment, repeatable")
	return cmd
}

// parseStartArgs splits the positional arguments. Before "--" only a task
// name is accepted; "start -- cmd args" runs an explicit command.
func parseStartArgs(args []string, dash int) (*apiv1.StartRequest, error) {
	switch {
	case len(args) == 0:
		return nil, errors.New("a task name or -- <command> is required")
	case dash == 0:
		return &apiv1.StartRequest{Command: args[0], Args: args[1:]}, nil
	case dash < 0 && len(args) > 1:
		return nil, errors.New("use -- to pass arguments to a task")
	case dash > 1:
		return nil, errors.New("only one task name may precede --")
	default:
		return &apiv1.StartRequest{Task: args[0], Args: args[1:]}, nil
	}
}
