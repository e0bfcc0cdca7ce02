package main

import (
	"context"
	"fmt"
	"io"
	"time"

	apiv1 "github.com/SanjoDeundiak/build-runner/api/v1"
	"github.com/SanjoDeundiak/build-runner/pkg/lib"
	"github.com/SanjoDeundiak/build-runner/pkg/lib/logx"
	"github.com/SanjoDeundiak/build-runner/pkg/lib/runner"
	"github.com/spf13/cobra"
	"pkt.systems/pslog"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		dir string
		env []string
	)
	cmd := &cobra.Command{
		Use:   "run <task> [-- args...] | run -- <command> [args...]",
		Short: "Run a build in the foreground without a daemon",
		Long: "run executes a task or command in this process and streams its output.\n" +
			"Interrupting brn stops the build. brn exits with the build's exit code.",
		Args: func(cmd *cobra.Command, args []string) error {
			_, err := parseStartArgs(args, cmd.ArgsLenAtDash())
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := parseStartArgs(args, cmd.ArgsLenAtDash())
			if err != nil {
				return err
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			catalogue, err := cfg.Catalogue()
			if err != nil {
				return err
			}

			spec := lib.Command{Command: request.Command, Args: request.Args}
			if request.Task != "" {
				spec, err = catalogue.Resolve(request.Task, request.Args...)
				if err != nil {
					return err
				}
			}
			spec.Env = append(spec.Env, env...)
			if dir != "" {
				spec.Dir = dir
			}

			runnerOpts := cfg.Runner.RunnerOptions()
			runnerOpts.Logger = pslog.Ctx(cmd.Context())
			return runLocal(cmd.Context(), runnerOpts, spec, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "working directory (overrides the task's)")
	cmd.Flags().StringArrayVarP(&env, "env", "e", nil, "extra KEY=VALUE environment, repeatable")
	return cmd
}

// runLocal runs spec on an in-process runner, writing output to w from the
// runner's event loop. Cancelling ctx stops the build; the call still waits
// for its exit.
func runLocal(ctx context.Context, opts runner.Config, spec lib.Command, w io.Writer) error {
	loop := runner.NewEventLoop()
	defer loop.Close()

	exited := make(chan lib.ExitStatus, 1)
	var writeErr error
	opts.Dispatcher = loop
	opts.Listener = runner.ListenerFuncs{
		Output: func(_ string, chunk []byte) {
			if writeErr == nil {
				_, writeErr = w.Write(chunk)
			}
		},
		Exit: func(_ string, status lib.ExitStatus) {
			exited <- status
		},
	}

	r, err := runner.NewRunner(opts)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = r.Close(closeCtx)
	}()

	started, err := r.StartCommand(spec)
	if err != nil {
		return err
	}
	logger := opts.Logger
	if logger == nil {
		logger = pslog.Ctx(ctx)
	}
	logger = logx.WithRun(logger, started.ID)
	logger.Debug("cli run started", "command", spec.String())

	var exit lib.ExitStatus
	select {
	case exit = <-exited:
	case <-ctx.Done():
		logger.Info("cli run interrupted, stopping build")
		if err := r.Stop(); err != nil {
			logger.Debug("cli run stop", "err", err)
		}
		exit = <-exited
	}

	if writeErr != nil {
		return fmt.Errorf("write output: %w", writeErr)
	}
	return exitResult(started.ID, apiv1.FromLibExit(&exit))
}
