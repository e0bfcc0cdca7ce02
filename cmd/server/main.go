package main

import (
	"context"
	"os"

	"github.com/SanjoDeundiak/build-runner/pkg/lib/config"
	"github.com/SanjoDeundiak/build-runner/pkg/lib/logx"
	"github.com/spf13/cobra"
	"pkt.systems/psi"
	"pkt.systems/pslog"
)

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	logger := logx.FromEnv(os.Stderr, "info", false)
	ctx = pslog.ContextWithLogger(ctx, logger)
	logx.RedirectStdLog(logger)

	root := newRootCmd()
	root.SetArgs(os.Args[1:])
	if err := root.ExecuteContext(ctx); err != nil {
		pslog.Ctx(ctx).Error("brn-server failed", "err", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var configPath string
	var listen string

	root := &cobra.Command{
		Use:           "brn-server",
		Short:         "Build runner daemon",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Listen = listen
				if err := config.Validate(cfg); err != nil {
					return err
				}
			}

			logger := logx.FromEnv(os.Stderr, cfg.Logging.Level, cfg.Logging.Structured)
			logx.RedirectStdLog(logger)
			ctx := pslog.ContextWithLogger(cmd.Context(), logger)

			srv, err := NewGRPCServer(ctx, cfg)
			if err != nil {
				return err
			}
			return srv.Serve(ctx)
		},
	}
	root.Flags().StringVar(&configPath, "config", "", "config file (default $BRN_CONFIG or ~/.brn/config.yaml)")
	root.Flags().StringVar(&listen, "listen", "", "listen address, unix:///path or host:port (overrides server.listen)")
	return root
}
