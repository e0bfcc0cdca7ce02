package main

import (
	"github.com/SanjoDeundiak/build-runner/pkg/lib/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	addr       string
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "brn",
		Short:         "Build runner CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $BRN_CONFIG or ~/.brn/config.yaml)")
	root.PersistentFlags().StringVar(&opts.addr, "addr", "", "daemon address, unix:///path or host:port (overrides config)")

	root.AddCommand(newStartCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newStopCmd(opts))
	root.AddCommand(newLogsCmd(opts))
	root.AddCommand(newTasksCmd(opts))
	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newConfigCmd(opts))

	return root
}

func (o *rootOptions) load() (config.Config, error) {
	return config.Load(o.configPath)
}
