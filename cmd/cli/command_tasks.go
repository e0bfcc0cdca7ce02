package main

import (
	"context"
	"io"
	"time"

	apiv1 "github.com/SanjoDeundiak/build-runner/api/v1"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newTasksCmd(opts *rootOptions) *cobra.Command {
	var local, asYAML bool
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List configured build tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if local {
				cfg, err := opts.load()
				if err != nil {
					return err
				}
				catalogue, err := cfg.Catalogue()
				if err != nil {
					return err
				}
				var tasks []*apiv1.Task
				for _, t := range catalogue.List() {
					tasks = append(tasks, &apiv1.Task{
						Name:        t.Name,
						Description: t.Description,
						Command:     t.Command,
						Args:        t.Args,
						Dir:         t.Dir,
					})
				}
				return writeTasks(cmd.OutOrStdout(), tasks, asYAML)
			}

			conn, client, err := dial(opts)
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			resp, err := client.ListTasks(ctx, &apiv1.ListTasksRequest{})
			if err != nil {
				return clientError(err)
			}
			return writeTasks(cmd.OutOrStdout(), resp.Tasks, asYAML)
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "read tasks from the config file instead of the daemon")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print tasks in config file format")
	return cmd
}

// yamlTask is the config file shape of a task.
type yamlTask struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Command     string   `yaml:"command"`
	Args        []string `yaml:"args,omitempty"`
	Dir         string   `yaml:"dir,omitempty"`
}

func writeTasks(w io.Writer, tasks []*apiv1.Task, asYAML bool) error {
	if !asYAML {
		printTasksTable(w, tasks)
		return nil
	}
	out := struct {
		Tasks []yamlTask `yaml:"tasks"`
	}{Tasks: make([]yamlTask, 0, len(tasks))}
	for _, t := range tasks {
		out.Tasks = append(out.Tasks, yamlTask(*t))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}
