package main

import (
	"context"
	"fmt"
	"os"
	"time"

	apiv1 "github.com/SanjoDeundiak/build-runner/api/v1"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"
)

func newStopCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop [run_id]",
		Short: "Stop the running build",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request := &apiv1.StopRequest{}
			if len(args) == 1 {
				request.RunID = args[0]
			}

			conn, client, err := dial(opts)
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			resp, err := client.Stop(ctx, request)
			if err != nil {
				if grpcCode(err) == codes.PermissionDenied {
					_, _ = fmt.Fprintln(os.Stderr, "Forbidden. Only the caller that started the build can stop it.")
				}
				return clientError(err)
			}
			printStatusTable(cmd.OutOrStdout(), resp.Status)
			return nil
		},
	}
	return cmd
}
