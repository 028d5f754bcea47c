package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"sentinel/internal/daemon"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status daemon.Status
			if err := ctx.apiRequest(http.MethodGet, "/api/status", nil, &status); err != nil {
				return err
			}
			if jsonFlag {
				return writeJSON(cmd, status)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "running: %s\n", yesNo(status.Running))
			fmt.Fprintf(out, "tracked users: %d (%d priority)\n", status.TrackedCount, status.PriorityCount)
			fmt.Fprintf(out, "deployments: %d\n", status.Deployments)
			fmt.Fprintf(out, "database: %s\n", status.DatabasePath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit status as JSON")
	return cmd
}

func newNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Send a test notification through the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.apiRequest(http.MethodPost, "/api/test", nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification dispatched.")
			return nil
		},
	}
}
