package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sentinel/internal/store"
)

func newDeployCommand(ctx *commandContext) *cobra.Command {
	deployCmd := &cobra.Command{
		Use:   "deploy",
		Short: "Manage notification destinations per guild",
	}

	deployCmd.AddCommand(newDeployChannelCommand(ctx))
	deployCmd.AddCommand(newDeployWebhookCommand(ctx))
	deployCmd.AddCommand(newDeployPrefixCommand(ctx))
	deployCmd.AddCommand(newDeployListCommand(ctx))

	return deployCmd
}

func newDeployChannelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "channel <guild-id> <events|logs> <channel-id>",
		Short: "Set a guild's event or log channel (channel-id 0 clears)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			guildID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid guild id %q", args[0])
			}
			channelID, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid channel id %q", args[2])
			}
			return ctx.withStore(func(st *store.Store) error {
				switch args[1] {
				case "events":
					err = st.SetEventChannel(cmd.Context(), guildID, channelID)
				case "logs":
					err = st.SetLogChannel(cmd.Context(), guildID, channelID)
				default:
					return fmt.Errorf("channel kind must be events or logs, got %q", args[1])
				}
				if err != nil {
					return err
				}
				if channelID == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s channel for guild %d\n", args[1], guildID)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Set %s channel for guild %d to %d\n", args[1], guildID, channelID)
				}
				return nil
			})
		},
	}
}

func newDeployWebhookCommand(ctx *commandContext) *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "webhook <guild-id> [url]",
		Short: "Set or clear a guild's webhook destination",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			guildID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid guild id %q", args[0])
			}
			url := ""
			if len(args) == 2 {
				url = args[1]
			}
			if url == "" && !clear {
				return fmt.Errorf("provide a webhook url or --clear")
			}
			return ctx.withStore(func(st *store.Store) error {
				if err := st.SetWebhook(cmd.Context(), guildID, url); err != nil {
					return err
				}
				if url == "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Cleared webhook for guild %d\n", guildID)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Set webhook for guild %d\n", guildID)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "Remove the configured webhook")
	return cmd
}

func newDeployPrefixCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prefix <guild-id> <prefix>",
		Short: "Set a guild's command prefix",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			guildID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid guild id %q", args[0])
			}
			return ctx.withStore(func(st *store.Store) error {
				if err := st.SetPrefix(cmd.Context(), guildID, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Prefix for guild %d is now %q\n", guildID, args[1])
				return nil
			})
		},
	}
}

func newDeployListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured deployments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				deployments, err := st.Deployments(cmd.Context())
				if err != nil {
					return err
				}
				if len(deployments) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No deployments are configured.")
					return nil
				}
				tw := newTableWriter(cmd.OutOrStdout())
				tw.AppendHeader(table.Row{"Guild", "Event channel", "Log channel", "Webhook", "Prefix"})
				for _, d := range deployments {
					tw.AppendRow(table.Row{
						d.GuildID,
						formatOptionalID(d.EventChannelID),
						formatOptionalID(d.LogChannelID),
						formatWebhook(d.WebhookURL),
						d.Prefix,
					})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func formatOptionalID(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}

func formatWebhook(url *string) string {
	if url == nil {
		return "-"
	}
	return "configured"
}
