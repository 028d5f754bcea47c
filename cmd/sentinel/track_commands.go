package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sentinel/internal/presence"
	"sentinel/internal/store"
)

func newTrackCommand(ctx *commandContext) *cobra.Command {
	trackCmd := &cobra.Command{
		Use:   "track",
		Short: "Manage tracked users",
	}

	trackCmd.AddCommand(newTrackAddCommand(ctx))
	trackCmd.AddCommand(newTrackRemoveCommand(ctx))
	trackCmd.AddCommand(newTrackListCommand(ctx))
	trackCmd.AddCommand(newTrackPriorityCommand(ctx))
	trackCmd.AddCommand(newTrackModeCommand(ctx))

	return trackCmd
}

func newTrackAddCommand(ctx *commandContext) *cobra.Command {
	var modeFlag string

	cmd := &cobra.Command{
		Use:   "add <username-or-id>...",
		Short: "Start tracking one or more users",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := store.ParseNotifyMode(modeFlag)
			if err != nil {
				return err
			}
			directory, err := ctx.directory()
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				out := cmd.OutOrStdout()
				for _, identifier := range args {
					info, err := directory.LookupUser(cmd.Context(), identifier)
					if err != nil {
						fmt.Fprintf(out, "skipped %s: %v\n", identifier, err)
						continue
					}
					if _, err := st.Track(cmd.Context(), info.ID, info.Name, info.DisplayName, mode); err != nil {
						return err
					}
					seedAvatar(cmd.Context(), directory, st, info.ID)
					fmt.Fprintf(out, "Tracking %s (@%s, id %d) with %s notifications\n",
						info.DisplayName, info.Name, info.ID, mode)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&modeFlag, "mode", "silent", "Notification mode: ping or silent")
	return cmd
}

// seedAvatar records the current avatar reference at track time so the
// first metadata sweep diffs instead of seeding. Best effort.
func seedAvatar(ctx context.Context, directory avatarSource, st *store.Store, id int64) {
	url, err := directory.AvatarURL(ctx, id)
	if err != nil || url == "" {
		return
	}
	_ = st.UpdateAvatar(ctx, id, url)
}

type avatarSource interface {
	AvatarURL(ctx context.Context, id int64) (string, error)
}

func newTrackRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <username-or-id>...",
		Short: "Stop tracking one or more users",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			directory, err := ctx.directory()
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				out := cmd.OutOrStdout()
				for _, identifier := range args {
					id, name, err := resolveTracked(cmd.Context(), directory, st, identifier)
					if err != nil {
						fmt.Fprintf(out, "skipped %s: %v\n", identifier, err)
						continue
					}
					if err := st.Untrack(cmd.Context(), id); err != nil {
						fmt.Fprintf(out, "skipped %s: %v\n", identifier, err)
						continue
					}
					fmt.Fprintf(out, "No longer tracking %s (id %d)\n", name, id)
				}
				return nil
			})
		},
	}
}

// resolveTracked maps an identifier to a tracked entity, preferring the
// local store so removal works even when the platform lookup fails.
func resolveTracked(ctx context.Context, directory userLookup, st *store.Store, identifier string) (int64, string, error) {
	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		if entity, err := st.Entity(ctx, id); err == nil {
			return entity.ID, entity.Username, nil
		}
	}
	info, err := directory.LookupUser(ctx, identifier)
	if err != nil {
		return 0, "", err
	}
	return info.ID, info.Name, nil
}

type userLookup interface {
	LookupUser(ctx context.Context, identifier string) (*presence.UserInfo, error)
}

func newTrackListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				entities, err := st.ListAll(cmd.Context())
				if err != nil {
					return err
				}
				if len(entities) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No users are tracked.")
					return nil
				}
				tw := newTableWriter(cmd.OutOrStdout())
				tw.AppendHeader(table.Row{"ID", "Username", "Display", "Status", "Mode", "Priority", "Enabled"})
				for _, entity := range entities {
					tw.AppendRow(table.Row{
						entity.ID,
						entity.Username,
						entity.DisplayName,
						entity.Status.String(),
						entity.NotifyMode.String(),
						yesNo(entity.Priority),
						yesNo(entity.Enabled),
					})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func newTrackPriorityCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "priority <username-or-id>",
		Short: "Toggle a user's fast polling partition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			directory, err := ctx.directory()
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				id, name, err := resolveTracked(cmd.Context(), directory, st, args[0])
				if err != nil {
					return err
				}
				entity, err := st.Entity(cmd.Context(), id)
				if err != nil {
					return err
				}
				if err := st.SetPriority(cmd.Context(), id, !entity.Priority); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Priority polling for %s: %s\n", name, yesNo(!entity.Priority))
				return nil
			})
		},
	}
}

func newTrackModeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mode <username-or-id> <ping|silent>",
		Short: "Set a user's notification mode",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := store.ParseNotifyMode(args[1])
			if err != nil {
				return err
			}
			directory, err := ctx.directory()
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				id, name, err := resolveTracked(cmd.Context(), directory, st, args[0])
				if err != nil {
					return err
				}
				if err := st.SetNotifyMode(cmd.Context(), id, mode); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Notification mode for %s: %s\n", name, mode)
				return nil
			})
		},
	}
}
