package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"eventmeet/internal/app"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Find people on connpass",
}

var usersSearchCmd = &cobra.Command{
	Use:   "search <nickname>",
	Short: "Search users by partial nickname",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			users, err := a.Discovery().SearchUsers(ctx, args[0])
			if err != nil {
				return err
			}
			printUsers(cmd.OutOrStdout(), users)
			return nil
		})
	},
}

var usersEventsCmd = &cobra.Command{
	Use:   "events <nickname>",
	Short: "List the events a user takes part in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			events, err := a.Discovery().UserEvents(ctx, args[0])
			if err != nil {
				return err
			}
			printEvents(cmd.OutOrStdout(), events)
			return nil
		})
	},
}

var usersCommonCmd = &cobra.Command{
	Use:   "common <nickname> <nickname>",
	Short: "List the events two users both take part in",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			events, err := a.Discovery().CommonEvents(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			printEvents(cmd.OutOrStdout(), events)
			return nil
		})
	},
}

var usersDetailCmd = &cobra.Command{
	Use:   "detail <nickname>",
	Short: "Show a user, their events and the events you share",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			d, err := a.Discovery().UserDetail(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", d.User.Nickname, d.User.DisplayName)
			fmt.Fprintf(out, "  ID:      %d\n", d.User.ID)
			fmt.Fprintf(out, "  Profile: %s\n", d.User.ProfileURL)
			if desc := describe(d.User.Description); desc != "" {
				fmt.Fprintf(out, "\n%s\n", desc)
			}

			fmt.Fprintf(out, "\nEvents (%d):\n", len(d.Events))
			printEvents(out, d.Events)
			fmt.Fprintf(out, "\nShared with you (%d):\n", len(d.CommonEvents))
			printEvents(out, d.CommonEvents)
			return nil
		})
	},
}

func init() {
	usersCmd.AddCommand(usersSearchCmd)
	usersCmd.AddCommand(usersEventsCmd)
	usersCmd.AddCommand(usersCommonCmd)
	usersCmd.AddCommand(usersDetailCmd)
}
