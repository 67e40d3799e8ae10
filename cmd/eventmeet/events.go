package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"eventmeet/internal/app"
	"eventmeet/internal/usecase"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Browse your events",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the events you take part in",
	Long: `List the events the primary profile takes part in.

The list is refreshed from connpass when the cache is older than cache.stale_after
or --refresh is given. When connpass cannot be reached the cached events are shown.
With --from/--to only cached events starting in [from, to) are listed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		refresh, _ := cmd.Flags().GetBool("refresh")
		fromStr, _ := cmd.Flags().GetString("from")
		toStr, _ := cmd.Flags().GetString("to")

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			var events []usecase.Event
			var err error

			if fromStr != "" || toStr != "" {
				if fromStr == "" || toStr == "" {
					return fmt.Errorf("--from and --to must be given together")
				}
				from, err := parseDate(fromStr)
				if err != nil {
					return err
				}
				to, err := parseDate(toStr)
				if err != nil {
					return err
				}
				events, err = a.Events().EventsBetween(ctx, from, to)
				if err != nil {
					return err
				}
			} else {
				events, err = a.Events().MyEvents(ctx, refresh)
				if err != nil {
					return err
				}
			}

			printEvents(cmd.OutOrStdout(), events)
			return nil
		})
	},
}

var eventsShowCmd = &cobra.Command{
	Use:   "show <event-id>",
	Short: "Show one event, fetching it when it is not cached",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "event id")
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			e, err := a.Events().Event(ctx, id)
			if err != nil {
				return err
			}
			printEventDetail(cmd.OutOrStdout(), e)
			return nil
		})
	},
}

var eventsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached events (meeting records are kept)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			n, err := a.Events().CacheCount(ctx)
			if err != nil {
				return err
			}
			if err := a.Events().ClearCache(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached events\n", n)
			return nil
		})
	},
}

func init() {
	eventsCmd.AddCommand(eventsListCmd)
	eventsListCmd.Flags().BoolP("refresh", "r", false, "Refresh from connpass even if the cache is fresh")
	eventsListCmd.Flags().String("from", "", "Only cached events starting on or after this date (YYYY-MM-DD)")
	eventsListCmd.Flags().String("to", "", "Only cached events starting before this date (YYYY-MM-DD)")

	eventsCmd.AddCommand(eventsShowCmd)
	eventsCmd.AddCommand(eventsClearCmd)
}
