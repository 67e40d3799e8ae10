package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"eventmeet/internal/app"
	"eventmeet/internal/usecase"
)

var meetCmd = &cobra.Command{
	Use:   "meet",
	Short: "Record the people you meet",
}

var meetRecordCmd = &cobra.Command{
	Use:   "record <event-id> <user-id> <nickname>",
	Short: "Record that you met a user at an event",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID, err := parseID(args[0], "event id")
		if err != nil {
			return err
		}
		userID, err := parseID(args[1], "user id")
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			id, err := a.Meetings().Record(ctx, eventID, userID, args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded meeting %d with %s\n", id, args[2])
			return nil
		})
	},
}

var meetUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace the notes and tags of a meeting record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "meeting record id")
		if err != nil {
			return err
		}
		notes, _ := cmd.Flags().GetString("notes")
		tags, _ := cmd.Flags().GetStringSlice("tag")

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Meetings().Update(ctx, id, notes, tags); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated meeting record %d\n", id)
			return nil
		})
	},
}

var meetDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a meeting record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "meeting record id")
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Meetings().Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted meeting record %d\n", id)
			return nil
		})
	},
}

var meetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List meeting records with their notes and tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID, _ := cmd.Flags().GetInt64("event")

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			var notes []usecase.Note
			var err error
			if eventID > 0 {
				notes, err = a.Meetings().NotesForEvent(ctx, eventID)
			} else {
				notes, err = a.Meetings().Notes(ctx)
			}
			if err != nil {
				return err
			}
			printNotes(cmd.OutOrStdout(), notes)
			return nil
		})
	},
}

var meetPeopleCmd = &cobra.Command{
	Use:   "people",
	Short: "List everyone you met, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			people, err := a.Meetings().PeopleMet(ctx)
			if err != nil {
				return err
			}
			printPeople(cmd.OutOrStdout(), people)
			return nil
		})
	},
}

var meetTagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List all tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			tags, err := a.Meetings().AllTags(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tags) == 0 {
				fmt.Fprintln(out, "No tags.")
			}
			for _, t := range tags {
				fmt.Fprintln(out, t)
			}
			return nil
		})
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Maintain tags",
}

var tagsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete tags no meeting record uses",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			n, err := a.Meetings().PruneTags(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d unused tags\n", n)
			return nil
		})
	},
}

var tagsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a tag and remove it from every meeting record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Meetings().DeleteTag(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted tag %q\n", args[0])
			return nil
		})
	},
}

func init() {
	meetCmd.AddCommand(meetRecordCmd)
	meetCmd.AddCommand(meetUpdateCmd)
	meetUpdateCmd.Flags().String("notes", "", "Notes about the person (empty clears them)")
	meetUpdateCmd.Flags().StringSlice("tag", nil, "Tag to attach; repeat or comma-separate (replaces existing tags)")
	meetCmd.AddCommand(meetDeleteCmd)
	meetCmd.AddCommand(meetListCmd)
	meetListCmd.Flags().Int64("event", 0, "Only records for this event id")
	meetCmd.AddCommand(meetPeopleCmd)
	meetCmd.AddCommand(meetTagsCmd)

	tagsCmd.AddCommand(tagsPruneCmd)
	tagsCmd.AddCommand(tagsDeleteCmd)
}
