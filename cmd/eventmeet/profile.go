package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"eventmeet/internal/app"
	"eventmeet/internal/model"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your own profile",
}

var profileRegisterCmd = &cobra.Command{
	Use:   "register <external-id> <nickname>",
	Short: "Register a profile; the most recently updated one is used as you",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			p, err := a.Profiles().Register(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered profile %d (%s)\n", p.ID, p.Nickname)
			return nil
		})
	},
}

var profileRenameCmd = &cobra.Command{
	Use:   "rename <id> <nickname>",
	Short: "Change a profile's nickname",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "profile id")
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			p, err := a.Profiles().Rename(ctx, id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile %d is now %s\n", p.ID, p.Nickname)
			return nil
		})
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the registered profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			out := cmd.OutOrStdout()

			primary, err := a.Profiles().Primary(ctx)
			if errors.Is(err, model.ErrNotFound) {
				fmt.Fprintln(out, "No profile registered. Run `eventmeet profile register`.")
				return nil
			}
			if err != nil {
				return err
			}

			profiles, err := a.Profiles().List(ctx)
			if err != nil {
				return err
			}
			tw := newTable(out)
			fmt.Fprintln(tw, "\tID\tEXTERNAL ID\tNICKNAME\tUPDATED")
			for _, p := range profiles {
				marker := ""
				if p.ID == primary.ID {
					marker = "*"
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", marker, p.ID, p.ExternalID, p.Nickname, p.UpdatedAt.Local().Format(timeLayout))
			}
			return tw.Flush()
		})
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "profile id")
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Profiles().Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile %d\n", id)
			return nil
		})
	},
}

func init() {
	profileCmd.AddCommand(profileRegisterCmd)
	profileCmd.AddCommand(profileRenameCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileDeleteCmd)
}
