package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"eventmeet/internal/app"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Encrypted backups of the local database",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Snapshot, encrypt and store the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, err := readPassphrase(cmd, true)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			svc, err := a.Backups(ctx)
			if err != nil {
				return err
			}
			name, err := svc.Backup(ctx, passphrase)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created backup %s\n", name)
			return nil
		})
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored backups, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			svc, err := a.Backups(ctx)
			if err != nil {
				return err
			}
			names, err := svc.List(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, "No backups.")
			}
			for _, n := range names {
				fmt.Fprintln(out, n)
			}
			return nil
		})
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <name>",
	Short: "Decrypt a backup into a new database file",
	Long: `Decrypt a backup into a new database file.

The live database is never overwritten. Stop eventmeet and move the restored
file over <data_dir>/<device_id>.db to switch to it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		passphrase, err := readPassphrase(cmd, false)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			svc, err := a.Backups(ctx)
			if err != nil {
				return err
			}
			dest := output
			if dest == "" {
				dest = a.DefaultRestorePath(args[0])
			}
			if err := svc.Restore(ctx, args[0], passphrase, dest); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s to %s\n", args[0], dest)
			return nil
		})
	},
}

func init() {
	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupRestoreCmd.Flags().StringP("output", "o", "", "Path of the restored database (default <base_dir>/restore/<name>)")
}
