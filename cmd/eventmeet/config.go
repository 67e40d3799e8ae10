package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"eventmeet/internal/app"
	"eventmeet/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		deviceID := uuid.New().String()
		cfg := config.NewConfig(deviceID, defaults.BaseDir)

		apiKey, err := readSecret(cmd, "connpass API key (leave empty to set EVENTMEET_API_KEY later): ")
		if err != nil {
			return err
		}
		cfg.APIKey = strings.TrimSpace(apiKey)

		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Fprintf(out, "Device ID: %s\n", deviceID)
		fmt.Fprintf(out, "Base Dir:  %s\n", defaults.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration from %s:\n\n", path)
		fmt.Fprintf(out, "Device ID:    %s\n", cfg.DeviceID)
		fmt.Fprintf(out, "Base Dir:     %s\n", cfg.BaseDir)
		fmt.Fprintf(out, "Log Dir:      %s\n", cfg.LogDir)
		fmt.Fprintf(out, "Log Level:    %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "API Key:      %s\n", maskSecret(cfg.APIKey))
		fmt.Fprintf(out, "API URL:      %s\n", cfg.Remote.BaseURL)
		fmt.Fprintf(out, "Min Interval: %s\n", cfg.Remote.MinInterval)
		fmt.Fprintf(out, "Stale After:  %s\n", cfg.Cache.StaleAfter)
		fmt.Fprintf(out, "Database:     %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Fprintf(out, "Backups:      %s\n", describeBackup(cfg.Backup))
		return nil
	},
}

func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

func describeBackup(b config.BackupConfig) string {
	switch b.Type {
	case "filesystem":
		return "filesystem " + b.FSRoot
	case "s3":
		return fmt.Sprintf("s3://%s/%s", b.S3Bucket, b.S3Prefix)
	case "":
		return "(disabled)"
	default:
		return b.Type
	}
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
}
