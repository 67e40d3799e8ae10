package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"eventmeet/internal/app"
	"eventmeet/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

var metricsTextfile string

var rootCmd = &cobra.Command{
	Use:          "eventmeet",
	Short:        "Keep track of the people you meet at events",
	SilenceUsage: true,
}

// loadConfig reads the config file from its default location.
func loadConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, "", fmt.Errorf("reading config (run `eventmeet config init` first): %w", err)
	}
	return cfg, defaults.ConfigPath, nil
}

// withApp reads the config, creates an App for command and runs fn with it.
// A failure is recorded in the operation log, and metrics are written to
// --metrics-textfile when set.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := app.NewApp(cfg, cmd.CommandPath())
	if err != nil {
		return fmt.Errorf("initializing app: %w", err)
	}
	defer a.Close()

	runErr := fn(cmd.Context(), a)
	if runErr != nil {
		a.Fail(runErr)
	}

	if metricsTextfile != "" {
		if err := a.WriteMetrics(metricsTextfile); err != nil && runErr == nil {
			runErr = fmt.Errorf("writing metrics: %w", err)
		}
	}
	return runErr
}

func init() {
	rootCmd.PersistentFlags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write prometheus metrics to this file on exit")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(meetCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(backupCmd)
}
