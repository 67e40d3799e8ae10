package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"eventmeet/internal/backup"
	"eventmeet/internal/config"
	"eventmeet/internal/connpass"
	"eventmeet/internal/database"
	"eventmeet/internal/meet"
	"eventmeet/internal/metrics"
	"eventmeet/internal/repository"
	"eventmeet/internal/usecase"
)

// App is the application layer between the CLI and the use case services.
// It constructs all dependencies from config and manages the database and
// log file lifecycle on Close.
type App struct {
	cfg      *config.Config
	store    *database.SQLiteStore
	registry *prometheus.Registry
	clock    meet.Clock
	logger   meet.Logger
	op       *Operation
	logFile  *os.File
	closed   bool

	profiles  *usecase.ProfileService
	events    *usecase.EventService
	meetings  *usecase.MeetingService
	discovery *usecase.DiscoveryService
}

// deps are the collaborators tests replace. Zero values select the real ones.
type deps struct {
	remote meet.RemoteClient
	clock  meet.Clock
	stderr io.Writer
}

// NewApp creates a fully wired App from the given config.
// command identifies the CLI command being run (e.g. "events list").
// The caller must call Close when done.
func NewApp(cfg *config.Config, command string) (*App, error) {
	return newApp(cfg, command, deps{})
}

func newApp(cfg *config.Config, command string, d deps) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if d.clock == nil {
		d.clock = meet.SystemClock{}
	}
	if d.stderr == nil {
		d.stderr = os.Stderr
	}

	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	op := NewOperation(command, d.clock.Now())
	slogger, logFile, err := newLogger(cfg.LogDir, op.ID, level, d.stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	store, err := database.NewStoreFromConfig(cfg.Database, cfg.DeviceID, d.clock)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating database: %w", err)
	}
	if err := store.CheckMigrations(); err != nil {
		store.Close()
		logFile.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	remote := d.remote
	if remote == nil {
		httpClient := &http.Client{Timeout: cfg.Remote.Timeout}
		remote = connpass.NewClient(httpClient, slogger.With("component", "connpass"), cfg.Remote.BaseURL, cfg.APIKey)
	}
	remote = newPacedRemote(remote, cfg.Remote.MinInterval)

	registry := prometheus.NewRegistry()
	collector := metrics.NewPromCollector(registry)

	profileRepo := repository.NewProfileRepository(store)
	eventRepo := repository.NewEventRepository(store, remote, d.clock, logger, collector, cfg.Cache.StaleAfter)
	meetingRepo := repository.NewMeetingRecordRepository(store, d.clock, logger, collector)
	searchRepo := repository.NewUserSearchRepository(remote, d.clock, logger, collector)

	logger.Info("operation started", "command", command, "database", store.Path())

	return &App{
		cfg:       cfg,
		store:     store,
		registry:  registry,
		clock:     d.clock,
		logger:    logger,
		op:        op,
		logFile:   logFile,
		profiles:  usecase.NewProfileService(profileRepo, d.clock, logger),
		events:    usecase.NewEventService(eventRepo, profileRepo, logger),
		meetings:  usecase.NewMeetingService(meetingRepo, logger),
		discovery: usecase.NewDiscoveryService(searchRepo, profileRepo, logger),
	}, nil
}

func (a *App) Profiles() *usecase.ProfileService    { return a.profiles }
func (a *App) Events() *usecase.EventService        { return a.events }
func (a *App) Meetings() *usecase.MeetingService    { return a.meetings }
func (a *App) Discovery() *usecase.DiscoveryService { return a.discovery }

// Backups creates the backup service for the configured vault.
func (a *App) Backups(ctx context.Context) (*backup.Service, error) {
	vault, err := backup.NewVaultFromConfig(ctx, a.cfg.Backup)
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}
	if err := vault.ValidateSetup(ctx); err != nil {
		return nil, fmt.Errorf("vault not ready: %w", err)
	}
	return backup.NewService(a.store, vault, a.cfg.DeviceID, a.clock, a.logger), nil
}

// DefaultRestorePath is where a snapshot is restored when no target is given:
// <base_dir>/restore/<snapshot name without .age>.
func (a *App) DefaultRestorePath(name string) string {
	return filepath.Join(Paths{BaseDir: a.cfg.BaseDir}.RestoreDir(), strings.TrimSuffix(name, ".age"))
}

// Fail marks the running operation as failed; Close logs the outcome.
func (a *App) Fail(err error) {
	a.op.Fail()
	a.logger.Info("operation failed", "command", a.op.Command, "error", err)
}

// WriteMetrics writes the metrics gathered during this run to a textfile
// collector file.
func (a *App) WriteMetrics(path string) error {
	return metrics.WriteTextfile(path, a.registry)
}

// Close closes the database and the log file. Closing twice is a no-op.
func (a *App) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	var firstErr error

	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	a.logger.Info("operation finished",
		"command", a.op.Command,
		"status", a.op.Status,
		"elapsed", a.op.Elapsed(a.clock.Now()),
	)

	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
