package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"eventmeet/internal/meet"
	"eventmeet/internal/model"
)

const snapshotSuffix = ".db.age"

// Snapshotter writes a consistent copy of the database to a path.
type Snapshotter interface {
	BackupTo(ctx context.Context, destPath string) error
}

// Service creates, lists and restores encrypted database snapshots.
type Service struct {
	db         Snapshotter
	vault      Vault
	deviceID   string
	clock      meet.Clock
	logger     meet.Logger
	workFactor int
}

// NewService creates a backup Service. Snapshots are named after deviceID.
func NewService(db Snapshotter, vault Vault, deviceID string, clock meet.Clock, logger meet.Logger) *Service {
	return &Service{
		db:       db,
		vault:    vault,
		deviceID: deviceID,
		clock:    clock,
		logger:   logger.With("component", "backup"),
	}
}

// WithWorkFactor sets the scrypt work factor (log2 of N) used for new snapshots.
func (s *Service) WithWorkFactor(logN int) *Service {
	s.workFactor = logN
	return s
}

// Backup snapshots the database, encrypts it with passphrase and stores it in the
// vault. It returns the snapshot name.
func (s *Service) Backup(ctx context.Context, passphrase string) (string, error) {
	if passphrase == "" {
		return "", model.NewValidationError("passphrase", "must not be empty")
	}

	tmpDir, err := os.MkdirTemp("", "eventmeet-backup-*")
	if err != nil {
		return "", fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	plainPath := filepath.Join(tmpDir, "snapshot.db")
	if err := s.db.BackupTo(ctx, plainPath); err != nil {
		return "", err
	}

	encPath := filepath.Join(tmpDir, "snapshot.db.age")
	size, err := s.encryptFile(plainPath, encPath, passphrase)
	if err != nil {
		return "", err
	}

	f, err := os.Open(encPath)
	if err != nil {
		return "", fmt.Errorf("opening encrypted snapshot: %w", err)
	}
	defer f.Close()

	name := s.snapshotName()
	if err := s.vault.Put(ctx, name, f, size); err != nil {
		return "", fmt.Errorf("storing snapshot: %w", err)
	}

	s.logger.Info("created backup", "snapshot", name, "bytes", size)
	return name, nil
}

func (s *Service) encryptFile(src, dst, passphrase string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("opening snapshot: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return 0, fmt.Errorf("creating encrypted snapshot: %w", err)
	}
	defer out.Close()

	w, err := encrypt(out, passphrase, s.workFactor)
	if err != nil {
		return 0, err
	}
	if _, err := io.Copy(w, in); err != nil {
		return 0, fmt.Errorf("encrypting snapshot: %w", err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("finalizing encryption: %w", err)
	}

	info, err := out.Stat()
	if err != nil {
		return 0, fmt.Errorf("sizing encrypted snapshot: %w", err)
	}
	return info.Size(), nil
}

// snapshotName is <deviceID>-<UTC timestamp>.db.age; names sort by time per device.
func (s *Service) snapshotName() string {
	return s.deviceID + "-" + s.clock.Now().UTC().Format("20060102T150405.000Z") + snapshotSuffix
}

// List returns the snapshot names in the vault, oldest first.
func (s *Service) List(ctx context.Context) ([]string, error) {
	names, err := s.vault.List(ctx)
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if strings.HasSuffix(n, snapshotSuffix) {
			out = append(out, n)
		}
	}
	return out, nil
}

// Restore decrypts snapshot name into a new database file at destPath. It never
// overwrites an existing file, so a live database cannot be clobbered.
func (s *Service) Restore(ctx context.Context, name, passphrase, destPath string) error {
	if passphrase == "" {
		return model.NewValidationError("passphrase", "must not be empty")
	}
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("restore target %s: %w", destPath, model.ErrDuplicate)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0700); err != nil {
		return fmt.Errorf("creating restore directory: %w", err)
	}

	encFile, err := os.CreateTemp(filepath.Dir(destPath), ".restore-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	encPath := encFile.Name()
	defer os.Remove(encPath)

	if err := s.vault.Get(ctx, name, encFile); err != nil {
		encFile.Close()
		return err
	}
	if _, err := encFile.Seek(0, io.SeekStart); err != nil {
		encFile.Close()
		return fmt.Errorf("rewinding snapshot: %w", err)
	}
	defer encFile.Close()

	plain, err := decrypt(encFile, passphrase)
	if err != nil {
		return err
	}

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating restored database: %w", err)
	}
	if _, err := io.Copy(out, plain); err != nil {
		out.Close()
		os.Remove(destPath)
		return fmt.Errorf("decrypting snapshot: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("closing restored database: %w", err)
	}

	s.logger.Info("restored backup", "snapshot", name, "path", destPath)
	return nil
}
