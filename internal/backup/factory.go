package backup

import (
	"context"
	"fmt"

	"eventmeet/internal/config"
)

// NewVaultFromConfig creates the Vault selected by cfg.Type.
func NewVaultFromConfig(ctx context.Context, cfg config.BackupConfig) (Vault, error) {
	switch cfg.Type {
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem vault requires fs_root")
		}
		return NewFileSystemVault(cfg.FSRoot)
	case "s3":
		return NewS3Vault(ctx, S3Options{
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		})
	case "memory":
		return NewMemoryVault(), nil
	case "":
		return nil, fmt.Errorf("backups are not configured")
	default:
		return nil, fmt.Errorf("unknown backup type: %q", cfg.Type)
	}
}
