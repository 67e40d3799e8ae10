// Package backup snapshots the local database, encrypts it with a passphrase and
// keeps the snapshots in a vault.
package backup

import (
	"context"
	"fmt"
	"io"
	"strings"

	"eventmeet/internal/model"
)

// Vault stores opaque snapshot objects by name.
type Vault interface {
	// Put stores size bytes read from r under name, replacing any existing object.
	Put(ctx context.Context, name string, r io.Reader, size int64) error

	// Get writes the object called name to w. A missing object is model.ErrNotFound.
	Get(ctx context.Context, name string, w io.Writer) error

	// List returns the names of all stored objects in lexical order.
	List(ctx context.Context) ([]string, error)

	// ValidateSetup checks the vault is reachable and writable.
	ValidateSetup(ctx context.Context) error
}

// validateName rejects names that could escape the vault's namespace.
func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return model.NewValidationError("name", fmt.Sprintf("invalid snapshot name %q", name))
	}
	return nil
}

func notFound(name string) error {
	return fmt.Errorf("snapshot %q: %w", name, model.ErrNotFound)
}
