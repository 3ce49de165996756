package checkpoint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"pitchdna/internal/records"
)

// Formats accepted by Open.
const (
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
)

// Store persists the working table. Flush overwrites the previous checkpoint
// wholesale and skips the write when the content is unchanged.
type Store interface {
	Flush(ctx context.Context, table *records.Table) error
	Load(ctx context.Context) (*records.Table, bool, error)
	Stats() Stats
	Path() string
	Close() error
}

// Stats counts writes and skipped identical flushes.
type Stats struct {
	Writes  int `json:"writes"`
	Skipped int `json:"skipped"`
}

// Open returns the store for format at path. The CSV store is the default.
func Open(format, path string) (Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("checkpoint path required")
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatCSV:
		return NewCSVStore(path), nil
	case FormatSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown checkpoint format %q", format)
	}
}

// LockPath is the lock file guarding a checkpoint.
func LockPath(checkpointPath string) string {
	return filepath.Clean(checkpointPath) + ".lock"
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
