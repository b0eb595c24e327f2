// Package sqlitepath locates the run history SQLite database.
package sqlitepath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const dbFile = "siamese.db"

// ResolveSQLitePath returns override when set, then SIAMESE_SQLITE or
// SIAMESE_DB, then the first existing candidate database.
func ResolveSQLitePath(override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if envPath := strings.TrimSpace(os.Getenv("SIAMESE_SQLITE")); envPath != "" {
		return envPath, nil
	}
	if envPath := strings.TrimSpace(os.Getenv("SIAMESE_DB")); envPath != "" {
		return envPath, nil
	}

	for _, candidate := range sqliteCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", errors.New("could not find siamese SQLite database; pass --sqlite")
}

// ResolveOrCreate is ResolveSQLitePath falling back to dir/siamese.db, creating
// dir when needed.
func ResolveOrCreate(override, dir string) (string, error) {
	path, err := ResolveSQLitePath(override)
	if err == nil {
		return path, nil
	}

	if dir == "" {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", fmt.Errorf("resolving home directory: %w", herr)
		}
		dir = filepath.Join(home, ".siamese")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	return filepath.Join(dir, dbFile), nil
}

func sqliteCandidates() []string {
	candidates := []string{
		dbFile,
		filepath.Join(".siamese", dbFile),
	}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append([]string{
			filepath.Join(home, ".siamese", dbFile),
		}, candidates...)
	}

	if xdgHome := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdgHome != "" {
		candidates = append([]string{
			filepath.Join(xdgHome, "siamese", dbFile),
		}, candidates...)
	}

	return candidates
}
