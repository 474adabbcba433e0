package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvDryRun names the diagnostic toggle. Only the literal value "1" enables it.
const EnvDryRun = "DRY_RUN"

// envFiles are loaded in order; variables already in the environment win.
var envFiles = []string{".env", ".env.local"}

// LoadEnvFiles loads .env style files from dir without overriding variables
// that are already set. Missing files are skipped.
func LoadEnvFiles(dir string) error {
	for _, name := range envFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return err
		}
		slog.Debug("Loaded environment file", slog.String("path", path))
	}
	return nil
}

// ApplyEnv reads the environment toggles into c. It runs once per build so
// the rest of the pipeline never consults the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	c.DryRun = getenv(EnvDryRun) == "1"
}
