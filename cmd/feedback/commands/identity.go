package commands

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"feedbackboard/internal/config"
	contextutils "feedbackboard/internal/utils"

	"github.com/google/uuid"
)

const identityPrefix = "anon-"

// ResolveUserID returns the configured user ID, or the one stored in the
// identity file, creating the file with a fresh random ID on first use.
func ResolveUserID(cfg *config.ClientConfig) (string, error) {
	if id := strings.TrimSpace(cfg.UserID); id != "" {
		return id, nil
	}

	path, err := identityPath(cfg)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return "", contextutils.WrapErrorf(err, "failed to read identity file %s", path)
	}

	id := identityPrefix + uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", contextutils.WrapErrorf(err, "failed to create identity directory for %s", path)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", contextutils.WrapErrorf(err, "failed to write identity file %s", path)
	}
	return id, nil
}

func identityPath(cfg *config.ClientConfig) (string, error) {
	if cfg.IdentityFile != "" {
		return cfg.IdentityFile, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", contextutils.WrapError(err, "no identity file configured and no user config directory")
	}
	return filepath.Join(dir, "feedbackboard", "identity"), nil
}
