package mediastore

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/alex-berlin-tv/rafo/internal/config"
	"github.com/alex-berlin-tv/rafo/internal/services"
)

// Store moves media files between the work directory and durable storage and
// hands out URLs the publishing platform can fetch from.
type Store interface {
	// Fetch copies the object at key to the local file dst.
	Fetch(ctx context.Context, key, dst string) error
	// Put uploads the local file src under key.
	Put(ctx context.Context, key, src string) error
	// URL returns a publicly reachable URL for key.
	URL(ctx context.Context, key string) (string, error)
	// Exists reports whether key is stored.
	Exists(ctx context.Context, key string) (bool, error)
}

// New selects the backend configured in cfg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "mediastore", "init", "configuration unavailable", nil)
	}
	switch cfg.Storage.Backend {
	case config.StorageMinIO:
		return NewMinIO(ctx, cfg.Storage.MinIO, cfg.URLExpiry(), logger)
	case config.StorageLocal, "":
		return NewLocal(cfg.Storage.LocalDir, cfg.Paths.PublicURL)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "mediastore", "init", fmt.Sprintf("unknown backend %q", cfg.Storage.Backend), nil)
	}
}

// CleanKey validates a storage key and returns it in canonical slash form.
// Keys are relative and may not escape the store root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if key == "" {
		return "", services.Wrap(services.ErrNotFound, "mediastore", "key", "empty key", nil)
	}
	cleaned := path.Clean("/" + key)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." || strings.HasPrefix(cleaned, "..") {
		return "", services.Wrap(services.ErrNotFound, "mediastore", "key", fmt.Sprintf("invalid key %q", key), nil)
	}
	return cleaned, nil
}

// ContentType guesses the MIME type of a key from its extension.
func ContentType(key string) string {
	ext := strings.ToLower(filepath.Ext(key))
	switch ext {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".png":
		return "image/png"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
