package platformcache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/alex-berlin-tv/rafo/internal/logging"
	"github.com/alex-berlin-tv/rafo/internal/omnia"
)

const keyPrefix = "rafo:omnia:show:"

// KV is the key-value backend behind the cache.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// ShowSource loads shows from the platform.
type ShowSource interface {
	ShowByID(ctx context.Context, id int) (omnia.Show, error)
}

// Shows caches platform show lookups. Cache failures degrade to direct
// lookups and never fail a request on their own.
type Shows struct {
	source ShowSource
	kv     KV
	ttl    time.Duration
	logger *slog.Logger
}

// NewShows wraps source with kv. A nil kv disables caching.
func NewShows(source ShowSource, kv KV, ttl time.Duration, logger *slog.Logger) *Shows {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Shows{source: source, kv: kv, ttl: ttl, logger: logging.NewComponentLogger(logger, "platform-cache")}
}

type cachedShow struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ShowByID returns the show, consulting the cache first.
func (s *Shows) ShowByID(ctx context.Context, id int) (omnia.Show, error) {
	logger := logging.WithContext(ctx, s.logger)
	key := fmt.Sprintf("%s%d", keyPrefix, id)

	if s.kv != nil {
		raw, ok, err := s.kv.Get(ctx, key)
		switch {
		case err != nil:
			logging.WarnWithContext(logger, "show cache read failed", "cache_read_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "show is loaded from the platform"),
			)
		case ok:
			var cached cachedShow
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return omnia.Show(cached), nil
			}
		}
	}

	show, err := s.source.ShowByID(ctx, id)
	if err != nil {
		return omnia.Show{}, err
	}
	if s.kv != nil {
		data, _ := json.Marshal(cachedShow(show))
		if err := s.kv.Set(ctx, key, string(data), s.ttl); err != nil {
			logging.WarnWithContext(logger, "show cache write failed", "cache_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "next lookup hits the platform again"),
			)
		}
	}
	return show, nil
}
