package reference

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	platformredis "github.com/brighthive/master-client-index/internal/platform/redis"
)

// CachedStore is a read-through Redis cache in front of a reference Store.
// Vocabularies are small and nearly static, so a short TTL keeps every
// resolution from paying a Postgres round trip per field. Cache failures
// fall through to the backing store; only successful lookups are cached.
type CachedStore struct {
	next   Store
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedStore wraps next with a Redis cache. The caller guarantees
// client is non-nil; wire the bare store when Redis is not configured.
func NewCachedStore(next Store, client *platformredis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{next: next, client: client, ttl: ttl, logger: logger}
}

func (s *CachedStore) LookupLabel(ctx context.Context, category Category, label string) (int64, error) {
	key := fmt.Sprintf("mci:ref:%s:label:%s", category, strings.ToLower(label))

	if cached, err := s.client.Get(ctx, key).Result(); err == nil {
		if id, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
			return id, nil
		}
	}

	id, err := s.next.LookupLabel(ctx, category, label)
	if err != nil {
		return 0, err
	}

	if err := s.client.Set(ctx, key, strconv.FormatInt(id, 10), s.ttl).Err(); err != nil {
		s.logger.Debug("reference cache set failed", "key", key, "error", err.Error())
	}
	return id, nil
}

func (s *CachedStore) LabelByID(ctx context.Context, category Category, id int64) (string, error) {
	key := fmt.Sprintf("mci:ref:%s:id:%d", category, id)

	if cached, err := s.client.Get(ctx, key).Result(); err == nil && cached != "" {
		return cached, nil
	}

	label, err := s.next.LabelByID(ctx, category, id)
	if err != nil {
		return "", err
	}

	if err := s.client.Set(ctx, key, label, s.ttl).Err(); err != nil {
		s.logger.Debug("reference cache set failed", "key", key, "error", err.Error())
	}
	return label, nil
}
