package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	searchCachePrefix = "catalog:search:"
	searchCacheTTL    = 10 * time.Minute
)

// Service fronts a Searcher with a Redis result cache. A nil Rdb disables caching.
type Service struct {
	Searcher Searcher
	Rdb      *redis.Client
}

// Search returns catalog tracks for query, serving repeated queries from Redis.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if s.Searcher == nil {
		return nil, ErrNotConfigured
	}
	key := cacheKey(query, limit)
	if s.Rdb != nil {
		if b, err := s.Rdb.Get(ctx, key).Bytes(); err == nil {
			var cached []Track
			if json.Unmarshal(b, &cached) == nil {
				return cached, nil
			}
		}
	}

	tracks, err := s.Searcher.SearchTracks(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if s.Rdb != nil {
		b, _ := json.Marshal(tracks)
		if err := s.Rdb.Set(ctx, key, b, searchCacheTTL).Err(); err != nil {
			log.Warn().Err(err).Msg("catalog: failed to cache search")
		}
	}
	return tracks, nil
}

func cacheKey(query string, limit int) string {
	sum := sha256.Sum256([]byte(strings.ToLower(query) + "|" + strconv.Itoa(limit)))
	return searchCachePrefix + hex.EncodeToString(sum[:8])
}
