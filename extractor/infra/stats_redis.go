package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"autocomplete-extractor/extractor/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStats persiste contadores da extração em Redis, para acompanhar uma
// execução longa de fora do processo.
type RedisStats struct {
	rdb *redis.Client

	prefix string
	// ttl aplica apenas em chaves de série temporal / por prefixo.
	// total é cumulativo e não expira.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"

	trackPrefixes bool
}

type RedisStatsOption func(*RedisStats)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStats) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStats) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStats) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackPrefixes(track bool) RedisStatsOption {
	return func(s *RedisStats) { s.trackPrefixes = track }
}

func NewRedisStats(rdb *redis.Client, opts ...RedisStatsOption) *RedisStats {
	s := &RedisStats{
		rdb:    rdb,
		prefix: "extractor:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record implementa domain.StatsStore.
func (s *RedisStats) Record(ctx context.Context, ev domain.FetchEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	field := ev.Kind.String()

	totalKey := s.prefix + ":total"

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, totalKey, field, 1)
	if ev.NewNames > 0 {
		pipe.HIncrBy(ctx, totalKey, "names", int64(ev.NewNames))
	}

	if ev.Version != "" {
		versionKey := s.prefix + ":version:" + string(ev.Version)
		pipe.HIncrBy(ctx, versionKey, field, 1)
		if ev.NewNames > 0 {
			pipe.HIncrBy(ctx, versionKey, "names", int64(ev.NewNames))
		}
	}

	if s.bucket == "minute" {
		bucketKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
		pipe.HIncrBy(ctx, bucketKey, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, bucketKey, s.ttl)
		}
	}

	if s.trackPrefixes {
		p := strings.TrimSpace(ev.Prefix)
		if p != "" {
			prefixKey := s.prefix + ":prefix:" + string(ev.Version) + ":" + p
			pipe.HIncrBy(ctx, prefixKey, field, 1)
			if s.ttl > 0 {
				pipe.Expire(ctx, prefixKey, s.ttl)
			}
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}
