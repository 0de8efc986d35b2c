package sink

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/nao1215/mailcrawl/internal/model"
)

// DefaultRedisPrefix is prepended to every key written by RedisSink.
const DefaultRedisPrefix = "mailcrawl:"

// RedisSink writes a crawl to Redis under per-domain keys:
//   - <prefix><domain>:emails   SET of addresses
//   - <prefix><domain>:sources  HASH address -> first page it was seen on
//   - <prefix><domain>:visited  LIST of visited URLs of the last crawl
//   - <prefix><domain>:session  HASH with the last crawl's counters
//
// Design decision: Emails and sources accumulate across crawls like the
// CSV file does, while visited and session describe only the most recent
// crawl and are replaced atomically in Finalize.
type RedisSink struct {
	client *goredis.Client
	prefix string

	// ownsClient is true when Close should also close client.
	ownsClient bool
}

// RedisOption configures a RedisSink.
type RedisOption func(*RedisSink)

// WithRedisPrefix sets the key prefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisSink) {
		s.prefix = prefix
	}
}

// NewRedisSink wraps an existing client. Close leaves the client open.
func NewRedisSink(client *goredis.Client, opts ...RedisOption) *RedisSink {
	s := &RedisSink{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DialRedis connects to the Redis server at addr and verifies the
// connection with PING. Close also closes the client.
func DialRedis(ctx context.Context, addr string, opts ...RedisOption) (*RedisSink, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	s := NewRedisSink(client, opts...)
	s.ownsClient = true
	return s, nil
}

// Key returns the full key for a domain and suffix.
func (s *RedisSink) Key(domain, suffix string) string {
	return s.prefix + domain + ":" + suffix
}

// AppendEmail adds the address to the domain's email set and records its
// source page unless one is already known.
func (s *RedisSink) AppendEmail(ctx context.Context, rec model.EmailRecord) error {
	_, err := s.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.SAdd(ctx, s.Key(rec.Domain, "emails"), rec.Email)
		pipe.HSetNX(ctx, s.Key(rec.Domain, "sources"), rec.Email, rec.PageURL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store email in redis: %w", err)
	}
	return nil
}

// Finalize replaces the visited list and session summary in one
// MULTI/EXEC transaction.
func (s *RedisSink) Finalize(ctx context.Context, stats *model.Stats) error {
	visitedKey := s.Key(stats.Domain, "visited")
	sessionKey := s.Key(stats.Domain, "session")

	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, visitedKey, sessionKey)
		if len(stats.Visited) > 0 {
			values := make([]any, len(stats.Visited))
			for i, u := range stats.Visited {
				values[i] = u
			}
			pipe.RPush(ctx, visitedKey, values...)
		}
		pipe.HSet(ctx, sessionKey, map[string]any{
			"id":             stats.SessionID,
			"seed":           stats.Seed,
			"started_at":     stats.StartedAt.UTC().Format(time.RFC3339),
			"finished_at":    stats.FinishedAt.UTC().Format(time.RFC3339),
			"urls_visited":   stats.URLsVisited,
			"emails_found":   stats.EmailsFound,
			"fetch_failures": stats.FetchFailures,
			"interrupted":    stats.Interrupted,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store crawl summary in redis: %w", err)
	}
	return nil
}

// Close closes the client if the sink created it.
func (s *RedisSink) Close() error {
	if !s.ownsClient {
		return nil
	}
	return s.client.Close()
}
