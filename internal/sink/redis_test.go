package sink

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/nao1215/mailcrawl/internal/model"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisSink_AppendEmail(t *testing.T) {
	t.Parallel()

	mr, client := newTestRedis(t)
	s := NewRedisSink(client)
	ctx := context.Background()

	recs := []model.EmailRecord{
		{Domain: "example.com", Email: "a@example.com", PageURL: "https://example.com/"},
		{Domain: "example.com", Email: "a@example.com", PageURL: "https://example.com/other"},
		{Domain: "example.com", Email: "b@example.com", PageURL: "https://example.com/b"},
	}
	for _, rec := range recs {
		if err := s.AppendEmail(ctx, rec); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
	}

	members, err := mr.Members("mailcrawl:example.com:emails")
	if err != nil {
		t.Fatalf("failed to read set: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("expected 2 members, got %v", members)
	}

	if got := mr.HGet("mailcrawl:example.com:sources", "a@example.com"); got != "https://example.com/" {
		t.Errorf("expected first source to be kept, got %q", got)
	}
}

func TestRedisSink_Finalize(t *testing.T) {
	t.Parallel()

	mr, client := newTestRedis(t)
	s := NewRedisSink(client, WithRedisPrefix("test:"))
	ctx := context.Background()

	stats := &model.Stats{
		SessionID:   "s1",
		Seed:        "https://example.com/",
		Domain:      "example.com",
		URLsVisited: 2,
		EmailsFound: 1,
		StartedAt:   time.Now(),
		FinishedAt:  time.Now(),
		Visited:     []string{"https://example.com/", "https://example.com/a"},
	}
	if err := s.Finalize(ctx, stats); err != nil {
		t.Fatalf("failed to finalize: %v", err)
	}

	// A second crawl replaces the list rather than appending.
	stats.Visited = []string{"https://example.com/"}
	stats.URLsVisited = 1
	if err := s.Finalize(ctx, stats); err != nil {
		t.Fatalf("failed to finalize again: %v", err)
	}

	list, err := mr.List("test:example.com:visited")
	if err != nil {
		t.Fatalf("failed to read list: %v", err)
	}
	if len(list) != 1 || list[0] != "https://example.com/" {
		t.Errorf("unexpected visited list: %v", list)
	}

	if got := mr.HGet("test:example.com:session", "urls_visited"); got != "1" {
		t.Errorf("expected urls_visited 1, got %q", got)
	}
	if got := mr.HGet("test:example.com:session", "id"); got != "s1" {
		t.Errorf("expected session id, got %q", got)
	}
}

func TestRedisSink_Finalize_NoVisited(t *testing.T) {
	t.Parallel()

	mr, client := newTestRedis(t)
	s := NewRedisSink(client)

	if err := s.Finalize(context.Background(), &model.Stats{Domain: "example.com"}); err != nil {
		t.Fatalf("failed to finalize: %v", err)
	}
	if mr.Exists("mailcrawl:example.com:visited") {
		t.Error("expected no visited key for an empty crawl")
	}
}

func TestDialRedis(t *testing.T) {
	t.Parallel()

	t.Run("connects and closes", func(t *testing.T) {
		t.Parallel()

		mr := miniredis.RunT(t)
		s, err := DialRedis(context.Background(), mr.Addr())
		if err != nil {
			t.Fatalf("failed to dial: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Errorf("failed to close: %v", err)
		}
	})

	t.Run("unreachable server", func(t *testing.T) {
		t.Parallel()

		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		if _, err := DialRedis(context.Background(), addr); err == nil {
			t.Error("expected error for unreachable server")
		}
	})

	t.Run("server error surfaces on append", func(t *testing.T) {
		t.Parallel()

		mr, client := newTestRedis(t)
		s := NewRedisSink(client)
		mr.SetError("READONLY")

		err := s.AppendEmail(context.Background(), model.EmailRecord{Domain: "example.com", Email: "a@example.com"})
		if err == nil {
			t.Error("expected error when redis fails")
		}
	})
}
