package store

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/kapu/llm-chess-arena/internal/rules"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewWithClient(rdb, time.Hour)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec := Record{
		SessionID:  "abc",
		WhiteModel: "gpt-4o",
		BlackModel: "o3-mini",
		Snapshot:   rules.Snapshot{FEN: "fen", Ply: 4, Turn: rules.White, HistorySAN: []string{"e4", "e5"}},
		MovesUCI:   []string{"e2e4", "e7e5"},
		Fallbacks:  1,
		UpdatedAt:  time.Now(),
	}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(ctx, "abc")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || got.Snapshot.Ply != 4 || got.BlackModel != "o3-mini" || len(got.MovesUCI) != 2 {
		t.Fatalf("loaded record = %+v", got)
	}
}

func TestLoadAbsentReturnsNil(t *testing.T) {
	s, _ := newTestStore(t)
	got, err := s.Load(context.Background(), "missing")
	if err != nil || got != nil {
		t.Fatalf("Load(missing) = %+v, %v", got, err)
	}
}

func TestSaveSetsTTL(t *testing.T) {
	s, mr := newTestStore(t)
	if err := s.Save(context.Background(), Record{SessionID: "ttl-check"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ttl := mr.TTL(sessionKey("ttl-check")); ttl != time.Hour {
		t.Fatalf("ttl = %v, want 1h", ttl)
	}
}

func TestDelete(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, Record{SessionID: "gone"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := s.Load(ctx, "gone"); got != nil {
		t.Fatalf("record survived delete: %+v", got)
	}
	// deleting again is fine
	if err := s.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}
}

func TestParseRedisURL(t *testing.T) {
	opts, err := parseRedisURL("redis://:secret@localhost:6379/2")
	if err != nil {
		t.Fatalf("parseRedisURL: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.Password != "secret" || opts.DB != 2 {
		t.Fatalf("opts = %+v", opts)
	}
	if _, err := parseRedisURL("http://nope"); err == nil {
		t.Fatalf("expected scheme error")
	}
}
