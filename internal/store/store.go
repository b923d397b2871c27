// Package store persists session snapshots in redis so a browser reload can
// re-attach to a running game.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kapu/llm-chess-arena/internal/rules"
)

const defaultTTL = 24 * time.Hour

// Record is the persisted view of one session: enough to re-render the board
// and re-attach the client, not the full in-memory session state.
type Record struct {
	SessionID  string         `json:"session_id"`
	WhiteModel string         `json:"white_model"`
	BlackModel string         `json:"black_model"`
	Snapshot   rules.Snapshot `json:"snapshot"`
	MovesUCI   []string       `json:"moves_uci"`
	Fallbacks  int            `json:"fallbacks"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Store is the redis-backed snapshot store. Records expire after the TTL so
// abandoned games clean themselves up.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// Open connects to redis and verifies the connection.
func Open(ctx context.Context, redisURL string, ttl time.Duration) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("redis url required")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewWithClient(rdb, ttl), nil
}

// NewWithClient wraps an existing client; used by tests with miniredis.
func NewWithClient(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// Save writes the record under its session id, refreshing the TTL.
func (s *Store) Save(ctx context.Context, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(rec.SessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", rec.SessionID, err)
	}
	return nil
}

// Load returns the record for a session id, or nil when absent or expired.
func (s *Store) Load(ctx context.Context, sessionID string) (*Record, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &rec, nil
}

// Delete removes the record; deleting an absent record is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, sessionKey(sessionID)).Err()
}

func sessionKey(id string) string { return "arena:session:" + strings.TrimSpace(id) }

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
