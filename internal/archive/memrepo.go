package archive

import (
	"context"
	"sync"
)

// MemRepository is the in-memory archive used in development and tests when
// no database is configured.
type MemRepository struct {
	mu    sync.Mutex
	games []ArenaGame
	seen  map[string]bool
}

func NewMemRepository() *MemRepository {
	return &MemRepository{seen: make(map[string]bool)}
}

func (r *MemRepository) Save(_ context.Context, g ArenaGame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[g.GameID] {
		return ErrDuplicateGame
	}
	r.seen[g.GameID] = true
	r.games = append(r.games, g)
	return nil
}

func (r *MemRepository) Recent(_ context.Context, limit int) ([]ArenaGame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 20
	}
	out := make([]ArenaGame, 0, limit)
	for i := len(r.games) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.games[i])
	}
	return out, nil
}

func (r *MemRepository) Close() error { return nil }
