// Package archive records finished games for the recent-games listing.
package archive

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateGame signals that a game with this id was already archived.
// The first record wins; later writes are dropped.
var ErrDuplicateGame = errors.New("game already archived")

// ArenaGame is one finished game as persisted.
type ArenaGame struct {
	GameID     string
	WhiteModel string
	BlackModel string
	Result     string // "white", "black", "draw"
	Method     string // "checkmate", "stalemate", "resignation", ...
	MovesUCI   []string
	MovesSAN   []string
	PGN        string
	Fallbacks  int
	StartedAt  time.Time
	EndedAt    time.Time
}

// Duration is the game's wall-clock length, floored at zero.
func (g ArenaGame) Duration() time.Duration {
	d := g.EndedAt.Sub(g.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// Repository persists finished games. Save is write-once per game id.
type Repository interface {
	Save(ctx context.Context, g ArenaGame) error
	Recent(ctx context.Context, limit int) ([]ArenaGame, error)
	Close() error
}
