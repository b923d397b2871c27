package rules

import "time"

// Color identifies a side. Serialized form is the lowercase word.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Other returns the opposing side.
func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

// LegalMove is one entry of the authoritative legal-move set for the current
// position. Promotion is a single lowercase letter (q/r/b/n) or empty.
type LegalMove struct {
	From      string
	To        string
	Promotion string
	Piece     string
	Color     Color
	SAN       string
}

// Move is a committed move. Append-only: never mutated after creation.
type Move struct {
	From      string
	To        string
	Promotion string
	Piece     string
	Color     Color
	SAN       string
	Timestamp time.Time
}

// Snapshot is a read-only view of the game state.
type Snapshot struct {
	FEN        string
	PGN        string
	Turn       Color
	HistorySAN []string
	Ply        int
	GameOver   bool
	Checkmate  bool
	Draw       bool
	InCheck    bool
	// Winner is set iff Checkmate is true, and names the side that delivered
	// the mate (the side not on turn).
	Winner *Color
}

// LastSAN returns the most recent move in algebraic notation, or "" before
// the first move.
func (s Snapshot) LastSAN() string {
	if len(s.HistorySAN) == 0 {
		return ""
	}
	return s.HistorySAN[len(s.HistorySAN)-1]
}
