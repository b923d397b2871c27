package rules

import (
	"errors"
	"fmt"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
)

var (
	// ErrIllegalMove signals a well-formed move that is not legal in the
	// current position. Malformed squares produce a distinct error.
	ErrIllegalMove = errors.New("illegal move")
)

// Authority is the single source of truth for chess legality and game status.
// It wraps the rules library and exposes only what the orchestration core
// needs. One instance per game session; not safe for concurrent use (turns
// run sequentially by construction).
type Authority struct {
	game *nchess.Game
}

func NewAuthority() *Authority {
	return &Authority{game: nchess.NewGame()}
}

// Reset returns the game to the standard initial position.
func (a *Authority) Reset() {
	a.game = nchess.NewGame()
}

// Snapshot captures the current game state.
func (a *Authority) Snapshot() Snapshot {
	g := a.game
	positions := g.Positions()
	moves := g.Moves()
	san := nchess.AlgebraicNotation{}
	history := make([]string, 0, len(moves))
	for i, mv := range moves {
		if i < len(positions) {
			history = append(history, san.Encode(positions[i], mv))
		}
	}

	outcome := g.Outcome()
	method := g.Method()
	turn := colorFrom(g.Position().Turn())

	snap := Snapshot{
		FEN:        g.FEN(),
		PGN:        g.String(),
		Turn:       turn,
		HistorySAN: history,
		Ply:        len(moves),
		GameOver:   outcome != nchess.NoOutcome,
		Checkmate:  method == nchess.Checkmate,
		Draw:       outcome == nchess.Draw,
		InCheck:    lastMoveGaveCheck(moves),
	}
	if snap.Checkmate {
		winner := turn.Other()
		snap.Winner = &winner
	}
	return snap
}

// LegalMoves returns the full legal-move set for the side to move.
func (a *Authority) LegalMoves() []LegalMove {
	pos := a.game.Position()
	board := pos.Board()
	san := nchess.AlgebraicNotation{}
	turn := colorFrom(pos.Turn())

	valid := a.game.ValidMoves()
	out := make([]LegalMove, 0, len(valid))
	for i := range valid {
		mv := &valid[i]
		out = append(out, LegalMove{
			From:      mv.S1().String(),
			To:        mv.S2().String(),
			Promotion: promoLetter(mv.Promo()),
			Piece:     pieceLetter(board.Piece(mv.S1()).Type()),
			Color:     turn,
			SAN:       san.Encode(pos, mv),
		})
	}
	return out
}

// AttemptMove commits the move identified by origin/destination/promotion.
// Illegal moves return ErrIllegalMove; malformed square identifiers return a
// descriptive error. On success the committed Move is fully populated.
func (a *Authority) AttemptMove(from, to, promotion string) (*Move, error) {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))
	promotion = strings.ToLower(strings.TrimSpace(promotion))
	if !validSquare(from) {
		return nil, fmt.Errorf("malformed square %q", from)
	}
	if !validSquare(to) {
		return nil, fmt.Errorf("malformed square %q", to)
	}

	pos := a.game.Position()
	board := pos.Board()
	san := nchess.AlgebraicNotation{}
	valid := a.game.ValidMoves()
	for i := range valid {
		mv := &valid[i]
		if mv.S1().String() != from || mv.S2().String() != to {
			continue
		}
		if promoLetter(mv.Promo()) != promotion {
			continue
		}
		encoded := san.Encode(pos, mv)
		piece := pieceLetter(board.Piece(mv.S1()).Type())
		color := colorFrom(pos.Turn())
		if err := a.game.Move(mv, nil); err != nil {
			return nil, fmt.Errorf("apply move %s%s: %w", from, to, err)
		}
		return &Move{
			From:      from,
			To:        to,
			Promotion: promotion,
			Piece:     piece,
			Color:     color,
			SAN:       encoded,
			Timestamp: time.Now(),
		}, nil
	}
	return nil, ErrIllegalMove
}

// MovesUCI returns the committed moves in UCI form, oldest first.
func (a *Authority) MovesUCI() []string {
	positions := a.game.Positions()
	moves := a.game.Moves()
	uci := nchess.UCINotation{}
	out := make([]string, 0, len(moves))
	for i, mv := range moves {
		if i < len(positions) {
			out = append(out, strings.ToLower(uci.Encode(positions[i], mv)))
		}
	}
	return out
}

// PieceAt reports the occupant of a square as (color, piece letter); ok is
// false for empty squares. Used by the prompt composer's board listing.
func (a *Authority) PieceAt(square string) (Color, string, bool) {
	sq, ok := squareFrom(square)
	if !ok {
		return "", "", false
	}
	piece := a.game.Position().Board().Piece(sq)
	if piece == nchess.NoPiece {
		return "", "", false
	}
	return colorFrom(piece.Color()), pieceLetter(piece.Type()), true
}

func lastMoveGaveCheck(moves []*nchess.Move) bool {
	if len(moves) == 0 {
		return false
	}
	return moves[len(moves)-1].HasTag(nchess.Check)
}

func colorFrom(c nchess.Color) Color {
	if c == nchess.White {
		return White
	}
	return Black
}

func promoLetter(pt nchess.PieceType) string {
	switch pt {
	case nchess.Queen:
		return "q"
	case nchess.Rook:
		return "r"
	case nchess.Bishop:
		return "b"
	case nchess.Knight:
		return "n"
	default:
		return ""
	}
}

func pieceLetter(pt nchess.PieceType) string {
	switch pt {
	case nchess.Pawn:
		return "p"
	case nchess.Knight:
		return "n"
	case nchess.Bishop:
		return "b"
	case nchess.Rook:
		return "r"
	case nchess.Queen:
		return "q"
	case nchess.King:
		return "k"
	default:
		return ""
	}
}

func validSquare(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}

func squareFrom(s string) (nchess.Square, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !validSquare(s) {
		return nchess.NoSquare, false
	}
	file := nchess.File(int(s[0] - 'a'))
	rank := nchess.Rank(int(s[1] - '1'))
	return nchess.NewSquare(file, rank), true
}
