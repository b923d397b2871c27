// Package prompt assembles the natural-language context handed to the move
// oracle. Composition is side-effect free: everything rendered comes from the
// inputs.
package prompt

import (
	"fmt"
	"strings"

	"github.com/kapu/llm-chess-arena/internal/rules"
)

// Board reports square occupancy; satisfied by *rules.Authority.
type Board interface {
	PieceAt(square string) (rules.Color, string, bool)
}

// Input carries everything the move prompt needs. Analysis is optional
// external commentary (vision/grandmaster notes) and may be empty.
type Input struct {
	Snapshot   rules.Snapshot
	Color      rules.Color
	LegalMoves []rules.LegalMove
	Memory     string
	Analysis   string
}

const guidelines = `Strategic guidelines:
- Control the center and develop minor pieces before launching attacks.
- King safety first: castle early, avoid weakening pawn moves near your king.
- Look for tactics (forks, pins, skewers, discovered attacks) every move.
- Do not move the same piece repeatedly in the opening without reason.
- Trade pieces when ahead in material; keep tension when behind.
- In the endgame, activate your king and push passed pawns.`

const scoringRequest = `Before committing to a move, list your top 3 candidate moves.
Score each from -10.0 to +10.0 using these bands:
  +6.0 to +10.0  winning
  +2.0 to +6.0   clearly better
  +0.5 to +2.0   slightly better
  -0.5 to +0.5   equal
  -2.0 to -0.5   slightly worse
  -10.0 to -2.0  losing
Give one line of reasoning per candidate, then choose the best one.`

// Compose renders the full move-generation prompt.
func Compose(board Board, in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are playing chess as %s.\n\n", in.Color)

	if last := in.Snapshot.LastSAN(); last != "" {
		fmt.Fprintf(&b, "Your opponent's last move: %s\n", last)
	} else {
		b.WriteString("This is the first move of the game.\n")
	}
	fmt.Fprintf(&b, "Move number: %d. Game phase: %s.\n\n", in.Snapshot.Ply/2+1, Phase(in.Snapshot.Ply))

	b.WriteString("Current board:\n")
	b.WriteString(BoardListing(board))
	b.WriteString("\n")

	fmt.Fprintf(&b, "FEN: %s\n\n", in.Snapshot.FEN)

	b.WriteString("Legal moves available to you:\n")
	b.WriteString(FormatLegalMoves(in.LegalMoves))
	b.WriteString("\n\n")

	b.WriteString("Your strategic memory:\n")
	b.WriteString(in.Memory)
	b.WriteString("\n\n")

	if strings.TrimSpace(in.Analysis) != "" {
		b.WriteString("Position analysis:\n")
		b.WriteString(strings.TrimSpace(in.Analysis))
		b.WriteString("\n\n")
	}

	b.WriteString(guidelines)
	b.WriteString("\n\n")
	b.WriteString(scoringRequest)
	return b.String()
}

// Phase maps a half-move count onto the three-way game-phase label.
func Phase(ply int) string {
	switch {
	case ply <= 10:
		return "opening"
	case ply <= 30:
		return "middlegame"
	default:
		return "endgame"
	}
}

// FormatLegalMoves renders the legal-move set as origin->destination pairs,
// annotating promotions.
func FormatLegalMoves(moves []rules.LegalMove) string {
	parts := make([]string, 0, len(moves))
	for _, mv := range moves {
		if mv.Promotion != "" {
			parts = append(parts, fmt.Sprintf("%s->%s(promote to %s)", mv.From, mv.To, mv.Promotion))
		} else {
			parts = append(parts, fmt.Sprintf("%s->%s", mv.From, mv.To))
		}
	}
	return strings.Join(parts, ", ")
}

// BoardListing renders every square grouped by rank, 8 down to 1, annotating
// occupied squares with color and piece letter.
func BoardListing(board Board) string {
	var b strings.Builder
	for rank := 8; rank >= 1; rank-- {
		fmt.Fprintf(&b, "Rank %d:", rank)
		for file := 'a'; file <= 'h'; file++ {
			sq := fmt.Sprintf("%c%d", file, rank)
			if color, piece, ok := board.PieceAt(sq); ok {
				fmt.Fprintf(&b, " %s: %s %s,", sq, color, piece)
			} else {
				fmt.Fprintf(&b, " %s: empty,", sq)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
