package prompt

import (
	"strings"
	"testing"

	"github.com/kapu/llm-chess-arena/internal/rules"
)

// emptyBoard reports every square empty except e1/e8 kings.
type emptyBoard struct{}

func (emptyBoard) PieceAt(sq string) (rules.Color, string, bool) {
	switch sq {
	case "e1":
		return rules.White, "k", true
	case "e8":
		return rules.Black, "k", true
	}
	return "", "", false
}

func TestPhaseBoundaries(t *testing.T) {
	cases := []struct {
		ply  int
		want string
	}{
		{0, "opening"}, {10, "opening"},
		{11, "middlegame"}, {30, "middlegame"},
		{31, "endgame"},
	}
	for _, c := range cases {
		if got := Phase(c.ply); got != c.want {
			t.Fatalf("Phase(%d) = %q, want %q", c.ply, got, c.want)
		}
	}
}

func TestFormatLegalMovesAnnotatesPromotion(t *testing.T) {
	moves := []rules.LegalMove{
		{From: "e2", To: "e4"},
		{From: "e7", To: "e8", Promotion: "q"},
	}
	got := FormatLegalMoves(moves)
	if got != "e2->e4, e7->e8(promote to q)" {
		t.Fatalf("formatted moves = %q", got)
	}
}

func TestComposeFirstMove(t *testing.T) {
	got := Compose(emptyBoard{}, Input{
		Snapshot:   rules.Snapshot{FEN: "fen-here", Ply: 0, Turn: rules.White},
		Color:      rules.White,
		LegalMoves: []rules.LegalMove{{From: "e2", To: "e4"}},
		Memory:     "No strategic memory yet.",
	})

	for _, want := range []string{
		"playing chess as white",
		"first move of the game",
		"Move number: 1. Game phase: opening.",
		"FEN: fen-here",
		"e2->e4",
		"No strategic memory yet.",
		"e1: white k",
		"top 3 candidate moves",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Position analysis:") {
		t.Fatalf("analysis block rendered without analysis")
	}
}

func TestComposeWithLastMoveAndAnalysis(t *testing.T) {
	got := Compose(emptyBoard{}, Input{
		Snapshot: rules.Snapshot{
			FEN:        "fen",
			Ply:        3,
			HistorySAN: []string{"e4", "e5", "Nf3"},
		},
		Color:      rules.Black,
		LegalMoves: []rules.LegalMove{{From: "b8", To: "c6"}},
		Memory:     "mem",
		Analysis:   "white is pressing e5",
	})
	if !strings.Contains(got, "opponent's last move: Nf3") {
		t.Fatalf("last move missing:\n%s", got)
	}
	if !strings.Contains(got, "Move number: 2.") {
		t.Fatalf("move number wrong:\n%s", got)
	}
	if !strings.Contains(got, "Position analysis:\nwhite is pressing e5") {
		t.Fatalf("analysis block missing:\n%s", got)
	}
}

func TestBoardListingRankOrder(t *testing.T) {
	got := BoardListing(emptyBoard{})
	r8 := strings.Index(got, "Rank 8:")
	r1 := strings.Index(got, "Rank 1:")
	if r8 < 0 || r1 < 0 || r8 > r1 {
		t.Fatalf("rank ordering wrong:\n%s", got)
	}
	if !strings.Contains(got, "e8: black k") || !strings.Contains(got, "a4: empty") {
		t.Fatalf("square annotations wrong:\n%s", got)
	}
}
