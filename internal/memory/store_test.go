package memory

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kapu/llm-chess-arena/internal/rules"
)

func TestGoalsCappedAtThree(t *testing.T) {
	s := NewStore()
	s.SetShortTermGoals(rules.White, []string{"a", "b", "c", "d", "e"}, 4)
	if got := s.Player(rules.White).ShortTermGoals; len(got) != 3 {
		t.Fatalf("short-term goals = %v, want 3 entries", got)
	}
	s.SetLongTermGoals(rules.White, []string{"x", "", "  ", "y"}, 4)
	if got := s.Player(rules.White).LongTermGoals; len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Fatalf("long-term goals = %v", got)
	}
}

func TestReflectionsEvictOldest(t *testing.T) {
	s := NewStore()
	for i := 1; i <= 7; i++ {
		s.AddReflection(rules.Black, fmt.Sprintf("r%d", i))
	}
	got := s.Player(rules.Black).Reflections()
	if len(got) != 5 {
		t.Fatalf("reflections = %v, want 5", got)
	}
	if got[0] != "r3" || got[4] != "r7" {
		t.Fatalf("expected oldest-first r3..r7, got %v", got)
	}
}

func TestMoveEvaluationsCapped(t *testing.T) {
	s := NewStore()
	evals := []MoveEvaluation{
		{Move: "e4", Score: 2}, {Move: "d4", Score: 1.5},
		{Move: "Nf3", Score: 1}, {Move: "c4", Score: 0.5},
	}
	s.SetMoveEvaluations(rules.White, evals)
	if got := s.Player(rules.White).MoveEvaluations; len(got) != 3 || got[0].Move != "e4" {
		t.Fatalf("move evaluations = %v", got)
	}
}

func TestRecordMoveTracksPieceActivity(t *testing.T) {
	s := NewStore()
	s.RecordMove(rules.White, rules.Move{From: "e2", To: "e4", Piece: "p", SAN: "e4"})
	s.RecordMove(rules.White, rules.Move{From: "g1", To: "f3", Piece: "n", SAN: "Nf3"})
	p := s.Player(rules.White)
	if len(p.MoveHistory) != 2 {
		t.Fatalf("history = %d moves", len(p.MoveHistory))
	}
	if p.PieceActivity["pe2"] != 1 || p.PieceActivity["ng1"] != 1 {
		t.Fatalf("activity = %v", p.PieceActivity)
	}
}

func TestSetOpeningCutsLabel(t *testing.T) {
	s := NewStore()
	s.SetOpening(rules.White, "Italian Game. Solid and classical, aiming at f7")
	if got := s.Player(rules.White).Opening; got != "Italian Game" {
		t.Fatalf("opening = %q", got)
	}
	s.SetOpening(rules.Black, "  Sicilian Defense: Najdorf ")
	if got := s.Player(rules.Black).Opening; got != "Sicilian Defense" {
		t.Fatalf("opening = %q", got)
	}
}

func TestStaleness(t *testing.T) {
	s := NewStore()
	s.SetShortTermGoals(rules.White, []string{"g"}, 4)
	s.SetLongTermGoals(rules.White, []string{"g"}, 4)

	if s.ShortTermStale(rules.White, 6) {
		t.Fatalf("short-term stale at +2 plies")
	}
	if !s.ShortTermStale(rules.White, 7) {
		t.Fatalf("short-term not stale at +3 plies")
	}
	if s.LongTermStale(rules.White, 9) {
		t.Fatalf("long-term stale at +5 plies")
	}
	if !s.LongTermStale(rules.White, 10) {
		t.Fatalf("long-term not stale at +6 plies")
	}
}

func TestResetWipesBothColors(t *testing.T) {
	s := NewStore()
	s.SetOpening(rules.White, "Italian Game")
	s.AddReflection(rules.Black, "holding the center")
	s.RecordMove(rules.White, rules.Move{From: "e2", To: "e4", Piece: "p"})

	s.Reset()
	for _, color := range []rules.Color{rules.White, rules.Black} {
		p := s.Player(color)
		if p.Opening != "" || len(p.MoveHistory) != 0 || len(p.Reflections()) != 0 || len(p.PieceActivity) != 0 {
			t.Fatalf("%s memory not wiped: %+v", color, p)
		}
	}
}

func TestFormatForPrompt(t *testing.T) {
	s := NewStore()
	if got := s.FormatForPrompt(rules.White); got != "No strategic memory yet." {
		t.Fatalf("empty memory format = %q", got)
	}

	s.SetOpening(rules.White, "Italian Game")
	s.SetShortTermGoals(rules.White, []string{"develop knights"}, 2)
	for i := 0; i < 3; i++ {
		s.RecordMove(rules.White, rules.Move{From: "g1", To: "f3", Piece: "n"})
	}
	got := s.FormatForPrompt(rules.White)
	for _, want := range []string{"Italian Game", "develop knights", "knight from g1 has moved 3 times"} {
		if !strings.Contains(got, want) {
			t.Fatalf("format missing %q:\n%s", want, got)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewStore()
	s.SetOpening(rules.White, "Italian Game")
	s.SetShortTermGoals(rules.White, []string{"develop knights"}, 2)
	s.AddReflection(rules.White, "center is contested")
	s.RecordMove(rules.White, rules.Move{From: "e2", To: "e4", Piece: "p", SAN: "e4"})

	clone := s.Player(rules.White).Clone()

	s.RecordMove(rules.White, rules.Move{From: "g1", To: "f3", Piece: "n", SAN: "Nf3"})
	s.SetShortTermGoals(rules.White, []string{"castle short"}, 4)
	s.AddReflection(rules.White, "later thought")

	if len(clone.MoveHistory) != 1 || clone.MoveHistory[0].SAN != "e4" {
		t.Fatalf("clone history = %+v", clone.MoveHistory)
	}
	if clone.PieceActivity["ng1"] != 0 {
		t.Fatalf("clone activity leaked later writes: %v", clone.PieceActivity)
	}
	if got := clone.ShortTermGoals; len(got) != 1 || got[0] != "develop knights" {
		t.Fatalf("clone goals = %v", got)
	}
	if got := clone.Reflections(); len(got) != 1 || got[0] != "center is contested" {
		t.Fatalf("clone reflections = %v", got)
	}

	var nilMem *PlayerMemory
	if nilMem.Clone() != nil {
		t.Fatalf("nil clone should stay nil")
	}
}

func TestOveruseWarningsDeterministicOrder(t *testing.T) {
	s := NewStore()
	for i := 0; i < 3; i++ {
		s.RecordMove(rules.White, rules.Move{From: "g1", To: "f3", Piece: "n"})
		s.RecordMove(rules.White, rules.Move{From: "c1", To: "d2", Piece: "b"})
		s.RecordMove(rules.White, rules.Move{From: "a1", To: "a2", Piece: "r"})
	}
	first := s.overuseWarnings(rules.White)
	if len(first) != 3 {
		t.Fatalf("warnings = %v, want 3", first)
	}
	if !strings.Contains(first[0], "bishop from c1") || !strings.Contains(first[2], "rook from a1") {
		t.Fatalf("warnings not in key order: %v", first)
	}
	for i := 0; i < 10; i++ {
		again := s.overuseWarnings(rules.White)
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("order changed between calls: %v vs %v", first, again)
			}
		}
	}
}
