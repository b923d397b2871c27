package memory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kapu/llm-chess-arena/internal/rules"
)

// Piece moved this often or more from the same origin draws an overuse note
// in the prompt.
const overusedThreshold = 3

var pieceNames = map[string]string{
	"p": "pawn", "n": "knight", "b": "bishop",
	"r": "rook", "q": "queen", "k": "king",
}

// FormatForPrompt renders the color's memory as the block embedded in move
// and planning prompts. Empty sections are omitted.
func (s *Store) FormatForPrompt(color rules.Color) string {
	p := s.players[color]
	var b strings.Builder

	if p.Opening != "" {
		fmt.Fprintf(&b, "Opening strategy: %s\n", p.Opening)
	}
	writeGoals(&b, "Short-term goals", p.ShortTermGoals)
	writeGoals(&b, "Long-term goals", p.LongTermGoals)

	if refs := p.Reflections(); len(refs) > 0 {
		b.WriteString("Recent reflections:\n")
		for _, r := range refs {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}

	if len(p.MoveEvaluations) > 0 {
		b.WriteString("Your previous candidate rankings:\n")
		for _, ev := range p.MoveEvaluations {
			fmt.Fprintf(&b, "- %s (%.1f): %s\n", ev.Move, ev.Score, ev.Reasoning)
		}
	}

	if warn := s.overuseWarnings(color); len(warn) > 0 {
		b.WriteString("Piece activity warnings:\n")
		for _, w := range warn {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	if b.Len() == 0 {
		return "No strategic memory yet."
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeGoals(b *strings.Builder, title string, goals []string) {
	if len(goals) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, g := range goals {
		fmt.Fprintf(b, "- %s\n", g)
	}
}

func (s *Store) overuseWarnings(color rules.Color) []string {
	p := s.players[color]
	// stable key order keeps the rendered prompt deterministic
	keys := make([]string, 0, len(p.PieceActivity))
	for key := range p.PieceActivity {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out []string
	for _, key := range keys {
		count := p.PieceActivity[key]
		if count < overusedThreshold || len(key) < 3 {
			continue
		}
		name := pieceNames[key[:1]]
		if name == "" {
			continue
		}
		out = append(out, fmt.Sprintf("the %s from %s has moved %d times; consider developing other pieces", name, key[1:], count))
	}
	return out
}
