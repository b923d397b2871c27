// Package planner refreshes a player's strategic memory between moves by
// asking the language model for an opening choice, goals and a reflection.
// Planner failure never blocks move generation; it only skips enrichment.
package planner

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/llm-chess-arena/internal/llm"
	"github.com/kapu/llm-chess-arena/internal/memory"
	"github.com/kapu/llm-chess-arena/internal/rules"
)

const (
	// Ply thresholds for the phase heuristics.
	openingPhasePlies = 20
	openingLockPly    = 10
)

// Completer is the slice of the LLM client the planner needs.
type Completer interface {
	Complete(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
}

type Planner struct {
	llm    Completer
	model  string
	store  *memory.Store
	logger *zap.Logger
}

func New(completer Completer, model string, store *memory.Store, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{llm: completer, model: model, store: store, logger: logger}
}

// Refresh decides what memory needs updating for this turn, asks the model,
// and writes back the usable parts. All failures are absorbed: the turn
// proceeds with stale or absent memory.
func (p *Planner) Refresh(ctx context.Context, snap rules.Snapshot, color rules.Color) {
	firstMove := snap.Ply < 2
	openingPhase := snap.Ply < openingPhasePlies
	shortStale := p.store.ShortTermStale(color, snap.Ply)
	longStale := p.store.LongTermStale(color, snap.Ply)

	wantOpening := firstMove || openingPhase
	wantShort := firstMove || shortStale
	wantLong := firstMove || longStale
	if !wantOpening && !wantShort && !wantLong {
		// A reflection alone is not worth a round trip.
		return
	}

	promptText := p.composePlanPrompt(snap, color, wantOpening, wantShort, wantLong)
	resp, err := p.llm.Complete(ctx, llm.ChatRequest{
		Model: p.model,
		Messages: []llm.Message{
			{Role: "system", Content: "You are a chess strategist. Answer using exactly the section labels you are asked for."},
			{Role: "user", Content: promptText},
		},
		MaxTokens:   800,
		Temperature: 0.7,
	})
	if err != nil {
		p.logger.Warn("strategy refresh failed, continuing with existing memory",
			zap.Error(err),
			zap.String("color", string(color)),
			zap.Int("ply", snap.Ply),
		)
		return
	}

	plan := ParsePlan(resp.First().Content)
	p.apply(plan, snap, color)
}

func (p *Planner) apply(plan PlanResult, snap rules.Snapshot, color rules.Color) {
	mem := p.store.Player(color)
	if plan.Opening != "" && (mem.Opening == "" || snap.Ply < openingLockPly) {
		p.store.SetOpening(color, plan.Opening)
	}
	if len(plan.ShortTermGoals) > 0 {
		p.store.SetShortTermGoals(color, plan.ShortTermGoals, snap.Ply)
	}
	if len(plan.LongTermGoals) > 0 {
		p.store.SetLongTermGoals(color, plan.LongTermGoals, snap.Ply)
	}
	if plan.Reflection != "" {
		p.store.AddReflection(color, plan.Reflection)
	}
}

func (p *Planner) composePlanPrompt(snap rules.Snapshot, color rules.Color, wantOpening, wantShort, wantLong bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are playing chess as %s. Current position (FEN): %s\n", color, snap.FEN)
	fmt.Fprintf(&b, "Half-moves played: %d.\n\n", snap.Ply)

	mem := p.store.Player(color)
	if mem.Opening != "" || len(mem.ShortTermGoals) > 0 || len(mem.LongTermGoals) > 0 {
		b.WriteString("Your current strategic memory:\n")
		b.WriteString(p.store.FormatForPrompt(color))
		b.WriteString("\n\n")
	}

	b.WriteString("Respond with the following sections:\n")
	if wantOpening {
		b.WriteString("Opening Strategy: <one short opening name>\n")
	}
	if wantShort {
		b.WriteString("Short-term Goals (next 2-3 moves):\n- <goal per line, at most 3>\n")
	}
	if wantLong {
		b.WriteString("Long-term Goals (rest of the game):\n- <goal per line, at most 3>\n")
	}
	b.WriteString("Reflection: <one or two sentences on how the game is going for you>\n")
	return b.String()
}
