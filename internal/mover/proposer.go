// Package mover obtains candidate moves from the language model. Three
// mutually exclusive protocols exist, chosen once at construction: the
// structured tool-call form, the constrained free-text form for reasoning-
// restricted models, and the PGN-continuation form. All of them absorb
// transport and parse failures; a failed attempt yields a nil candidate,
// never an error above this package.
package mover

import (
	"context"

	"go.uber.org/zap"

	"github.com/kapu/llm-chess-arena/internal/llm"
	"github.com/kapu/llm-chess-arena/internal/rules"
)

// Candidate is an unverified move proposal. It lacks piece/SAN/color until
// matched against the authoritative legal-move set.
type Candidate struct {
	From      string
	To        string
	Promotion string
}

// Input is the per-turn request handed to a proposer.
type Input struct {
	// Prompt is the composed move-generation context (unused by the PGN
	// protocol, which builds its own transcript prompt).
	Prompt     string
	Snapshot   rules.Snapshot
	LegalMoves []rules.LegalMove
}

// Proposal is a candidate (possibly nil) plus the raw analysis text the
// model produced alongside it.
type Proposal struct {
	Candidate *Candidate
	Analysis  string
}

// Proposer is the single capability all protocols implement.
type Proposer interface {
	ProposeMove(ctx context.Context, in Input) Proposal
}

// Completer is the slice of the LLM client the proposers need.
type Completer interface {
	Complete(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
}

// Options configure proposer construction.
type Options struct {
	Model     string
	Protocol  string // "auto" or "pgn"
	MaxTokens int
	Logger    *zap.Logger
}

// New selects the protocol variant for a model. The decision is made here,
// once, not re-derived per call.
func New(completer Completer, opts Options) Proposer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2000
	}

	if opts.Protocol == "pgn" {
		return &pgnProposer{llm: completer, model: opts.Model, maxTokens: maxTokens, logger: logger}
	}
	if llm.IsConstrainedModel(opts.Model) {
		return &constrainedProposer{llm: completer, model: opts.Model, maxTokens: maxTokens, logger: logger}
	}
	return &structuredProposer{llm: completer, model: opts.Model, maxTokens: maxTokens, logger: logger}
}
