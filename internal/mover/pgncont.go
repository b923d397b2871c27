package mover

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/llm-chess-arena/internal/llm"
)

// Extraction failure is common and cheap to retry under this protocol; each
// retry re-invokes the oracle.
const pgnAttempts = 3

const pgnSystemPrompt = `You are a strong chess engine. You will receive a chess game transcript in PGN.
Repeat the transcript exactly, then append exactly one new move in standard algebraic notation for the side to move. Output nothing else.`

// Fixed few-shot pair demonstrating the continuation contract.
const (
	pgnExampleUser      = "[Event \"Example\"]\n\n1. e4 e5 2. Nf3"
	pgnExampleAssistant = "[Event \"Example\"]\n\n1. e4 e5 2. Nf3 Nc6"
)

// pgnProposer treats the exchange as PGN continuation: send the transcript,
// read back one appended move, resolve its SAN against the legal set.
type pgnProposer struct {
	llm       Completer
	model     string
	maxTokens int
	logger    *zap.Logger
}

func (p *pgnProposer) ProposeMove(ctx context.Context, in Input) Proposal {
	movetext := movetextFrom(in.Snapshot.HistorySAN)
	transcript := "[Event \"Arena\"]\n\n" + strings.TrimSpace(movetext)

	var lastAnalysis string
	for attempt := 1; attempt <= pgnAttempts; attempt++ {
		resp, err := p.llm.Complete(ctx, llm.ChatRequest{
			Model: p.model,
			Messages: []llm.Message{
				{Role: "system", Content: pgnSystemPrompt},
				{Role: "user", Content: pgnExampleUser},
				{Role: "assistant", Content: pgnExampleAssistant},
				{Role: "user", Content: transcript},
			},
			MaxTokens: p.maxTokens,
		})
		if err != nil {
			p.logger.Warn("pgn continuation call failed",
				zap.Error(err),
				zap.Int("attempt", attempt),
			)
			continue
		}

		content := resp.First().Content
		lastAnalysis = content
		token := LastSANToken(content, movetext)
		if token == "" {
			p.logger.Warn("no new move in pgn continuation", zap.Int("attempt", attempt))
			continue
		}
		if cand := ResolveSAN(token, in.LegalMoves); cand != nil {
			return Proposal{Candidate: cand, Analysis: content}
		}
		p.logger.Warn("pgn continuation move not legal",
			zap.String("token", token),
			zap.Int("attempt", attempt),
		)
	}
	return Proposal{Analysis: lastAnalysis}
}

func movetextFrom(historySAN []string) string {
	var b strings.Builder
	for i, san := range historySAN {
		if i%2 == 0 {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%d. %s", i/2+1, san)
		} else {
			fmt.Fprintf(&b, " %s", san)
		}
	}
	return b.String()
}
