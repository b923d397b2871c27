package mover

import (
	"context"

	"go.uber.org/zap"

	"github.com/kapu/llm-chess-arena/internal/llm"
)

const constrainedSuffix = `

End your response with a single line containing only a JSON object of the form:
{"from": "<origin square>", "to": "<destination square>", "promotion": "<queen|rook|bishop|knight>" or null}`

// constrainedProposer serves model families that reject tool calls: the move
// is requested as a trailing single-line JSON object in plain text and
// extracted best-effort.
type constrainedProposer struct {
	llm       Completer
	model     string
	maxTokens int
	logger    *zap.Logger
}

func (p *constrainedProposer) ProposeMove(ctx context.Context, in Input) Proposal {
	resp, err := p.llm.Complete(ctx, llm.ChatRequest{
		Model: p.model,
		Messages: []llm.Message{
			{Role: "user", Content: in.Prompt + constrainedSuffix},
		},
		MaxTokens: p.maxTokens,
	})
	if err != nil {
		p.logger.Warn("constrained move call failed", zap.Error(err), zap.String("model", p.model))
		return Proposal{}
	}

	content := resp.First().Content
	cand := ExtractCandidate(content)
	if cand == nil {
		p.logger.Warn("no candidate found in constrained response",
			zap.String("model", p.model),
			zap.Int("response_len", len(content)),
		)
	}
	return Proposal{Candidate: cand, Analysis: content}
}
