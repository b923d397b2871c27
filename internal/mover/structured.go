package mover

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/kapu/llm-chess-arena/internal/llm"
)

const proposeMoveTool = "propose_move"

// structuredProposer forces the model to invoke a single propose_move tool
// call and reads the candidate from its arguments.
type structuredProposer struct {
	llm       Completer
	model     string
	maxTokens int
	logger    *zap.Logger
}

func (p *structuredProposer) ProposeMove(ctx context.Context, in Input) Proposal {
	resp, err := p.llm.Complete(ctx, llm.ChatRequest{
		Model: p.model,
		Messages: []llm.Message{
			{Role: "system", Content: in.Prompt},
			{Role: "user", Content: "Choose your move now."},
		},
		Tools: []llm.Tool{{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        proposeMoveTool,
				Description: "Propose exactly one chess move by origin and destination square.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"from": map[string]any{
							"type":        "string",
							"description": "origin square, e.g. e2",
						},
						"to": map[string]any{
							"type":        "string",
							"description": "destination square, e.g. e4",
						},
						"promotion": map[string]any{
							"type": "string",
							"enum": []string{"queen", "rook", "bishop", "knight"},
						},
					},
					"required": []string{"from", "to"},
				},
			},
		}},
		ToolChoice:  llm.ForceTool(proposeMoveTool),
		MaxTokens:   p.maxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		p.logger.Warn("structured move call failed", zap.Error(err), zap.String("model", p.model))
		return Proposal{}
	}

	msg := resp.First()
	for _, call := range msg.ToolCalls {
		if call.Function.Name != proposeMoveTool {
			continue
		}
		var args struct {
			From      string `json:"from"`
			To        string `json:"to"`
			Promotion string `json:"promotion"`
		}
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			p.logger.Warn("malformed tool-call arguments",
				zap.Error(err),
				zap.String("arguments", call.Function.Arguments),
			)
			return Proposal{Analysis: msg.Content}
		}
		return Proposal{
			Candidate: candidateFrom(args.From, args.To, args.Promotion),
			Analysis:  msg.Content,
		}
	}

	p.logger.Warn("model returned no propose_move call", zap.String("model", p.model))
	return Proposal{Analysis: msg.Content}
}
