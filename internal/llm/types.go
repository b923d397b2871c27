package llm

import "regexp"

// Reasoning-restricted model families (o1, o3, ...) reject the structured
// tool-call form and use a different token-budget parameter.
var constrainedModelPattern = regexp.MustCompile(`^o\d`)

// IsConstrainedModel reports whether the model requires the plain-text
// protocol and the max_completion_tokens parameter.
func IsConstrainedModel(model string) bool {
	return constrainedModelPattern.MatchString(model)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ForceTool builds the tool_choice value that forces the named function.
func ForceTool(name string) map[string]any {
	return map[string]any{
		"type":     "function",
		"function": map[string]any{"name": name},
	}
}

// ChatRequest is the provider-independent request shape. MaxTokens is mapped
// to whichever wire parameter the target model family accepts.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Tools       []Tool
	ToolChoice  any
	MaxTokens   int
	Temperature float64
}

type chatRequestWire struct {
	Model               string    `json:"model"`
	Messages            []Message `json:"messages"`
	Tools               []Tool    `json:"tools,omitempty"`
	ToolChoice          any       `json:"tool_choice,omitempty"`
	MaxTokens           int       `json:"max_tokens,omitempty"`
	MaxCompletionTokens int       `json:"max_completion_tokens,omitempty"`
	Temperature         float64   `json:"temperature,omitempty"`
}

type ToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type ResponseMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

type Choice struct {
	Index        int             `json:"index"`
	Message      ResponseMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

// First returns the first choice's message, or an empty message.
func (r *ChatResponse) First() ResponseMessage {
	if r == nil || len(r.Choices) == 0 {
		return ResponseMessage{}
	}
	return r.Choices[0].Message
}
