package llm

import (
	"context"
)

// Provider is the single seam to a hosted language model. Implementations
// must be safe for concurrent use.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelID() string
}

type Request struct {
	System   string
	Messages []Message

	// Tools, when non-empty, lets the model answer with ToolCalls instead of
	// text. Providers without tool calling return ErrToolsUnsupported.
	Tools []ToolDef

	MaxTokens   int
	Temperature float64
	TopP        float64
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

type Message struct {
	Role    Role
	Content string

	// ToolCalls is set on assistant messages that requested tools.
	ToolCalls []ToolCall
	// ToolCallID is set on RoleTool messages and names the call answered.
	ToolCallID string
}

// ToolDef describes one callable function. Parameters is a JSON schema.
type ToolDef struct {
	Name        string
	Description string
	Parameters  map[string]any
}

type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

type Response struct {
	Content   string
	ToolCalls []ToolCall

	Usage Usage
	Model string
	// StopReason is normalized to "end", "max_tokens" or "tool_calls".
	StopReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}
