// Package ai declares the shared conversation model and the interfaces the
// rest of the service uses to talk to completion and embedding providers.
package ai

import "context"

type Role string

const (
	RoleUser      Role = "user"
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn in a model conversation. Histories are append-only: a
// tool message always directly follows the assistant message whose call it
// answers, correlated by ToolCallID.
type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID correlates a tool-role message with the call it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
	// Name is the tool name on tool-role messages.
	Name string `json:"name,omitempty"`
}

// ToolCall is a model-issued request to invoke a named tool.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolDefinition describes one entry of the tool catalog advertised to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  ObjectSchema
}

// ObjectSchema is the JSON-schema shape of a tool's argument object.
type ObjectSchema struct {
	Properties map[string]ParamSchema
	Required   []string
}

type ParamSchema struct {
	Type        string
	Description string
}

type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishToolCalls FinishReason = "tool_calls"
)

type CompletionRequest struct {
	// System is the system instruction for the whole conversation.
	System   string
	Messages []Message
	Tools    []ToolDefinition
	// Model overrides the client default when non-empty.
	Model       string
	Temperature *float32
}

type CompletionResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason FinishReason
}

// CompletionClient is a round trip with the language-model service.
type CompletionClient interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
