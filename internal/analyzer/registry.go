package analyzer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/karar-git/VibeHiring/internal/ai"
)

// Tool is one entry of the evidence-gathering catalog. Tools perform only
// outbound read operations; they never mutate shared state.
type Tool interface {
	Definition() ai.ToolDefinition
	Call(ctx context.Context, args map[string]any) (any, error)
}

// Registry maps tool names to typed handlers. Dispatch failures are absorbed
// into error payloads fed back to the model, never surfaced as Go errors:
// the model is expected to adapt to them.
type Registry struct {
	tools map[string]Tool
	order []string
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, tool := range tools {
		name := tool.Definition().Name
		if _, exists := r.tools[name]; exists {
			continue
		}
		r.tools[name] = tool
		r.order = append(r.order, name)
	}
	return r
}

// Definitions returns the catalog in registration order.
func (r *Registry) Definitions() []ai.ToolDefinition {
	defs := make([]ai.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Dispatch executes one tool call and returns the JSON-serialized result
// payload for the tool-role message.
func (r *Registry) Dispatch(ctx context.Context, call ai.ToolCall) string {
	tool, ok := r.tools[call.Name]
	if !ok {
		return errorPayload(fmt.Sprintf("Unknown tool: %s", call.Name))
	}

	result, err := tool.Call(ctx, call.Args)
	if err != nil {
		return errorPayload(err.Error())
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return errorPayload(fmt.Sprintf("serialize tool result: %v", err))
	}
	return string(payload)
}

func errorPayload(message string) string {
	payload, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		// A flat string map cannot fail to marshal; keep the compiler honest.
		return `{"error": "internal error"}`
	}
	return string(payload)
}
