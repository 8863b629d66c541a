package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/karar-git/VibeHiring/internal/ai"
)

type stubCompletions struct {
	responses []*ai.CompletionResponse
	err       error
	requests  []*ai.CompletionRequest
}

func (s *stubCompletions) Complete(_ context.Context, req *ai.CompletionRequest) (*ai.CompletionResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.responses) == 0 {
		return nil, errors.New("unexpected completion call")
	}
	resp := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return resp, nil
}

type stubTool struct {
	name   string
	result any
	err    error
	delay  time.Duration
	calls  int
}

func (s *stubTool) Definition() ai.ToolDefinition {
	return ai.ToolDefinition{Name: s.name, Description: "stub"}
}

func (s *stubTool) Call(_ context.Context, _ map[string]any) (any, error) {
	s.calls++
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.result, s.err
}

type stubRegistryBuilder struct {
	registry       *Registry
	jobDescription string
}

func (s *stubRegistryBuilder) Registry(jobDescription string) *Registry {
	s.jobDescription = jobDescription
	return s.registry
}

func newTestAnalyzer(completions ai.CompletionClient, registry *Registry, maxRounds int) *Analyzer {
	return &Analyzer{
		completions: completions,
		tools:       &stubRegistryBuilder{registry: registry},
		logger:      zap.NewNop(),
		maxRounds:   maxRounds,
	}
}

func toolCallResponse(calls ...ai.ToolCall) *ai.CompletionResponse {
	return &ai.CompletionResponse{FinishReason: ai.FinishToolCalls, ToolCalls: calls}
}

func finalResponse(content string) *ai.CompletionResponse {
	return &ai.CompletionResponse{FinishReason: ai.FinishStop, Content: content}
}

func TestAnalyzeReturnsImmediatelyWithoutToolCalls(t *testing.T) {
	completions := &stubCompletions{responses: []*ai.CompletionResponse{finalResponse(`{"matching_score": 80}`)}}
	analyzer := newTestAnalyzer(completions, NewRegistry(), defaultMaxRounds)

	result, err := analyzer.Analyze(context.Background(), "resume text", "job description")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != `{"matching_score": 80}` {
		t.Fatalf("unexpected result: %q", result)
	}
	if len(completions.requests) != 1 {
		t.Fatalf("expected one completion round, got %d", len(completions.requests))
	}
}

func TestAnalyzeExecutesToolsAndAppendsOrderedResults(t *testing.T) {
	slow := &stubTool{name: "slow_tool", result: map[string]string{"value": "slow"}, delay: 30 * time.Millisecond}
	fast := &stubTool{name: "fast_tool", result: map[string]string{"value": "fast"}}

	completions := &stubCompletions{responses: []*ai.CompletionResponse{
		toolCallResponse(
			ai.ToolCall{ID: "call-1", Name: "slow_tool"},
			ai.ToolCall{ID: "call-2", Name: "fast_tool"},
		),
		finalResponse("done"),
	}}
	analyzer := newTestAnalyzer(completions, NewRegistry(slow, fast), defaultMaxRounds)

	result, err := analyzer.Analyze(context.Background(), "resume text", "jd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "done" {
		t.Fatalf("unexpected result: %q", result)
	}

	// The second round carries user, assistant and two tool messages, in
	// the requested call order regardless of execution timing.
	history := completions.requests[1].Messages
	if len(history) != 4 {
		t.Fatalf("expected 4 history messages, got %d", len(history))
	}
	if history[1].Role != ai.RoleAssistant || len(history[1].ToolCalls) != 2 {
		t.Fatalf("expected assistant message with two tool calls")
	}
	if history[2].ToolCallID != "call-1" || !strings.Contains(history[2].Content, "slow") {
		t.Fatalf("expected slow tool result first, got %+v", history[2])
	}
	if history[3].ToolCallID != "call-2" || !strings.Contains(history[3].Content, "fast") {
		t.Fatalf("expected fast tool result second, got %+v", history[3])
	}
}

func TestAnalyzeUnknownToolFeedsErrorBackAndContinues(t *testing.T) {
	completions := &stubCompletions{responses: []*ai.CompletionResponse{
		toolCallResponse(ai.ToolCall{ID: "call-1", Name: "nonexistent_tool"}),
		finalResponse("recovered"),
	}}
	analyzer := newTestAnalyzer(completions, NewRegistry(), defaultMaxRounds)

	result, err := analyzer.Analyze(context.Background(), "resume text", "jd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "recovered" {
		t.Fatalf("unexpected result: %q", result)
	}

	toolMsg := completions.requests[1].Messages[2]
	if toolMsg.Role != ai.RoleTool {
		t.Fatalf("expected tool message, got %s", toolMsg.Role)
	}

	var payload map[string]string
	if err := json.Unmarshal([]byte(toolMsg.Content), &payload); err != nil {
		t.Fatalf("tool payload is not JSON: %v", err)
	}
	if payload["error"] != "Unknown tool: nonexistent_tool" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestAnalyzeFailingToolBecomesErrorPayload(t *testing.T) {
	failing := &stubTool{name: "flaky_tool", err: errors.New("upstream exploded")}
	completions := &stubCompletions{responses: []*ai.CompletionResponse{
		toolCallResponse(ai.ToolCall{ID: "call-1", Name: "flaky_tool"}),
		finalResponse("done"),
	}}
	analyzer := newTestAnalyzer(completions, NewRegistry(failing), defaultMaxRounds)

	if _, err := analyzer.Analyze(context.Background(), "resume text", "jd"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	toolMsg := completions.requests[1].Messages[2]
	if !strings.Contains(toolMsg.Content, "upstream exploded") {
		t.Fatalf("expected tool error in payload: %q", toolMsg.Content)
	}
}

func TestAnalyzeTerminatesAtRoundCap(t *testing.T) {
	tool := &stubTool{name: "looping_tool", result: "again"}
	// A single queued response is repeated forever by the stub.
	completions := &stubCompletions{responses: []*ai.CompletionResponse{
		toolCallResponse(ai.ToolCall{ID: "call-1", Name: "looping_tool"}),
	}}
	analyzer := newTestAnalyzer(completions, NewRegistry(tool), 3)

	_, err := analyzer.Analyze(context.Background(), "resume text", "jd")
	if !errors.Is(err, ErrToolRoundsExceeded) {
		t.Fatalf("expected ErrToolRoundsExceeded, got %v", err)
	}
	if len(completions.requests) != 3 {
		t.Fatalf("expected exactly 3 rounds, got %d", len(completions.requests))
	}
	if tool.calls != 3 {
		t.Fatalf("expected 3 tool executions, got %d", tool.calls)
	}
}

func TestAnalyzeRequiresResumeText(t *testing.T) {
	analyzer := newTestAnalyzer(&stubCompletions{}, NewRegistry(), defaultMaxRounds)

	if _, err := analyzer.Analyze(context.Background(), "   ", "jd"); err == nil {
		t.Fatalf("expected error for empty resume")
	}
}

func TestAnalyzeCompletionFailureAborts(t *testing.T) {
	completions := &stubCompletions{err: errors.New("service down")}
	analyzer := newTestAnalyzer(completions, NewRegistry(), defaultMaxRounds)

	if _, err := analyzer.Analyze(context.Background(), "resume", "jd"); err == nil {
		t.Fatalf("expected completion error to surface")
	}
}
