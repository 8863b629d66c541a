package analyzer

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/karar-git/VibeHiring/internal/ai"
)

func TestToolsetRegistryCarriesFixedCatalog(t *testing.T) {
	t.Parallel()

	toolset := &Toolset{}
	registry := toolset.Registry("backend engineer")

	defs := registry.Definitions()
	if len(defs) != 4 {
		t.Fatalf("expected catalog of 4, got %d", len(defs))
	}

	expected := []string{
		"github_repository_extractor",
		"vibe_coding_percentage_checker",
		"github_status_checker",
		"cv_appropriateness_evaluator",
	}
	for i, name := range expected {
		if defs[i].Name != name {
			t.Fatalf("expected %s at position %d, got %s", name, i, defs[i].Name)
		}
	}
}

func TestRegistryDispatchUnknownTool(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	payload := registry.Dispatch(context.Background(), ai.ToolCall{Name: "bogus"})

	var result map[string]string
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if result["error"] != "Unknown tool: bogus" {
		t.Fatalf("unexpected payload: %q", payload)
	}
}

func TestFitEvaluatorParsesModelJSON(t *testing.T) {
	t.Parallel()

	completions := &stubCompletions{responses: []*ai.CompletionResponse{
		finalResponse("```json\n{\"overall_fit\": \"strong match\", \"matching_score\": 85}\n```"),
	}}
	tool := &fitEvaluatorTool{completions: completions, jobDescription: "Go developer"}

	result, err := tool.Call(context.Background(), map[string]any{
		"cv_summary":              "ten years of Go",
		"job_description_summary": "looking for Go",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	evaluation, ok := result.(fitEvaluation)
	if !ok {
		t.Fatalf("unexpected result type: %T", result)
	}
	if evaluation.MatchingScore != 85 || evaluation.OverallFit != "strong match" {
		t.Fatalf("unexpected evaluation: %+v", evaluation)
	}

	prompt := completions.requests[0].Messages[0].Content
	if !strings.Contains(prompt, "Go developer") {
		t.Fatalf("expected retained job description in prompt: %q", prompt)
	}
}

func TestFitEvaluatorDegradesOnUnparseableResponse(t *testing.T) {
	t.Parallel()

	completions := &stubCompletions{responses: []*ai.CompletionResponse{
		finalResponse("The candidate looks fine to me."),
	}}
	tool := &fitEvaluatorTool{completions: completions}

	result, err := tool.Call(context.Background(), map[string]any{
		"cv_summary":              "summary",
		"job_description_summary": "jd",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	evaluation := result.(fitEvaluation)
	if evaluation.MatchingScore != 50 {
		t.Fatalf("expected default score 50, got %v", evaluation.MatchingScore)
	}
	if evaluation.OverallFit != "The candidate looks fine to me." {
		t.Fatalf("expected raw text preserved, got %q", evaluation.OverallFit)
	}
}

func TestFitEvaluatorRequiresCVSummary(t *testing.T) {
	t.Parallel()

	tool := &fitEvaluatorTool{completions: &stubCompletions{}}

	if _, err := tool.Call(context.Background(), map[string]any{"cv_summary": ""}); err == nil {
		t.Fatalf("expected error for missing cv_summary")
	}
}
