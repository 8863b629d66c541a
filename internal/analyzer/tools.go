package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/karar-git/VibeHiring/internal/ai"
	"github.com/karar-git/VibeHiring/internal/detector"
	"github.com/karar-git/VibeHiring/internal/github"
)

// Toolset carries the external collaborators behind the fixed tool catalog and
// builds the per-request registry.
type Toolset struct {
	GitHub      *github.Client
	Sampler     *github.Sampler
	Status      *github.ProfileStatusChecker
	Detector    *detector.Client
	Completions ai.CompletionClient
	// EvaluatorModel overrides the completion client's default model for the
	// nested fit evaluation call.
	EvaluatorModel string
}

// Registry assembles the catalog of 4. The job description is retained for
// the fit evaluator only.
func (t *Toolset) Registry(jobDescription string) *Registry {
	return NewRegistry(
		&repoExtractorTool{client: t.GitHub},
		&vibeCheckTool{sampler: t.Sampler, detector: t.Detector},
		&statusCheckerTool{checker: t.Status},
		&fitEvaluatorTool{
			completions:    t.Completions,
			model:          t.EvaluatorModel,
			jobDescription: jobDescription,
		},
	)
}

func decodeArgs(args map[string]any, target any) error {
	if err := mapstructure.Decode(args, target); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}

// github_repository_extractor

type repoExtractorTool struct {
	client *github.Client
}

type repoExtractorArgs struct {
	Input string `mapstructure:"input"`
}

type repoRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (t *repoExtractorTool) Definition() ai.ToolDefinition {
	return ai.ToolDefinition{
		Name:        "github_repository_extractor",
		Description: "Extract repositories from a GitHub username",
		Parameters: ai.ObjectSchema{
			Properties: map[string]ai.ParamSchema{
				"input": {Type: "string", Description: "GitHub username to extract repositories from."},
			},
			Required: []string{"input"},
		},
	}
}

func (t *repoExtractorTool) Call(ctx context.Context, args map[string]any) (any, error) {
	var parsed repoExtractorArgs
	if err := decodeArgs(args, &parsed); err != nil {
		return nil, err
	}
	if strings.TrimSpace(parsed.Input) == "" {
		return nil, errors.New("input username is required")
	}

	repos, err := t.client.ListUserRepos(ctx, parsed.Input)
	if err != nil {
		return nil, errors.New("unable to fetch repositories from GitHub")
	}

	refs := make([]repoRef, len(repos))
	for i, repo := range repos {
		refs[i] = repoRef{Name: repo.Name, URL: repo.HTMLURL}
	}
	return refs, nil
}

// vibe_coding_percentage_checker

type vibeCheckTool struct {
	sampler  *github.Sampler
	detector *detector.Client
}

type vibeCheckArgs struct {
	URL string `mapstructure:"url"`
}

func (t *vibeCheckTool) Definition() ai.ToolDefinition {
	return ai.ToolDefinition{
		Name:        "vibe_coding_percentage_checker",
		Description: "Analyzes the coding style percentage of a GitHub repository.",
		Parameters: ai.ObjectSchema{
			Properties: map[string]ai.ParamSchema{
				"url": {Type: "string", Description: "The URL of the GitHub repository."},
			},
			Required: []string{"url"},
		},
	}
}

func (t *vibeCheckTool) Call(ctx context.Context, args map[string]any) (any, error) {
	var parsed vibeCheckArgs
	if err := decodeArgs(args, &parsed); err != nil {
		return nil, err
	}
	if strings.TrimSpace(parsed.URL) == "" {
		return nil, errors.New("repository url is required")
	}

	sample, err := t.sampler.Sample(ctx, parsed.URL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(sample) == "" {
		return map[string]any{
			"error":             "Could not fetch code from repository",
			"vibe_coding_score": 0,
		}, nil
	}

	return t.detector.Check(ctx, sample), nil
}

// github_status_checker

type statusCheckerTool struct {
	checker *github.ProfileStatusChecker
}

type statusCheckerArgs struct {
	Username string `mapstructure:"username"`
}

func (t *statusCheckerTool) Definition() ai.ToolDefinition {
	return ai.ToolDefinition{
		Name:        "github_status_checker",
		Description: "Retrieves the status of a candidate's GitHub profile.",
		Parameters: ai.ObjectSchema{
			Properties: map[string]ai.ParamSchema{
				"username": {Type: "string", Description: "The GitHub username of the candidate."},
			},
			Required: []string{"username"},
		},
	}
}

func (t *statusCheckerTool) Call(ctx context.Context, args map[string]any) (any, error) {
	var parsed statusCheckerArgs
	if err := decodeArgs(args, &parsed); err != nil {
		return nil, err
	}
	if strings.TrimSpace(parsed.Username) == "" {
		return nil, errors.New("username is required")
	}

	return t.checker.Check(ctx, parsed.Username), nil
}

// cv_appropriateness_evaluator

const evaluatorSystemPrompt = `You are an expert HR assistant specialized in evaluating the appropriateness of a candidate's CV against a job description. You will receive a summary of the candidate's CV and a summary of the job description. Your task is to analyze the CV summary in the context of the job description summary and provide a detailed evaluation of how well the candidate's CV matches the requirements and expectations outlined in the job description.
In your evaluation, consider the following aspects:
1. Skills Match: Assess how well the candidate's skills align with the required and preferred skills mentioned in the job description.
2. Experience Relevance: Evaluate the relevance of the candidate's work experience to the responsibilities and duties described in the job description.
3. Education and Certifications: Consider the candidate's educational background and any relevant certifications in relation to the job requirements.
4. Overall Fit: Provide an overall assessment of how well the candidate's CV matches the job description.
Your evaluation should be comprehensive and provide actionable insights for HR professionals.

IMPORTANT: You MUST respond with valid JSON in this exact format:
{"overall_fit": "your assessment here", "matching_score": 75}`

type fitEvaluatorTool struct {
	completions    ai.CompletionClient
	model          string
	jobDescription string
}

type fitEvaluatorArgs struct {
	CVSummary          string `mapstructure:"cv_summary"`
	JobDescriptionSumm string `mapstructure:"job_description_summary"`
}

type fitEvaluation struct {
	OverallFit    string  `json:"overall_fit"`
	MatchingScore float64 `json:"matching_score"`
}

func (t *fitEvaluatorTool) Definition() ai.ToolDefinition {
	return ai.ToolDefinition{
		Name:        "cv_appropriateness_evaluator",
		Description: "Evaluates how well the candidate's CV matches the provided job description.",
		Parameters: ai.ObjectSchema{
			Properties: map[string]ai.ParamSchema{
				"cv_summary":              {Type: "string", Description: "A summary of the candidate's CV."},
				"job_description_summary": {Type: "string", Description: "A summary of the job description."},
			},
			Required: []string{"cv_summary", "job_description_summary"},
		},
	}
}

func (t *fitEvaluatorTool) Call(ctx context.Context, args map[string]any) (any, error) {
	var parsed fitEvaluatorArgs
	if err := decodeArgs(args, &parsed); err != nil {
		return nil, err
	}
	if strings.TrimSpace(parsed.CVSummary) == "" {
		return nil, errors.New("cv_summary is required")
	}

	// The model's own summary of the job description can drift; the original
	// posting retained from the request wins when present.
	jobDescription := strings.TrimSpace(t.jobDescription)
	if jobDescription == "" {
		jobDescription = parsed.JobDescriptionSumm
	}

	resp, err := t.completions.Complete(ctx, &ai.CompletionRequest{
		System: evaluatorSystemPrompt,
		Model:  t.model,
		Messages: []ai.Message{{
			Role:    ai.RoleUser,
			Content: fmt.Sprintf("CV Summary: %s\n\nJob Description Summary: %s", parsed.CVSummary, jobDescription),
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("fit evaluation: %w", err)
	}

	var evaluation fitEvaluation
	if err := json.Unmarshal([]byte(ai.ExtractJSON(resp.Content)), &evaluation); err != nil {
		// Keep the model's prose assessment rather than rejecting the round.
		return fitEvaluation{OverallFit: resp.Content, MatchingScore: 50}, nil
	}

	return evaluation, nil
}
