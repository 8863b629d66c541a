package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/karar-git/VibeHiring/internal/ai"
)

// ErrNoHistory means the session exists but no turns were recorded, so there
// is nothing to score. The session stays open.
var ErrNoHistory = errors.New("no conversation history to evaluate")

const degradedScore = 50

const evaluationSystemPrompt = `You are an expert interview assessor. You are given the transcript of a job interview. Evaluate the candidate's performance and respond with ONLY a JSON object of this exact shape:
{
  "overall_score": <0-100>,
  "communication_score": <0-100>,
  "technical_score": <0-100>,
  "enthusiasm_score": <0-100>,
  "cultural_fit_score": <0-100>,
  "strengths": ["..."],
  "weaknesses": ["..."],
  "summary": "...",
  "recommendation": "hire" | "maybe" | "pass"
}
Base every score on the transcript alone. Do not add any text outside the JSON object.`

// Evaluation is the structured verdict over a finished interview.
type Evaluation struct {
	OverallScore       float64  `json:"overall_score"`
	CommunicationScore float64  `json:"communication_score"`
	TechnicalScore     float64  `json:"technical_score"`
	EnthusiasmScore    float64  `json:"enthusiasm_score"`
	CulturalFitScore   float64  `json:"cultural_fit_score"`
	Strengths          []string `json:"strengths"`
	Weaknesses         []string `json:"weaknesses"`
	Summary            string   `json:"summary"`
	Recommendation     string   `json:"recommendation"`
}

// Evaluate scores the session transcript and closes the session. The
// transcript is returned alongside the verdict so callers can persist it
// before the session disappears. On completion failure the session stays open
// so the caller can retry.
func (i *Interviewer) Evaluate(ctx context.Context, sessionID string) (*Evaluation, []Turn, error) {
	session, err := i.store.Get(sessionID)
	if err != nil {
		return nil, nil, err
	}

	session.mu.Lock()
	turns := session.snapshot()
	jobDescription := session.JobDescription
	session.mu.Unlock()

	if len(turns) == 0 {
		return nil, nil, ErrNoHistory
	}

	resp, err := i.completions.Complete(ctx, &ai.CompletionRequest{
		System: evaluationSystemPrompt,
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: evaluationPrompt(jobDescription, turns)},
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("evaluate interview: %w", err)
	}

	evaluation := parseEvaluation(resp.Content, i.logger)

	i.store.Delete(sessionID)
	i.logger.Info("interview session evaluated",
		zap.String("session", sessionID),
		zap.Int("turns", len(turns)),
		zap.String("recommendation", evaluation.Recommendation),
	)

	return evaluation, turns, nil
}

func evaluationPrompt(jobDescription string, turns []Turn) string {
	var b strings.Builder
	b.WriteString("Position:\n")
	b.WriteString(jobDescription)
	b.WriteString("\n\nTranscript:\n")
	for _, t := range turns {
		if t.Text == "" {
			continue
		}
		switch t.Role {
		case RoleInterviewer:
			fmt.Fprintf(&b, "Interviewer: %s\n", t.Text)
		default:
			fmt.Fprintf(&b, "Candidate: %s\n", t.Text)
		}
	}
	return b.String()
}

// parseEvaluation never fails: if the model output is not valid JSON the raw
// text is kept as the summary with neutral scores.
func parseEvaluation(raw string, logger *zap.Logger) *Evaluation {
	var evaluation Evaluation
	if err := json.Unmarshal([]byte(ai.ExtractJSON(raw)), &evaluation); err != nil {
		logger.Warn("evaluation output was not valid JSON", zap.Error(err))
		return &Evaluation{
			OverallScore:   degradedScore,
			Summary:        raw,
			Recommendation: "maybe",
		}
	}
	return &evaluation
}
