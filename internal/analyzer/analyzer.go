// Package analyzer drives the multi-round tool-calling conversation that
// turns a resume and job description into a structured judgment.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	_ "embed"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/karar-git/VibeHiring/internal/ai"
	"github.com/karar-git/VibeHiring/internal/logger"
)

//go:embed instructions.md
var instructions string

const (
	defaultMaxRounds = 10
	maxLogPreview    = 200
)

// ErrToolRoundsExceeded reports that the model kept requesting tool calls past
// the configured round cap.
var ErrToolRoundsExceeded = errors.New("tool call rounds exceeded")

type registryBuilder interface {
	Registry(jobDescription string) *Registry
}

type Analyzer struct {
	completions ai.CompletionClient
	tools       registryBuilder
	logger      *zap.Logger
	maxRounds   int
}

func New(completions ai.CompletionClient, tools *Toolset, log *zap.Logger, maxRounds int) *Analyzer {
	if maxRounds <= 0 {
		maxRounds = defaultMaxRounds
	}

	return &Analyzer{
		completions: completions,
		tools:       tools,
		logger:      log,
		maxRounds:   maxRounds,
	}
}

// Analyze runs completion rounds until the model stops requesting tools,
// returning its final text. The result is expected to be a JSON judgment, but
// validating that shape is the caller's job.
func (a *Analyzer) Analyze(ctx context.Context, resume, jobDescription string) (string, error) {
	if strings.TrimSpace(resume) == "" {
		return "", errors.New("resume text is required")
	}

	registry := a.tools.Registry(jobDescription)
	definitions := registry.Definitions()

	messages := []ai.Message{{Role: ai.RoleUser, Content: resume}}

	for round := 1; round <= a.maxRounds; round++ {
		resp, err := a.completions.Complete(ctx, &ai.CompletionRequest{
			System:   instructions,
			Messages: messages,
			Tools:    definitions,
		})
		if err != nil {
			return "", fmt.Errorf("completion round %d: %w", round, err)
		}

		if resp.FinishReason != ai.FinishToolCalls {
			a.logger.Debug("analysis converged",
				zap.Int("rounds", round),
				zap.String("result_preview", logger.TruncateForLog(resp.Content, maxLogPreview)),
			)
			return resp.Content, nil
		}

		messages = append(messages, ai.Message{
			Role:      ai.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		messages = append(messages, a.executeCalls(ctx, registry, resp.ToolCalls)...)
	}

	return "", ErrToolRoundsExceeded
}

// executeCalls runs one round's tool calls concurrently. Every tool is a
// side-effect-free outbound read, so execution order does not matter; the
// result messages are still assembled in the requested call order because the
// history correlates them positionally with the assistant message.
func (a *Analyzer) executeCalls(ctx context.Context, registry *Registry, calls []ai.ToolCall) []ai.Message {
	results := make([]ai.Message, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			payload := registry.Dispatch(gctx, call)

			a.logger.Debug("tool call executed",
				zap.String("tool", call.Name),
				zap.String("call_id", call.ID),
				zap.String("result_preview", logger.TruncateForLog(payload, maxLogPreview)),
			)

			results[i] = ai.Message{
				Role:       ai.RoleTool,
				Content:    payload,
				ToolCallID: call.ID,
				Name:       call.Name,
			}
			return nil
		})
	}

	// Dispatch never returns an error; failures are data in the payload.
	_ = g.Wait()

	return results
}
