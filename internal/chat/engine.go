// Package chat answers free-form HR questions grounded in a caller-supplied
// candidate list, ranked by embedding similarity when embeddings exist.
package chat

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/karar-git/VibeHiring/internal/ai"
)

const (
	// Top-K when at least one record carries an embedding.
	embeddedTopK = 10
	// How many records to keep, in caller order, before embeddings are
	// backfilled.
	fallbackLimit = 20

	recordSeparator = "\n\n---\n\n"

	fallbackReply = "I'm sorry, I ran into a problem answering that. Please try again in a moment."
)

const systemPromptTemplate = `You are an HR assistant helping a recruiter reason about analyzed job candidates.

Job description for this position:
%s

There are %d candidates in total for this position. The most relevant candidate records for this question are listed below.

CANDIDATE RECORDS:
%s

Grounding rules:
- Answer ONLY from the candidate records above. Never invent candidates or facts that are not present.
- Whenever you mention a candidate, include at least one of their contact channels.
- Prefer structured formatting (short lists, bullet points) over long paragraphs.`

type Engine struct {
	completions ai.CompletionClient
	embedder    ai.Embedder
	logger      *zap.Logger
}

func NewEngine(completions ai.CompletionClient, embedder ai.Embedder, logger *zap.Logger) *Engine {
	return &Engine{
		completions: completions,
		embedder:    embedder,
		logger:      logger,
	}
}

// Reply answers the query grounded in the supplied candidate list. Failures
// never propagate: the caller always gets a usable reply string.
func (e *Engine) Reply(ctx context.Context, query, jobDescription string, candidates []CandidateRecord, history []ai.Message) string {
	selected := e.selectCandidates(ctx, query, candidates)

	rendered := make([]string, len(selected))
	for i, candidate := range selected {
		rendered[i] = candidate.render(i + 1)
	}

	contextBlock := strings.Join(rendered, recordSeparator)
	if contextBlock == "" {
		contextBlock = "(no candidate records available)"
	}

	system := fmt.Sprintf(systemPromptTemplate, jobDescription, len(candidates), contextBlock)

	messages := filterHistory(history)
	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: query})

	resp, err := e.completions.Complete(ctx, &ai.CompletionRequest{
		System:   system,
		Messages: messages,
	})
	if err != nil {
		e.logger.Warn("chat completion failed", zap.Error(err))
		return fallbackReply
	}

	return resp.Content
}

// selectCandidates ranks embedded records against the query embedding, or
// falls back to the first records in caller order when no embeddings exist
// yet. Selection is deterministic for identical inputs.
func (e *Engine) selectCandidates(ctx context.Context, query string, candidates []CandidateRecord) []CandidateRecord {
	embedded := make([]CandidateRecord, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Embedding) > 0 {
			embedded = append(embedded, c)
		}
	}

	if len(embedded) == 0 {
		if len(candidates) > fallbackLimit {
			return candidates[:fallbackLimit]
		}
		return candidates
	}

	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		e.logger.Warn("query embedding failed, falling back to caller order", zap.Error(err))
		if len(candidates) > fallbackLimit {
			return candidates[:fallbackLimit]
		}
		return candidates
	}

	type scored struct {
		candidate CandidateRecord
		score     float64
	}

	ranked := make([]scored, len(embedded))
	for i, c := range embedded {
		ranked[i] = scored{candidate: c, score: cosineSimilarity(queryVec, c.Embedding)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > embeddedTopK {
		ranked = ranked[:embeddedTopK]
	}

	selected := make([]CandidateRecord, len(ranked))
	for i, s := range ranked {
		selected[i] = s.candidate
	}
	return selected
}

// cosineSimilarity is dot(a,b)/(|a|*|b|), defined as 0 when either norm is
// zero or the dimensions disagree.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// filterHistory keeps only non-empty user and assistant turns; tool and
// system messages from earlier conversations have no place in the grounded
// context.
func filterHistory(history []ai.Message) []ai.Message {
	filtered := make([]ai.Message, 0, len(history))
	for _, msg := range history {
		if msg.Role != ai.RoleUser && msg.Role != ai.RoleAssistant {
			continue
		}
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		filtered = append(filtered, ai.Message{Role: msg.Role, Content: msg.Content})
	}
	return filtered
}
