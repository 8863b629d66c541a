// Package gemini implements the completion and embedding interfaces on top of
// the Google GenAI client.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/karar-git/VibeHiring/internal/ai"
	"github.com/karar-git/VibeHiring/internal/utils"
)

const (
	defaultModel      = "gemini-2.5-flash"
	defaultEmbedModel = "text-embedding-004"

	// Embedding input cap in bytes. The embedding model rejects oversized
	// payloads, long resumes get truncated instead of failing.
	maxEmbedBytes = 40000

	defaultMaxRetries = 2
	retryBackoff      = 2 * time.Second
)

// generativeAPI is the slice of genai.Models this package uses. Kept as an
// interface so tests can run without the real backend.
type generativeAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Client wraps the Google GenAI client behind the service's completion and
// embedding interfaces.
type Client struct {
	models     generativeAPI
	modelName  string
	embedModel string
	maxRetries int
	backoff    time.Duration
}

// NewClient creates a new Client configured for the Gemini API backend.
func NewClient(ctx context.Context, apiKey, model, embedModel string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if embedModel = strings.TrimSpace(embedModel); embedModel == "" {
		embedModel = defaultEmbedModel
	}

	return &Client{
		models:     client.Models,
		modelName:  model,
		embedModel: embedModel,
		maxRetries: defaultMaxRetries,
		backoff:    retryBackoff,
	}, nil
}

// Complete sends the conversation to Gemini and returns either the final text
// or the set of tool calls the model requested.
func (c *Client) Complete(ctx context.Context, req *ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if c == nil || c.models == nil {
		return nil, errors.New("gemini client is not initialized")
	}
	if req == nil || len(req.Messages) == 0 {
		return nil, errors.New("at least one message is required")
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.modelName
	}

	contents, config := convertRequest(req)

	resp, err := c.generate(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	return parseResponse(resp)
}

// Embed returns one fixed-dimension vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if c == nil || c.models == nil {
		return nil, errors.New("gemini client is not initialized")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("text must not be empty")
	}
	if len(text) > maxEmbedBytes {
		text = text[:maxEmbedBytes]
	}

	result, err := c.models.EmbedContent(ctx, c.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if result == nil || len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, errors.New("gemini api returned empty embedding")
	}

	return result.Embeddings[0].Values, nil
}

func (c *Client) generate(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for attempt := 0; ; attempt++ {
		resp, err = c.models.GenerateContent(ctx, model, contents, config)
		if err == nil || attempt >= c.maxRetries || !isTemporary(err) {
			break
		}
		if werr := utils.WaitFor(ctx, c.backoff); werr != nil {
			return nil, werr
		}
	}

	return resp, err
}

func isTemporary(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return false
}

func convertRequest(req *ai.CompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{}

	system := strings.TrimSpace(req.System)
	for _, msg := range req.Messages {
		if msg.Role != ai.RoleSystem {
			continue
		}
		if system != "" {
			system += "\n\n"
		}
		system += strings.TrimSpace(msg.Content)
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	if req.Temperature != nil {
		config.Temperature = req.Temperature
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, tool := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  convertSchema(tool.Parameters),
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case ai.RoleSystem:
			// folded into the system instruction above

		case ai.RoleAssistant:
			parts := make([]*genai.Part, 0, len(msg.ToolCalls)+1)
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   call.ID,
					Name: call.Name,
					Args: call.Args,
				}})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})
			}

		case ai.RoleTool:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{
				FunctionResponse: &genai.FunctionResponse{
					ID:       msg.ToolCallID,
					Name:     msg.Name,
					Response: toResponseMap(msg.Content),
				},
			}}})

		default:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: msg.Content}}})
		}
	}

	return contents, config
}

func convertSchema(schema ai.ObjectSchema) *genai.Schema {
	props := make(map[string]*genai.Schema, len(schema.Properties))
	for name, param := range schema.Properties {
		props[name] = &genai.Schema{
			Type:        convertType(param.Type),
			Description: param.Description,
		}
	}

	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   schema.Required,
	}
}

func convertType(t string) genai.Type {
	switch t {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

// toResponseMap converts a JSON-serialized tool result into the object shape
// the API expects. Non-object payloads (arrays, bare strings) get wrapped.
func toResponseMap(content string) map[string]any {
	var object map[string]any
	if err := json.Unmarshal([]byte(content), &object); err == nil && object != nil {
		return object
	}

	var value any
	if err := json.Unmarshal([]byte(content), &value); err == nil {
		return map[string]any{"result": value}
	}

	return map[string]any{"result": content}
}

func parseResponse(resp *genai.GenerateContentResponse) (*ai.CompletionResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("gemini api returned empty response")
	}

	out := &ai.CompletionResponse{FinishReason: ai.FinishStop}

	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.FunctionCall != nil {
			call := ai.ToolCall{
				ID:   part.FunctionCall.ID,
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			}
			// The API is allowed to omit call ids; the loop needs one to
			// correlate the result message, so mint a stable fallback.
			if call.ID == "" {
				call.ID = uuid.NewString()
			}
			out.ToolCalls = append(out.ToolCalls, call)
			continue
		}
		text := strings.TrimSpace(part.Text)
		if text == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(text)
	}

	out.Content = builder.String()
	if len(out.ToolCalls) > 0 {
		out.FinishReason = ai.FinishToolCalls
	} else if out.Content == "" {
		return nil, errors.New("gemini api returned empty response")
	}

	return out, nil
}
