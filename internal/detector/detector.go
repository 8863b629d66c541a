// Package detector calls the external AI-generation-likelihood service used to
// estimate how much of a code sample is machine-written.
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultEndpoint = "https://vibecodedetector.com/api/analyze"
	defaultOrigin   = "https://vibecodedetector.com"
	requestTimeout  = 30 * time.Second
)

// Result is what the detector reports for one content sample. When the
// upstream call fails, Score degrades to 0 and Err carries the reason; the
// caller feeds it to the model as data instead of aborting.
type Result struct {
	Score   float64 `json:"vibe_coding_score"`
	Human   float64 `json:"human_craft_score"`
	Label   string  `json:"label,omitempty"`
	Summary string  `json:"summary,omitempty"`
	Err     string  `json:"error,omitempty"`
}

type analyzeRequest struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

type analyzeResponse struct {
	AILikelihood    float64 `json:"aiLikelihood"`
	HumanCraftScore float64 `json:"humanCraftScore"`
	SuggestedLabel  string  `json:"suggestedLabel"`
	VibeSummary     string  `json:"vibeSummary"`
}

type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	Endpoint   string
	Origin     string
}

func New(logger *zap.Logger) *Client {
	return &Client{
		logger:   logger,
		Endpoint: defaultEndpoint,
		Origin:   defaultOrigin,
		HTTPClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Check submits a code sample and returns the likelihood verdict. Never
// returns a Go error: any upstream failure degrades to a zero-score Result.
func (c *Client) Check(ctx context.Context, content string) *Result {
	body, err := json.Marshal(analyzeRequest{Content: content, Type: "code"})
	if err != nil {
		return degraded(fmt.Sprintf("encode request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return degraded(fmt.Sprintf("build request: %v", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", c.Origin)
	req.Header.Set("Referer", c.Origin+"/")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.logger.Warn("detector request failed", zap.Error(err))
		return degraded(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("detector returned bad status", zap.String("status", resp.Status))
		return degraded(fmt.Sprintf("bad status: %s", resp.Status))
	}

	var parsed analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return degraded(fmt.Sprintf("decode response: %v", err))
	}

	return &Result{
		Score:   parsed.AILikelihood,
		Human:   parsed.HumanCraftScore,
		Label:   parsed.SuggestedLabel,
		Summary: parsed.VibeSummary,
	}
}

func degraded(reason string) *Result {
	return &Result{Score: 0, Human: 100, Err: reason}
}
