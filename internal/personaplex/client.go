// Package personaplex calls the FAL audio-to-audio interview model that turns
// a candidate's spoken answer into the interviewer's next spoken question.
package personaplex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultEndpoint = "https://queue.fal.run/fal-ai/personaplex"

	// The audio round trip includes model inference; it is the one outbound
	// call with a natively specified timeout.
	requestTimeout = 60 * time.Second

	audioTemperature = 0.7
	textTemperature  = 0.8
)

// ErrTimeout marks a transient failure: the caller may retry the same turn.
var ErrTimeout = errors.New("audio generation timed out")

type Request struct {
	AudioURL string
	Prompt   string
	Voice    string
}

type Response struct {
	AudioURL string
	Text     string
	Duration float64
	Seed     int64
}

type apiRequest struct {
	AudioURL         string  `json:"audio_url"`
	Prompt           string  `json:"prompt"`
	Voice            string  `json:"voice"`
	TemperatureAudio float64 `json:"temperature_audio"`
	TemperatureText  float64 `json:"temperature_text"`
}

type apiResponse struct {
	Audio struct {
		URL string `json:"url"`
	} `json:"audio"`
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Seed     int64   `json:"seed"`
}

type Client struct {
	key        string
	logger     *zap.Logger
	HTTPClient *http.Client
	Endpoint   string
}

func New(logger *zap.Logger, key string) (*Client, error) {
	if key == "" {
		return nil, errors.New("fal api key is required for voice interviews")
	}

	return &Client{
		key:      key,
		logger:   logger,
		Endpoint: defaultEndpoint,
		HTTPClient: &http.Client{
			Timeout: requestTimeout,
		},
	}, nil
}

// Generate submits the candidate audio with the interviewer persona prompt and
// returns the interviewer's spoken reply. Timeouts come back as ErrTimeout so
// the session layer can report them as transient.
func (c *Client) Generate(ctx context.Context, req *Request) (*Response, error) {
	body, err := json.Marshal(apiRequest{
		AudioURL:         req.AudioURL,
		Prompt:           req.Prompt,
		Voice:            req.Voice,
		TemperatureAudio: audioTemperature,
		TemperatureText:  textTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", fmt.Sprintf("Key %s", c.key))
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("personaplex request", zap.String("voice", req.Voice))

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("audio generation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audio generation bad status: %s", resp.Status)
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode audio response: %w", err)
	}

	return &Response{
		AudioURL: parsed.Audio.URL,
		Text:     parsed.Text,
		Duration: parsed.Duration,
		Seed:     parsed.Seed,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
