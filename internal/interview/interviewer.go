// Package interview runs live voice interview sessions: an in-memory session
// store, a PersonaPlex-backed interviewer persona and a transcript evaluator.
package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/karar-git/VibeHiring/internal/ai"
	"github.com/karar-git/VibeHiring/internal/personaplex"
)

// DefaultVoice is used whenever the caller omits the voice or names one the
// model does not ship.
const DefaultVoice = "NATF2"

// maxContextTurns bounds how much transcript the persona prompt carries; the
// audio model degrades on long prompts.
const maxContextTurns = 6

// Voices lists the PersonaPlex voice presets.
var Voices = []string{
	"NATF0", "NATF1", "NATF2", "NATF3",
	"NATM0", "NATM1", "NATM2", "NATM3",
	"VARF0", "VARF1", "VARF2", "VARF3", "VARF4",
	"VARM0", "VARM1", "VARM2", "VARM3", "VARM4",
}

type audioGenerator interface {
	Generate(ctx context.Context, req *personaplex.Request) (*personaplex.Response, error)
}

// Interviewer drives interview sessions end to end: creation, voice turns and
// final evaluation.
type Interviewer struct {
	store       *Store
	audio       audioGenerator
	completions ai.CompletionClient
	logger      *zap.Logger
}

func New(store *Store, audio audioGenerator, completions ai.CompletionClient, logger *zap.Logger) *Interviewer {
	return &Interviewer{
		store:       store,
		audio:       audio,
		completions: completions,
		logger:      logger,
	}
}

type StartResult struct {
	SessionID string `json:"session_id"`
	Voice     string `json:"voice"`
}

// Start registers a new session and returns its id together with the voice
// that will actually be used. Callers may bring their own session id; an
// empty one gets a generated id. Reusing an id replaces the old session.
func (i *Interviewer) Start(sessionID, jobDescription, voice string) (*StartResult, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return nil, errors.New("job description is required")
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	session := &Session{
		ID:             sessionID,
		JobDescription: jobDescription,
		Voice:          normalizeVoice(voice),
		CreatedAt:      time.Now(),
	}
	i.store.Put(session)

	i.logger.Info("interview session started",
		zap.String("session", session.ID),
		zap.String("voice", session.Voice),
	)

	return &StartResult{SessionID: session.ID, Voice: session.Voice}, nil
}

type TurnResult struct {
	AudioURL  string  `json:"audio_url"`
	Text      string  `json:"text"`
	Duration  float64 `json:"duration"`
	TurnCount int     `json:"turn_count"`
}

// Respond records the candidate's answer and produces the interviewer's next
// spoken question. The candidate turn is recorded even when audio generation
// fails afterwards; no interviewer turn is added in that case.
func (i *Interviewer) Respond(ctx context.Context, sessionID, audioURL, transcript string) (*TurnResult, error) {
	if audioURL == "" {
		return nil, errors.New("candidate audio url is required")
	}
	if i.audio == nil {
		return nil, errors.New("voice interviews are not configured")
	}

	session, err := i.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	// A manual transcript is recorded no matter what happens to the turn
	// afterwards; audio failures leave it in place.
	if transcript != "" {
		session.appendTurn(Turn{Role: RoleCandidate, Text: transcript, AudioURL: audioURL})
	}

	resp, err := i.audio.Generate(ctx, &personaplex.Request{
		AudioURL: audioURL,
		Prompt:   personaPrompt(session.JobDescription, session.turns),
		Voice:    session.Voice,
	})
	if err != nil {
		i.logger.Warn("interviewer turn failed", zap.String("session", sessionID), zap.Error(err))
		return nil, fmt.Errorf("interviewer turn: %w", err)
	}

	session.appendTurn(Turn{Role: RoleInterviewer, Text: resp.Text, AudioURL: resp.AudioURL})

	return &TurnResult{
		AudioURL:  resp.AudioURL,
		Text:      resp.Text,
		Duration:  resp.Duration,
		TurnCount: len(session.turns),
	}, nil
}

// History returns a copy of the session transcript.
func (i *Interviewer) History(sessionID string) ([]Turn, error) {
	session, err := i.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	return session.snapshot(), nil
}

func normalizeVoice(voice string) string {
	for _, v := range Voices {
		if v == voice {
			return voice
		}
	}
	return DefaultVoice
}

func personaPrompt(jobDescription string, turns []Turn) string {
	var b strings.Builder
	b.WriteString("You are a professional job interviewer conducting a voice interview for the following position:\n\n")
	b.WriteString(jobDescription)
	b.WriteString("\n\nAsk one focused question at a time, follow up on the candidate's answers, and keep a warm but professional tone.\n\n")

	if len(turns) <= 1 {
		b.WriteString("This is the start of the interview. Greet the candidate and ask your first question.")
		return b.String()
	}

	b.WriteString("Previous exchanges:\n")
	start := 0
	if len(turns) > maxContextTurns {
		start = len(turns) - maxContextTurns
	}
	for _, t := range turns[start:] {
		if t.Text == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", t.Role, t.Text)
	}
	b.WriteString("\nContinue the interview from here.")

	return b.String()
}
