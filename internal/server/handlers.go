package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/karar-git/VibeHiring/internal/ai"
	"github.com/karar-git/VibeHiring/internal/chat"
	"github.com/karar-git/VibeHiring/internal/interview"
	"github.com/karar-git/VibeHiring/internal/personaplex"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now(),
	})
}

type analyzeRequest struct {
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
}

// handleAnalyzeText runs the full candidate judgment over raw resume text.
func (s *Server) handleAnalyzeText(c *fiber.Ctx) error {
	var req analyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request payload")
	}
	if req.ResumeText == "" {
		return fiber.NewError(fiber.StatusBadRequest, "resume_text is required")
	}

	result, err := s.analyzer.Analyze(c.UserContext(), req.ResumeText, req.JobDescription)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "analysis failed: "+err.Error())
	}

	// The model is instructed to answer in JSON; pass it through structured
	// when it complied and as plain text when it did not.
	cleaned := ai.ExtractJSON(result)
	if json.Valid([]byte(cleaned)) {
		return c.JSON(fiber.Map{"analysis": json.RawMessage(cleaned)})
	}
	return c.JSON(fiber.Map{"analysis": result})
}

type chatRequest struct {
	Message        string                 `json:"message"`
	JobDescription string                 `json:"job_description"`
	Candidates     []chat.CandidateRecord `json:"candidates"`
	History        []chatMessage          `json:"history"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request payload")
	}
	if req.Message == "" {
		return fiber.NewError(fiber.StatusBadRequest, "message is required")
	}

	history := make([]ai.Message, 0, len(req.History))
	for _, m := range req.History {
		history = append(history, ai.Message{Role: ai.Role(m.Role), Content: m.Content})
	}

	reply := s.chat.Reply(c.UserContext(), req.Message, req.JobDescription, req.Candidates, history)

	return c.JSON(fiber.Map{"reply": reply})
}

type embedRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleEmbed(c *fiber.Ctx) error {
	var req embedRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request payload")
	}
	if req.Text == "" {
		return fiber.NewError(fiber.StatusBadRequest, "text is required")
	}

	vector, err := s.embedder.Embed(c.UserContext(), req.Text)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "embedding failed: "+err.Error())
	}

	return c.JSON(fiber.Map{"embedding": vector})
}

type interviewStartRequest struct {
	SessionID      string `json:"session_id"`
	JobDescription string `json:"job_description"`
	Voice          string `json:"voice"`
}

func (s *Server) handleInterviewStart(c *fiber.Ctx) error {
	var req interviewStartRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request payload")
	}
	if req.JobDescription == "" {
		return fiber.NewError(fiber.StatusBadRequest, "job_description is required")
	}

	result, err := s.interviews.Start(req.SessionID, req.JobDescription, req.Voice)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

type interviewRespondRequest struct {
	SessionID  string `json:"session_id"`
	AudioURL   string `json:"audio_url"`
	Transcript string `json:"transcript"`
}

func (s *Server) handleInterviewRespond(c *fiber.Ctx) error {
	var req interviewRespondRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request payload")
	}
	if req.SessionID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "session_id is required")
	}
	if req.AudioURL == "" {
		return fiber.NewError(fiber.StatusBadRequest, "audio_url is required")
	}

	result, err := s.interviews.Respond(c.UserContext(), req.SessionID, req.AudioURL, req.Transcript)
	switch {
	case errors.Is(err, interview.ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, "interview session not found")
	case errors.Is(err, personaplex.ErrTimeout):
		return fiber.NewError(fiber.StatusServiceUnavailable, "voice processing timed out, please retry")
	case err != nil:
		return fiber.NewError(fiber.StatusBadGateway, "interviewer turn failed: "+err.Error())
	}

	return c.JSON(result)
}

type interviewEvaluateRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleInterviewEvaluate(c *fiber.Ctx) error {
	var req interviewEvaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request payload")
	}
	if req.SessionID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "session_id is required")
	}

	evaluation, turns, err := s.interviews.Evaluate(c.UserContext(), req.SessionID)
	switch {
	case errors.Is(err, interview.ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, "interview session not found")
	case errors.Is(err, interview.ErrNoHistory):
		return fiber.NewError(fiber.StatusBadRequest, "no conversation history to evaluate")
	case err != nil:
		return fiber.NewError(fiber.StatusBadGateway, "evaluation failed: "+err.Error())
	}

	return c.JSON(fiber.Map{
		"session_id": req.SessionID,
		"evaluation": evaluation,
		"transcript": turns,
	})
}

func (s *Server) handleInterviewHistory(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	turns, err := s.interviews.History(sessionID)
	if errors.Is(err, interview.ErrSessionNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "interview session not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"session_id": sessionID,
		"turns":      turns,
	})
}
