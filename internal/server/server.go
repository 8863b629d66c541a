// Package server exposes the evaluation, chat and interview services over
// HTTP.
package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/karar-git/VibeHiring/internal/ai"
	"github.com/karar-git/VibeHiring/internal/chat"
	"github.com/karar-git/VibeHiring/internal/interview"
)

type analyzeService interface {
	Analyze(ctx context.Context, resume, jobDescription string) (string, error)
}

type chatService interface {
	Reply(ctx context.Context, query, jobDescription string, candidates []chat.CandidateRecord, history []ai.Message) string
}

type Server struct {
	app        *fiber.App
	logger     *zap.Logger
	analyzer   analyzeService
	chat       chatService
	embedder   ai.Embedder
	interviews *interview.Interviewer
}

func New(analyzer analyzeService, chatEngine chatService, embedder ai.Embedder, interviews *interview.Interviewer, logger *zap.Logger) *Server {
	s := &Server{
		logger:     logger,
		analyzer:   analyzer,
		chat:       chatEngine,
		embedder:   embedder,
		interviews: interviews,
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "VibeHiring API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		ErrorHandler: s.errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(s.requestLogger)
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	s.routes()

	return s
}

func (s *Server) routes() {
	s.app.Get("/health", s.handleHealth)
	s.app.Post("/analyze-text", s.handleAnalyzeText)
	s.app.Post("/chat", s.handleChat)
	s.app.Post("/embed", s.handleEmbed)

	iv := s.app.Group("/interview")
	iv.Post("/start", s.handleInterviewStart)
	iv.Post("/respond", s.handleInterviewRespond)
	iv.Post("/evaluate", s.handleInterviewEvaluate)
	iv.Get("/:id/history", s.handleInterviewHistory)
}

func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying Fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	s.logger.Debug("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("latency", time.Since(start)),
	)

	return err
}
