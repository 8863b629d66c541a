package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/karar-git/VibeHiring/internal/ai/gemini"
	"github.com/karar-git/VibeHiring/internal/analyzer"
	"github.com/karar-git/VibeHiring/internal/chat"
	"github.com/karar-git/VibeHiring/internal/detector"
	"github.com/karar-git/VibeHiring/internal/github"
	"github.com/karar-git/VibeHiring/internal/interview"
	"github.com/karar-git/VibeHiring/internal/logger"
	"github.com/karar-git/VibeHiring/internal/personaplex"
	"github.com/karar-git/VibeHiring/internal/server"
)

const defaultPort = "5000"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the vibehiring HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "", "port to listen on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func serve() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting vibehiring", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	apiKey := setting(config.Gemini.APIKey, "gemini.api-key")
	if apiKey == "" {
		logger.Fatal("gemini api key is required",
			zap.String("hint", "set GEMINI_API_KEY or the 'gemini.api-key' key in the configuration file"),
		)
	}

	completions, err := gemini.NewClient(ctx, apiKey, config.Gemini.Model, config.Gemini.EmbeddingModel)
	if err != nil {
		logger.Fatal("creating the gemini client", zap.Error(err))
	}

	gh := github.New(logger, setting(config.GitHub.Token, "github.token"))

	vibeDetector := detector.New(logger)
	if url := setting(config.Detector.URL, "detector.url"); url != "" {
		vibeDetector.Endpoint = url
	}

	candidateAnalyzer := analyzer.New(completions, &analyzer.Toolset{
		GitHub:      gh,
		Sampler:     github.NewSampler(gh, logger),
		Status:      github.NewProfileStatusChecker(gh, logger),
		Detector:    vibeDetector,
		Completions: completions,
	}, logger, config.Analyzer.MaxRounds)

	chatEngine := chat.NewEngine(completions, completions, logger)

	interviewer := buildInterviewer(config, completions, logger)

	srv := server.New(candidateAnalyzer, chatEngine, completions, interviewer, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		logger.Info("shutting down", zap.String("signal", sig.String()))
		if err := srv.Shutdown(); err != nil {
			logger.Error("server shutdown", zap.Error(err))
		}
	}()

	port := setting(config.Server.Port, "server.port")
	if port == "" {
		port = defaultPort
	}

	if err := srv.Listen(":" + port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// buildInterviewer leaves the audio backend unset when no FAL key is
// configured: the rest of the API still works and voice turns report the
// missing configuration.
func buildInterviewer(config *Config, completions *gemini.Client, logger *zap.Logger) *interview.Interviewer {
	store := interview.NewStore()

	falKey := setting(config.Fal.APIKey, "fal.api-key")
	if falKey == "" {
		logger.Warn("FAL_KEY is not set, voice interviews are disabled")
		return interview.New(store, nil, completions, logger)
	}

	audio, err := personaplex.New(logger, falKey)
	if err != nil {
		logger.Fatal("creating the personaplex client", zap.Error(err))
	}

	return interview.New(store, audio, completions, logger)
}

// setting prefers the unmarshalled config value and falls back to viper for
// keys that only arrived through environment bindings.
func setting(value, key string) string {
	if value != "" {
		return value
	}
	return viper.GetString(key)
}
