package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/karar-git/VibeHiring/internal/ai"
	"github.com/karar-git/VibeHiring/internal/ai/gemini"
	"github.com/karar-git/VibeHiring/internal/chat"
	"github.com/karar-git/VibeHiring/internal/logger"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat about a candidate pool from your terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		runChat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("candidates", "c", "", "JSON file with analyzed candidate records")
	chatCmd.Flags().String("job-description", "", "job description to ground answers in")
	chatCmd.MarkFlagRequired("candidates")
}

func runChat(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

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

	candidatesFile := cmd.Flag("candidates").Value.String()
	candidates, err := loadCandidates(candidatesFile)
	if err != nil {
		logger.Fatal("loading candidates", zap.String("file", candidatesFile), zap.Error(err))
	}

	logger.Info("candidates loaded", zap.Int("count", len(candidates)))

	engine := chat.NewEngine(completions, completions, logger)
	jobDescription := cmd.Flag("job-description").Value.String()

	prompt := promptui.Prompt{Label: "you"}

	var history []ai.Message
	for {
		query, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return
			}
			logger.Fatal("reading input", zap.Error(err))
		}

		query = strings.TrimSpace(query)
		if query == "" {
			continue
		}
		if query == "exit" || query == "quit" {
			return
		}

		reply := engine.Reply(ctx, query, jobDescription, candidates, history)
		fmt.Println(reply)

		history = append(history,
			ai.Message{Role: ai.RoleUser, Content: query},
			ai.Message{Role: ai.RoleAssistant, Content: reply},
		)
	}
}

func loadCandidates(path string) ([]chat.CandidateRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var candidates []chat.CandidateRecord
	if err := json.Unmarshal(raw, &candidates); err != nil {
		return nil, fmt.Errorf("parsing candidates file: %w", err)
	}

	return candidates, nil
}
