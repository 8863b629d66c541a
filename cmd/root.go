package cmd

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "vibehiring"
)

type Config struct {
	Server   *ServerConfig   `mapstructure:"server"`
	Gemini   *GeminiConfig   `mapstructure:"gemini"`
	GitHub   *GitHubConfig   `mapstructure:"github"`
	Detector *DetectorConfig `mapstructure:"detector"`
	Fal      *FalConfig      `mapstructure:"fal"`
	Analyzer *AnalyzerConfig `mapstructure:"analyzer"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type GeminiConfig struct {
	APIKey         string `mapstructure:"api-key"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding-model"`
}

type GitHubConfig struct {
	Token string `mapstructure:"token"`
}

type DetectorConfig struct {
	URL string `mapstructure:"url"`
}

type FalConfig struct {
	APIKey string `mapstructure:"api-key"`
}

type AnalyzerConfig struct {
	MaxRounds int `mapstructure:"max-rounds"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "vibehiring is an AI screening service for job candidates: resume judgment, candidate chat and voice interviews",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for key, env := range map[string]string{
		"gemini.api-key": "GEMINI_API_KEY",
		"github.token":   "GITHUB_TOKEN",
		"fal.api-key":    "FAL_KEY",
		"server.port":    "PORT",
		"detector.url":   "VIBE_DETECTOR_URL",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is vibehiring.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// Everything has an environment fallback, so a missing default config
	// file is fine. An explicitly named one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}
	if config.Gemini == nil {
		config.Gemini = &GeminiConfig{}
	}
	if config.GitHub == nil {
		config.GitHub = &GitHubConfig{}
	}
	if config.Detector == nil {
		config.Detector = &DetectorConfig{}
	}
	if config.Fal == nil {
		config.Fal = &FalConfig{}
	}
	if config.Analyzer == nil {
		config.Analyzer = &AnalyzerConfig{}
	}

	return config, nil
}
