package cmd

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gptportal/portal-go/internal/config"
)

const (
	AppName = "gptportal"
	Version = "1.0.0"
)

var (
	logger  *slog.Logger
	homeDir string
	baseDir string
	cfgMgr  *config.Manager
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger = slog.New(handler)

	var err error
	homeDir, err = os.UserHomeDir()
	if err != nil {
		logger.Error("Failed to get home directory", "error", err)
		os.Exit(1)
	}

	baseDir = filepath.Join(homeDir, "."+AppName)
	cfgMgr = config.NewManager(baseDir)
}

var rootCmd = &cobra.Command{
	Use:     "gptportal",
	Short:   "GPT Portal - multi-vendor LLM gateway",
	Long:    `A gateway server exposing one chat API over OpenAI, Claude, Gemini, Groq, Mistral, DeepSeek and OpenRouter, with prompt caching, image generation and audio endpoints.`,
	Version: Version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
}

func warnMissingKeys(cfg *config.Config) {
	if cfg.Keys.OpenAI == "" && cfg.Keys.Anthropic == "" && cfg.Keys.OpenRouter == "" {
		color.Yellow("No vendor API keys configured; set them in %s or via environment variables", cfgMgr.GetPath())
	}
}
