package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gptportal/portal-go/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Manage the portal gateway configuration.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration interactively",
	Long:  `Initialize configuration by prompting for vendor API keys.`,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration with keys masked.`,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  `Validate the current configuration for errors.`,
	RunE:  runConfigValidate,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	color.Blue("GPT Portal Configuration Setup")
	color.Yellow("Leave any key empty to fall back to its environment variable.")

	reader := bufio.NewReader(os.Stdin)

	prompt := func(label string) string {
		fmt.Printf("%s: ", label)
		value, _ := reader.ReadString('\n')
		return strings.TrimSpace(value)
	}

	cfg := &config.Config{
		Host: config.DefaultHost,
		Port: config.DefaultPort,
		Keys: config.VendorKeys{
			OpenAI:     prompt("OpenAI API Key"),
			Anthropic:  prompt("Anthropic API Key"),
			Google:     prompt("Google API Key"),
			Groq:       prompt("Groq API Key"),
			Mistral:    prompt("Mistral API Key"),
			DeepSeek:   prompt("DeepSeek API Key"),
			OpenRouter: prompt("OpenRouter API Key"),
		},
		APIKey: prompt("Portal API Key (optional, for authentication)"),
	}

	if prompt("Enable Claude prompt caching? (y/N)") == "y" {
		cfg.Cache.Enabled = true
	}
	if prompt("Enable Claude web search? (y/N)") == "y" {
		cfg.ClaudeWebSearch = true
	}

	if err := cfgMgr.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	color.Green("Configuration saved successfully to: %s", cfgMgr.GetPath())
	color.Cyan("You can now start the portal with: gptportal start")

	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if !cfgMgr.Exists() {
		color.Yellow("No configuration found. Run 'gptportal config init' to create one.")
		return nil
	}

	cfg, err := cfgMgr.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	color.Blue("Current Configuration:")
	fmt.Printf("  %-18s: %s\n", "Host", cfg.Host)
	fmt.Printf("  %-18s: %d\n", "Port", cfg.Port)
	fmt.Printf("  %-18s: %s\n", "API Key", maskString(cfg.APIKey))
	fmt.Printf("  %-18s: %s\n", "Config Path", cfgMgr.GetPath())

	fmt.Println("\nVendor Keys:")
	fmt.Printf("  %-18s: %s\n", "OpenAI", maskString(cfg.Keys.OpenAI))
	fmt.Printf("  %-18s: %s\n", "Anthropic", maskString(cfg.Keys.Anthropic))
	fmt.Printf("  %-18s: %s\n", "Google", maskString(cfg.Keys.Google))
	fmt.Printf("  %-18s: %s\n", "Groq", maskString(cfg.Keys.Groq))
	fmt.Printf("  %-18s: %s\n", "Mistral", maskString(cfg.Keys.Mistral))
	fmt.Printf("  %-18s: %s\n", "Codestral", maskString(cfg.Keys.Codestral))
	fmt.Printf("  %-18s: %s\n", "DeepSeek", maskString(cfg.Keys.DeepSeek))
	fmt.Printf("  %-18s: %s\n", "OpenRouter", maskString(cfg.Keys.OpenRouter))

	fmt.Println("\nFeatures:")
	fmt.Printf("  %-18s: %v\n", "Prompt Caching", cfg.Cache.Enabled)
	fmt.Printf("  %-18s: %s\n", "Cache Strategy", cfg.Cache.DefaultStrategy)
	fmt.Printf("  %-18s: %v\n", "Claude Web Search", cfg.ClaudeWebSearch)

	return nil
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	if !cfgMgr.Exists() {
		return fmt.Errorf("no configuration found")
	}

	cfg, err := cfgMgr.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var problems []string

	keys := cfg.Keys
	if keys.OpenAI == "" && keys.Anthropic == "" && keys.Google == "" &&
		keys.Groq == "" && keys.Mistral == "" && keys.DeepSeek == "" && keys.OpenRouter == "" {
		problems = append(problems, "no vendor API keys configured (config file or environment)")
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d", cfg.Port))
	}

	if len(problems) > 0 {
		color.Red("Configuration validation failed:")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return fmt.Errorf("configuration validation failed")
	}

	color.Green("Configuration is valid!")
	return nil
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}
