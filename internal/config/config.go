package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gptportal/portal-go/internal/promptcache"
)

const (
	DefaultPort           = 6970
	DefaultConfigFilename = "config.json"
	DefaultHost           = "127.0.0.1"
)

// VendorKeys holds the per-vendor API keys. Any key left empty in the config
// file falls back to the matching environment variable on load.
type VendorKeys struct {
	OpenAI     string `json:"openai,omitempty"`
	Anthropic  string `json:"anthropic,omitempty"`
	Google     string `json:"google,omitempty"`
	Groq       string `json:"groq,omitempty"`
	Mistral    string `json:"mistral,omitempty"`
	Codestral  string `json:"codestral,omitempty"`
	DeepSeek   string `json:"deepseek,omitempty"`
	OpenRouter string `json:"openrouter,omitempty"`
}

type Config struct {
	Host   string `json:"HOST,omitempty"`
	Port   int    `json:"PORT,omitempty"`
	APIKey string `json:"APIKEY,omitempty"`

	Keys VendorKeys `json:"Keys"`

	Cache promptcache.Config `json:"Cache"`

	// ClaudeWebSearch attaches the web-search tool to capable Claude models.
	ClaudeWebSearch bool `json:"ClaudeWebSearch"`
}

func (c *Config) applyEnv() {
	fallback := func(field *string, env string) {
		if *field == "" {
			*field = os.Getenv(env)
		}
	}

	fallback(&c.Keys.OpenAI, "OPENAI_API_KEY")
	fallback(&c.Keys.Anthropic, "ANTHROPIC_API_KEY")
	fallback(&c.Keys.Google, "GOOGLE_API_KEY")
	fallback(&c.Keys.Groq, "GROQ_API_KEY")
	fallback(&c.Keys.Mistral, "MISTRAL_API_KEY")
	fallback(&c.Keys.Codestral, "CODESTRAL_API_KEY")
	fallback(&c.Keys.DeepSeek, "DEEPSEEK_API_KEY")
	fallback(&c.Keys.OpenRouter, "OPENROUTER_API_KEY")
}

type Manager struct {
	configPath  string
	configValue atomic.Value
}

func NewManager(baseDir string) *Manager {
	return &Manager{
		configPath: filepath.Join(baseDir, DefaultConfigFilename),
	}
}

func (m *Manager) Load() (*Config, error) {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	m.configValue.Store(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Cache.DefaultStrategy == "" {
		cfg.Cache = promptcache.DefaultConfig()
	}
	cfg.applyEnv()
}

func (m *Manager) Get() *Config {
	if v := m.configValue.Load(); v != nil {
		return v.(*Config)
	}

	cfg, err := m.Load()
	if err != nil {
		// Run on environment variables alone when no file exists.
		cfg = &Config{}
		applyDefaults(cfg)
		m.configValue.Store(cfg)
	}
	return cfg
}

func (m *Manager) Save(cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	m.configValue.Store(cfg)
	return nil
}

func (m *Manager) GetPath() string {
	return m.configPath
}

func (m *Manager) Exists() bool {
	_, err := os.Stat(m.configPath)
	return err == nil
}
