// Package promptcache decides whether and how to annotate Claude requests
// with cache_control breakpoints, and tracks how well those decisions pay off.
// Every failure inside this package degrades to "no caching"; it must never
// abort a chat request.
package promptcache

import (
	"log/slog"

	"github.com/gptportal/portal-go/internal/llm"
	"github.com/gptportal/portal-go/internal/models"
	"github.com/gptportal/portal-go/internal/tokenizer"
)

// StrategyType enumerates the caching modes.
type StrategyType string

const (
	StrategyNone         StrategyType = "none"
	StrategyConservative StrategyType = "conservative"
	StrategyAggressive   StrategyType = "aggressive"
	StrategySystemOnly   StrategyType = "system_only"
	StrategyForce        StrategyType = "force"
)

// Config controls the engine's defaults. Callers can still force caching per
// request via llm.CacheForce.
type Config struct {
	Enabled         bool         `json:"enabled"`
	DefaultStrategy StrategyType `json:"default_strategy,omitempty"`
	MaxBreakpoints  int          `json:"max_breakpoints,omitempty"`
	EnableAnalytics bool         `json:"enable_analytics"`
}

// DefaultConfig mirrors the documented defaults: disabled globally,
// conservative when enabled, at most four breakpoints.
func DefaultConfig() Config {
	return Config{
		Enabled:         false,
		DefaultStrategy: StrategyConservative,
		MaxBreakpoints:  4,
		EnableAnalytics: true,
	}
}

// Breakpoint records one cacheable segment selected by a strategy.
type Breakpoint struct {
	Segment string `json:"segment"` // "system" or "conversation"
	Tokens  int    `json:"tokens"`
}

// Savings estimates what a strategy could save if its breakpoints hit.
type Savings struct {
	Tokens           int     `json:"tokens"`
	EstimatedHitRate float64 `json:"estimated_hit_rate"`
	PotentialSavings float64 `json:"potential_savings"`
}

// Strategy is the per-request caching decision. Computed fresh per request and
// never persisted.
type Strategy struct {
	ShouldCache        bool         `json:"should_cache"`
	Type               StrategyType `json:"type"`
	Reason             string       `json:"reason,omitempty"`
	CacheSystemMessage bool         `json:"cache_system_message"`
	CacheHistory       bool         `json:"cache_history"`
	Breakpoints        []Breakpoint `json:"breakpoints,omitempty"`
	EstimatedSavings   Savings      `json:"estimated_savings"`
}

func noCache(reason string) Strategy {
	return Strategy{ShouldCache: false, Type: StrategyNone, Reason: reason}
}

// Engine analyzes requests, applies cache controls to copies of the payload,
// and accumulates analytics.
type Engine struct {
	counter tokenizer.Counter
	cfg     Config
	logger  *slog.Logger

	analytics analytics
}

func NewEngine(counter tokenizer.Counter, cfg Config, logger *slog.Logger) *Engine {
	if cfg.DefaultStrategy == "" {
		cfg.DefaultStrategy = StrategyConservative
	}
	if cfg.MaxBreakpoints <= 0 {
		cfg.MaxBreakpoints = 4
	}

	return &Engine{
		counter:   counter,
		cfg:       cfg,
		logger:    logger,
		analytics: newAnalytics(),
	}
}

type segment struct {
	name   string
	tokens int
}

// Analyze measures the system message and conversation text and picks a
// strategy for this request.
func (e *Engine) Analyze(modelID, systemMessage string, history []llm.Message, pref llm.CachePreference) Strategy {
	e.analytics.countRequest(modelID)

	if !models.SupportsPromptCaching(modelID) {
		return noCache("model does not support prompt caching")
	}

	if !e.cfg.Enabled && pref != llm.CacheForce {
		return noCache("caching disabled globally")
	}

	if pref == llm.CacheNone {
		return noCache("caching explicitly disabled")
	}

	minimum := models.CacheMinimum(modelID)

	systemTokens := 0
	if systemMessage != "" {
		systemTokens = e.counter.Count(systemMessage, modelID)
	}

	conversationTokens := 0
	if text := historyText(history); text != "" {
		conversationTokens = e.counter.Count(text, modelID)
	}

	var eligible []segment
	if systemTokens >= minimum {
		eligible = append(eligible, segment{"system", systemTokens})
	}
	if conversationTokens >= minimum {
		eligible = append(eligible, segment{"conversation", conversationTokens})
	}

	var strategy Strategy
	switch {
	case pref == llm.CacheForce:
		strategy = forceStrategy(systemTokens, conversationTokens, eligible)
	case len(eligible) == 0:
		return noCache("no content meets minimum token requirements")
	case e.cfg.DefaultStrategy == StrategyAggressive:
		strategy = e.aggressiveStrategy(eligible)
	default:
		// conservative and its system_only alias
		strategy = conservativeStrategy(eligible)
	}

	if strategy.ShouldCache {
		e.analytics.countAttempt()
	}

	return strategy
}

func conservativeStrategy(eligible []segment) Strategy {
	for _, seg := range eligible {
		if seg.name == "system" {
			bps := []Breakpoint{{Segment: "system", Tokens: seg.tokens}}
			return Strategy{
				ShouldCache:        true,
				Type:               StrategyConservative,
				CacheSystemMessage: true,
				Breakpoints:        bps,
				EstimatedSavings:   estimateSavings(bps),
			}
		}
	}
	return noCache("no system message eligible for caching")
}

func (e *Engine) aggressiveStrategy(eligible []segment) Strategy {
	var bps []Breakpoint
	for _, seg := range eligible {
		bps = append(bps, Breakpoint{Segment: seg.name, Tokens: seg.tokens})
	}
	if len(bps) > e.cfg.MaxBreakpoints {
		bps = bps[:e.cfg.MaxBreakpoints]
	}

	s := Strategy{
		ShouldCache:      true,
		Type:             StrategyAggressive,
		Breakpoints:      bps,
		EstimatedSavings: estimateSavings(bps),
	}
	for _, bp := range bps {
		switch bp.Segment {
		case "system":
			s.CacheSystemMessage = true
		case "conversation":
			s.CacheHistory = true
		}
	}
	return s
}

func forceStrategy(systemTokens, conversationTokens int, eligible []segment) Strategy {
	var bps []Breakpoint
	for _, seg := range eligible {
		bps = append(bps, Breakpoint{Segment: seg.name, Tokens: seg.tokens})
	}

	return Strategy{
		ShouldCache:        true,
		Type:               StrategyForce,
		CacheSystemMessage: systemTokens > 0,
		CacheHistory:       conversationTokens > 0,
		Breakpoints:        bps,
		EstimatedSavings:   estimateSavings(bps),
	}
}

func estimateSavings(bps []Breakpoint) Savings {
	total := 0
	for _, bp := range bps {
		total += bp.Tokens
	}

	// Conservative hit-rate assumption; cache reads cost 10% of normal input.
	const hitRate = 0.7
	return Savings{
		Tokens:           total,
		EstimatedHitRate: hitRate,
		PotentialSavings: float64(total) * hitRate * 0.9,
	}
}

// historyText concatenates the text content of a block-array history.
func historyText(history []llm.Message) string {
	var out string
	for _, msg := range history {
		switch content := msg.Content.(type) {
		case string:
			out += content + " "
		case []llm.ContentBlock:
			for _, block := range content {
				if block.Type == llm.ContentTypeText {
					out += block.Text + " "
				}
			}
		}
	}
	return out
}
