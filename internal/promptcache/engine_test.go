package promptcache

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gptportal/portal-go/internal/llm"
)

// countFunc adapts a function to the tokenizer.Counter interface.
type countFunc func(text, modelID string) int

func (f countFunc) Count(text, modelID string) int { return f(text, modelID) }

// wordCounter counts whitespace-separated words as tokens, which keeps test
// inputs readable.
var wordCounter = countFunc(func(text, _ string) int {
	return len(strings.Fields(text))
})

func testEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	return NewEngine(wordCounter, cfg, slog.Default())
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

const claudeModel = "claude-opus-4-20250514"

func TestAnalyze_RejectsUnsupportedModel(t *testing.T) {
	e := testEngine(t, Config{Enabled: true, EnableAnalytics: true})

	s := e.Analyze("gpt-4o", words(5000), nil, llm.CacheAuto)

	assert.False(t, s.ShouldCache)
	assert.Equal(t, StrategyNone, s.Type)
}

func TestAnalyze_DisabledUnlessForced(t *testing.T) {
	e := testEngine(t, Config{Enabled: false, EnableAnalytics: true})

	s := e.Analyze(claudeModel, words(5000), nil, llm.CacheAuto)
	assert.False(t, s.ShouldCache)

	forced := e.Analyze(claudeModel, words(5000), nil, llm.CacheForce)
	assert.True(t, forced.ShouldCache)
	assert.Equal(t, StrategyForce, forced.Type)
}

func TestAnalyze_NonePreferenceWins(t *testing.T) {
	e := testEngine(t, Config{Enabled: true, EnableAnalytics: true})

	s := e.Analyze(claudeModel, words(5000), nil, llm.CacheNone)
	assert.False(t, s.ShouldCache)
}

func TestAnalyze_BelowThresholdNeverCaches(t *testing.T) {
	e := testEngine(t, Config{Enabled: true, EnableAnalytics: true})

	tests := []struct {
		name    string
		modelID string
		tokens  int
	}{
		{"just under 1024 minimum", "claude-opus-4-20250514", 1023},
		{"tiny system message", "claude-sonnet-4-20250514", 10},
		{"under 2048 haiku minimum", "claude-3-5-haiku-latest", 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := e.Analyze(tt.modelID, words(tt.tokens), nil, llm.CacheAuto)
			assert.False(t, s.ShouldCache)
			assert.Empty(t, s.Breakpoints)
		})
	}
}

func TestAnalyze_ConservativeCachesSystemOnly(t *testing.T) {
	e := testEngine(t, Config{Enabled: true, DefaultStrategy: StrategyConservative, EnableAnalytics: true})

	history := []llm.Message{
		{Role: llm.RoleUser, Content: words(3000)},
		{Role: llm.RoleAssistant, Content: words(3000)},
	}

	s := e.Analyze(claudeModel, words(5000), history, llm.CacheAuto)

	require.True(t, s.ShouldCache)
	assert.Equal(t, StrategyConservative, s.Type)
	assert.True(t, s.CacheSystemMessage)
	assert.False(t, s.CacheHistory, "conservative never caches history")
	require.Len(t, s.Breakpoints, 1)
	assert.Equal(t, "system", s.Breakpoints[0].Segment)
}

func TestAnalyze_AggressiveCachesHistoryToo(t *testing.T) {
	e := testEngine(t, Config{Enabled: true, DefaultStrategy: StrategyAggressive, MaxBreakpoints: 4, EnableAnalytics: true})

	history := []llm.Message{
		{Role: llm.RoleUser, Content: words(2000)},
		{Role: llm.RoleAssistant, Content: words(2000)},
	}

	s := e.Analyze(claudeModel, words(2000), history, llm.CacheAuto)

	require.True(t, s.ShouldCache)
	assert.Equal(t, StrategyAggressive, s.Type)
	assert.True(t, s.CacheSystemMessage)
	assert.True(t, s.CacheHistory)
}

func TestAnalyze_SavingsEstimate(t *testing.T) {
	e := testEngine(t, Config{Enabled: true, EnableAnalytics: true})

	s := e.Analyze(claudeModel, words(2000), nil, llm.CacheAuto)

	require.True(t, s.ShouldCache)
	assert.Equal(t, 2000, s.EstimatedSavings.Tokens)
	assert.InDelta(t, 2000*0.7*0.9, s.EstimatedSavings.PotentialSavings, 0.01)
}

func TestApply_NeverMutatesCaller(t *testing.T) {
	e := testEngine(t, Config{Enabled: true, MaxBreakpoints: 2, EnableAnalytics: true})

	system := words(2000)
	history := []llm.Message{
		{Role: llm.RoleUser, Content: "first question"},
		{Role: llm.RoleAssistant, Content: []llm.ContentBlock{{Type: llm.ContentTypeText, Text: "first answer"}}},
	}

	s := Strategy{
		ShouldCache:        true,
		Type:               StrategyForce,
		CacheSystemMessage: true,
		CacheHistory:       true,
	}

	systemOut, historyOut := e.Apply(system, history, s)

	// Originals untouched.
	assert.Equal(t, "first question", history[0].Content)
	blocks := history[1].Content.([]llm.ContentBlock)
	assert.Nil(t, blocks[0].CacheControl)

	// Output carries the markers.
	sysBlocks, ok := systemOut.([]llm.ContentBlock)
	require.True(t, ok)
	require.NotNil(t, sysBlocks[0].CacheControl)
	assert.Equal(t, "ephemeral", sysBlocks[0].CacheControl.Type)

	outBlocks := historyOut[0].Content.([]llm.ContentBlock)
	assert.NotNil(t, outBlocks[0].CacheControl)
}

func TestApply_NoCachePassesThrough(t *testing.T) {
	e := testEngine(t, Config{Enabled: true, EnableAnalytics: true})

	history := []llm.Message{{Role: llm.RoleUser, Content: "hello"}}
	systemOut, historyOut := e.Apply("system", history, noCache("test"))

	assert.Equal(t, "system", systemOut)
	assert.Equal(t, history, historyOut)
}

func TestTrackPerformance_HitsMissesAndSavings(t *testing.T) {
	e := testEngine(t, Config{Enabled: true, EnableAnalytics: true})

	// A creation followed by a hit and a miss.
	e.TrackPerformance(claudeModel, Usage{InputTokens: 100, CacheCreationInputTokens: 2000}, true)
	e.TrackPerformance(claudeModel, Usage{InputTokens: 100, CacheReadInputTokens: 2000}, true)
	e.TrackPerformance(claudeModel, Usage{InputTokens: 2100}, true)

	// Not attempted: ignored entirely.
	e.TrackPerformance(claudeModel, Usage{CacheReadInputTokens: 500}, false)

	snap := e.Snapshot()
	assert.Equal(t, 1, snap.CacheHits)
	assert.Equal(t, 1, snap.CacheMisses)
	assert.Equal(t, 2000, snap.TokensSaved)

	stats := snap.ByModel[claudeModel]
	assert.Equal(t, 1, stats.CacheCreations)
	assert.Equal(t, 1, stats.CacheHits)

	// opus input price 15 USD/MTok, reads save 90% of it.
	assert.InDelta(t, 2000.0/1e6*15*0.9, snap.CostSavingsUSD, 1e-9)
}

func TestReset(t *testing.T) {
	e := testEngine(t, Config{Enabled: true, EnableAnalytics: true})

	e.Analyze(claudeModel, words(2000), nil, llm.CacheAuto)
	e.TrackPerformance(claudeModel, Usage{CacheReadInputTokens: 100}, true)

	e.Reset()

	snap := e.Snapshot()
	assert.Zero(t, snap.Requests)
	assert.Zero(t, snap.CacheHits)
	assert.Empty(t, snap.ByModel)
}
