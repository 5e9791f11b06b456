// Package tokenizer provides token counting for cache-eligibility decisions.
package tokenizer

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Counter measures token counts of text for a given model.
type Counter interface {
	Count(text, modelID string) int
}

// TiktokenCounter counts with tiktoken's cl100k_base encoding for models that
// use it and falls back to character estimation for everything else.
type TiktokenCounter struct {
	logger *slog.Logger

	once     sync.Once
	encoding *tiktoken.Tiktoken
}

func NewTiktokenCounter(logger *slog.Logger) *TiktokenCounter {
	return &TiktokenCounter{logger: logger}
}

func (c *TiktokenCounter) Count(text, modelID string) int {
	if text == "" {
		return 0
	}

	if usesCL100K(modelID) {
		c.once.Do(func() {
			enc, err := tiktoken.GetEncoding("cl100k_base")
			if err != nil {
				c.logger.Warn("tiktoken unavailable, using estimation", "error", err)
				return
			}
			c.encoding = enc
		})

		if c.encoding != nil {
			return len(c.encoding.Encode(text, nil, nil))
		}
	}

	return EstimateTokens(text)
}

func usesCL100K(modelID string) bool {
	for _, pattern := range []string{"gpt", "o1", "o3", "o4"} {
		if strings.Contains(modelID, pattern) {
			return true
		}
	}
	return false
}

// EstimateTokens approximates a token count at four characters per token.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}
