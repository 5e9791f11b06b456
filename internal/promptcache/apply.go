package promptcache

import "github.com/gptportal/portal-go/internal/llm"

// Apply attaches cache_control markers according to the strategy. It operates
// on deep copies: the caller's system message and history are never mutated.
// The returned system value is either the original string (no system caching)
// or a block array carrying the marker.
func (e *Engine) Apply(systemMessage string, history []llm.Message, s Strategy) (any, []llm.Message) {
	if !s.ShouldCache {
		return systemMessage, history
	}

	var systemOut any = systemMessage
	if s.CacheSystemMessage && systemMessage != "" {
		systemOut = []llm.ContentBlock{{
			Type:         llm.ContentTypeText,
			Text:         systemMessage,
			CacheControl: llm.EphemeralCache(),
		}}
	}

	historyOut := cloneHistory(history)
	if s.CacheHistory && len(historyOut) > 0 {
		for _, idx := range selectCachePoints(len(historyOut), e.cfg.MaxBreakpoints) {
			historyOut[idx] = markMessage(historyOut[idx])
		}
	}

	e.logger.Debug("applied cache controls",
		"strategy", s.Type,
		"breakpoints", len(s.Breakpoints),
	)

	return systemOut, historyOut
}

// selectCachePoints spaces up to maxPoints breakpoints evenly through the
// history.
func selectCachePoints(length, maxPoints int) []int {
	if length == 0 || maxPoints <= 0 {
		return nil
	}

	step := length / maxPoints
	if step < 1 {
		step = 1
	}

	var indices []int
	for i := 0; i < length && len(indices) < maxPoints; i += step {
		indices = append(indices, i)
	}
	return indices
}

// markMessage returns a copy of the message with cache_control on its last
// text block. String content is promoted to a single marked block.
func markMessage(msg llm.Message) llm.Message {
	out := llm.Message{Role: msg.Role}

	switch content := msg.Content.(type) {
	case string:
		out.Content = []llm.ContentBlock{{
			Type:         llm.ContentTypeText,
			Text:         content,
			CacheControl: llm.EphemeralCache(),
		}}
	case []llm.ContentBlock:
		blocks := make([]llm.ContentBlock, len(content))
		copy(blocks, content)
		for i := len(blocks) - 1; i >= 0; i-- {
			if blocks[i].Type == llm.ContentTypeText {
				blocks[i].CacheControl = llm.EphemeralCache()
				break
			}
		}
		out.Content = blocks
	default:
		out.Content = msg.Content
	}

	return out
}

func cloneHistory(history []llm.Message) []llm.Message {
	out := make([]llm.Message, len(history))
	for i, msg := range history {
		out[i] = llm.Message{Role: msg.Role}
		if blocks, ok := msg.Content.([]llm.ContentBlock); ok {
			cloned := make([]llm.ContentBlock, len(blocks))
			copy(cloned, blocks)
			out[i].Content = cloned
		} else {
			out[i].Content = msg.Content
		}
	}
	return out
}
