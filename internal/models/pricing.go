package models

// Pricing is USD per million tokens. Only the models the cache engine needs
// for savings estimation are listed; unknown models price at zero so the
// analytics simply report no savings.
type Pricing struct {
	Input  float64
	Output float64
}

var pricingTable = map[string]Pricing{
	"claude-opus-4-20250514":   {Input: 15.0, Output: 75.0},
	"claude-sonnet-4-20250514": {Input: 3.0, Output: 15.0},
	"claude-3-7-sonnet-latest": {Input: 3.0, Output: 15.0},
	"claude-3-5-sonnet-latest": {Input: 3.0, Output: 15.0},
	"claude-3-5-haiku-latest":  {Input: 0.8, Output: 4.0},
	"claude-3-haiku-20240307":  {Input: 0.25, Output: 1.25},
	"gpt-4o":                   {Input: 2.5, Output: 10.0},
	"gpt-4.1":                  {Input: 2.0, Output: 8.0},
	"o3":                       {Input: 2.0, Output: 8.0},
	"deepseek-chat":            {Input: 0.27, Output: 1.1},
	"deepseek-reasoner":        {Input: 0.55, Output: 2.19},
}

// Price returns the published pricing for a model, if known.
func Price(modelID string) (Pricing, bool) {
	p, ok := pricingTable[modelID]
	return p, ok
}
