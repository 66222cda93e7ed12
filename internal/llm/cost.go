package llm

import "strings"

// modelPricing is USD per 1M tokens.
type modelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

var priceTable = map[string]modelPricing{
	"claude-sonnet-4-5-20250929": {InputPerMillion: 3.00, OutputPerMillion: 15.00},
	"claude-haiku-4-5-20251001":  {InputPerMillion: 0.80, OutputPerMillion: 4.00},
	"claude-opus-4-6":            {InputPerMillion: 15.00, OutputPerMillion: 75.00},

	"gpt-4o":      {InputPerMillion: 2.50, OutputPerMillion: 10.00},
	"gpt-4o-mini": {InputPerMillion: 0.15, OutputPerMillion: 0.60},

	"gemini-1.5-flash": {InputPerMillion: 0.075, OutputPerMillion: 0.30},
	"gemini-1.5-pro":   {InputPerMillion: 1.25, OutputPerMillion: 5.00},
	"gemini-2.0-flash": {InputPerMillion: 0.10, OutputPerMillion: 0.40},

	"MiniMax-M2.5":           {InputPerMillion: 0.30, OutputPerMillion: 1.20},
	"MiniMax-M2.5-highspeed": {InputPerMillion: 0.30, OutputPerMillion: 1.20},
}

// lookupPricing resolves OpenRouter names ("google/gemini-1.5-flash") and
// version suffixes ("gemini-1.5-flash-latest", "gemini-1.5-flash-002") to a
// table entry.
func lookupPricing(model string) (modelPricing, bool) {
	if _, name, ok := strings.Cut(model, "/"); ok {
		model = name
	}
	if p, ok := priceTable[model]; ok {
		return p, true
	}
	best := ""
	for name := range priceTable {
		if strings.HasPrefix(model, name+"-") && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return modelPricing{}, false
	}
	return priceTable[best], true
}

// EstimateCost returns the estimated cost in USD, or 0 for unknown models.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	pricing, ok := lookupPricing(model)
	if !ok {
		return 0
	}
	return float64(inputTokens)/1_000_000.0*pricing.InputPerMillion +
		float64(outputTokens)/1_000_000.0*pricing.OutputPerMillion
}

// EstimateTokens approximates one token per 4 bytes. Markup tokenizes
// denser than prose, so this errs low for generated pages.
func EstimateTokens(text string) int {
	n := len(text) / 4
	if n == 0 && len(text) > 0 {
		return 1
	}
	return n
}
