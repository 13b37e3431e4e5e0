package ai

// Rates are USD prices per million tokens.
type Rates struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// DefaultRates are the reference prices of the default model.
var DefaultRates = Rates{InputPerMillion: 0.5, OutputPerMillion: 1.5}

// Cost estimates the USD cost of a call from its token counts.
func (r Rates) Cost(inputTokens, outputTokens int64) float64 {
	return r.InputPerMillion*float64(inputTokens)/1_000_000 +
		r.OutputPerMillion*float64(outputTokens)/1_000_000
}
