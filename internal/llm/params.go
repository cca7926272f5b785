package llm

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Params is the open parameter bag accepted by SendChatCompletion.
// Unknown keys are ignored.
type Params map[string]any

// Parameter defaults applied when a key is absent or malformed.
const (
	DefaultTemperature      = 0.7
	DefaultMaxTokens        = 1000
	DefaultTopP             = 1.0
	DefaultFrequencyPenalty = 0.0
	DefaultPresencePenalty  = 0.0
)

// Apply copies the recognized parameters onto req.
func (p Params) Apply(req *Request) {
	req.Temperature = p.Float("temperature", DefaultTemperature)
	req.MaxTokens = p.Int("max_tokens", DefaultMaxTokens)
	req.TopP = p.Float("top_p", DefaultTopP)
	req.FrequencyPenalty = p.Float("frequency_penalty", DefaultFrequencyPenalty)
	req.PresencePenalty = p.Float("presence_penalty", DefaultPresencePenalty)
}

// Float returns the value under key coerced to float64, or def.
func (p Params) Float(key string, def float64) float64 {
	v, ok := p[key]
	if !ok {
		return def
	}
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

// Int returns the value under key coerced to a positive int, or def.
// Fractional values are truncated.
func (p Params) Int(key string, def int) int {
	v, ok := p[key]
	if !ok {
		return def
	}
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < 1 || f > math.MaxInt32 {
		return def
	}
	return int(f)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
