// Package synthesis turns an intelligence bundle into forward-looking
// bull, bear, and base scenarios using a chain of model providers.
package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "stockintel/internal/errors"
	"stockintel/internal/intel"
	"stockintel/internal/logging"
)

// Probability sums outside this window trigger renormalization to 100.
// Inside the window the model's own numbers stand, rounding slack and all.
const (
	probSumFloor   = 90.0
	probSumCeiling = 110.0
)

// Scenario is one forward-looking outcome path.
type Scenario struct {
	Kind        string   `json:"kind"` // bull, bear, base
	Title       string   `json:"title"`
	Probability float64  `json:"probability"` // percent
	PriceTarget float64  `json:"price_target"`
	Timeframe   string   `json:"timeframe"`
	Summary     string   `json:"summary"`
	Catalysts   []string `json:"catalysts"`
	Risks       []string `json:"risks"`
}

// Result is the full synthesis output.
type Result struct {
	Symbol       string
	Provider     string
	Model        string
	Assessment   string
	Scenarios    []Scenario // bull, bear, base order
	Renormalized bool
	GeneratedAt  time.Time
}

// Provider is one model backend in the fallback chain. Complete returns
// the raw model text for the given prompts.
type Provider interface {
	Name() string
	Model() string
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Synthesizer runs the provider chain over a bundle.
type Synthesizer struct {
	providers []Provider
	logger    zerolog.Logger
}

// NewSynthesizer creates a synthesizer. Providers are tried in order;
// the first reachable one answers.
func NewSynthesizer(providers []Provider, logger zerolog.Logger) *Synthesizer {
	return &Synthesizer{providers: providers, logger: logger}
}

// HasProviders reports whether at least one provider is configured.
func (s *Synthesizer) HasProviders() bool {
	return len(s.providers) > 0
}

// Synthesize walks the provider chain until one returns a response, then
// parses it into scenarios. A provider transport failure moves to the
// next provider; a response that cannot be parsed propagates as a
// MalformedResponseError without trying further providers, since the
// chain exists for reachability, not for output quality.
func (s *Synthesizer) Synthesize(ctx context.Context, bundle *intel.Bundle) (*Result, error) {
	if len(s.providers) == 0 {
		return nil, apperrors.ErrNoProviders
	}

	systemPrompt := synthesisSystemPrompt
	userPrompt := buildPrompt(bundle)

	var lastErr error
	for _, p := range s.providers {
		raw, err := p.Complete(ctx, systemPrompt, userPrompt)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("provider", p.Name()).
				Str("symbol", bundle.Symbol).
				Msg("Synthesis provider failed, trying next")
			lastErr = err
			continue
		}

		result, err := parseResponse(p, bundle.Symbol, raw)
		if err != nil {
			logging.LogSynthesis(s.logger, p.Name(), bundle.Symbol, 0, err)
			return nil, err
		}

		logging.LogSynthesis(s.logger, p.Name(), bundle.Symbol, bundle.DataQuality, nil)
		return result, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrNoProviders, lastErr)
	}
	return nil, apperrors.ErrNoProviders
}

const synthesisSystemPrompt = `You are a market analyst synthesizing multiple intelligence sources into
scenario analysis. Respond with a single JSON object, no markdown fences,
matching exactly:
{
  "assessment": "two or three sentence overall read",
  "scenarios": [
    {"kind": "bull", "title": "...", "probability": 30, "price_target": 0.0,
     "timeframe": "3-6 months", "summary": "...",
     "catalysts": ["..."], "risks": ["..."]},
    {"kind": "bear", ...},
    {"kind": "base", ...}
  ]
}
Probabilities are percentages and should sum to roughly 100. Ground every
claim in the supplied reports. Never give investment advice.`

// buildPrompt renders the bundle into the user prompt. Only summaries and
// headline payload fields go to the model; full indicator dumps stay local.
func buildPrompt(bundle *intel.Bundle) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Symbol: %s\n", bundle.Symbol))
	if bundle.CompanyName != "" {
		sb.WriteString(fmt.Sprintf("Company: %s\n", bundle.CompanyName))
	}
	sb.WriteString(fmt.Sprintf("Data quality: %.0f/100 (%s)\n\n", bundle.DataQuality, bundle.QualityLabel))

	for _, report := range bundle.Reports {
		sb.WriteString(fmt.Sprintf("== %s (confidence %.0f) ==\n", report.Source, report.Confidence))
		sb.WriteString(report.Summary)
		sb.WriteString("\n")

		switch report.Source {
		case intel.SourceTechnical:
			if t := report.Technical; t != nil {
				sb.WriteString(fmt.Sprintf(
					"Current price %.2f, RSI %.1f, MACD histogram %+.2f, trend %s.\n",
					t.CurrentPrice, t.Indicators.RSI, t.Indicators.MACD.Histogram, t.Trend.Direction))
			}
		case intel.SourceNews:
			if n := report.News; n != nil {
				for i, h := range n.Headlines {
					if i >= 5 {
						break
					}
					sb.WriteString(fmt.Sprintf("- %s (%+.2f)\n", h.Title, h.Sentiment))
				}
			}
		case intel.SourceResearch:
			if r := report.Research; r != nil {
				for _, f := range r.Findings {
					sb.WriteString("- " + f + "\n")
				}
			}
		}
		sb.WriteString("\n")
	}

	if len(bundle.AvailableSources) > 0 {
		names := make([]string, 0, len(bundle.AvailableSources))
		for _, source := range bundle.AvailableSources {
			names = append(names, string(source))
		}
		sb.WriteString("Consulted sources: " + strings.Join(names, ", ") + "\n")
	}
	if len(bundle.MissingSources) > 0 {
		names := make([]string, 0, len(bundle.MissingSources))
		for _, source := range bundle.MissingSources {
			names = append(names, string(source))
		}
		sb.WriteString("Unavailable sources: " + strings.Join(names, ", ") + "\n")
	}

	sb.WriteString("\nProduce the bull, bear, and base scenarios.")
	return sb.String()
}

type rawResponse struct {
	Assessment string     `json:"assessment"`
	Scenarios  []Scenario `json:"scenarios"`
}

// parseResponse decodes and validates the model output. Structural
// failures wrap into MalformedResponseError naming the offending field.
func parseResponse(p Provider, symbol, raw string) (*Result, error) {
	cleaned := stripFences(raw)

	var parsed rawResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, &apperrors.MalformedResponseError{
			Provider: p.Name(),
			Field:    "body",
			Err:      err,
		}
	}

	if len(parsed.Scenarios) != 3 {
		return nil, &apperrors.MalformedResponseError{
			Provider: p.Name(),
			Field:    "scenarios",
			Err:      fmt.Errorf("expected 3 scenarios, got %d", len(parsed.Scenarios)),
		}
	}

	ordered, err := orderScenarios(parsed.Scenarios)
	if err != nil {
		return nil, &apperrors.MalformedResponseError{
			Provider: p.Name(),
			Field:    "scenarios.kind",
			Err:      err,
		}
	}

	for i := range ordered {
		if ordered[i].Probability < 0 {
			return nil, &apperrors.MalformedResponseError{
				Provider: p.Name(),
				Field:    "scenarios.probability",
				Err:      fmt.Errorf("negative probability %.2f for %s", ordered[i].Probability, ordered[i].Kind),
			}
		}
	}

	renormalized := RenormalizeProbabilities(ordered)

	return &Result{
		Symbol:       symbol,
		Provider:     p.Name(),
		Model:        p.Model(),
		Assessment:   parsed.Assessment,
		Scenarios:    ordered,
		Renormalized: renormalized,
		GeneratedAt:  time.Now(),
	}, nil
}

// stripFences removes a wrapping markdown code fence, which models emit
// despite instructions not to.
func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// orderScenarios arranges scenarios bull, bear, base, requiring each kind
// exactly once.
func orderScenarios(scenarios []Scenario) ([]Scenario, error) {
	byKind := make(map[string]Scenario, 3)
	for _, s := range scenarios {
		kind := strings.ToLower(strings.TrimSpace(s.Kind))
		if _, dup := byKind[kind]; dup {
			return nil, fmt.Errorf("duplicate scenario kind %q", kind)
		}
		s.Kind = kind
		byKind[kind] = s
	}

	ordered := make([]Scenario, 0, 3)
	for _, kind := range []string{"bull", "bear", "base"} {
		s, ok := byKind[kind]
		if !ok {
			return nil, fmt.Errorf("missing scenario kind %q", kind)
		}
		ordered = append(ordered, s)
	}
	return ordered, nil
}

// RenormalizeProbabilities scales scenario probabilities to sum to 100
// when their sum falls outside [90, 110]. Sums inside the window are left
// as the model produced them. Returns whether scaling happened.
func RenormalizeProbabilities(scenarios []Scenario) bool {
	var sum float64
	for i := range scenarios {
		sum += scenarios[i].Probability
	}

	if sum == 0 {
		// Degenerate: split evenly rather than divide by zero
		for i := range scenarios {
			scenarios[i].Probability = 100 / float64(len(scenarios))
		}
		return true
	}

	if sum >= probSumFloor && sum <= probSumCeiling {
		return false
	}

	scale := 100 / sum
	for i := range scenarios {
		scenarios[i].Probability *= scale
	}
	return true
}
