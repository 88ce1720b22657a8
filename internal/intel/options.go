package intel

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"stockintel/internal/analysis/scoring"
)

// Options-flow thresholds: put/call ratio below 0.7 reads bullish, above
// 1.3 bearish. Confidence formula: 30 + coverage*40 + skew*20 where
// coverage = min(totalVolume/10000, 1) and skew = min(|1 - ratio|, 1).
const (
	optionsBullishRatio    = 0.7
	optionsBearishRatio    = 1.3
	optionsVolumeFullScale = 10000.0
)

// OptionsActivity is the day's aggregate options volume for a symbol.
type OptionsActivity struct {
	CallVolume int64
	PutVolume  int64
}

// OptionsClient is the outbound contract of the options-flow provider
// (Polygon-style aggregates).
type OptionsClient interface {
	OptionsActivity(ctx context.Context, symbol string) (*OptionsActivity, error)
}

// OptionsGatherer reads aggregate options volume and classifies the
// put/call skew.
type OptionsGatherer struct {
	baseGatherer
	creds  CredentialProvider
	client OptionsClient
	logger zerolog.Logger
}

// NewOptionsGatherer creates the options-flow gatherer.
func NewOptionsGatherer(creds CredentialProvider, client OptionsClient, logger zerolog.Logger) *OptionsGatherer {
	return &OptionsGatherer{
		baseGatherer: baseGatherer{source: SourceOptions},
		creds:        creds,
		client:       client,
		logger:       logger,
	}
}

func (g *OptionsGatherer) Available() bool {
	return g.client != nil && g.creds.HasCredential(SourceOptions)
}

// Gather fetches today's aggregate call and put volume. Zero traded
// volume on a reachable feed produces the empty-but-reachable report.
func (g *OptionsGatherer) Gather(ctx context.Context, req GatherRequest) (*Report, error) {
	if !g.Available() {
		return nil, nil
	}

	activity, err := g.client.OptionsActivity(ctx, req.Symbol)
	if err != nil {
		g.logger.Warn().Err(err).Str("symbol", req.Symbol).Msg("Options activity fetch failed")
		return nil, nil
	}

	total := activity.CallVolume + activity.PutVolume
	if total == 0 {
		report := g.newReport(20, fmt.Sprintf(
			"No options volume recorded for %s today. Options flow is unavailable.",
			req.Symbol))
		report.Options = &OptionsData{Sentiment: scoring.Neutral}
		return report, nil
	}

	var ratio float64
	if activity.CallVolume > 0 {
		ratio = float64(activity.PutVolume) / float64(activity.CallVolume)
	} else {
		// All puts, no calls: maximally bearish skew
		ratio = optionsBearishRatio * 2
	}

	direction := scoring.Neutral
	switch {
	case ratio < optionsBullishRatio:
		direction = scoring.Bullish
	case ratio > optionsBearishRatio:
		direction = scoring.Bearish
	}

	coverage := float64(total) / optionsVolumeFullScale
	if coverage > 1 {
		coverage = 1
	}
	skew := abs(1 - ratio)
	if skew > 1 {
		skew = 1
	}
	confidence := 30 + coverage*40 + skew*20

	report := g.newReport(confidence, fmt.Sprintf(
		"Options flow for %s: %d calls vs %d puts, put/call ratio %.2f, reading %s.",
		req.Symbol, activity.CallVolume, activity.PutVolume, ratio, direction))
	report.Options = &OptionsData{
		CallVolume:   activity.CallVolume,
		PutVolume:    activity.PutVolume,
		PutCallRatio: ratio,
		Sentiment:    direction,
	}
	return report, nil
}
