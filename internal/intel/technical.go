package intel

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"stockintel/internal/analysis/indicators"
	"stockintel/internal/analysis/scoring"
	"stockintel/internal/models"
)

// TechnicalGatherer computes the technical-analysis report from the
// price series supplied in the request. It is the only source with no
// external dependency and is always attempted; a series shorter than
// the engine minimum yields nil, not an empty report.
type TechnicalGatherer struct {
	baseGatherer
	engine *indicators.Engine
	scorer *scoring.Scorer
	logger zerolog.Logger
}

// NewTechnicalGatherer creates the technical-analysis gatherer.
func NewTechnicalGatherer(scorer *scoring.Scorer, logger zerolog.Logger) *TechnicalGatherer {
	return &TechnicalGatherer{
		baseGatherer: baseGatherer{source: SourceTechnical},
		engine:       indicators.NewEngine(),
		scorer:       scorer,
		logger:       logger,
	}
}

// Available always returns true: technical analysis needs no credential.
func (g *TechnicalGatherer) Available() bool {
	return true
}

// Gather computes indicators, signals, and the composite verdict.
// Confidence grows with conviction (distance of the aggregate from 50)
// and with history depth.
func (g *TechnicalGatherer) Gather(_ context.Context, req GatherRequest) (*Report, error) {
	if len(req.PriceData) < indicators.MinPoints {
		g.logger.Debug().
			Str("symbol", req.Symbol).
			Int("points", len(req.PriceData)).
			Msg("Insufficient history for technical analysis")
		return nil, nil
	}

	set, err := g.engine.Compute(req.PriceData)
	if err != nil {
		// Contained: length was checked above, so this only fires on
		// degenerate series
		g.logger.Warn().Err(err).Str("symbol", req.Symbol).Msg("Indicator computation failed")
		return nil, nil
	}

	signals := g.scorer.Signals(set)
	aggregate := scoring.Aggregate(signals)
	trend := scoring.ClassifyTrend(set)

	price := req.CurrentPrice
	if price == 0 {
		price = set.LastClose
	}

	confidence := 50 + abs(aggregate.Percentage-50)
	if len(req.PriceData) >= 200 {
		confidence += 10
	}

	report := g.newReport(confidence, technicalSummary(req.Symbol, set, aggregate, trend))
	report.Technical = &TechnicalData{
		Indicators:   *set,
		Signals:      signals,
		Aggregate:    aggregate,
		Trend:        trend,
		CurrentPrice: price,
		DataPoints:   len(req.PriceData),
	}
	return report, nil
}

// technicalSummary builds the deterministic synopsis from the computed
// structures only, so identical input data reproduces it exactly.
func technicalSummary(symbol string, set *models.IndicatorSet, aggregate scoring.AggregateScore, trend scoring.Trend) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s technical picture is %s (%d bullish, %d bearish, %d neutral signals). ",
		symbol, strings.ToLower(aggregate.Label),
		aggregate.BullishCount, aggregate.BearishCount, aggregate.NeutralCount))

	sb.WriteString(fmt.Sprintf("RSI is at %.1f and the MACD histogram is %+.2f. ",
		set.RSI, set.MACD.Histogram))

	switch trend.Direction {
	case scoring.Uptrend:
		if trend.Strong {
			sb.WriteString("Price holds above both the 20- and 50-day averages with a golden cross in place.")
		} else {
			sb.WriteString("Price holds above both the 20- and 50-day averages.")
		}
	case scoring.Downtrend:
		if trend.Strong {
			sb.WriteString("Price sits below both the 20- and 50-day averages with a death cross in place.")
		} else {
			sb.WriteString("Price sits below both the 20- and 50-day averages.")
		}
	default:
		sb.WriteString("Moving averages are mixed; the trend reads sideways.")
	}

	return sb.String()
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
