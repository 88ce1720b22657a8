// Package scoring converts computed indicators into directional signals
// and reduces them into a single composite verdict.
package scoring

import (
	"stockintel/internal/models"
)

// Direction is the directional reading of a single signal.
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Neutral Direction = "neutral"
)

// Signal is one indicator's directional vote. Strength is in [0, 1].
type Signal struct {
	Indicator string
	Direction Direction
	Strength  float64
}

// AggregateScore is the reduction over a full signal set.
// Invariant: BullishCount + BearishCount + NeutralCount == Total.
type AggregateScore struct {
	BullishCount int
	BearishCount int
	NeutralCount int
	Total        int
	Percentage   float64 // bullish-weighted share, [0, 100]
	Sentiment    Direction
	Label        string
}

// TrendDirection classifies the prevailing price trend.
type TrendDirection string

const (
	Uptrend   TrendDirection = "uptrend"
	Downtrend TrendDirection = "downtrend"
	Sideways  TrendDirection = "sideways"
)

// Trend is a trend classification with its confirmation level. Strong
// requires a golden/death cross on top of full SMA alignment.
type Trend struct {
	Direction TrendDirection
	Strong    bool
}

// Thresholds holds the tunable signal breakpoints. The Bollinger
// proximity and volume ratios are calibration knobs, so they live in
// configuration rather than constants.
type Thresholds struct {
	RSIOversold        float64
	RSIOverbought      float64
	BollingerProximity float64 // fraction of band level counting as "near"
	HighVolumeRatio    float64
	VolumeAmplifier    float64 // strength multiplier under high volume
}

// DefaultThresholds returns the calibrated defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RSIOversold:        30,
		RSIOverbought:      70,
		BollingerProximity: 0.02,
		HighVolumeRatio:    1.5,
		VolumeAmplifier:    1.25,
	}
}

// Scorer maps indicator snapshots to signals and aggregates.
type Scorer struct {
	thresholds Thresholds
}

// NewScorer creates a scorer with default thresholds.
func NewScorer() *Scorer {
	return &Scorer{thresholds: DefaultThresholds()}
}

// NewScorerWithThresholds creates a scorer with custom thresholds.
func NewScorerWithThresholds(t Thresholds) *Scorer {
	return &Scorer{thresholds: t}
}

// Signals derives one directional signal per indicator from the
// snapshot. High relative volume amplifies whichever directional
// signals already exist; it never flips or adds a direction.
func (s *Scorer) Signals(set *models.IndicatorSet) []Signal {
	signals := []Signal{
		s.rsiSignal(set.RSI),
		s.macdSignal(set.MACD),
		s.smaSignal("SMA20", set.LastClose, set.SMA20),
		s.smaSignal("SMA50", set.LastClose, set.SMA50),
		s.bollingerSignal(set.LastClose, set.Bollinger),
	}

	if set.Volume.Ratio >= s.thresholds.HighVolumeRatio {
		for i := range signals {
			if signals[i].Direction != Neutral {
				signals[i].Strength = clamp01(signals[i].Strength * s.thresholds.VolumeAmplifier)
			}
		}
	}

	return signals
}

// rsiSignal: <30 oversold = bullish, >70 overbought = bearish.
func (s *Scorer) rsiSignal(rsi float64) Signal {
	sig := Signal{Indicator: "RSI", Direction: Neutral, Strength: 0.3}
	if rsi < s.thresholds.RSIOversold {
		sig.Direction = Bullish
		sig.Strength = clamp01(0.5 + (s.thresholds.RSIOversold-rsi)/s.thresholds.RSIOversold)
	} else if rsi > s.thresholds.RSIOverbought {
		sig.Direction = Bearish
		sig.Strength = clamp01(0.5 + (rsi-s.thresholds.RSIOverbought)/(100-s.thresholds.RSIOverbought))
	}
	return sig
}

// macdSignal: bullish when the histogram is positive and still above the
// signal line, bearish when negative, neutral otherwise.
func (s *Scorer) macdSignal(m models.MACDValue) Signal {
	sig := Signal{Indicator: "MACD", Direction: Neutral, Strength: 0.3}
	if m.Histogram > 0 && m.Histogram > m.Signal {
		sig.Direction = Bullish
		sig.Strength = 0.7
	} else if m.Histogram < 0 {
		sig.Direction = Bearish
		sig.Strength = 0.7
	}
	return sig
}

// smaSignal: price above the average is bullish, below is bearish.
// Applied independently for each SMA window.
func (s *Scorer) smaSignal(name string, price, sma float64) Signal {
	sig := Signal{Indicator: name, Direction: Neutral, Strength: 0.3}
	if sma == 0 {
		return sig
	}
	if price > sma {
		sig.Direction = Bullish
		sig.Strength = 0.6
	} else if price < sma {
		sig.Direction = Bearish
		sig.Strength = 0.6
	}
	return sig
}

// bollingerSignal: bullish near the lower band, bearish near the upper,
// neutral through the middle of the envelope.
func (s *Scorer) bollingerSignal(price float64, b models.BollingerValue) Signal {
	sig := Signal{Indicator: "Bollinger", Direction: Neutral, Strength: 0.3}
	if b.Upper == 0 && b.Lower == 0 {
		return sig
	}
	// A collapsed band (zero variance) touches both proximity zones at
	// once and carries no directional information
	if b.Upper-b.Lower < 1e-9 {
		return sig
	}

	prox := s.thresholds.BollingerProximity
	if b.Lower > 0 && price <= b.Lower*(1+prox) {
		sig.Direction = Bullish
		sig.Strength = 0.65
	} else if b.Upper > 0 && price >= b.Upper*(1-prox) {
		sig.Direction = Bearish
		sig.Strength = 0.65
	}
	return sig
}

// Aggregate reduces a signal set into one composite score. Neutral
// signals count as half a bullish vote so an all-neutral set lands at
// exactly 50; a bullish/bearish tie therefore also resolves to neutral.
func Aggregate(signals []Signal) AggregateScore {
	score := AggregateScore{Total: len(signals)}

	for _, sig := range signals {
		switch sig.Direction {
		case Bullish:
			score.BullishCount++
		case Bearish:
			score.BearishCount++
		default:
			score.NeutralCount++
		}
	}

	if score.Total > 0 {
		pct := (float64(score.BullishCount) + 0.5*float64(score.NeutralCount)) /
			float64(score.Total) * 100
		score.Percentage = clampPct(pct)
	} else {
		score.Percentage = 50
	}

	score.Sentiment = percentageSentiment(score.Percentage)
	score.Label = percentageLabel(score.Percentage)
	return score
}

// ClassifyTrend applies the strict trend rules: a strong trend needs the
// price on one side of BOTH SMAs plus the matching cross; SMA alignment
// alone is a moderate trend; partial alignment is sideways.
func ClassifyTrend(set *models.IndicatorSet) Trend {
	pos := set.Position

	if pos.AboveSMA20 && pos.AboveSMA50 {
		return Trend{Direction: Uptrend, Strong: pos.GoldenCross}
	}
	if !pos.AboveSMA20 && !pos.AboveSMA50 && set.SMA20 > 0 && set.SMA50 > 0 {
		return Trend{Direction: Downtrend, Strong: pos.DeathCross}
	}
	return Trend{Direction: Sideways}
}

func percentageSentiment(pct float64) Direction {
	switch {
	case pct >= 60:
		return Bullish
	case pct <= 40:
		return Bearish
	default:
		return Neutral
	}
}

func percentageLabel(pct float64) string {
	switch {
	case pct >= 75:
		return "Strong Bullish"
	case pct >= 60:
		return "Bullish"
	case pct > 40:
		return "Neutral"
	case pct > 25:
		return "Bearish"
	default:
		return "Strong Bearish"
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
