package scoring

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"stockintel/internal/analysis/indicators"
	"stockintel/internal/models"
)

// signalGen generates one signal with an arbitrary direction and strength.
func signalGen() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf(Bullish, Bearish, Neutral),
		gen.Float64Range(0, 1),
	).Map(func(values []interface{}) Signal {
		return Signal{
			Indicator: "TEST",
			Direction: values[0].(Direction),
			Strength:  values[1].(float64),
		}
	})
}

func TestProperty_AggregateCountsPartition(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("counts partition the signal set", prop.ForAll(
		func(signals []Signal) bool {
			score := Aggregate(signals)
			return score.BullishCount+score.BearishCount+score.NeutralCount == score.Total &&
				score.Total == len(signals)
		},
		gen.SliceOf(signalGen()),
	))

	properties.Property("percentage stays within [0, 100]", prop.ForAll(
		func(signals []Signal) bool {
			score := Aggregate(signals)
			return score.Percentage >= 0 && score.Percentage <= 100
		},
		gen.SliceOf(signalGen()),
	))

	properties.Property("label and sentiment agree with percentage", prop.ForAll(
		func(signals []Signal) bool {
			score := Aggregate(signals)
			switch {
			case score.Percentage >= 60:
				return score.Sentiment == Bullish
			case score.Percentage <= 40:
				return score.Sentiment == Bearish
			default:
				return score.Sentiment == Neutral
			}
		},
		gen.SliceOf(signalGen()),
	))

	properties.TestingRun(t)
}

func TestAggregate_NeutralAndTies(t *testing.T) {
	neutral := Signal{Indicator: "X", Direction: Neutral, Strength: 0.3}
	bullish := Signal{Indicator: "X", Direction: Bullish, Strength: 0.6}
	bearish := Signal{Indicator: "X", Direction: Bearish, Strength: 0.6}

	tests := []struct {
		name      string
		signals   []Signal
		wantPct   float64
		wantLabel string
	}{
		{
			name:      "all neutral lands at 50",
			signals:   []Signal{neutral, neutral, neutral, neutral, neutral},
			wantPct:   50,
			wantLabel: "Neutral",
		},
		{
			name:      "bull bear tie resolves neutral",
			signals:   []Signal{bullish, bullish, bearish, bearish},
			wantPct:   50,
			wantLabel: "Neutral",
		},
		{
			name:      "all bullish",
			signals:   []Signal{bullish, bullish, bullish, bullish, bullish},
			wantPct:   100,
			wantLabel: "Strong Bullish",
		},
		{
			name:      "all bearish",
			signals:   []Signal{bearish, bearish, bearish, bearish, bearish},
			wantPct:   0,
			wantLabel: "Strong Bearish",
		},
		{
			name:      "empty set defaults to 50",
			signals:   nil,
			wantPct:   50,
			wantLabel: "Neutral",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Aggregate(tt.signals)
			if score.Percentage != tt.wantPct {
				t.Errorf("expected percentage %f, got %f", tt.wantPct, score.Percentage)
			}
			if score.Label != tt.wantLabel {
				t.Errorf("expected label %q, got %q", tt.wantLabel, score.Label)
			}
		})
	}
}

// A flat price series must read neutral on every indicator: the
// collapsed Bollinger band in particular must not register as the price
// sitting on the lower band.
func TestScorer_FlatSeriesIsNeutral(t *testing.T) {
	points := make([]models.PricePoint, 60)
	for i := range points {
		points[i] = models.PricePoint{
			Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open: 100, High: 100, Low: 100, Close: 100, Volume: 1000,
		}
	}

	set, err := indicators.NewEngine().Compute(points)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	signals := NewScorer().Signals(set)
	for _, sig := range signals {
		if sig.Direction != Neutral {
			t.Errorf("expected neutral %s signal on flat series, got %s", sig.Indicator, sig.Direction)
		}
	}

	score := Aggregate(signals)
	if score.Percentage != 50 {
		t.Errorf("expected percentage 50 on flat series, got %f", score.Percentage)
	}
	if score.Label != "Neutral" {
		t.Errorf("expected label Neutral on flat series, got %q", score.Label)
	}
}

func TestScorer_RSISignalBreakpoints(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		rsi  float64
		want Direction
	}{
		{rsi: 10, want: Bullish},
		{rsi: 29.99, want: Bullish},
		{rsi: 30, want: Neutral}, // boundary is exclusive
		{rsi: 50, want: Neutral},
		{rsi: 70, want: Neutral},
		{rsi: 70.01, want: Bearish},
		{rsi: 95, want: Bearish},
	}

	for _, tt := range tests {
		sig := scorer.rsiSignal(tt.rsi)
		if sig.Direction != tt.want {
			t.Errorf("RSI %.2f: expected %s, got %s", tt.rsi, tt.want, sig.Direction)
		}
		if sig.Strength < 0 || sig.Strength > 1 {
			t.Errorf("RSI %.2f: strength %f out of [0,1]", tt.rsi, sig.Strength)
		}
	}
}

func TestScorer_VolumeAmplification(t *testing.T) {
	set := &models.IndicatorSet{
		RSI:       20, // bullish
		MACD:      models.MACDValue{Value: 1, Signal: 0.5, Histogram: 0.5},
		SMA20:     90,
		SMA50:     85,
		Bollinger: models.BollingerValue{Upper: 110, Middle: 100, Lower: 95},
		LastClose: 105,
	}

	scorer := NewScorer()

	set.Volume = models.VolumeAnalysis{Ratio: 1.0, Class: models.VolumeNormal}
	base := scorer.Signals(set)

	set.Volume = models.VolumeAnalysis{Ratio: 2.0, Class: models.VolumeHigh}
	amplified := scorer.Signals(set)

	for i := range base {
		if base[i].Direction != amplified[i].Direction {
			t.Errorf("%s: amplification flipped direction %s -> %s",
				base[i].Indicator, base[i].Direction, amplified[i].Direction)
		}
		if base[i].Direction == Neutral {
			if amplified[i].Strength != base[i].Strength {
				t.Errorf("%s: neutral signal was amplified", base[i].Indicator)
			}
			continue
		}
		if amplified[i].Strength < base[i].Strength {
			t.Errorf("%s: expected amplified strength >= base, got %f < %f",
				base[i].Indicator, amplified[i].Strength, base[i].Strength)
		}
		if amplified[i].Strength > 1 {
			t.Errorf("%s: amplified strength %f exceeds 1", base[i].Indicator, amplified[i].Strength)
		}
	}
}

func TestScorer_ProducesFiveSignals(t *testing.T) {
	set := &models.IndicatorSet{
		RSI:       55,
		MACD:      models.MACDValue{Histogram: 0.1, Signal: 0.05},
		SMA20:     100,
		SMA50:     98,
		Bollinger: models.BollingerValue{Upper: 110, Middle: 100, Lower: 90},
		LastClose: 102,
	}

	signals := NewScorer().Signals(set)
	if len(signals) != 5 {
		t.Fatalf("expected 5 signals, got %d", len(signals))
	}

	names := map[string]bool{}
	for _, sig := range signals {
		names[sig.Indicator] = true
	}
	for _, want := range []string{"RSI", "MACD", "SMA20", "SMA50", "Bollinger"} {
		if !names[want] {
			t.Errorf("missing %s signal", want)
		}
	}
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name   string
		set    models.IndicatorSet
		want   TrendDirection
		strong bool
	}{
		{
			name: "strong uptrend with golden cross",
			set: models.IndicatorSet{
				SMA20: 100, SMA50: 95,
				Position: models.PricePosition{AboveSMA20: true, AboveSMA50: true, GoldenCross: true},
			},
			want: Uptrend, strong: true,
		},
		{
			name: "moderate uptrend without cross",
			set: models.IndicatorSet{
				SMA20: 100, SMA50: 95,
				Position: models.PricePosition{AboveSMA20: true, AboveSMA50: true},
			},
			want: Uptrend, strong: false,
		},
		{
			name: "strong downtrend with death cross",
			set: models.IndicatorSet{
				SMA20: 100, SMA50: 105,
				Position: models.PricePosition{DeathCross: true},
			},
			want: Downtrend, strong: true,
		},
		{
			name: "mixed alignment is sideways",
			set: models.IndicatorSet{
				SMA20: 100, SMA50: 95,
				Position: models.PricePosition{AboveSMA20: true, AboveSMA50: false},
			},
			want: Sideways, strong: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trend := ClassifyTrend(&tt.set)
			if trend.Direction != tt.want || trend.Strong != tt.strong {
				t.Errorf("expected %s strong=%v, got %s strong=%v",
					tt.want, tt.strong, trend.Direction, trend.Strong)
			}
		})
	}
}
