package indicators

import (
	"fmt"

	"stockintel/internal/models"
)

// ATR calculates the Average True Range, a volatility magnitude.
type ATR struct {
	period int
}

// NewATR creates a new ATR indicator.
func NewATR(period int) *ATR {
	return &ATR{period: period}
}

func (a *ATR) Name() string {
	return fmt.Sprintf("ATR_%d", a.period)
}

func (a *ATR) Period() int {
	return a.period
}

func (a *ATR) Calculate(highs, lows, closes []float64) ([]float64, error) {
	if a.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	n := len(closes)
	if len(highs) != n || len(lows) != n {
		return nil, fmt.Errorf("mismatched series lengths: %d highs, %d lows, %d closes: %w",
			len(highs), len(lows), n, ErrInsufficientData)
	}
	if n < a.period+1 {
		return nil, ErrInsufficientData
	}

	result := make([]float64, n)
	tr := make([]float64, n)

	// First TR is just high - low
	tr[0] = highs[0] - lows[0]

	for i := 1; i < n; i++ {
		tr[i] = trueRange(highs[i], lows[i], closes[i-1])
	}

	// First ATR is SMA of TR
	result[a.period-1] = mean(tr[:a.period])

	// Subsequent ATR using Wilder smoothing
	for i := a.period; i < n; i++ {
		result[i] = (result[i-1]*float64(a.period-1) + tr[i]) / float64(a.period)
	}

	return result, nil
}

// BollingerBands calculates the volatility envelope SMA ± k·stddev.
type BollingerBands struct {
	period    int
	stdDevMul float64
}

// NewBollingerBands creates a new Bollinger Bands indicator.
func NewBollingerBands(period int, stdDevMul float64) *BollingerBands {
	return &BollingerBands{
		period:    period,
		stdDevMul: stdDevMul,
	}
}

func (b *BollingerBands) Name() string {
	return fmt.Sprintf("BollingerBands_%d_%.1f", b.period, b.stdDevMul)
}

func (b *BollingerBands) Period() int {
	return b.period
}

func (b *BollingerBands) Calculate(closes []float64) (models.BollingerValue, error) {
	if b.period <= 0 || b.stdDevMul <= 0 {
		return models.BollingerValue{}, ErrInvalidPeriod
	}
	if len(closes) < b.period {
		return models.BollingerValue{}, ErrInsufficientData
	}

	window := closes[len(closes)-b.period:]
	sma := mean(window)
	sd := stdDev(window)

	return models.BollingerValue{
		Upper:  sma + b.stdDevMul*sd,
		Middle: sma,
		Lower:  sma - b.stdDevMul*sd,
	}, nil
}
