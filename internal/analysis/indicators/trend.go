package indicators

import (
	"fmt"

	"stockintel/internal/models"
)

// SMA calculates Simple Moving Average over closing prices.
type SMA struct {
	period int
}

// NewSMA creates a new SMA indicator.
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

func (s *SMA) Name() string {
	return fmt.Sprintf("SMA_%d", s.period)
}

func (s *SMA) Period() int {
	return s.period
}

func (s *SMA) Calculate(closes []float64) ([]float64, error) {
	if s.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(closes) < s.period {
		return nil, ErrInsufficientData
	}

	result := make([]float64, len(closes))
	for i := s.period - 1; i < len(closes); i++ {
		result[i] = mean(closes[i-s.period+1 : i+1])
	}

	return result, nil
}

// Last returns the most recent SMA value, the arithmetic mean of the
// final period closes.
func (s *SMA) Last(closes []float64) (float64, error) {
	values, err := s.Calculate(closes)
	if err != nil {
		return 0, err
	}
	return values[len(values)-1], nil
}

// CalculateEMA calculates EMA on raw values (helper for other
// indicators). The series is seeded with the first value, so a longer
// period converges more slowly and two EMAs over the same input stay
// distinguishable while a trend is developing.
func CalculateEMA(values []float64, period int) []float64 {
	if len(values) < period || period <= 0 {
		return nil
	}

	result := make([]float64, len(values))
	multiplier := 2.0 / float64(period+1)

	result[0] = values[0]
	for i := 1; i < len(values); i++ {
		result[i] = (values[i]-result[i-1])*multiplier + result[i-1]
	}

	return result
}

// MACD calculates Moving Average Convergence Divergence.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a new MACD indicator with the given periods
// (defaults in this codebase: 12, 26, 9).
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fastPeriod:   fast,
		slowPeriod:   slow,
		signalPeriod: signal,
	}
}

func (m *MACD) Name() string {
	return fmt.Sprintf("MACD_%d_%d_%d", m.fastPeriod, m.slowPeriod, m.signalPeriod)
}

// Period returns the minimum history required: the slow period.
func (m *MACD) Period() int {
	return m.slowPeriod
}

func (m *MACD) Calculate(closes []float64) (models.MACDValue, error) {
	if m.fastPeriod <= 0 || m.slowPeriod <= 0 || m.signalPeriod <= 0 {
		return models.MACDValue{}, ErrInvalidPeriod
	}
	if len(closes) < m.slowPeriod {
		return models.MACDValue{}, ErrInsufficientData
	}

	n := len(closes)
	fastEMA := CalculateEMA(closes, m.fastPeriod)
	slowEMA := CalculateEMA(closes, m.slowPeriod)

	// MACD Line = Fast EMA - Slow EMA
	macdLine := make([]float64, n)
	for i := 0; i < n; i++ {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}

	// Signal Line = EMA of MACD Line, falling back to its mean for
	// non-standard period combinations where the signal window exceeds
	// the input
	var signal float64
	if n >= m.signalPeriod {
		signalEMA := CalculateEMA(macdLine, m.signalPeriod)
		signal = signalEMA[len(signalEMA)-1]
	} else {
		signal = mean(macdLine)
	}

	value := macdLine[n-1]
	return models.MACDValue{
		Value:     value,
		Signal:    signal,
		Histogram: value - signal,
	}, nil
}

// PricePosition derives moving-average trend flags from closing prices.
// Golden/death cross flags need 200 points; below that they stay false.
func PricePosition(closes []float64) (models.PricePosition, error) {
	if len(closes) < 50 {
		return models.PricePosition{}, ErrInsufficientData
	}

	price := closes[len(closes)-1]

	sma20, err := NewSMA(20).Last(closes)
	if err != nil {
		return models.PricePosition{}, err
	}
	sma50, err := NewSMA(50).Last(closes)
	if err != nil {
		return models.PricePosition{}, err
	}

	pos := models.PricePosition{
		AboveSMA20: price > sma20,
		AboveSMA50: price > sma50,
	}

	if len(closes) >= 200 {
		sma200, err := NewSMA(200).Last(closes)
		if err != nil {
			return models.PricePosition{}, err
		}
		pos.GoldenCross = sma50 > sma200
		pos.DeathCross = sma50 < sma200
	}

	return pos, nil
}
