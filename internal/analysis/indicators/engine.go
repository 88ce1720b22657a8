// Package indicators provides pure technical indicator calculations over
// chronologically ordered price series. No I/O, no hidden state: the same
// input always yields the same output.
package indicators

import (
	"fmt"

	"stockintel/internal/models"
)

// MinPoints is the minimum history the engine accepts. MACD's slow EMA
// is the most data-hungry of the always-computed indicators at 26
// points; SMA50 and the cross flags need more and fill in only when
// their windows are available.
const MinPoints = 26

// Engine computes a full IndicatorSet snapshot from a price series.
type Engine struct {
	rsi       *RSI
	macd      *MACD
	sma20     *SMA
	sma50     *SMA
	bollinger *BollingerBands
	atr       *ATR
	volume    *VolumeAnalyzer
}

// NewEngine creates an indicator engine with the standard parameters:
// RSI(14), MACD(12,26,9), SMA(20)/SMA(50), Bollinger(20, 2.0), ATR(14).
func NewEngine() *Engine {
	return &Engine{
		rsi:       NewRSI(14),
		macd:      NewMACD(12, 26, 9),
		sma20:     NewSMA(20),
		sma50:     NewSMA(50),
		bollinger: NewBollingerBands(20, 2.0),
		atr:       NewATR(14),
		volume:    NewVolumeAnalyzer(),
	}
}

// Compute calculates the indicator snapshot for a chronological price
// series. It fails fast with ErrInsufficientData when the series is
// shorter than MinPoints; indicators needing even more history (SMA50,
// crosses) are filled only when their window is available.
func (e *Engine) Compute(points []models.PricePoint) (*models.IndicatorSet, error) {
	if len(points) < MinPoints {
		return nil, fmt.Errorf("need at least %d points, got %d: %w",
			MinPoints, len(points), ErrInsufficientData)
	}

	closes := models.Closes(points)
	set := &models.IndicatorSet{LastClose: closes[len(closes)-1]}

	rsiValues, err := e.rsi.Calculate(closes)
	if err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}
	set.RSI = rsiValues[len(rsiValues)-1]

	set.MACD, err = e.macd.Calculate(closes)
	if err != nil {
		return nil, fmt.Errorf("macd: %w", err)
	}

	set.SMA20, err = e.sma20.Last(closes)
	if err != nil {
		return nil, fmt.Errorf("sma20: %w", err)
	}

	// SMA50 and cross flags only when the longer windows exist
	if len(closes) >= e.sma50.Period() {
		set.SMA50, err = e.sma50.Last(closes)
		if err != nil {
			return nil, fmt.Errorf("sma50: %w", err)
		}
		set.Position, err = PricePosition(closes)
		if err != nil {
			return nil, fmt.Errorf("price position: %w", err)
		}
	} else {
		set.Position = models.PricePosition{AboveSMA20: set.LastClose > set.SMA20}
	}

	set.Bollinger, err = e.bollinger.Calculate(closes)
	if err != nil {
		return nil, fmt.Errorf("bollinger: %w", err)
	}

	atrValues, err := e.atr.Calculate(models.Highs(points), models.Lows(points), closes)
	if err != nil {
		return nil, fmt.Errorf("atr: %w", err)
	}
	set.ATR = atrValues[len(atrValues)-1]

	set.Volume, err = e.volume.Analyze(models.Volumes(points))
	if err != nil {
		return nil, fmt.Errorf("volume: %w", err)
	}
	set.VolumeRatio = set.Volume.Ratio

	return set, nil
}
