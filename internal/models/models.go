// Package models provides domain models for stock intelligence analysis.
package models

import (
	"time"
)

// PricePoint represents one trading day of OHLCV data.
// Series fed to the indicator engine must be in chronological order
// (oldest first); callers holding newest-first data reverse before use.
type PricePoint struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Quote represents a market quote for a symbol.
type Quote struct {
	Symbol        string
	Price         float64
	Open          float64
	High          float64
	Low           float64
	PrevClose     float64
	Volume        int64
	Change        float64
	ChangePercent float64
	Timestamp     time.Time
}

// MACDValue holds the MACD line, signal line, and histogram.
type MACDValue struct {
	Value     float64
	Signal    float64
	Histogram float64
}

// BollingerValue holds the Bollinger Band levels.
type BollingerValue struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// VolumeClass classifies relative volume.
type VolumeClass string

const (
	VolumeHigh   VolumeClass = "high"
	VolumeNormal VolumeClass = "normal"
	VolumeLow    VolumeClass = "low"
)

// VolumeAnalysis holds the relative-volume reading.
type VolumeAnalysis struct {
	Ratio float64
	Class VolumeClass
}

// PricePosition holds trend flags derived from moving-average alignment.
// GoldenCross and DeathCross require at least 200 points of history;
// with less history both are false.
type PricePosition struct {
	AboveSMA20  bool
	AboveSMA50  bool
	GoldenCross bool
	DeathCross  bool
}

// IndicatorSet is a read-only snapshot of computed indicators for one
// analysis request. Created fresh per request, never mutated, and only
// persisted embedded in a technical report.
type IndicatorSet struct {
	RSI         float64
	MACD        MACDValue
	SMA20       float64
	SMA50       float64
	Bollinger   BollingerValue
	ATR         float64
	VolumeRatio float64
	Volume      VolumeAnalysis
	Position    PricePosition
	LastClose   float64
}

// ReversePoints returns a chronological copy of a newest-first series.
func ReversePoints(points []PricePoint) []PricePoint {
	out := make([]PricePoint, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}

// Closes extracts closing prices from a price series.
func Closes(points []PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Close
	}
	return out
}

// Highs extracts high prices from a price series.
func Highs(points []PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.High
	}
	return out
}

// Lows extracts low prices from a price series.
func Lows(points []PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Low
	}
	return out
}

// Volumes extracts volumes from a price series.
func Volumes(points []PricePoint) []int64 {
	out := make([]int64, len(points))
	for i, p := range points {
		out[i] = p.Volume
	}
	return out
}
