// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"stockintel/internal/models"
)

// AnalysisRecord is one persisted analysis run, kept for the history
// view and for comparing verdicts over time.
type AnalysisRecord struct {
	ID           int64
	Symbol       string
	Timestamp    time.Time
	Percentage   float64 // composite bullish percentage
	Label        string
	DataQuality  float64
	QualityLabel string
	SourceCount  int
	Summary      string
	Scenarios    string // JSON-encoded synthesis scenarios, empty when skipped
}

// AnalysisFilter narrows history queries.
type AnalysisFilter struct {
	Symbol    string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}

// HistoryStore defines the persistence surface of the application:
// analysis history, cached candles, and the watchlist.
type HistoryStore interface {
	// Analyses
	SaveAnalysis(ctx context.Context, record *AnalysisRecord) error
	GetAnalyses(ctx context.Context, filter AnalysisFilter) ([]AnalysisRecord, error)

	// Candles
	SaveCandles(ctx context.Context, symbol string, points []models.PricePoint) error
	GetCandles(ctx context.Context, symbol string, from, to time.Time) ([]models.PricePoint, error)
	GetCandlesFreshness(ctx context.Context, symbol string) (time.Time, error)

	// Watchlist
	AddToWatchlist(ctx context.Context, symbol string) error
	RemoveFromWatchlist(ctx context.Context, symbol string) error
	GetWatchlist(ctx context.Context) ([]string, error)

	// Lifecycle
	Close() error
}
