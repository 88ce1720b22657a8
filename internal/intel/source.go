// Package intel provides the per-source intelligence gatherers and the
// aggregator that combines their reports into a single bundle.
package intel

import (
	"context"
	"time"

	"stockintel/internal/analysis/scoring"
	"stockintel/internal/models"
)

// Source identifies one intelligence source. The set is closed; it
// drives aggregation weighting and report payload selection.
type Source string

const (
	SourceTechnical Source = "technical-analysis"
	SourceNews      Source = "news-sentiment"
	SourceSocial    Source = "social-sentiment"
	SourceResearch  Source = "web-research"
	SourceOptions   Source = "options-flow"
)

// AllSources lists every source in declared order. Report collection is
// stabilized to this order for determinism.
func AllSources() []Source {
	return []Source{
		SourceTechnical,
		SourceNews,
		SourceSocial,
		SourceResearch,
		SourceOptions,
	}
}

// DefaultSourceWeights returns the fixed per-source data-quality weights.
// They sum to 100 when all five sources are available.
func DefaultSourceWeights() map[Source]float64 {
	return map[Source]float64{
		SourceTechnical: 25,
		SourceNews:      25,
		SourceSocial:    15,
		SourceResearch:  20,
		SourceOptions:   15,
	}
}

// GatherRequest carries the per-symbol context passed to every gatherer.
type GatherRequest struct {
	Symbol       string
	CompanyName  string
	PriceData    []models.PricePoint // chronological, oldest first
	CurrentPrice float64
	CustomPrompt string
}

// Gatherer is the uniform contract every intelligence source implements.
//
// Gather returns (nil, nil) when the source is unavailable or fails:
// expected absence is not an error. A source that is reachable but finds
// nothing returns a valid low-confidence Report instead of nil. Any
// transport or parse failure is contained inside the gatherer.
type Gatherer interface {
	Source() Source
	// Available reports whether the source's credential/capability is
	// present. Cheap and synchronous.
	Available() bool
	Gather(ctx context.Context, req GatherRequest) (*Report, error)
}

// CredentialProvider exposes credential presence and retrieval for a
// source. The aggregator and gatherers depend only on this narrow
// interface, never on storage or encoding details.
type CredentialProvider interface {
	HasCredential(source Source) bool
	GetCredential(source Source) string
}

// Report is one source's contribution to an analysis. Exactly one
// payload pointer matching Source is non-nil; consumers switch on
// Source and read that payload.
type Report struct {
	Source     Source
	Timestamp  time.Time
	Confidence float64 // [0, 100], source-computed, never renormalized
	Summary    string

	Technical *TechnicalData
	News      *NewsData
	Social    *SocialData
	Research  *ResearchData
	Options   *OptionsData
}

// TechnicalData is the technical-analysis payload.
type TechnicalData struct {
	Indicators   models.IndicatorSet
	Signals      []scoring.Signal
	Aggregate    scoring.AggregateScore
	Trend        scoring.Trend
	CurrentPrice float64
	DataPoints   int
}

// Headline is one scored news article.
type Headline struct {
	Title       string
	Source      string
	URL         string
	Sentiment   float64 // -1 to 1
	PublishedAt time.Time
}

// NewsData is the news-sentiment payload.
type NewsData struct {
	ArticleCount int
	AvgSentiment float64 // -1 to 1
	Sentiment    scoring.Direction
	Headlines    []Headline
}

// SocialData is the social-sentiment payload.
type SocialData struct {
	MessageCount int
	BullishCount int
	BearishCount int
	NetSentiment float64 // -1 to 1 over labeled messages
	Sentiment    scoring.Direction
}

// ResearchData is the web-research payload.
type ResearchData struct {
	Findings  []string
	Sentiment scoring.Direction
	Model     string
}

// OptionsData is the options-flow payload.
type OptionsData struct {
	CallVolume   int64
	PutVolume    int64
	PutCallRatio float64
	Sentiment    scoring.Direction
}

// ClampConfidence ensures confidence is within the valid range [0, 100].
func ClampConfidence(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 100 {
		return 100
	}
	return confidence
}

// baseGatherer provides the common source tag for gatherer implementations.
type baseGatherer struct {
	source Source
}

func (b *baseGatherer) Source() Source {
	return b.source
}

// newReport creates a Report stamped with the source and current time.
func (b *baseGatherer) newReport(confidence float64, summary string) *Report {
	return &Report{
		Source:     b.source,
		Timestamp:  time.Now(),
		Confidence: ClampConfidence(confidence),
		Summary:    summary,
	}
}
