package intel

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"stockintel/internal/logging"
)

// Data-quality label thresholds over the 0-100 quality score.
const (
	qualityExcellent = 80.0
	qualityGood      = 60.0
	qualityLimited   = 40.0
)

// Bundle is the joined output of one aggregation run. Reports appear in
// AllSources order. AvailableSources and MissingSources partition the
// full source set by the availability probe: a source with a credential
// that then failed or returned nothing stays in AvailableSources, just
// without a report. Every report's source is in AvailableSources.
type Bundle struct {
	Symbol           string
	CompanyName      string
	GatheredAt       time.Time
	Reports          []Report
	AvailableSources []Source
	MissingSources   []Source
	DataQuality      float64 // [0, 100]
	QualityLabel     string
	Elapsed          time.Duration
}

// ReportFor returns the bundle's report for a source, or nil.
func (b *Bundle) ReportFor(source Source) *Report {
	for i := range b.Reports {
		if b.Reports[i].Source == source {
			return &b.Reports[i]
		}
	}
	return nil
}

// Aggregator fans a gather request out to every registered source and
// joins the results. One slow or failing source never blocks or poisons
// the rest; the run always completes with whatever reported.
type Aggregator struct {
	gatherers     []Gatherer
	weights       map[Source]float64
	sourceTimeout time.Duration
	logger        zerolog.Logger
}

// NewAggregator creates an aggregator over the given gatherers.
// Weights missing from the map default to zero.
func NewAggregator(gatherers []Gatherer, weights map[Source]float64, sourceTimeout time.Duration, logger zerolog.Logger) *Aggregator {
	if weights == nil {
		weights = DefaultSourceWeights()
	}
	return &Aggregator{
		gatherers:     gatherers,
		weights:       weights,
		sourceTimeout: sourceTimeout,
		logger:        logger,
	}
}

type gatherResult struct {
	source Source
	report *Report
}

// Gather runs every available gatherer concurrently and joins all of
// them. Unavailable sources are skipped without spawning work. The
// returned bundle is complete even when every source misses.
func (a *Aggregator) Gather(ctx context.Context, req GatherRequest) *Bundle {
	start := time.Now()

	available := make([]Gatherer, 0, len(a.gatherers))
	availableSet := make(map[Source]bool, len(a.gatherers))
	for _, g := range a.gatherers {
		if g.Available() {
			available = append(available, g)
			availableSet[g.Source()] = true
		}
	}

	results := make(chan gatherResult, len(available))
	var wg sync.WaitGroup

	for _, g := range available {
		wg.Add(1)
		go func(g Gatherer) {
			defer wg.Done()

			gctx := ctx
			var cancel context.CancelFunc
			if a.sourceTimeout > 0 {
				gctx, cancel = context.WithTimeout(ctx, a.sourceTimeout)
				defer cancel()
			}

			gatherStart := time.Now()
			report, err := g.Gather(gctx, req)
			if err != nil {
				// Gatherers contain their own failures; an error here is
				// a programming mistake, logged and treated as missing
				a.logger.Error().Err(err).
					Str("source", string(g.Source())).
					Str("symbol", req.Symbol).
					Msg("Gatherer returned error")
				report = nil
			}

			reported := report != nil
			var confidence float64
			if reported {
				confidence = report.Confidence
			}
			logging.LogGather(a.logger, string(g.Source()), req.Symbol, reported, confidence, time.Since(gatherStart))

			results <- gatherResult{source: g.Source(), report: report}
		}(g)
	}

	wg.Wait()
	close(results)

	bySource := make(map[Source]*Report, len(available))
	for r := range results {
		if r.report != nil {
			bySource[r.source] = r.report
		}
	}

	bundle := &Bundle{
		Symbol:      req.Symbol,
		CompanyName: req.CompanyName,
		GatheredAt:  start,
		Elapsed:     time.Since(start),
	}

	// Stabilize report order regardless of completion order and keep the
	// availability partition: available minus missing covers all sources
	for _, source := range AllSources() {
		if !availableSet[source] {
			bundle.MissingSources = append(bundle.MissingSources, source)
			continue
		}
		bundle.AvailableSources = append(bundle.AvailableSources, source)
		if report, ok := bySource[source]; ok {
			bundle.Reports = append(bundle.Reports, *report)
		}
	}

	bundle.DataQuality = a.computeQuality(bundle.Reports)
	bundle.QualityLabel = QualityLabel(bundle.DataQuality)

	a.logger.Info().
		Str("symbol", req.Symbol).
		Int("reports", len(bundle.Reports)).
		Int("missing", len(bundle.MissingSources)).
		Float64("data_quality", bundle.DataQuality).
		Dur("elapsed", bundle.Elapsed).
		Msg("Aggregation complete")

	return bundle
}

// GatherQuick runs only the technical source, synchronously. Used by the
// quick analysis path where no network source should be consulted.
func (a *Aggregator) GatherQuick(ctx context.Context, req GatherRequest) *Bundle {
	start := time.Now()

	bundle := &Bundle{
		Symbol:      req.Symbol,
		CompanyName: req.CompanyName,
		GatheredAt:  start,
	}

	var technical Gatherer
	for _, g := range a.gatherers {
		if g.Source() == SourceTechnical && g.Available() {
			technical = g
			break
		}
	}

	for _, source := range AllSources() {
		if source == SourceTechnical && technical != nil {
			bundle.AvailableSources = append(bundle.AvailableSources, source)
		} else {
			bundle.MissingSources = append(bundle.MissingSources, source)
		}
	}

	if technical != nil {
		report, err := technical.Gather(ctx, req)
		if err == nil && report != nil {
			bundle.Reports = append(bundle.Reports, *report)
		}
	}

	bundle.Elapsed = time.Since(start)
	bundle.DataQuality = a.computeQuality(bundle.Reports)
	bundle.QualityLabel = QualityLabel(bundle.DataQuality)
	return bundle
}

// computeQuality scores the bundle: the sum of the reporting sources'
// weights, scaled by the mean confidence of the reports actually
// received. The weight base is the reporting sources, not the available
// ones: a source that was available but returned nothing contributes
// neither weight nor confidence. No reports means zero quality.
func (a *Aggregator) computeQuality(reports []Report) float64 {
	if len(reports) == 0 {
		return 0
	}

	var weightSum, confidenceSum float64
	for _, r := range reports {
		weightSum += a.weights[r.Source]
		confidenceSum += r.Confidence
	}

	avgConfidence := confidenceSum / float64(len(reports))
	quality := weightSum * avgConfidence / 100

	if quality < 0 {
		return 0
	}
	if quality > 100 {
		return 100
	}
	return quality
}

// QualityLabel buckets a 0-100 quality score into its display label.
func QualityLabel(quality float64) string {
	switch {
	case quality >= qualityExcellent:
		return "excellent"
	case quality >= qualityGood:
		return "good"
	case quality >= qualityLimited:
		return "limited"
	default:
		return "minimal"
	}
}
