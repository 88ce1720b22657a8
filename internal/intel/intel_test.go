package intel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"stockintel/internal/analysis/scoring"
	"stockintel/internal/models"
)

// fakeCreds grants credentials for an explicit set of sources.
type fakeCreds struct {
	granted map[Source]string
}

func (f *fakeCreds) HasCredential(source Source) bool {
	return source == SourceTechnical || f.granted[source] != ""
}

func (f *fakeCreds) GetCredential(source Source) string {
	return f.granted[source]
}

func allCreds() *fakeCreds {
	return &fakeCreds{granted: map[Source]string{
		SourceNews:     "key",
		SourceSocial:   "key",
		SourceResearch: "key",
		SourceOptions:  "key",
	}}
}

// fakeGatherer is a scriptable gatherer for aggregator tests.
type fakeGatherer struct {
	source    Source
	available bool
	report    *Report
	err       error
	delay     time.Duration
}

func (f *fakeGatherer) Source() Source  { return f.source }
func (f *fakeGatherer) Available() bool { return f.available }

func (f *fakeGatherer) Gather(ctx context.Context, _ GatherRequest) (*Report, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, nil
		}
	}
	return f.report, f.err
}

func reportFor(source Source, confidence float64) *Report {
	return &Report{
		Source:     source,
		Timestamp:  time.Now(),
		Confidence: confidence,
		Summary:    "test report",
	}
}

func TestProperty_ClampConfidence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("clamped confidence is within [0, 100]", prop.ForAll(
		func(confidence float64) bool {
			clamped := ClampConfidence(confidence)
			return clamped >= 0 && clamped <= 100
		},
		gen.Float64Range(-1e6, 1e6),
	))

	properties.Property("in-range values pass through unchanged", prop.ForAll(
		func(confidence float64) bool {
			return ClampConfidence(confidence) == confidence
		},
		gen.Float64Range(0, 100),
	))

	properties.TestingRun(t)
}

// Every gatherer must produce a report whose payload pointer matches its
// source and carries no other payload.
func assertPayloadDisjoint(t *testing.T, report *Report) {
	t.Helper()

	payloads := map[Source]bool{
		SourceTechnical: report.Technical != nil,
		SourceNews:      report.News != nil,
		SourceSocial:    report.Social != nil,
		SourceResearch:  report.Research != nil,
		SourceOptions:   report.Options != nil,
	}

	for source, present := range payloads {
		if source == report.Source && !present {
			t.Errorf("report from %s is missing its own payload", report.Source)
		}
		if source != report.Source && present {
			t.Errorf("report from %s carries a %s payload", report.Source, source)
		}
	}
}

type fakeNewsClient struct {
	articles []NewsArticle
	err      error
}

func (f *fakeNewsClient) CompanyNews(_ context.Context, _ string, _, _ time.Time) ([]NewsArticle, error) {
	return f.articles, f.err
}

func TestNewsGatherer_EmptyFeedReportsMinimalConfidence(t *testing.T) {
	g := NewNewsGatherer(allCreds(), &fakeNewsClient{}, zerolog.Nop())

	report, err := g.Gather(context.Background(), GatherRequest{Symbol: "AAPL"})
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}
	if report == nil {
		t.Fatal("expected a report for reachable-but-empty feed, got nil")
	}
	if report.Confidence != 20 {
		t.Errorf("expected confidence 20, got %f", report.Confidence)
	}
	if report.News == nil || report.News.ArticleCount != 0 {
		t.Errorf("expected empty news payload, got %+v", report.News)
	}
	assertPayloadDisjoint(t, report)
}

func TestNewsGatherer_TransportFailureIsContained(t *testing.T) {
	g := NewNewsGatherer(allCreds(), &fakeNewsClient{err: errors.New("boom")}, zerolog.Nop())

	report, err := g.Gather(context.Background(), GatherRequest{Symbol: "AAPL"})
	if err != nil {
		t.Fatalf("expected contained failure, got error: %v", err)
	}
	if report != nil {
		t.Fatalf("expected nil report on transport failure, got %+v", report)
	}
}

func TestNewsGatherer_MissingCredentialSkips(t *testing.T) {
	creds := &fakeCreds{granted: map[Source]string{}}
	g := NewNewsGatherer(creds, &fakeNewsClient{articles: []NewsArticle{{Headline: "x"}}}, zerolog.Nop())

	report, err := g.Gather(context.Background(), GatherRequest{Symbol: "AAPL"})
	if err != nil || report != nil {
		t.Fatalf("expected (nil, nil) without credential, got (%+v, %v)", report, err)
	}
}

func TestNewsGatherer_SentimentBanding(t *testing.T) {
	articles := []NewsArticle{
		{Headline: "Company beats estimates, strong growth and record profit"},
		{Headline: "Shares surge on upgrade"},
	}
	g := NewNewsGatherer(allCreds(), &fakeNewsClient{articles: articles}, zerolog.Nop())

	report, err := g.Gather(context.Background(), GatherRequest{Symbol: "AAPL"})
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}
	if report.News.Sentiment != scoring.Bullish {
		t.Errorf("expected bullish sentiment, got %s (avg %f)",
			report.News.Sentiment, report.News.AvgSentiment)
	}
	if report.Confidence < 0 || report.Confidence > 100 {
		t.Errorf("confidence %f out of range", report.Confidence)
	}
	assertPayloadDisjoint(t, report)
}

type fakeSocialClient struct {
	messages []SocialMessage
	err      error
}

func (f *fakeSocialClient) SymbolStream(_ context.Context, _ string, _ int) ([]SocialMessage, error) {
	return f.messages, f.err
}

func TestSocialGatherer_NetSentimentFromLabels(t *testing.T) {
	messages := []SocialMessage{
		{Label: "bullish"}, {Label: "bullish"}, {Label: "bullish"},
		{Label: "bearish"},
		{Label: ""}, {Label: ""},
	}
	g := NewSocialGatherer(allCreds(), &fakeSocialClient{messages: messages}, zerolog.Nop())

	report, err := g.Gather(context.Background(), GatherRequest{Symbol: "TSLA"})
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}

	social := report.Social
	if social.MessageCount != 6 || social.BullishCount != 3 || social.BearishCount != 1 {
		t.Errorf("unexpected counts: %+v", social)
	}
	// net = (3-1)/4 = 0.5, above the 0.15 band
	if social.NetSentiment != 0.5 || social.Sentiment != scoring.Bullish {
		t.Errorf("expected net 0.5 bullish, got %f %s", social.NetSentiment, social.Sentiment)
	}
	assertPayloadDisjoint(t, report)
}

func TestSocialGatherer_UnlabeledOnlyIsNeutral(t *testing.T) {
	messages := []SocialMessage{{Label: ""}, {Label: ""}}
	g := NewSocialGatherer(allCreds(), &fakeSocialClient{messages: messages}, zerolog.Nop())

	report, err := g.Gather(context.Background(), GatherRequest{Symbol: "TSLA"})
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}
	if report.Social.Sentiment != scoring.Neutral || report.Social.NetSentiment != 0 {
		t.Errorf("expected neutral with zero net, got %+v", report.Social)
	}
}

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Complete(_ context.Context, _, _ string) (string, error) {
	return f.response, f.err
}

func (f *fakeLLM) Model() string { return "test-model" }

func TestResearchGatherer_ParsesFindings(t *testing.T) {
	response := `- Earnings beat consensus with strong revenue growth
- Analyst upgrade to buy
* Product launch scheduled for Q4
1. Regulatory review closed with no action
Some prose the parser should skip.`

	g := NewResearchGatherer(allCreds(), &fakeLLM{response: response}, zerolog.Nop())
	report, err := g.Gather(context.Background(), GatherRequest{Symbol: "NVDA"})
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}

	if len(report.Research.Findings) != 4 {
		t.Errorf("expected 4 findings, got %d: %v",
			len(report.Research.Findings), report.Research.Findings)
	}
	// 30 + 10*min(4,5) = 70
	if report.Confidence != 70 {
		t.Errorf("expected confidence 70, got %f", report.Confidence)
	}
	if report.Research.Model != "test-model" {
		t.Errorf("expected model recorded, got %q", report.Research.Model)
	}
	assertPayloadDisjoint(t, report)
}

func TestResearchGatherer_NoFindings(t *testing.T) {
	g := NewResearchGatherer(allCreds(), &fakeLLM{response: "I could not find anything relevant."}, zerolog.Nop())
	report, err := g.Gather(context.Background(), GatherRequest{Symbol: "NVDA"})
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}
	if report == nil || report.Confidence != 20 {
		t.Fatalf("expected confidence-20 report for unusable response, got %+v", report)
	}
}

type fakeOptionsClient struct {
	activity *OptionsActivity
	err      error
}

func (f *fakeOptionsClient) OptionsActivity(_ context.Context, _ string) (*OptionsActivity, error) {
	return f.activity, f.err
}

func TestOptionsGatherer_PutCallClassification(t *testing.T) {
	tests := []struct {
		name  string
		calls int64
		puts  int64
		want  scoring.Direction
	}{
		{name: "call heavy is bullish", calls: 10000, puts: 3000, want: scoring.Bullish},
		{name: "put heavy is bearish", calls: 3000, puts: 6000, want: scoring.Bearish},
		{name: "balanced is neutral", calls: 5000, puts: 5000, want: scoring.Neutral},
		{name: "no calls is bearish", calls: 0, puts: 4000, want: scoring.Bearish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeOptionsClient{activity: &OptionsActivity{CallVolume: tt.calls, PutVolume: tt.puts}}
			g := NewOptionsGatherer(allCreds(), client, zerolog.Nop())

			report, err := g.Gather(context.Background(), GatherRequest{Symbol: "SPY"})
			if err != nil {
				t.Fatalf("Gather returned error: %v", err)
			}
			if report.Options.Sentiment != tt.want {
				t.Errorf("expected %s, got %s (ratio %f)",
					tt.want, report.Options.Sentiment, report.Options.PutCallRatio)
			}
			if report.Confidence < 0 || report.Confidence > 100 {
				t.Errorf("confidence %f out of range", report.Confidence)
			}
			assertPayloadDisjoint(t, report)
		})
	}
}

func TestOptionsGatherer_ZeroVolume(t *testing.T) {
	client := &fakeOptionsClient{activity: &OptionsActivity{}}
	g := NewOptionsGatherer(allCreds(), client, zerolog.Nop())

	report, err := g.Gather(context.Background(), GatherRequest{Symbol: "SPY"})
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}
	if report == nil || report.Confidence != 20 {
		t.Fatalf("expected confidence-20 report for zero volume, got %+v", report)
	}
}

func TestTechnicalGatherer_PayloadAndConfidence(t *testing.T) {
	points := make([]models.PricePoint, 60)
	for i := range points {
		price := 100.0 + float64(i)*0.5
		points[i] = models.PricePoint{
			Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open: price, High: price + 1, Low: price - 1, Close: price,
			Volume: 100000,
		}
	}

	g := NewTechnicalGatherer(scoring.NewScorer(), zerolog.Nop())
	report, err := g.Gather(context.Background(), GatherRequest{Symbol: "MSFT", PriceData: points})
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}
	if report == nil {
		t.Fatal("expected a technical report")
	}
	if report.Confidence < 0 || report.Confidence > 100 {
		t.Errorf("confidence %f out of range", report.Confidence)
	}
	if report.Technical.DataPoints != 60 {
		t.Errorf("expected 60 data points recorded, got %d", report.Technical.DataPoints)
	}
	assertPayloadDisjoint(t, report)
}

func TestTechnicalGatherer_ShortSeriesYieldsNil(t *testing.T) {
	points := make([]models.PricePoint, 10)
	g := NewTechnicalGatherer(scoring.NewScorer(), zerolog.Nop())

	report, err := g.Gather(context.Background(), GatherRequest{Symbol: "MSFT", PriceData: points})
	if err != nil || report != nil {
		t.Fatalf("expected (nil, nil) for short series, got (%+v, %v)", report, err)
	}
}

func TestAggregator_PartialFailureCompletes(t *testing.T) {
	gatherers := []Gatherer{
		&fakeGatherer{source: SourceTechnical, available: true, report: reportFor(SourceTechnical, 80)},
		&fakeGatherer{source: SourceNews, available: true, err: errors.New("boom")},
		&fakeGatherer{source: SourceSocial, available: false},
		&fakeGatherer{source: SourceResearch, available: true, report: reportFor(SourceResearch, 60)},
		&fakeGatherer{source: SourceOptions, available: true, report: nil},
	}

	agg := NewAggregator(gatherers, nil, time.Second, zerolog.Nop())
	bundle := agg.Gather(context.Background(), GatherRequest{Symbol: "AAPL"})

	if len(bundle.Reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(bundle.Reports))
	}

	// Only the credential-less source is missing; sources that were
	// available but failed or came back empty stay on the available side
	if len(bundle.MissingSources) != 1 || bundle.MissingSources[0] != SourceSocial {
		t.Errorf("expected only %s missing, got %v", SourceSocial, bundle.MissingSources)
	}
	available := map[Source]bool{}
	for _, s := range bundle.AvailableSources {
		available[s] = true
	}
	for _, want := range []Source{SourceTechnical, SourceNews, SourceResearch, SourceOptions} {
		if !available[want] {
			t.Errorf("expected %s in available sources, got %v", want, bundle.AvailableSources)
		}
	}
}

// Available and missing sources must partition the full source set, and
// every report must come from an available source.
func TestAggregator_SourcePartition(t *testing.T) {
	gatherers := []Gatherer{
		&fakeGatherer{source: SourceTechnical, available: true, report: reportFor(SourceTechnical, 80)},
		&fakeGatherer{source: SourceNews, available: true, err: errors.New("boom")},
		&fakeGatherer{source: SourceSocial, available: false},
		&fakeGatherer{source: SourceResearch, available: false},
		&fakeGatherer{source: SourceOptions, available: true, report: nil},
	}

	agg := NewAggregator(gatherers, nil, time.Second, zerolog.Nop())
	bundle := agg.Gather(context.Background(), GatherRequest{Symbol: "AAPL"})

	seen := map[Source]int{}
	for _, s := range bundle.AvailableSources {
		seen[s]++
	}
	for _, s := range bundle.MissingSources {
		seen[s]++
	}
	for _, source := range AllSources() {
		if seen[source] != 1 {
			t.Errorf("source %s appears %d times across the partition", source, seen[source])
		}
	}

	available := map[Source]bool{}
	for _, s := range bundle.AvailableSources {
		available[s] = true
	}
	for _, r := range bundle.Reports {
		if !available[r.Source] {
			t.Errorf("report from %s but source is not listed as available", r.Source)
		}
	}
}

func TestAggregator_ReportOrderIsStable(t *testing.T) {
	// Completion order is reversed via delays; output order must follow
	// the declared source order regardless
	gatherers := []Gatherer{
		&fakeGatherer{source: SourceTechnical, available: true, report: reportFor(SourceTechnical, 80), delay: 50 * time.Millisecond},
		&fakeGatherer{source: SourceNews, available: true, report: reportFor(SourceNews, 70), delay: 30 * time.Millisecond},
		&fakeGatherer{source: SourceOptions, available: true, report: reportFor(SourceOptions, 60)},
	}

	agg := NewAggregator(gatherers, nil, time.Second, zerolog.Nop())
	bundle := agg.Gather(context.Background(), GatherRequest{Symbol: "AAPL"})

	want := []Source{SourceTechnical, SourceNews, SourceOptions}
	if len(bundle.Reports) != len(want) {
		t.Fatalf("expected %d reports, got %d", len(want), len(bundle.Reports))
	}
	for i, source := range want {
		if bundle.Reports[i].Source != source {
			t.Errorf("position %d: expected %s, got %s", i, source, bundle.Reports[i].Source)
		}
	}
}

func TestAggregator_SlowSourceTimesOut(t *testing.T) {
	gatherers := []Gatherer{
		&fakeGatherer{source: SourceTechnical, available: true, report: reportFor(SourceTechnical, 80)},
		&fakeGatherer{source: SourceNews, available: true, report: reportFor(SourceNews, 70), delay: 5 * time.Second},
	}

	agg := NewAggregator(gatherers, nil, 50*time.Millisecond, zerolog.Nop())

	start := time.Now()
	bundle := agg.Gather(context.Background(), GatherRequest{Symbol: "AAPL"})
	elapsed := time.Since(start)

	if elapsed > 2*time.Second {
		t.Fatalf("aggregation did not respect source timeout, took %s", elapsed)
	}
	if len(bundle.Reports) != 1 || bundle.Reports[0].Source != SourceTechnical {
		t.Errorf("expected only the technical report, got %+v", bundle.Reports)
	}
}

func TestAggregator_DataQuality(t *testing.T) {
	tests := []struct {
		name      string
		reports   []Report
		wantScore float64
		wantLabel string
	}{
		{
			name: "all sources at full confidence",
			reports: []Report{
				*reportFor(SourceTechnical, 100), *reportFor(SourceNews, 100),
				*reportFor(SourceSocial, 100), *reportFor(SourceResearch, 100),
				*reportFor(SourceOptions, 100),
			},
			wantScore: 100,
			wantLabel: "excellent",
		},
		{
			name: "technical and news at confidence 80",
			// weights 25+25 = 50, avg confidence 80 -> 40
			reports:   []Report{*reportFor(SourceTechnical, 80), *reportFor(SourceNews, 80)},
			wantScore: 40,
			wantLabel: "limited",
		},
		{
			name:      "no reports",
			reports:   nil,
			wantScore: 0,
			wantLabel: "minimal",
		},
	}

	agg := NewAggregator(nil, nil, time.Second, zerolog.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := agg.computeQuality(tt.reports)
			if score != tt.wantScore {
				t.Errorf("expected quality %f, got %f", tt.wantScore, score)
			}
			if label := QualityLabel(score); label != tt.wantLabel {
				t.Errorf("expected label %q, got %q", tt.wantLabel, label)
			}
		})
	}
}

func TestAggregator_QuickIsTechnicalOnly(t *testing.T) {
	gatherers := []Gatherer{
		&fakeGatherer{source: SourceTechnical, available: true, report: reportFor(SourceTechnical, 75)},
		&fakeGatherer{source: SourceNews, available: true, report: reportFor(SourceNews, 90)},
	}

	agg := NewAggregator(gatherers, nil, time.Second, zerolog.Nop())
	bundle := agg.GatherQuick(context.Background(), GatherRequest{Symbol: "AAPL"})

	if len(bundle.Reports) != 1 || bundle.Reports[0].Source != SourceTechnical {
		t.Fatalf("expected only the technical report, got %+v", bundle.Reports)
	}
	if len(bundle.AvailableSources) != 1 || bundle.AvailableSources[0] != SourceTechnical {
		t.Errorf("expected only %s available, got %v", SourceTechnical, bundle.AvailableSources)
	}
	if len(bundle.MissingSources) != 4 {
		t.Errorf("expected 4 missing sources, got %v", bundle.MissingSources)
	}
}
