package intel

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"stockintel/internal/analysis/scoring"
)

// News sentiment banding: scores above +0.2 read bullish, below -0.2
// bearish. Canonical confidence formula for this source:
// 20 + 8*min(articles, 10) + 10*|avgSentiment|, clamped [0, 100].
const newsSentimentBand = 0.2

// NewsArticle is one article as returned by the news provider.
type NewsArticle struct {
	Headline    string
	Source      string
	URL         string
	Summary     string
	PublishedAt time.Time
}

// NewsClient is the outbound contract of the news provider (Finnhub-style).
type NewsClient interface {
	CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]NewsArticle, error)
}

// NewsGatherer scores recent company news into a sentiment report.
type NewsGatherer struct {
	baseGatherer
	creds    CredentialProvider
	client   NewsClient
	lookback time.Duration
	logger   zerolog.Logger
}

// NewNewsGatherer creates the news-sentiment gatherer.
func NewNewsGatherer(creds CredentialProvider, client NewsClient, logger zerolog.Logger) *NewsGatherer {
	return &NewsGatherer{
		baseGatherer: baseGatherer{source: SourceNews},
		creds:        creds,
		client:       client,
		lookback:     7 * 24 * time.Hour,
		logger:       logger,
	}
}

func (g *NewsGatherer) Available() bool {
	return g.client != nil && g.creds.HasCredential(SourceNews)
}

// Gather fetches and scores the last week of company news. A reachable
// feed with zero articles produces a minimal-confidence report; any
// transport failure is contained and produces nil.
func (g *NewsGatherer) Gather(ctx context.Context, req GatherRequest) (*Report, error) {
	if !g.Available() {
		return nil, nil
	}

	now := time.Now()
	articles, err := g.client.CompanyNews(ctx, req.Symbol, now.Add(-g.lookback), now)
	if err != nil {
		g.logger.Warn().Err(err).Str("symbol", req.Symbol).Msg("News fetch failed")
		return nil, nil
	}

	if len(articles) == 0 {
		report := g.newReport(20, fmt.Sprintf(
			"No news articles found for %s in the past 7 days. News sentiment is unavailable for this period.",
			req.Symbol))
		report.News = &NewsData{ArticleCount: 0, Sentiment: scoring.Neutral}
		return report, nil
	}

	headlines := make([]Headline, 0, len(articles))
	var total float64
	for _, a := range articles {
		score := estimateSentiment(a.Headline + " " + a.Summary)
		total += score
		headlines = append(headlines, Headline{
			Title:       a.Headline,
			Source:      a.Source,
			URL:         a.URL,
			Sentiment:   score,
			PublishedAt: a.PublishedAt,
		})
	}

	avg := total / float64(len(articles))
	direction := bandSentiment(avg, newsSentimentBand)

	count := len(articles)
	capped := count
	if capped > 10 {
		capped = 10
	}
	confidence := 20 + 8*float64(capped) + 10*abs(avg)

	report := g.newReport(confidence, fmt.Sprintf(
		"Scored %d news articles for %s over the past 7 days. Average sentiment is %+.2f, reading %s.",
		count, req.Symbol, avg, direction))
	report.News = &NewsData{
		ArticleCount: count,
		AvgSentiment: avg,
		Sentiment:    direction,
		Headlines:    headlines,
	}
	return report, nil
}
