package intel

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"stockintel/internal/analysis/scoring"
)

// Social sentiment banding: the net ratio over labeled messages above
// +0.15 reads bullish, below -0.15 bearish. Confidence formula:
// 20 + 2*min(messages, 30) + 20*|net|, clamped [0, 100].
const socialSentimentBand = 0.15

// SocialMessage is one message from the social stream. Label carries the
// platform's own tag ("bullish", "bearish", or empty for unlabeled).
type SocialMessage struct {
	Body  string
	Label string
	User  string
}

// SocialClient is the outbound contract of the social provider
// (Stocktwits-style symbol streams).
type SocialClient interface {
	SymbolStream(ctx context.Context, symbol string, limit int) ([]SocialMessage, error)
}

// SocialGatherer reads the symbol's social stream and scores the
// platform-labeled messages into a net sentiment.
type SocialGatherer struct {
	baseGatherer
	creds  CredentialProvider
	client SocialClient
	limit  int
	logger zerolog.Logger
}

// NewSocialGatherer creates the social-sentiment gatherer.
func NewSocialGatherer(creds CredentialProvider, client SocialClient, logger zerolog.Logger) *SocialGatherer {
	return &SocialGatherer{
		baseGatherer: baseGatherer{source: SourceSocial},
		creds:        creds,
		client:       client,
		limit:        30,
		logger:       logger,
	}
}

func (g *SocialGatherer) Available() bool {
	return g.client != nil && g.creds.HasCredential(SourceSocial)
}

// Gather pulls the most recent stream messages. Net sentiment counts only
// messages the platform itself labeled; unlabeled chatter contributes to
// volume but not direction.
func (g *SocialGatherer) Gather(ctx context.Context, req GatherRequest) (*Report, error) {
	if !g.Available() {
		return nil, nil
	}

	messages, err := g.client.SymbolStream(ctx, req.Symbol, g.limit)
	if err != nil {
		g.logger.Warn().Err(err).Str("symbol", req.Symbol).Msg("Social stream fetch failed")
		return nil, nil
	}

	if len(messages) == 0 {
		report := g.newReport(20, fmt.Sprintf(
			"No recent social messages found for %s. Social sentiment is unavailable.",
			req.Symbol))
		report.Social = &SocialData{Sentiment: scoring.Neutral}
		return report, nil
	}

	var bullish, bearish int
	for _, m := range messages {
		switch m.Label {
		case "bullish":
			bullish++
		case "bearish":
			bearish++
		}
	}

	var net float64
	if labeled := bullish + bearish; labeled > 0 {
		net = float64(bullish-bearish) / float64(labeled)
	}
	direction := bandSentiment(net, socialSentimentBand)

	count := len(messages)
	capped := count
	if capped > 30 {
		capped = 30
	}
	confidence := 20 + 2*float64(capped) + 20*abs(net)

	report := g.newReport(confidence, fmt.Sprintf(
		"Read %d social messages for %s: %d tagged bullish, %d bearish. Net sentiment %+.2f reads %s.",
		count, req.Symbol, bullish, bearish, net, direction))
	report.Social = &SocialData{
		MessageCount: count,
		BullishCount: bullish,
		BearishCount: bearish,
		NetSentiment: net,
		Sentiment:    direction,
	}
	return report, nil
}
