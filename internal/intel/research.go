package intel

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Web research confidence formula: 30 + 10*min(findings, 5), clamped.
// A model response that parses into no findings still produces the
// empty-but-reachable report at confidence 20.

// LLMClient is the narrow completion contract the research gatherer
// needs from a language-model backend. The synthesis providers satisfy
// it, so research rides whichever model backend is configured.
type LLMClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Model() string
}

// ResearchGatherer asks a language model for recent qualitative findings
// about the company and distills them into bullet findings.
type ResearchGatherer struct {
	baseGatherer
	creds  CredentialProvider
	client LLMClient
	logger zerolog.Logger
}

// NewResearchGatherer creates the web-research gatherer.
func NewResearchGatherer(creds CredentialProvider, client LLMClient, logger zerolog.Logger) *ResearchGatherer {
	return &ResearchGatherer{
		baseGatherer: baseGatherer{source: SourceResearch},
		creds:        creds,
		client:       client,
		logger:       logger,
	}
}

func (g *ResearchGatherer) Available() bool {
	return g.client != nil && g.creds.HasCredential(SourceResearch)
}

const researchSystemPrompt = `You are an equity research assistant. Given a stock symbol, list the most
relevant recent developments for the company: earnings, guidance, product
news, analyst actions, regulatory or legal items, and sector context.
Respond with one finding per line, each starting with "- ". Be factual
and concise. Do not give investment advice.`

// Gather queries the model and parses its bullet lines into findings.
func (g *ResearchGatherer) Gather(ctx context.Context, req GatherRequest) (*Report, error) {
	if !g.Available() {
		return nil, nil
	}

	userPrompt := fmt.Sprintf("Symbol: %s", req.Symbol)
	if req.CompanyName != "" {
		userPrompt += fmt.Sprintf(" (%s)", req.CompanyName)
	}
	if req.CustomPrompt != "" {
		userPrompt += "\nFocus: " + req.CustomPrompt
	}

	response, err := g.client.Complete(ctx, researchSystemPrompt, userPrompt)
	if err != nil {
		g.logger.Warn().Err(err).Str("symbol", req.Symbol).Msg("Research completion failed")
		return nil, nil
	}

	findings := parseFindings(response)
	if len(findings) == 0 {
		report := g.newReport(20, fmt.Sprintf(
			"Web research returned no usable findings for %s.", req.Symbol))
		report.Research = &ResearchData{Model: g.client.Model()}
		return report, nil
	}

	direction := bandSentiment(estimateSentiment(response), newsSentimentBand)

	capped := len(findings)
	if capped > 5 {
		capped = 5
	}
	confidence := 30 + 10*float64(capped)

	report := g.newReport(confidence, fmt.Sprintf(
		"Web research surfaced %d findings for %s with an overall %s read.",
		len(findings), req.Symbol, direction))
	report.Research = &ResearchData{
		Findings:  findings,
		Sentiment: direction,
		Model:     g.client.Model(),
	}
	return report, nil
}

// parseFindings extracts bullet lines from a model response. Lines that
// carry a "- " or "* " prefix (or a numeric "1." prefix) count; prose
// paragraphs are ignored.
func parseFindings(response string) []string {
	var findings []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "- "):
			line = strings.TrimPrefix(line, "- ")
		case strings.HasPrefix(line, "* "):
			line = strings.TrimPrefix(line, "* ")
		case len(line) > 2 && line[0] >= '1' && line[0] <= '9' && (line[1] == '.' || line[1] == ')'):
			line = strings.TrimSpace(line[2:])
		default:
			continue
		}
		if line != "" {
			findings = append(findings, line)
		}
	}
	return findings
}
