package intel

import (
	"strings"

	"stockintel/internal/analysis/scoring"
)

var positiveWords = []string{
	"surge", "rally", "gain", "profit", "growth", "bullish", "upgrade",
	"beat", "exceed", "strong", "positive", "outperform", "buy",
	"record", "high", "boost", "improve", "success", "optimistic",
}

var negativeWords = []string{
	"fall", "drop", "decline", "loss", "bearish", "downgrade",
	"miss", "weak", "negative", "underperform", "sell", "concern",
	"low", "cut", "reduce", "warning", "risk", "pessimistic",
}

// estimateSentiment scores text on word counts, returning -1 to 1.
func estimateSentiment(content string) float64 {
	content = strings.ToLower(content)

	var positiveCount, negativeCount int
	for _, word := range positiveWords {
		positiveCount += strings.Count(content, word)
	}
	for _, word := range negativeWords {
		negativeCount += strings.Count(content, word)
	}

	total := positiveCount + negativeCount
	if total == 0 {
		return 0
	}

	return float64(positiveCount-negativeCount) / float64(total)
}

// bandSentiment maps a -1..1 score to a direction using a symmetric
// band: above +band is bullish, below -band is bearish.
func bandSentiment(score, band float64) scoring.Direction {
	if score > band {
		return scoring.Bullish
	}
	if score < -band {
		return scoring.Bearish
	}
	return scoring.Neutral
}
