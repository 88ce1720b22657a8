package cli

import (
	"stockintel/internal/analysis/scoring"
	"stockintel/internal/config"
)

// newScorer builds a signal scorer from configured thresholds, keeping
// defaults for anything the config leaves at zero.
func newScorer(cfg *config.Config) *scoring.Scorer {
	t := scoring.DefaultThresholds()
	if cfg.Analysis.RSIOversold > 0 {
		t.RSIOversold = cfg.Analysis.RSIOversold
	}
	if cfg.Analysis.RSIOverbought > 0 {
		t.RSIOverbought = cfg.Analysis.RSIOverbought
	}
	if cfg.Analysis.BollingerProximity > 0 {
		t.BollingerProximity = cfg.Analysis.BollingerProximity
	}
	if cfg.Analysis.HighVolumeRatio > 0 {
		t.HighVolumeRatio = cfg.Analysis.HighVolumeRatio
	}
	return scoring.NewScorerWithThresholds(t)
}
