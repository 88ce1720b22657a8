package indicators

import "stockintel/internal/models"

// Relative-volume breakpoints. Overridable through
// NewVolumeAnalyzerWithRatios.
const (
	DefaultHighVolumeRatio = 1.5
	DefaultLowVolumeRatio  = 0.7
	volumeLookback         = 20
)

// VolumeAnalyzer classifies the most recent volume against its trailing
// average.
type VolumeAnalyzer struct {
	highRatio float64
	lowRatio  float64
}

// NewVolumeAnalyzer creates a volume analyzer with the default breakpoints.
func NewVolumeAnalyzer() *VolumeAnalyzer {
	return &VolumeAnalyzer{
		highRatio: DefaultHighVolumeRatio,
		lowRatio:  DefaultLowVolumeRatio,
	}
}

// NewVolumeAnalyzerWithRatios creates a volume analyzer with custom breakpoints.
func NewVolumeAnalyzerWithRatios(high, low float64) *VolumeAnalyzer {
	return &VolumeAnalyzer{highRatio: high, lowRatio: low}
}

// Analyze returns the ratio of the latest volume to the trailing average
// of the preceding window, classified high/normal/low.
func (v *VolumeAnalyzer) Analyze(volumes []int64) (models.VolumeAnalysis, error) {
	if len(volumes) < 2 {
		return models.VolumeAnalysis{}, ErrInsufficientData
	}

	lookback := volumeLookback
	if len(volumes)-1 < lookback {
		lookback = len(volumes) - 1
	}

	var trailing float64
	for i := len(volumes) - 1 - lookback; i < len(volumes)-1; i++ {
		trailing += float64(volumes[i])
	}
	trailing /= float64(lookback)

	if trailing == 0 {
		return models.VolumeAnalysis{Ratio: 0, Class: models.VolumeLow}, nil
	}

	ratio := float64(volumes[len(volumes)-1]) / trailing

	class := models.VolumeNormal
	if ratio >= v.highRatio {
		class = models.VolumeHigh
	} else if ratio <= v.lowRatio {
		class = models.VolumeLow
	}

	return models.VolumeAnalysis{Ratio: ratio, Class: class}, nil
}
