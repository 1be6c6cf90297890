package usecase

import (
	"math"
	"sort"
)

// ThresholdOptions tunes the adaptive similarity cutoff.
type ThresholdOptions struct {
	Enabled           bool
	MinThreshold      float64
	MaxThreshold      float64
	TargetResultCount int
}

// ThresholdCalculator derives a similarity cutoff from the score
// distribution of one query. Pure and deterministic for identical inputs.
type ThresholdCalculator struct {
	opts ThresholdOptions
}

func NewThresholdCalculator(opts ThresholdOptions) *ThresholdCalculator {
	if opts.TargetResultCount <= 0 {
		opts.TargetResultCount = 10
	}
	if opts.MaxThreshold <= 0 {
		opts.MaxThreshold = 1
	}
	return &ThresholdCalculator{opts: opts}
}

// Calculate adjusts initialThreshold in three passes: score distribution
// (clustering, largest gap, near-perfect top hit), query length, and
// target result count, then clamps to [MinThreshold, MaxThreshold].
func (c *ThresholdCalculator) Calculate(scores []float64, queryWordCount int, initialThreshold float64) float64 {
	if !c.opts.Enabled {
		return initialThreshold
	}
	if len(scores) == 0 {
		return c.opts.MinThreshold
	}

	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	threshold := c.adjustForDistribution(sorted, initialThreshold)
	threshold = adjustForQueryLength(threshold, queryWordCount)
	threshold = c.adjustForResultCount(sorted, threshold)

	return clamp(threshold, c.opts.MinThreshold, c.opts.MaxThreshold)
}

func (c *ThresholdCalculator) adjustForDistribution(sorted []float64, threshold float64) float64 {
	mean := meanOf(sorted)
	sigma := stddevOf(sorted, mean)

	// Tightly clustered high-confidence scores: be selective.
	if sigma < 0.1 && mean > 0.5 {
		threshold = math.Max(threshold, mean-sigma)
	}

	// A large gap between adjacent scores is a natural cutoff.
	largestGap := 0.0
	gapIndex := -1
	for i := 0; i+1 < len(sorted); i++ {
		gap := sorted[i] - sorted[i+1]
		if gap > largestGap {
			largestGap = gap
			gapIndex = i
		}
	}
	if largestGap > 0.15 && gapIndex >= 0 {
		threshold = math.Max(threshold, sorted[gapIndex])
	}

	// A near-perfect match exists: everything far below it is noise.
	if sorted[0] > 0.8 {
		threshold = math.Max(threshold, sorted[0]-0.2)
	}
	return threshold
}

func adjustForQueryLength(threshold float64, words int) float64 {
	switch {
	case words <= 2:
		return threshold * 0.85
	case words <= 5:
		return threshold
	default:
		return threshold + math.Min(0.1, float64(words-5)*0.02)
	}
}

func (c *ThresholdCalculator) adjustForResultCount(sorted []float64, threshold float64) float64 {
	target := c.opts.TargetResultCount

	passing := 0
	for _, s := range sorted {
		if s >= threshold {
			passing++
		}
	}

	if passing < target {
		if len(sorted) >= target {
			return sorted[target-1]
		}
		return c.opts.MinThreshold
	}
	if passing > 3*target && len(sorted) >= target {
		return sorted[target-1]
	}
	return threshold
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddevOf(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func clamp(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
