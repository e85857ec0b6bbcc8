// Package analysis compares per-move measurements between two engine
// configurations.
package analysis

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/discochess/connect4/internal/randutil"
)

// significance is the p-value below which a difference counts.
const significance = 0.05

// MannWhitneyResult contains the result of a Mann-Whitney U test.
type MannWhitneyResult struct {
	U           float64 // U statistic.
	Z           float64 // Z score (normal approximation).
	PValue      float64 // Two-tailed p-value.
	Significant bool
}

// MannWhitneyU tests whether two samples come from the same distribution.
// Node counts are heavy-tailed, so a rank test suits them better than a
// t-test.
func MannWhitneyU(a, b []float64) MannWhitneyResult {
	n1, n2 := float64(len(a)), float64(len(b))
	if n1 == 0 || n2 == 0 {
		return MannWhitneyResult{PValue: 1}
	}

	type ranked struct {
		v     float64
		fromA bool
	}
	all := make([]ranked, 0, len(a)+len(b))
	for _, v := range a {
		all = append(all, ranked{v, true})
	}
	for _, v := range b {
		all = append(all, ranked{v, false})
	}
	slices.SortFunc(all, func(x, y ranked) int {
		switch {
		case x.v < y.v:
			return -1
		case x.v > y.v:
			return 1
		}
		return 0
	})

	// Tied values share their mean rank.
	var rankA float64
	for i := 0; i < len(all); {
		j := i
		for j < len(all) && all[j].v == all[i].v {
			j++
		}
		mean := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			if all[k].fromA {
				rankA += mean
			}
		}
		i = j
	}

	u1 := rankA - n1*(n1+1)/2
	u := math.Min(u1, n1*n2-u1)

	mu := n1 * n2 / 2
	sigma := math.Sqrt(n1 * n2 * (n1 + n2 + 1) / 12)
	var z float64
	if sigma > 0 {
		z = (u - mu) / sigma
	}
	p := 2 * distuv.UnitNormal.CDF(-math.Abs(z))

	return MannWhitneyResult{U: u, Z: z, PValue: p, Significant: p < significance}
}

// EffectSize is Cohen's d with its conventional label.
type EffectSize struct {
	CohensD        float64
	Interpretation string // "negligible", "small", "medium", "large".
}

// ComputeEffectSize returns Cohen's d of a over b using the pooled standard
// deviation.
func ComputeEffectSize(a, b []float64) EffectSize {
	if len(a) < 2 || len(b) < 2 {
		return EffectSize{Interpretation: "undefined"}
	}

	m1, s1 := stat.MeanStdDev(a, nil)
	m2, s2 := stat.MeanStdDev(b, nil)
	n1, n2 := float64(len(a)), float64(len(b))
	pooled := math.Sqrt(((n1-1)*s1*s1 + (n2-1)*s2*s2) / (n1 + n2 - 2))

	var d float64
	if pooled > 0 {
		d = (m1 - m2) / pooled
	}
	return EffectSize{CohensD: d, Interpretation: interpretCohensD(math.Abs(d))}
}

func interpretCohensD(d float64) string {
	switch {
	case d < 0.2:
		return "negligible"
	case d < 0.5:
		return "small"
	case d < 0.8:
		return "medium"
	default:
		return "large"
	}
}

// BootstrapResult is a percentile confidence interval for mean(a)-mean(b).
type BootstrapResult struct {
	MeanDiff   float64
	LowerBound float64
	UpperBound float64
	Confidence float64
}

// BootstrapConfidenceInterval resamples both samples with replacement
// iterations times. The same seed gives the same interval.
func BootstrapConfidenceInterval(a, b []float64, iterations int, confidence float64, seed int64) BootstrapResult {
	res := BootstrapResult{Confidence: confidence}
	if len(a) == 0 || len(b) == 0 || iterations <= 0 {
		return res
	}
	res.MeanDiff = stat.Mean(a, nil) - stat.Mean(b, nil)

	rng := randutil.New(seed)
	ra := make([]float64, len(a))
	rb := make([]float64, len(b))
	diffs := make([]float64, iterations)
	for i := range diffs {
		for j := range ra {
			ra[j] = a[rng.IntN(len(a))]
		}
		for j := range rb {
			rb[j] = b[rng.IntN(len(b))]
		}
		diffs[i] = stat.Mean(ra, nil) - stat.Mean(rb, nil)
	}
	slices.Sort(diffs)

	alpha := 1 - confidence
	res.LowerBound = stat.Quantile(alpha/2, stat.Empirical, diffs, nil)
	res.UpperBound = stat.Quantile(1-alpha/2, stat.Empirical, diffs, nil)
	return res
}

// DescriptiveStats contains basic descriptive statistics.
type DescriptiveStats struct {
	N      int
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
	P25    float64
	P75    float64
	P90    float64
}

// Describe computes descriptive statistics for a sample.
func Describe(sample []float64) DescriptiveStats {
	if len(sample) == 0 {
		return DescriptiveStats{}
	}

	sorted := slices.Clone(sample)
	slices.Sort(sorted)

	q := func(p float64) float64 { return stat.Quantile(p, stat.Empirical, sorted, nil) }
	d := DescriptiveStats{
		N:      len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Median: q(0.5),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		P25:    q(0.25),
		P75:    q(0.75),
		P90:    q(0.9),
	}
	if len(sorted) > 1 {
		d.StdDev = stat.StdDev(sorted, nil)
	}
	return d
}
