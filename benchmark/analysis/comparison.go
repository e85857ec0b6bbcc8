package analysis

import (
	"fmt"
)

// Comparison is a full statistical comparison of one measurement between
// two configurations. Lower values are better.
type Comparison struct {
	Metric      string
	NameA       string
	NameB       string
	StatsA      DescriptiveStats
	StatsB      DescriptiveStats
	MannWhitney MannWhitneyResult
	EffectSize  EffectSize
	BootstrapCI BootstrapResult

	// Better names the configuration with the lower mean, or "tie".
	Better string
	// Confident is true when the difference is significant.
	Confident bool
}

// Compare compares samples a and b of metric.
func Compare(metric, nameA, nameB string, a, b []float64, iterations int, confidence float64) *Comparison {
	c := &Comparison{
		Metric:      metric,
		NameA:       nameA,
		NameB:       nameB,
		StatsA:      Describe(a),
		StatsB:      Describe(b),
		MannWhitney: MannWhitneyU(a, b),
		EffectSize:  ComputeEffectSize(a, b),
		BootstrapCI: BootstrapConfidenceInterval(a, b, iterations, confidence, 1),
		Better:      "tie",
	}

	switch {
	case c.StatsA.Mean < c.StatsB.Mean:
		c.Better = nameA
	case c.StatsB.Mean < c.StatsA.Mean:
		c.Better = nameB
	}
	c.Confident = c.Better != "tie" && c.MannWhitney.Significant
	return c
}

// Other returns the configuration that is not name.
func (c *Comparison) Other(name string) string {
	if name == c.NameA {
		return c.NameB
	}
	return c.NameA
}

// Summary returns a human-readable summary of the comparison.
func (c *Comparison) Summary() string {
	sig := "not statistically significant"
	if c.MannWhitney.Significant {
		sig = fmt.Sprintf("statistically significant (p=%.4f)", c.MannWhitney.PValue)
	}

	return fmt.Sprintf(
		"%s, %s vs %s:\n"+
			"  %s: mean=%.2f, median=%.2f, std=%.2f\n"+
			"  %s: mean=%.2f, median=%.2f, std=%.2f\n"+
			"  Difference: %.2f (%.1f%%), %.0f%% CI [%.2f, %.2f]\n"+
			"  Effect size: %.2f (%s)\n"+
			"  Result: %s, %s",
		c.Metric, c.NameA, c.NameB,
		c.NameA, c.StatsA.Mean, c.StatsA.Median, c.StatsA.StdDev,
		c.NameB, c.StatsB.Mean, c.StatsB.Median, c.StatsB.StdDev,
		c.StatsA.Mean-c.StatsB.Mean, pctDiff(c.StatsA.Mean, c.StatsB.Mean),
		c.BootstrapCI.Confidence*100, c.BootstrapCI.LowerBound, c.BootstrapCI.UpperBound,
		c.EffectSize.CohensD, c.EffectSize.Interpretation,
		c.Better, sig,
	)
}

func pctDiff(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return (a - b) / b * 100
}
