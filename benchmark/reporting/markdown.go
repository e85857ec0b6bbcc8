// Package reporting renders arena results.
package reporting

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/discochess/connect4/benchmark/analysis"
	"github.com/discochess/connect4/benchmark/arena"
)

// MarkdownReport generates benchmark reports in Markdown format.
type MarkdownReport struct {
	w io.Writer
}

// NewMarkdownReport creates a new Markdown report writer.
func NewMarkdownReport(w io.Writer) *MarkdownReport {
	return &MarkdownReport{w: w}
}

// WriteHeader writes the report header.
func (r *MarkdownReport) WriteHeader(title string) {
	fmt.Fprintf(r.w, "# %s\n\n", title)
	fmt.Fprintf(r.w, "Generated: %s\n\n", time.Now().Format(time.RFC3339))
}

// WriteMethodology writes the methodology section.
func (r *MarkdownReport) WriteMethodology(openings int, a, b arena.Contestant) {
	fmt.Fprintln(r.w, "## Methodology")
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "- **Openings:** %d, each played with both colours\n", openings)
	fmt.Fprintf(r.w, "- **%s:** depth %d\n", a.Name, a.Difficulty)
	fmt.Fprintf(r.w, "- **%s:** depth %d\n", b.Name, b.Difficulty)
	fmt.Fprintln(r.w, "- **Metrics:** match score, nodes and time per move (lower is better)")
	fmt.Fprintln(r.w, "- **Statistical tests:** Mann-Whitney U (non-parametric), Cohen's d effect size")
	fmt.Fprintln(r.w)
}

// WriteSummaryTable writes the match result.
func (r *MarkdownReport) WriteSummaryTable(res *arena.Result) {
	fmt.Fprintln(r.w, "## Summary")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "| Side | Wins | Draws | Losses | Score | Moves | Avg Nodes | Avg Time |")
	fmt.Fprintln(r.w, "|------|------|-------|--------|-------|-------|-----------|----------|")
	r.writeSide(res.A, res.Wins, res.Draws, res.Losses)
	r.writeSide(res.B, res.Losses, res.Draws, res.Wins)
	fmt.Fprintln(r.w)

	elo := res.EloDiff()
	switch {
	case math.IsInf(elo, 0):
		fmt.Fprintf(r.w, "Elo difference: not measurable, one side won every game.\n\n")
	default:
		fmt.Fprintf(r.w, "Elo difference (%s over %s): %+.0f\n\n", res.A.Name, res.B.Name, elo)
	}
}

func (r *MarkdownReport) writeSide(s arena.SideResult, w, d, l int) {
	games := w + d + l
	score := 0.0
	if games > 0 {
		score = (float64(w) + 0.5*float64(d)) / float64(games)
	}
	nodes := analysis.Describe(s.Nodes)
	secs := analysis.Describe(s.Seconds())
	fmt.Fprintf(r.w, "| %s | %d | %d | %d | %.1f%% | %d | %.0f | %s |\n",
		s.Name, w, d, l, score*100, nodes.N, nodes.Mean,
		time.Duration(secs.Mean*float64(time.Second)).Round(time.Microsecond))
}

// WriteComparison writes a detailed comparison section.
func (r *MarkdownReport) WriteComparison(c *analysis.Comparison) {
	fmt.Fprintf(r.w, "## %s: %s vs %s\n\n", c.Metric, c.NameA, c.NameB)

	fmt.Fprintln(r.w, "### Descriptive Statistics")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "| Metric | "+c.NameA+" | "+c.NameB+" |")
	fmt.Fprintln(r.w, "|--------|"+strings.Repeat("-", len(c.NameA)+2)+"|"+strings.Repeat("-", len(c.NameB)+2)+"|")
	fmt.Fprintf(r.w, "| Mean | %.2f | %.2f |\n", c.StatsA.Mean, c.StatsB.Mean)
	fmt.Fprintf(r.w, "| Median | %.2f | %.2f |\n", c.StatsA.Median, c.StatsB.Median)
	fmt.Fprintf(r.w, "| Std Dev | %.2f | %.2f |\n", c.StatsA.StdDev, c.StatsB.StdDev)
	fmt.Fprintf(r.w, "| P90 | %.2f | %.2f |\n", c.StatsA.P90, c.StatsB.P90)
	fmt.Fprintf(r.w, "| Max | %.2f | %.2f |\n", c.StatsA.Max, c.StatsB.Max)
	fmt.Fprintln(r.w)

	fmt.Fprintln(r.w, "### Statistical Analysis")
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "- **Mann-Whitney U:** %.2f (z=%.2f, p=%.4f)\n",
		c.MannWhitney.U, c.MannWhitney.Z, c.MannWhitney.PValue)
	fmt.Fprintf(r.w, "- **Effect size (Cohen's d):** %.2f (%s)\n",
		c.EffectSize.CohensD, c.EffectSize.Interpretation)
	fmt.Fprintf(r.w, "- **%.0f%% CI for mean difference:** [%.2f, %.2f]\n",
		c.BootstrapCI.Confidence*100, c.BootstrapCI.LowerBound, c.BootstrapCI.UpperBound)
	fmt.Fprintln(r.w)

	fmt.Fprintln(r.w, "### Conclusion")
	fmt.Fprintln(r.w)
	if c.Confident {
		fmt.Fprintf(r.w, "**%s** needs significantly less than %s ", c.Better, c.Other(c.Better))
		fmt.Fprintf(r.w, "(p < 0.05, effect size: %s).\n", c.EffectSize.Interpretation)
	} else {
		fmt.Fprintln(r.w, "No statistically significant difference detected (p >= 0.05).")
	}
	fmt.Fprintln(r.w)
}

// WriteDistributionChart writes an ASCII histogram of data.
func (r *MarkdownReport) WriteDistributionChart(name string, data []float64) {
	fmt.Fprintf(r.w, "### %s Distribution\n\n", name)
	fmt.Fprintln(r.w, "```")

	const width = 40
	lo, hi, hist := makeHistogram(data, 10)
	maxCount := 0
	for _, n := range hist {
		maxCount = max(maxCount, n)
	}
	step := (hi - lo) / float64(len(hist))
	for i, n := range hist {
		bar := 0
		if maxCount > 0 {
			bar = n * width / maxCount
		}
		fmt.Fprintf(r.w, "%9.0f │ %s %d\n", lo+float64(i)*step, strings.Repeat("█", bar), n)
	}

	fmt.Fprintln(r.w, "```")
	fmt.Fprintln(r.w)
}

func makeHistogram(data []float64, buckets int) (lo, hi float64, hist []int) {
	hist = make([]int, buckets)
	if len(data) == 0 {
		return 0, 0, hist
	}

	lo, hi = data[0], data[0]
	for _, v := range data {
		lo, hi = min(lo, v), max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}

	size := (hi - lo) / float64(buckets)
	for _, v := range data {
		b := int((v - lo) / size)
		if b >= buckets {
			b = buckets - 1
		}
		hist[b]++
	}
	return lo, hi, hist
}

// WriteGames lists the games played.
func (r *MarkdownReport) WriteGames(res *arena.Result) {
	fmt.Fprintln(r.w, "## Games")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "| # | X | Result | Moves |")
	fmt.Fprintln(r.w, "|---|---|--------|-------|")
	for i, g := range res.Games {
		x := res.B.Name
		if g.AFirst {
			x = res.A.Name
		}
		fmt.Fprintf(r.w, "| %d | %s | %s | `%s` |\n", i+1, x, g.Outcome, g.Moves)
	}
	fmt.Fprintln(r.w)
}

// WriteFooter writes the report footer.
func (r *MarkdownReport) WriteFooter() {
	fmt.Fprintln(r.w, "---")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "*Report generated by connect4-bench*")
}
