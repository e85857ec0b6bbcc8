package reporting

import (
	"strings"
	"testing"
	"time"

	"github.com/discochess/connect4/benchmark/analysis"
	"github.com/discochess/connect4/benchmark/arena"
)

func TestMarkdownReport(t *testing.T) {
	res := &arena.Result{
		A:     arena.SideResult{Name: "deep", Nodes: []float64{10, 20, 30}, Durations: []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond}},
		B:     arena.SideResult{Name: "shallow", Nodes: []float64{1, 2, 3}, Durations: []time.Duration{time.Microsecond, time.Microsecond, time.Microsecond}},
		Games: []arena.GameResult{{Moves: "0101010", AFirst: true, Outcome: arena.Win}, {Moves: "3333332", Outcome: arena.Draw}},
		Wins:  1,
		Draws: 1,
	}

	var sb strings.Builder
	r := NewMarkdownReport(&sb)
	r.WriteHeader("Arena")
	r.WriteSummaryTable(res)
	r.WriteComparison(analysis.Compare("nodes/move", "deep", "shallow", res.A.Nodes, res.B.Nodes, 100, 0.95))
	r.WriteDistributionChart("deep nodes", res.A.Nodes)
	r.WriteGames(res)
	r.WriteFooter()

	out := sb.String()
	for _, want := range []string{
		"# Arena",
		"| deep | 1 | 1 | 0 | 75.0% | 3 | 20 |",
		"| shallow | 0 | 1 | 1 | 25.0% | 3 | 2 |",
		"Elo difference (deep over shallow): +191",
		"## nodes/move: deep vs shallow",
		"| 1 | deep | 1-0 | `0101010` |",
		"| 2 | shallow | 1/2 | `3333332` |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestMakeHistogram(t *testing.T) {
	lo, hi, hist := makeHistogram([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 10)
	if lo != 0 || hi != 10 {
		t.Errorf("makeHistogram() range = [%v, %v], want [0, 10]", lo, hi)
	}
	var n int
	for _, c := range hist {
		n += c
	}
	if n != 11 || hist[9] != 2 {
		t.Errorf("makeHistogram() = %v, want 11 values with 2 in the last bucket", hist)
	}

	_, _, hist = makeHistogram([]float64{5, 5}, 4)
	if hist[0] != 2 {
		t.Errorf("makeHistogram(constant) = %v, want all in first bucket", hist)
	}
}
