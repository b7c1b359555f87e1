package shell

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
	"lukechampine.com/frand"

	"github.com/domino14/glassbot/board"
	"github.com/domino14/glassbot/stats"
)

const maxBenchHeight = 8

func randomFigure() board.FigureType {
	return board.FigureType(frand.Intn(board.NumFigureTypes))
}

// randomSnapshot builds a glass with uneven columns up to maxBenchHeight and
// about one cell in eight left empty below the surface.
func randomSnapshot(queue int) *board.Snapshot {
	var g board.Glass
	for x := 0; x < board.Width; x++ {
		h := frand.Intn(maxBenchHeight)
		for y := 0; y < h; y++ {
			if frand.Intn(8) == 0 {
				continue
			}
			g.SetRow(y, g.Row(y)|1<<x)
		}
	}
	snap := &board.Snapshot{Current: randomFigure(), Glass: g, Anchor: defaultAnchor()}
	for i := 0; i < queue; i++ {
		snap.Future = append(snap.Future, randomFigure())
	}
	return snap
}

func (sc *ShellController) bench(cmd *shellcmd) (*Response, error) {
	n := 100
	if len(cmd.args) > 0 {
		var err error
		if n, err = strconv.Atoi(cmd.args[0]); err != nil {
			return nil, err
		}
	}
	if n <= 0 {
		return nil, fmt.Errorf("bench needs a positive count, got %d", n)
	}
	queue := 2
	if v, ok := cmd.options["queue"]; ok {
		var err error
		if queue, err = strconv.Atoi(v); err != nil {
			return nil, err
		}
	}
	bins := 0
	if v, ok := cmd.options["hist"]; ok {
		var err error
		if bins, err = strconv.Atoi(v); err != nil {
			return nil, err
		}
	}

	var timing stats.Running
	var nodes stats.Running
	samples := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		snap := randomSnapshot(queue)
		tstart := time.Now()
		if _, _, err := sc.solver.Solve(snap); err != nil {
			return nil, err
		}
		elapsed := time.Since(tstart)
		timing.PushDuration(elapsed)
		nodes.Push(float64(sc.solver.Nodes()))
		samples = append(samples, timing.Last())
	}
	sort.Float64s(samples)
	log.Debug().Int("boards", n).Int("threads", sc.solver.Threads()).Msg("bench-done")

	var sb strings.Builder
	fmt.Fprintf(&sb, "boards: %d threads: %d queue: %d\n", n, sc.solver.Threads(), queue)
	fmt.Fprintf(&sb, "ms per decision: %.3f ± %.3f (95%%)\n", timing.Mean(), timing.Interval(95))
	fmt.Fprintf(&sb, "p50: %.3f p90: %.3f p99: %.3f max: %.3f\n",
		stat.Quantile(0.5, stat.Empirical, samples, nil),
		stat.Quantile(0.9, stat.Empirical, samples, nil),
		stat.Quantile(0.99, stat.Empirical, samples, nil),
		timing.Max())
	fmt.Fprintf(&sb, "nodes per decision: %.0f", nodes.Mean())
	if bins > 0 {
		sb.WriteString("\n")
		if err := histogram.Fprint(&sb, histogram.Hist(bins, samples), histogram.Linear(40)); err != nil {
			return nil, err
		}
	}
	return Msg(strings.TrimRight(sb.String(), "\n")), nil
}
