package shell

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/domino14/glassbot/board"
	"github.com/domino14/glassbot/bot"
	"github.com/domino14/glassbot/config"
	"github.com/domino14/glassbot/move"
	"github.com/domino14/glassbot/simulator"
)

// Settings that may be changed from the shell, by the kind of value they take.
var (
	intSettings = []string{
		config.ConfigLookaheadDepth, config.ConfigThreads, config.ConfigTopOutMargin,
		config.ConfigShortcutThreshold, config.ConfigHoleExponent, config.ConfigNeighborExponent,
	}
	floatSettings = []string{
		config.ConfigWeightLines, config.ConfigWeightHeight,
		config.ConfigWeightHoles, config.ConfigWeightBumpiness,
	}
)

func defaultAnchor() board.Point {
	return board.NewPoint(board.Width/2, board.Height-2)
}

func parseFigureList(s string) ([]board.FigureType, error) {
	var figs []board.FigureType
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		ft, err := board.ParseFigureType(strings.ToUpper(name))
		if err != nil {
			return nil, err
		}
		figs = append(figs, ft)
	}
	return figs, nil
}

// applyOptions overrides snapshot fields with -current, -next, -x and -y.
func applyOptions(snap *board.Snapshot, options map[string]string) error {
	if v, ok := options["current"]; ok {
		ft, err := board.ParseFigureType(strings.ToUpper(v))
		if err != nil {
			return err
		}
		snap.Current = ft
	}
	if v, ok := options["next"]; ok {
		figs, err := parseFigureList(v)
		if err != nil {
			return err
		}
		snap.Future = figs
	}
	for _, key := range []string{"x", "y"} {
		v, ok := options[key]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("bad %s coordinate: %w", key, err)
		}
		if key == "x" {
			snap.Anchor.X = n
		} else {
			snap.Anchor.Y = n
		}
	}
	return nil
}

// parseSnapshot reads either a server board message or a plain layout with
// one row of cells per line, top row first.
func parseSnapshot(text string, options map[string]string) (*board.Snapshot, error) {
	text = strings.TrimSpace(text)
	var snap *board.Snapshot
	if strings.HasPrefix(text, "board=") || strings.HasPrefix(text, "{") {
		var err error
		snap, err = bot.Deserialize(text)
		if err != nil {
			return nil, err
		}
	} else {
		g, err := board.Parse(strings.Join(strings.Fields(text), ""))
		if err != nil {
			return nil, err
		}
		snap = &board.Snapshot{Current: board.FigureI, Glass: g, Anchor: defaultAnchor()}
	}
	if err := applyOptions(snap, options); err != nil {
		return nil, err
	}
	return snap, nil
}

func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("load <file> [-current T] [-next O,L] [-x 8] [-y 16]")
	}
	data, err := os.ReadFile(cmd.args[0])
	if err != nil {
		return nil, err
	}
	snap, err := parseSnapshot(string(data), cmd.options)
	if err != nil {
		return nil, err
	}
	sc.snap = snap
	return sc.show(cmd)
}

func (sc *ShellController) newSimulator() *simulator.Simulator {
	return simulator.New(&sc.snap.Glass, simulator.NewPopCount(),
		simulator.NewHeuristic(sc.config.Weights()))
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	if sc.snap == nil {
		return nil, errNoSnapshot
	}
	if err := applyOptions(sc.snap, cmd.options); err != nil {
		return nil, err
	}
	sim := sc.newSimulator()
	f := sim.Features()
	var sb strings.Builder
	sb.WriteString(sc.snap.Glass.String())
	fmt.Fprintf(&sb, "current: %v next: %v anchor: %v\n",
		sc.snap.Current, sc.snap.Future, sc.snap.Anchor)
	fmt.Fprintf(&sb, "lines: %d semi: %d height: %d bumpiness: %d holes: %.3f\n",
		f.Lines, sc.snap.Glass.SemiCompleted(), f.AggregateHeight, f.Bumpiness, f.Holes)
	fmt.Fprintf(&sb, "evaluation: %.4f hash: %016x", sim.Evaluate(), sc.snap.Glass.Hash())
	return Msg(sb.String()), nil
}

func (sc *ShellController) rank(cmd *shellcmd) (*Response, error) {
	if sc.snap == nil {
		return nil, errNoSnapshot
	}
	n := 10
	if v, ok := cmd.options["n"]; ok {
		var err error
		if n, err = strconv.Atoi(v); err != nil {
			return nil, err
		}
	}
	cands, err := sc.solver.Rank(sc.snap)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-4s%-8s%-8s%-10s%s\n", "#", "Rot", "Offset", "Center", "Score")
	for i, c := range cands[:min(n, len(cands))] {
		fmt.Fprintf(&sb, "%-4d%-8v%-8d%-10v%.4f\n",
			i+1, c.Plan.Rotation, c.Plan.Offset, c.Center, c.Score)
	}
	fmt.Fprintf(&sb, "%d candidates, depth %d, %d nodes", len(cands),
		sc.solver.Depth(), sc.solver.Nodes())
	return Msg(sb.String()), nil
}

func (sc *ShellController) solve(cmd *shellcmd) (*Response, error) {
	if sc.snap == nil {
		return nil, errNoSnapshot
	}
	tstart := time.Now()
	plan, score, err := sc.solver.Solve(sc.snap)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(tstart)
	b := &move.Batch{}
	plan.AppendTo(b)
	out, err := b.Flush()
	if err != nil {
		return nil, err
	}
	return Msg(fmt.Sprintf("plan: %v score: %.4f depth: %d nodes: %d elapsed: %v\n%s",
		plan, score, sc.solver.Depth(), sc.solver.Nodes(), elapsed, out)), nil
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 2 {
		return nil, errors.New("set <key> <value>")
	}
	key, val := cmd.args[0], cmd.args[1]
	switch {
	case lo.Contains(intSettings, key):
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, err
		}
		sc.config.Set(key, n)
	case lo.Contains(floatSettings, key):
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, err
		}
		sc.config.Set(key, f)
	default:
		return nil, fmt.Errorf("no such setting %q", key)
	}
	sc.solver = sc.config.NewSolver()
	return Msg(fmt.Sprintf("%s set to %v", key, sc.config.Get(key))), nil
}

func (sc *ShellController) dumpConfig(cmd *shellcmd) (*Response, error) {
	out, err := yaml.Marshal(sc.config.SanitizedSettings())
	if err != nil {
		return nil, err
	}
	return Msg(strings.TrimRight(string(out), "\n")), nil
}
