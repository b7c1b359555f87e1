package solver

import (
	"errors"
	"math"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"lukechampine.com/frand"

	"github.com/domino14/glassbot/board"
	"github.com/domino14/glassbot/figure"
	"github.com/domino14/glassbot/move"
	"github.com/domino14/glassbot/simulator"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func newSolver(threads, lookahead int) *Solver {
	s := &Solver{}
	s.Init(simulator.DefaultWeights)
	s.SetThreads(threads)
	s.SetLookahead(lookahead)
	return s
}

func randomFigure() board.FigureType {
	return board.FigureType(frand.Intn(board.NumFigureTypes))
}

func randomSnapshot() *board.Snapshot {
	var g board.Glass
	rows := frand.Intn(8)
	for y := 0; y < rows; y++ {
		g.SetRow(y, uint32(frand.Intn(int(board.FullRow))))
	}
	return &board.Snapshot{
		Current: randomFigure(),
		Future:  []board.FigureType{randomFigure(), randomFigure()},
		Glass:   g,
		Anchor:  board.NewPoint(board.Width/2, board.Height-2),
	}
}

func TestCompletesLine(t *testing.T) {
	is := is.New(t)
	var g board.Glass
	// Bottom row filled except for the four leftmost columns.
	g.SetRow(0, board.FullRow&^0xf)
	snap := &board.Snapshot{Current: board.FigureI, Glass: g, Anchor: board.NewPoint(8, 15)}
	for _, threads := range []int{1, 4} {
		s := newSolver(threads, 1)
		plan, _, err := s.Solve(snap)
		is.NoErr(err)
		is.Equal(plan.Rotation, figure.RotationLeft)
		is.Equal(plan.Offset, 1-8)
	}
}

func TestSequentialMatchesParallel(t *testing.T) {
	is := is.New(t)
	seq := newSolver(1, 2)
	par := newSolver(4, 2)
	for i := 0; i < 25; i++ {
		snap := randomSnapshot()
		p1, s1, err := seq.Solve(snap)
		is.NoErr(err)
		p2, s2, err := par.Solve(snap)
		is.NoErr(err)
		is.Equal(p1, p2)
		is.Equal(s1, s2)
		is.Equal(seq.Nodes(), par.Nodes())
	}
}

func TestSolveLeavesSnapshotAlone(t *testing.T) {
	is := is.New(t)
	snap := randomSnapshot()
	before := snap.Glass
	s := newSolver(2, 3)
	_, _, err := s.Solve(snap)
	is.NoErr(err)
	is.True(snap.Glass.Equal(&before))
}

func TestSearchRestoresSimulator(t *testing.T) {
	is := is.New(t)
	snap := randomSnapshot()
	s := newSolver(1, 3)
	is.NoErr(s.prepare(snap))
	before := *s.Simulator().Glass()
	heights := s.Simulator().Heights()
	_, err := s.candidates()
	is.NoErr(err)
	is.True(s.Simulator().Glass().Equal(&before))
	is.Equal(s.Simulator().Heights(), heights)
}

func TestNaNWeightsAreAnError(t *testing.T) {
	is := is.New(t)
	w := simulator.DefaultWeights
	w.Holes = math.NaN()
	snap := &board.Snapshot{
		Current: board.FigureT,
		Future:  []board.FigureType{board.FigureO},
		Anchor:  board.NewPoint(8, 15),
	}
	for _, threads := range []int{1, 4} {
		for _, lookahead := range []int{1, 2} {
			s := &Solver{}
			s.Init(w)
			s.SetThreads(threads)
			s.SetLookahead(lookahead)
			_, _, err := s.Solve(snap)
			is.True(errors.Is(err, ErrInvalidScore))
			is.True(s.Simulator().Glass().Equal(&board.Glass{}))

			_, err = s.Rank(snap)
			is.True(errors.Is(err, ErrInvalidScore))
		}
	}
}

func TestDepthFollowsQueue(t *testing.T) {
	is := is.New(t)
	s := newSolver(1, 4)
	snap := &board.Snapshot{Current: board.FigureT, Anchor: board.NewPoint(8, 15)}
	_, _, err := s.Solve(snap)
	is.NoErr(err)
	is.Equal(s.Depth(), 1)

	snap.Future = []board.FigureType{board.FigureO, board.FigureS, board.FigureZ, board.FigureL, board.FigureJ}
	_, _, err = s.Solve(snap)
	is.NoErr(err)
	is.Equal(s.Depth(), 4)
}

func TestNodesAtDepthOne(t *testing.T) {
	is := is.New(t)
	s := newSolver(1, 1)
	snap := &board.Snapshot{Current: board.FigureO, Anchor: board.NewPoint(8, 15)}
	_, _, err := s.Solve(snap)
	is.NoErr(err)
	o := figure.New(board.FigureO)
	is.Equal(s.Nodes(), uint64(board.Width-o.Left()-o.Right()))
}

func TestLiftsFallingFigure(t *testing.T) {
	is := is.New(t)
	var g board.Glass
	anchor := board.NewPoint(8, 15)
	// Put the falling T straight into the snapshot glass.
	t0 := figure.New(board.FigureT)
	for _, c := range t0.Cells(anchor) {
		g.SetRow(c.Y, g.Row(c.Y)|1<<c.X)
	}
	snap := &board.Snapshot{Current: board.FigureT, Glass: g, Anchor: anchor}
	s := newSolver(1, 1)
	is.NoErr(s.prepare(snap))
	is.Equal(s.Simulator().Glass().Filled(), 0)
	is.Equal(s.Simulator().Heights(), [board.Width]int{})
}

func TestShortcut(t *testing.T) {
	is := is.New(t)
	var g board.Glass
	for y := 0; y < 3; y++ {
		g.SetRow(y, board.FullRow)
	}
	g.SetRow(3, board.FullRow&^(1<<(board.Width-1)))
	g.SetRow(4, board.FullRow&^(1<<(board.Width-1)))
	snap := &board.Snapshot{Current: board.FigureI, Glass: g, Anchor: board.NewPoint(8, 15)}
	s := newSolver(1, 2)
	plan, score, err := s.Solve(snap)
	is.NoErr(err)
	is.Equal(plan, move.SlideRight)
	is.True(math.IsInf(score, 1))

	snap.Current = board.FigureO
	plan, _, err = s.Solve(snap)
	is.NoErr(err)
	is.True(plan != move.SlideRight)

	s.SetShortcutThreshold(5)
	snap.Current = board.FigureI
	plan, _, err = s.Solve(snap)
	is.NoErr(err)
	is.True(plan != move.SlideRight)
}

func TestNoValidMoves(t *testing.T) {
	is := is.New(t)
	var g board.Glass
	for y := 0; y < board.Height-1; y++ {
		g.SetRow(y, board.FullRow&^1)
	}
	snap := &board.Snapshot{Current: board.FigureO, Glass: g, Anchor: board.NewPoint(8, 16)}
	s := newSolver(1, 2)
	plan, score, err := s.Solve(snap)
	is.NoErr(err)
	is.Equal(plan, move.Plan{})
	is.True(math.IsInf(score, -1))
}

func TestUnknownFigure(t *testing.T) {
	is := is.New(t)
	s := newSolver(1, 2)
	_, _, err := s.Solve(&board.Snapshot{Current: board.FigureType(9)})
	is.Equal(err, ErrUnknownFigure)
}

func TestDecide(t *testing.T) {
	is := is.New(t)
	s := newSolver(2, 2)
	b := &move.Batch{}
	s.Start(b)
	assert.Equal(t, []move.Command{move.CommandClear}, b.Commands())
	b.Reset()

	snap := randomSnapshot()
	is.NoErr(s.Decide(b, snap))
	cmds := b.Commands()
	is.True(len(cmds) >= board.Height)

	// rotation?, shifts in one direction, then all the drops
	i := 0
	if cmds[0] == move.CommandRotateLeft || cmds[0] == move.CommandRotateRight || cmds[0] == move.CommandFlip {
		i++
	}
	shift := move.CommandDown
	for ; i < len(cmds) && cmds[i] != move.CommandDown; i++ {
		if shift == move.CommandDown {
			shift = cmds[i]
		}
		is.Equal(cmds[i], shift)
		is.True(shift == move.CommandLeft || shift == move.CommandRight)
	}
	is.Equal(len(cmds)-i, board.Height)
	for ; i < len(cmds); i++ {
		is.Equal(cmds[i], move.CommandDown)
	}
}

func TestRankOrder(t *testing.T) {
	is := is.New(t)
	s := newSolver(3, 2)
	snap := randomSnapshot()
	snap.Current = board.FigureT
	cands, err := s.Rank(snap)
	is.NoErr(err)
	is.True(len(cands) > 0)
	for i := 1; i < len(cands); i++ {
		is.True(cands[i-1].Score >= cands[i].Score)
	}
	plan, score, err := s.Solve(snap)
	is.NoErr(err)
	is.Equal(cands[0].Plan, plan)
	is.Equal(cands[0].Score, score)
}

func BenchmarkSolveDepth3(b *testing.B) {
	s := newSolver(1, 3)
	snap := &board.Snapshot{
		Current: board.FigureT,
		Future:  []board.FigureType{board.FigureL, board.FigureS},
		Anchor:  board.NewPoint(8, 15),
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Solve(snap)
	}
}
