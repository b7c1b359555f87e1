package simulator

import (
	"math"
	"os"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"lukechampine.com/frand"

	"github.com/domino14/glassbot/board"
	"github.com/domino14/glassbot/figure"
)

var (
	testPopCount  = NewPopCount()
	testHeuristic = NewHeuristic(DefaultWeights)
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func newSim(g board.Glass) *Simulator {
	return New(&g, testPopCount, testHeuristic)
}

// randomGlass fills the bottom rows of a glass with noise, leaving the top
// few rows empty.
func randomGlass(maxRows int) board.Glass {
	var g board.Glass
	rows := frand.Intn(maxRows + 1)
	for y := 0; y < rows; y++ {
		g.SetRow(y, uint32(frand.Intn(int(board.FullRow)+1)))
	}
	return g
}

func assertHeightsConsistent(is *is.I, s *Simulator) {
	h := s.Heights()
	for x := 0; x < board.Width; x++ {
		is.Equal(h[x], s.Glass().ColHeight(x))
	}
}

func allFigures() []figure.Figure {
	var fs []figure.Figure
	for i := 0; i < board.NumFigureTypes; i++ {
		ft := board.FigureType(i)
		for _, r := range figure.Rotations(ft) {
			fs = append(fs, figure.New(ft).Rotate(r))
		}
	}
	return fs
}

func TestValidMovesHorizontalBarOnEmptyGlass(t *testing.T) {
	is := is.New(t)
	s := newSim(board.Glass{})
	bar := figure.New(board.FigureI).Rotate(figure.RotationLeft)
	moves := s.ValidMoves(bar)
	is.Equal(len(moves), board.Width-bar.Left()-bar.Right())
	for i, m := range moves {
		is.Equal(m.Y, 0)
		is.Equal(m.X, bar.Left()+i)
	}
}

func TestValidMovesAreCollisionFree(t *testing.T) {
	is := is.New(t)
	for i := 0; i < 200; i++ {
		s := newSim(randomGlass(12))
		for _, f := range allFigures() {
			prevX := -1
			for _, m := range s.ValidMoves(f) {
				is.True(m.X > prevX) // ascending by column
				prevX = m.X
				is.True(m.X-f.Left() >= 0)
				is.True(m.X+f.Right() < board.Width)
				is.True(m.Y < board.Height-DefaultTopOutMargin)
				for _, c := range f.Cells(m) {
					is.True(c.Y >= 0 && c.Y < board.Height)
					is.Equal((s.Glass().Row(c.Y)>>c.X)&1, uint32(0))
				}
			}
		}
	}
}

func TestPlaceUnplaceInvolution(t *testing.T) {
	is := is.New(t)
	for i := 0; i < 200; i++ {
		g := randomGlass(12)
		s := newSim(g)
		for _, f := range allFigures() {
			for _, m := range s.ValidMoves(f) {
				before := *s.Glass()
				heights := s.Heights()
				s.Place(f, m)
				assertHeightsConsistent(is, s)
				s.Unplace(f, m)
				is.True(s.Glass().Equal(&before))
				is.Equal(s.Heights(), heights)
			}
		}
		is.True(s.Glass().Equal(&g))
	}
}

func TestHeightsAfterPlacementSequence(t *testing.T) {
	is := is.New(t)
	s := newSim(board.Glass{})
	type placed struct {
		f figure.Figure
		p board.Point
	}
	var stack []placed
	for i := 0; i < 30; i++ {
		fs := allFigures()
		f := fs[frand.Intn(len(fs))]
		moves := s.ValidMoves(f)
		if len(moves) == 0 {
			break
		}
		m := moves[frand.Intn(len(moves))]
		s.Place(f, m)
		stack = append(stack, placed{f, m})
		assertHeightsConsistent(is, s)
	}
	for i := len(stack) - 1; i >= 0; i-- {
		s.Unplace(stack[i].f, stack[i].p)
		assertHeightsConsistent(is, s)
	}
	is.Equal(s.Glass().Filled(), 0)
}

func TestSquareOnFlatGlass(t *testing.T) {
	is := is.New(t)
	s := newSim(board.Glass{})
	o := figure.New(board.FigureO)
	moves := s.ValidMoves(o)
	is.True(len(moves) > 0)
	s.Place(o, moves[0])
	h := s.Heights()
	is.Equal(h[0], 2)
	is.Equal(h[1], 2)
	for x := 2; x < board.Width; x++ {
		is.Equal(h[x], 0)
	}
}

func TestRightWallHasNoHoles(t *testing.T) {
	is := is.New(t)
	g, err := board.Parse(strings.Repeat(strings.Repeat(".", board.Width-1)+"#", board.Height))
	is.NoErr(err)
	is.Equal(g.Col(board.Width-1), uint32(1)<<board.Height-1)
	s := newSim(g)
	f := s.Features()
	is.Equal(f.Holes, 0.0)
	is.Equal(f.Lines, 0)
	is.Equal(f.AggregateHeight, board.Height)
	is.Equal(f.Bumpiness, board.Height)
}

func TestHolesWeightedByDepth(t *testing.T) {
	is := is.New(t)
	// Column 5 is stacked to the same height in both glasses, with a single
	// gap near the top in one and near the bottom in the other.
	var shallow, deep board.Glass
	for y := 0; y < 14; y++ {
		if y != 12 {
			shallow.SetRow(y, 1<<5)
		}
		if y != 1 {
			deep.SetRow(y, 1<<5)
		}
	}
	fShallow := newSim(shallow).Features()
	fDeep := newSim(deep).Features()
	is.True(fShallow.Holes > 0)
	is.True(fDeep.Holes > fShallow.Holes)
	is.Equal(fDeep.AggregateHeight, fShallow.AggregateHeight)

	// One hole under its own column, two cells beside it.
	want := testHeuristic.sameCol[1] + 2*testHeuristic.adjacent[1]
	is.Equal(fDeep.Holes, want)
}

func TestFullBottomRowsSkipped(t *testing.T) {
	is := is.New(t)
	var g board.Glass
	g.SetRow(0, board.FullRow)
	g.SetRow(1, board.FullRow)
	s := newSim(g)
	f := s.Features()
	is.Equal(f.Holes, 0.0)
	is.Equal(f.Lines, 2)
}

func TestEvaluatePrefersFlatterGlass(t *testing.T) {
	is := is.New(t)
	var flat, tower board.Glass
	flat.SetRow(0, 0xff)
	for y := 0; y < 8; y++ {
		tower.SetRow(y, 1)
	}
	is.True(newSim(flat).Evaluate() > newSim(tower).Evaluate())
}

func TestEvaluateIsPure(t *testing.T) {
	is := is.New(t)
	g := randomGlass(10)
	s := newSim(g)
	a := s.Evaluate()
	b := s.Evaluate()
	is.Equal(a, b)
	is.True(s.Glass().Equal(&g))
}

func TestContains(t *testing.T) {
	is := is.New(t)
	s := newSim(board.Glass{})
	l := figure.New(board.FigureL)
	p := board.NewPoint(8, 10)
	is.True(!s.Contains(l, p))
	s.Place(l, p)
	is.True(s.Contains(l, p))
	is.True(!s.Contains(l.Rotate(figure.RotationFlip), p))
}

func TestTopOut(t *testing.T) {
	is := is.New(t)
	var g board.Glass
	for y := 0; y < board.Height-DefaultTopOutMargin; y++ {
		g.SetRow(y, 1)
	}
	s := newSim(g)
	bar := figure.New(board.FigureI).Rotate(figure.RotationLeft)
	moves := s.ValidMoves(bar)
	// Column 0 is stacked to the threshold, every move spanning it is gone.
	for _, m := range moves {
		is.True(m.X-bar.Left() > 0)
	}
	is.Equal(len(moves), board.Width-bar.Left()-bar.Right()-1)
}

func TestZeroMarginStaysInsideGlass(t *testing.T) {
	is := is.New(t)
	var g board.Glass
	for y := 0; y < board.Height-3; y++ {
		g.SetRow(y, 1<<3)
	}
	for _, margin := range []int{0, -3} {
		s := newSim(g)
		s.SetTopOutMargin(margin)
		upright := figure.New(board.FigureI)
		for _, m := range s.ValidMoves(upright) {
			// Column 3 would put the top cell of the bar on row 18.
			is.True(m.X != 3)
		}
		for _, f := range allFigures() {
			for _, m := range s.ValidMoves(f) {
				before := s.Glass().Filled()
				s.Place(f, m)
				is.Equal(s.Glass().Filled(), before+4)
				assertHeightsConsistent(is, s)
				for _, h := range s.Heights() {
					is.True(h <= board.Height)
				}
				s.Unplace(f, m)
			}
		}
	}
}

func TestDefaultWeights(t *testing.T) {
	is := is.New(t)
	is.Equal(DefaultWeights, Weights{
		Lines:            0.760666,
		Height:           0.510066,
		Holes:            0.001,
		Bumpiness:        0.184483,
		HoleExponent:     3,
		NeighborExponent: 2,
	})
	h := NewHeuristic(DefaultWeights)
	f := Features{Holes: 1000, Lines: 1, AggregateHeight: 10, Bumpiness: 2}
	want := 0.760666 - 10*0.510066 - 1000*0.001 - 2*0.184483
	is.True(math.Abs(h.Score(f)-want) < 1e-9)
}

func TestCopyIsIndependent(t *testing.T) {
	is := is.New(t)
	s := newSim(board.Glass{})
	c := s.Copy()
	o := figure.New(board.FigureO)
	c.Place(o, c.ValidMoves(o)[0])
	is.Equal(s.Glass().Filled(), 0)
	is.Equal(c.Glass().Filled(), 4)
}

func BenchmarkEvaluate(b *testing.B) {
	s := newSim(randomGlass(10))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Evaluate()
	}
}
