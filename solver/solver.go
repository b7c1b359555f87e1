// Package solver picks the placement for the falling figure. It tries every
// rotation and column for the current figure and the queued ones, and keeps
// the placement that leads to the best evaluated glass.
package solver

import (
	"errors"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/glassbot/board"
	"github.com/domino14/glassbot/figure"
	"github.com/domino14/glassbot/move"
	"github.com/domino14/glassbot/simulator"
)

const (
	DefaultLookahead         = 3
	DefaultShortcutThreshold = 4
)

var (
	ErrUnknownFigure = errors.New("snapshot has an unknown figure type")
	// ErrInvalidScore is returned when the evaluation produces NaN, which
	// happens with NaN weights.
	ErrInvalidScore = errors.New("evaluation is not a number")
)

type Solver struct {
	popcount  *simulator.PopCount
	heuristic *simulator.Heuristic

	lookahead         int
	threads           int
	topOutMargin      int
	shortcutThreshold int

	// per decision
	sim     *simulator.Simulator
	figures []board.FigureType
	anchor  board.Point

	nodes atomic.Uint64
}

// Init builds the shared tables; it must be called before anything else.
func (s *Solver) Init(w simulator.Weights) {
	s.popcount = simulator.NewPopCount()
	s.heuristic = simulator.NewHeuristic(w)
	s.lookahead = DefaultLookahead
	s.threads = int(math.Max(1, float64(runtime.NumCPU()-1)))
	s.topOutMargin = simulator.DefaultTopOutMargin
	s.shortcutThreshold = DefaultShortcutThreshold
}

func (s *Solver) SetThreads(threads int) {
	s.threads = max(1, threads)
}

func (s *Solver) Threads() int {
	return s.threads
}

// SetLookahead sets how many figures, the current one included, are played
// out before the glass is evaluated.
func (s *Solver) SetLookahead(plies int) {
	s.lookahead = max(1, plies)
}

func (s *Solver) SetTopOutMargin(margin int) {
	s.topOutMargin = margin
}

// SetShortcutThreshold sets how many completed lines (near-complete lines
// count half) make an I figure go straight to the right wall.
func (s *Solver) SetShortcutThreshold(n int) {
	s.shortcutThreshold = n
}

func (s *Solver) Nodes() uint64 {
	return s.nodes.Load()
}

// Depth is the lookahead used for the last snapshot. A queue shorter than
// the configured lookahead shortens the search.
func (s *Solver) Depth() int {
	return len(s.figures)
}

func (s *Solver) Simulator() *simulator.Simulator {
	return s.sim
}

// prepare builds a fresh simulator for snap. The snapshot glass still holds
// the falling figure; it is lifted out so it can't collide with itself.
func (s *Solver) prepare(snap *board.Snapshot) error {
	if int(snap.Current) >= board.NumFigureTypes {
		return ErrUnknownFigure
	}
	for _, ft := range snap.Future {
		if int(ft) >= board.NumFigureTypes {
			return ErrUnknownFigure
		}
	}
	s.sim = simulator.New(&snap.Glass, s.popcount, s.heuristic)
	s.sim.SetTopOutMargin(s.topOutMargin)

	cur := figure.New(snap.Current)
	if s.sim.Contains(cur, snap.Anchor) {
		s.sim.Unplace(cur, snap.Anchor)
	}

	depth := min(s.lookahead, 1+len(snap.Future))
	s.figures = make([]board.FigureType, 0, depth)
	s.figures = append(s.figures, snap.Current)
	s.figures = append(s.figures, snap.Future[:depth-1]...)
	s.anchor = snap.Anchor
	s.nodes.Store(0)
	return nil
}

func (s *Solver) shortcut() bool {
	g := s.sim.Glass()
	factor := g.Completed() + g.SemiCompleted()/2
	return s.figures[0] == board.FigureI && factor >= s.shortcutThreshold
}

// Solve returns the plan for snap along with its score. The shortcut plan
// has a score of +Inf.
func (s *Solver) Solve(snap *board.Snapshot) (move.Plan, float64, error) {
	if err := s.prepare(snap); err != nil {
		return move.Plan{}, 0, err
	}
	if s.shortcut() {
		log.Debug().Msg("shortcut-slide-right")
		return move.SlideRight, math.Inf(1), nil
	}
	cands, err := s.candidates()
	if err != nil {
		return move.Plan{}, 0, err
	}
	best := s.bestOf(cands)
	if best < 0 {
		log.Warn().Str("figure", snap.Current.String()).Msg("no-valid-moves")
		return move.Plan{}, math.Inf(-1), nil
	}
	return cands[best].Plan, cands[best].Score, nil
}

// Start is called once per session, before any snapshot is seen.
func (s *Solver) Start(b *move.Batch) {
	b.Add(move.CommandClear)
}

// Decide solves snap and appends the resulting commands to b.
func (s *Solver) Decide(b *move.Batch, snap *board.Snapshot) error {
	tstart := time.Now()
	plan, score, err := s.Solve(snap)
	if err != nil {
		return err
	}
	plan.AppendTo(b)
	log.Info().
		Uint64("board-hash", snap.Glass.Hash()).
		Str("figure", snap.Current.String()).
		Int("offset", plan.Offset).
		Stringer("rotation", plan.Rotation).
		Float64("score", score).
		Int("depth", s.Depth()).
		Uint64("nodes", s.Nodes()).
		Dur("elapsed", time.Since(tstart)).
		Msg("decided")
	return nil
}
