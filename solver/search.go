package solver

import (
	"fmt"
	"math"

	"github.com/domino14/glassbot/board"
	"github.com/domino14/glassbot/figure"
	"github.com/domino14/glassbot/move"
	"github.com/domino14/glassbot/simulator"
)

// Candidate is one top-level placement of the current figure.
type Candidate struct {
	Plan   move.Plan
	Center board.Point
	Score  float64

	fig figure.Figure
}

// searcher walks the lookahead on a simulator it owns. Only one branch is
// ever applied to its glass at a time.
type searcher struct {
	sim     *simulator.Simulator
	figures []board.FigureType
	moves   [][]board.Point
	nodes   uint64
}

func newSearcher(sim *simulator.Simulator, figures []board.FigureType) *searcher {
	moves := make([][]board.Point, len(figures))
	for i := range moves {
		moves[i] = make([]board.Point, 0, board.Width)
	}
	return &searcher{sim: sim, figures: figures, moves: moves}
}

// scoreChecked is score with NaN turned into an error.
func (w *searcher) scoreChecked(c *Candidate) error {
	c.Score = w.score(c)
	if math.IsNaN(c.Score) {
		return fmt.Errorf("%w: candidate %v", ErrInvalidScore, c.Plan)
	}
	return nil
}

// score plays c, values whatever follows it, and takes it back.
func (w *searcher) score(c *Candidate) float64 {
	w.sim.Place(c.fig, c.Center)
	w.nodes++
	var v float64
	if len(w.figures) == 1 {
		v = w.sim.Evaluate()
	} else {
		v = w.search(1)
	}
	w.sim.Unplace(c.fig, c.Center)
	return v
}

// search returns the best evaluation reachable by playing figures[ply:].
// If the figure at ply has nowhere to go the branch is worth -Inf.
func (w *searcher) search(ply int) float64 {
	best := math.Inf(-1)
	ft := w.figures[ply]
	base := figure.New(ft)
	last := ply == len(w.figures)-1

	for _, r := range figure.Rotations(ft) {
		f := base.Rotate(r)
		w.moves[ply] = w.sim.AppendValidMoves(w.moves[ply][:0], f)
		for _, m := range w.moves[ply] {
			w.sim.Place(f, m)
			w.nodes++
			var v float64
			if last {
				v = w.sim.Evaluate()
			} else {
				v = w.search(ply + 1)
			}
			w.sim.Unplace(f, m)
			if math.IsNaN(v) {
				return v
			}
			if v > best {
				best = v
			}
		}
	}
	return best
}

// candidates lists every top-level placement in search order (rotation order
// of the legality table, then ascending column) and scores them.
func (s *Solver) candidates() ([]Candidate, error) {
	ft := s.figures[0]
	base := figure.New(ft)
	var cands []Candidate
	for _, r := range figure.Rotations(ft) {
		f := base.Rotate(r)
		for _, m := range s.sim.ValidMoves(f) {
			cands = append(cands, Candidate{
				Plan:   move.Plan{Offset: m.X - s.anchor.X, Rotation: r},
				Center: m,
				fig:    f,
			})
		}
	}
	if s.threads > 1 && len(cands) > 1 {
		if err := s.scoreParallel(cands); err != nil {
			return nil, err
		}
	} else {
		w := newSearcher(s.sim, s.figures)
		for i := range cands {
			if err := w.scoreChecked(&cands[i]); err != nil {
				s.nodes.Add(w.nodes)
				return nil, err
			}
		}
		s.nodes.Add(w.nodes)
	}
	return cands, nil
}

// bestOf returns the index of the highest score. Ties go to the earliest
// candidate, so the answer doesn't depend on how the work was split up.
// It returns -1 for an empty slice.
func (s *Solver) bestOf(cands []Candidate) int {
	best := -1
	for i := range cands {
		if best < 0 || cands[i].Score > cands[best].Score {
			best = i
		}
	}
	return best
}
