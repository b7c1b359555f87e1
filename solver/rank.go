package solver

import (
	"sort"

	"github.com/domino14/glassbot/board"
)

// Rank scores every top-level placement for snap and returns them best
// first. Candidates with equal scores keep their search order.
func (s *Solver) Rank(snap *board.Snapshot) ([]Candidate, error) {
	if err := s.prepare(snap); err != nil {
		return nil, err
	}
	cands, err := s.candidates()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})
	return cands, nil
}
