package solver

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// scoreParallel fans the top-level candidates out over the threads. Every
// thread gets its own copy of the simulator and writes only the scores of
// the candidates it took off the channel.
func (s *Solver) scoreParallel(cands []Candidate) error {
	threads := min(s.threads, len(cands))
	log.Debug().Int("threads", threads).Int("candidates", len(cands)).Msg("scoring-in-parallel")

	jobChan := make(chan int, len(cands))
	for i := range cands {
		jobChan <- i
	}
	close(jobChan)

	g := errgroup.Group{}
	for t := 0; t < threads; t++ {
		w := newSearcher(s.sim.Copy(), s.figures)
		g.Go(func() error {
			defer func() { s.nodes.Add(w.nodes) }()
			for i := range jobChan {
				if err := w.scoreChecked(&cands[i]); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("parallel-scoring-failed")
		return err
	}
	return nil
}
