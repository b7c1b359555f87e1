package stats

import (
	"fmt"
	"math"
	"time"
)

const Epsilon = 1e-6

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Running keeps the mean and variance of a stream of values without storing
// them (Welford's algorithm), along with the extremes.
type Running struct {
	n    int
	mean float64
	m2   float64
	min  float64
	max  float64
	last float64
}

func (r *Running) Push(val float64) {
	r.n++
	r.last = val
	if r.n == 1 {
		r.mean, r.m2, r.min, r.max = val, 0, val, val
		return
	}
	delta := val - r.mean
	r.mean += delta / float64(r.n)
	r.m2 += delta * (val - r.mean)
	r.min = math.Min(r.min, val)
	r.max = math.Max(r.max, val)
}

// PushDuration records d in milliseconds.
func (r *Running) PushDuration(d time.Duration) {
	r.Push(float64(d.Microseconds()) / 1000)
}

func (r *Running) Count() int     { return r.n }
func (r *Running) Mean() float64  { return r.mean }
func (r *Running) Last() float64  { return r.last }
func (r *Running) Min() float64   { return r.min }
func (r *Running) Max() float64   { return r.max }
func (r *Running) Stdev() float64 { return math.Sqrt(r.Variance()) }

// Variance is the sample variance.
func (r *Running) Variance() float64 {
	if r.n <= 1 {
		return 0
	}
	return r.m2 / float64(r.n-1)
}

// StandardError of the mean.
func (r *Running) StandardError() float64 {
	if r.n == 0 {
		return 0
	}
	return r.Stdev() / math.Sqrt(float64(r.n))
}

// Interval returns the half-width of the confidence interval around the mean,
// for a confidence given in percent.
func (r *Running) Interval(confidence float64) float64 {
	return ZVal(confidence) * r.StandardError()
}

func (r *Running) String() string {
	return fmt.Sprintf("n=%d mean=%.3f stdev=%.3f min=%.3f max=%.3f",
		r.n, r.mean, r.Stdev(), r.min, r.max)
}
