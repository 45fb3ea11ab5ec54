// Package metrics provides scalar summaries of simulated transition paths.
package metrics

import (
	"math"

	"github.com/mkerins/creditcycle/internal/model"
	"github.com/mkerins/creditcycle/internal/sim"
)

// Deviation accumulates the mean relative distance of the path from the
// steady state across all three state variables.
type Deviation struct {
	steady  model.SteadyState
	sum     float64
	samples int
}

func NewDeviation(ss model.SteadyState) *Deviation {
	return &Deviation{steady: ss}
}

func (d *Deviation) Name() string { return "mean_deviation" }

func (d *Deviation) Observe(pt sim.Point) {
	d.sum += maxDev(pt, d.steady)
	d.samples++
}

func (d *Deviation) Value() float64 {
	if d.samples == 0 {
		return 0
	}
	return d.sum / float64(d.samples)
}

func (d *Deviation) Reset() {
	d.sum = 0
	d.samples = 0
}

// PeakAmplitude tracks the largest relative land price deviation along the
// path, the headline number of the Figure 3 experiment.
type PeakAmplitude struct {
	steady model.SteadyState
	peak   float64
}

func NewPeakAmplitude(ss model.SteadyState) *PeakAmplitude {
	return &PeakAmplitude{steady: ss}
}

func (p *PeakAmplitude) Name() string { return "peak_price_deviation" }

func (p *PeakAmplitude) Observe(pt sim.Point) {
	if dev := relDev(pt.Q, p.steady.Q); dev > p.peak {
		p.peak = dev
	}
}

func (p *PeakAmplitude) Value() float64 { return p.peak }

func (p *PeakAmplitude) Reset() { p.peak = 0 }

// RecoveryTime records the first period after which the path never leaves
// the epsilon band again.
type RecoveryTime struct {
	steady  model.SteadyState
	epsilon float64
	last    int
	seen    bool
}

func NewRecoveryTime(ss model.SteadyState, epsilon float64) *RecoveryTime {
	return &RecoveryTime{steady: ss, epsilon: epsilon}
}

func (r *RecoveryTime) Name() string { return "recovery_time" }

func (r *RecoveryTime) Observe(pt sim.Point) {
	if maxDev(pt, r.steady) > r.epsilon {
		r.last = pt.T
		r.seen = true
	}
}

func (r *RecoveryTime) Value() float64 {
	if !r.seen {
		return 0
	}
	return float64(r.last + 1)
}

func (r *RecoveryTime) Reset() {
	r.last = 0
	r.seen = false
}

func maxDev(pt sim.Point, ss model.SteadyState) float64 {
	return math.Max(relDev(pt.K, ss.K), math.Max(relDev(pt.B, ss.B), relDev(pt.Q, ss.Q)))
}

func relDev(v, ref float64) float64 {
	if ref == 0 {
		return math.Abs(v)
	}
	return math.Abs(v/ref - 1)
}
