package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/mkerins/creditcycle/internal/model"
)

// Simulator advances the model forward from the steady state for a given
// initial price guess and classifies the resulting path. It is the oracle
// the shooting search bisects over.
type Simulator struct {
	params    model.Params
	steady    model.SteadyState
	cfg       Config
	metrics   []Metric
	observers []Observer
}

// New returns a simulator for calibrated parameters (Nu filled in by
// model.SolveSteadyState) and their steady state.
func New(p model.Params, ss model.SteadyState, cfg Config) *Simulator {
	return &Simulator{params: p, steady: ss, cfg: cfg}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Params() model.Params      { return s.params }
func (s *Simulator) Steady() model.SteadyState { return s.steady }
func (s *Simulator) Config() Config            { return s.cfg }

// Run simulates the path pinned by the initial price guess q1. The state at
// t=0 is the steady state, perturbed per the shock spec; q1 takes effect at
// t=1 and later prices follow the model's own recursion. Run always
// terminates within Horizon steps and returns exactly one of the three
// outcomes.
func (s *Simulator) Run(ctx context.Context, q1 float64, shock Shock) (*Result, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	x := s.steady.State
	switch shock.Kind {
	case ShockLandholding:
		x.K *= 1 + shock.Size
	case ShockDebt:
		x.B *= 1 + shock.Size
	}

	traj := make(Trajectory, 0, s.cfg.Horizon+1)
	pt := Point{T: 0, K: x.K, B: x.B, Q: x.Q}
	traj = append(traj, pt)
	s.observe(pt)

	inBand := 0
	if s.withinBand(pt) {
		inBand = 1
	}

	prev := x
	q := q1
	for t := 1; t <= s.cfg.Horizon; t++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		a := s.params.A
		if shock.Kind == ShockProductivity && t == shock.Period {
			a *= 1 + shock.Size
		}

		next, qNext, err := model.StepSolve(prev, q, a, s.params, s.steady.K)
		if err != nil {
			// Undefined region: reclassified, never surfaced raw.
			return s.finish(traj, Undershoot, fmt.Sprintf("period %d: %v", t, err)), nil
		}

		pt = Point{T: t, K: next.K, B: next.B, Q: q}
		traj = append(traj, pt)
		s.observe(pt)

		if pt.Q <= 0 || pt.K <= 0 || pt.B < 0 ||
			pt.Q <= s.cfg.Floor*s.steady.Q || pt.K <= s.cfg.Floor*s.steady.K {
			return s.finish(traj, Undershoot, fmt.Sprintf("period %d: state collapsed below floor", t)), nil
		}
		if pt.Q >= s.cfg.Ceiling*s.steady.Q || pt.K >= s.cfg.Ceiling*s.steady.K {
			return s.finish(traj, Overshoot, fmt.Sprintf("period %d: state exceeded ceiling", t)), nil
		}

		if s.withinBand(pt) {
			inBand++
		} else {
			inBand = 0
		}

		prev = next
		q = qNext
	}

	need := s.cfg.Window
	if n := len(traj); need > n {
		need = n
	}
	if inBand >= need {
		return s.finish(traj, Converged, "trailing window inside epsilon band"), nil
	}
	if traj.Final().Q > s.steady.Q {
		return s.finish(traj, Overshoot, "final price above steady state"), nil
	}
	return s.finish(traj, Undershoot, "final price below steady state"), nil
}

func (s *Simulator) withinBand(pt Point) bool {
	return relDev(pt.K, s.steady.K) <= s.cfg.Epsilon &&
		relDev(pt.B, s.steady.B) <= s.cfg.Epsilon &&
		relDev(pt.Q, s.steady.Q) <= s.cfg.Epsilon
}

func relDev(v, ref float64) float64 {
	if ref == 0 {
		return math.Abs(v)
	}
	return math.Abs(v/ref - 1)
}

func (s *Simulator) observe(pt Point) {
	for _, m := range s.metrics {
		m.Observe(pt)
	}
	for _, o := range s.observers {
		o.OnStep(pt)
	}
}

func (s *Simulator) finish(traj Trajectory, outcome Outcome, reason string) *Result {
	res := &Result{Trajectory: traj, Outcome: outcome, Reason: reason}
	if len(s.metrics) > 0 {
		res.Metrics = make(map[string]float64, len(s.metrics))
		for _, m := range s.metrics {
			res.Metrics[m.Name()] = m.Value()
		}
	}
	return res
}
