package sim

import (
	"fmt"

	"github.com/mkerins/creditcycle/internal/model"
)

// Point is one period of a simulated path.
type Point struct {
	T int
	K float64
	B float64
	Q float64
}

// Trajectory is an ordered path over t = 0..T. Each shooting attempt
// produces a fresh trajectory from t = 0.
type Trajectory []Point

func (tr Trajectory) Final() Point {
	return tr[len(tr)-1]
}

// Normalized returns the K/K*, B/B* and q/q* series, the form in which
// the transition path is plotted and exported.
func (tr Trajectory) Normalized(ss model.SteadyState) (k, b, q []float64) {
	k = make([]float64, len(tr))
	b = make([]float64, len(tr))
	q = make([]float64, len(tr))
	for i, pt := range tr {
		k[i] = ratio(pt.K, ss.K)
		b[i] = ratio(pt.B, ss.B)
		q[i] = ratio(pt.Q, ss.Q)
	}
	return k, b, q
}

func ratio(v, ref float64) float64 {
	if ref == 0 {
		return v
	}
	return v / ref
}

// Outcome classifies a simulated path. The three outcomes are mutually
// exclusive and exhaustive.
type Outcome int

const (
	// Converged: the trailing window of periods stays within the epsilon
	// band around the steady state.
	Converged Outcome = iota
	// Overshoot: the path diverged above the steady state.
	Overshoot
	// Undershoot: the path collapsed toward zero or entered an undefined
	// region.
	Undershoot
)

func (o Outcome) String() string {
	switch o {
	case Converged:
		return "converged"
	case Overshoot:
		return "overshoot"
	case Undershoot:
		return "undershoot"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ShockKind selects how the experiment perturbs the steady state.
type ShockKind string

const (
	// ShockProductivity raises output per unit of land by Size for the
	// single period Period. This is the paper's Figure 3 experiment.
	ShockProductivity ShockKind = "productivity"
	// ShockLandholding perturbs the initial landholding by Size.
	ShockLandholding ShockKind = "landholding"
	// ShockDebt perturbs the initial debt by Size.
	ShockDebt ShockKind = "debt"
)

// Shock is a one-time perturbation of the steady state.
type Shock struct {
	Kind   ShockKind
	Size   float64 // relative, e.g. 0.01 for +1%
	Period int     // productivity shocks only
}

// Config tunes one simulation run.
type Config struct {
	Horizon int     // number of periods to advance past t=0
	Epsilon float64 // relative half-width of the convergence band
	Window  int     // trailing periods required inside the band
	Ceiling float64 // divergence-high threshold, multiple of steady state
	Floor   float64 // divergence-low threshold, fraction of steady state
}

// DefaultConfig returns tuning that cleanly separates the saddle path from
// its neighbours for the paper's parameterization.
func DefaultConfig() Config {
	return Config{
		Horizon: 150,
		Epsilon: 1e-5,
		Window:  10,
		Ceiling: 1.5,
		Floor:   0.5,
	}
}

func (c Config) Validate() error {
	if c.Horizon < 0 {
		return fmt.Errorf("horizon must be non-negative, got %d", c.Horizon)
	}
	if c.Epsilon <= 0 {
		return fmt.Errorf("epsilon must be positive, got %g", c.Epsilon)
	}
	if c.Window < 1 {
		return fmt.Errorf("window must be at least 1, got %d", c.Window)
	}
	if c.Ceiling <= 1 {
		return fmt.Errorf("ceiling must exceed 1, got %g", c.Ceiling)
	}
	if c.Floor < 0 || c.Floor >= 1 {
		return fmt.Errorf("floor must be in [0, 1), got %g", c.Floor)
	}
	return nil
}

// Result is a classified trajectory.
type Result struct {
	Trajectory Trajectory
	Outcome    Outcome
	Reason     string
	Metrics    map[string]float64
}

// Metric accumulates a scalar over the points of one run.
type Metric interface {
	Name() string
	Observe(pt Point)
	Value() float64
	Reset()
}

// Observer is notified of every simulated point.
type Observer interface {
	OnStep(pt Point)
}
