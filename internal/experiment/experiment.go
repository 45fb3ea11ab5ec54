// Package experiment wires parameters, scenarios and the shooting search
// into reproducible runs: Params -> SteadyState -> (Simulator <-> Search)
// -> Trajectory, with no state shared outside the explicit composition.
package experiment

import (
	"context"
	"fmt"

	"github.com/mkerins/creditcycle/internal/metrics"
	"github.com/mkerins/creditcycle/internal/model"
	"github.com/mkerins/creditcycle/internal/shoot"
	"github.com/mkerins/creditcycle/internal/sim"
)

// Config describes one solve.
type Config struct {
	Params   model.Params
	Scenario Scenario
	Sim      sim.Config
	Shoot    shoot.Config
	Grid     int // grid points for Scan
}

// Outcome is the product of a solve: the calibrated economy, the found
// initial price and its classified trajectory.
type Outcome struct {
	Params     model.Params
	Steady     model.SteadyState
	Q1         float64
	Iterations int
	Result     *sim.Result
}

type Experiment struct {
	cfg       Config
	params    model.Params
	steady    model.SteadyState
	simulator *sim.Simulator
}

func New(cfg Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup solves the steady state and builds the simulator with the default
// metric set. It must be called before Run or Scan.
func (e *Experiment) Setup() error {
	p, ss, err := model.SolveSteadyState(e.cfg.Params)
	if err != nil {
		return err
	}
	e.params = p
	e.steady = ss

	e.simulator = sim.New(p, ss, e.cfg.Sim)
	e.simulator.AddMetric(metrics.NewDeviation(ss))
	e.simulator.AddMetric(metrics.NewPeakAmplitude(ss))
	e.simulator.AddMetric(metrics.NewRecoveryTime(ss, e.cfg.Sim.Epsilon))

	if e.cfg.Shoot.Bracket == (shoot.Bracket{}) {
		e.cfg.Shoot.Bracket = e.cfg.Scenario.Bracket(ss)
	}
	return nil
}

// Run performs the bisection shooting search for the scenario.
func (e *Experiment) Run(ctx context.Context) (*Outcome, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not set up")
	}

	iterations := 0
	cfg := e.cfg.Shoot
	inner := cfg.OnIteration
	cfg.OnIteration = func(it shoot.Iteration) {
		iterations = it.N
		if inner != nil {
			inner(it)
		}
	}

	q1, res, err := shoot.FindInitialPrice(ctx, e.simulator, e.cfg.Scenario.Shock, cfg)
	if err != nil {
		return nil, err
	}
	return &Outcome{Params: e.params, Steady: e.steady, Q1: q1, Iterations: iterations, Result: res}, nil
}

// Scan performs the grid scan over the scenario bracket instead of
// bisection.
func (e *Experiment) Scan(ctx context.Context) (*Outcome, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not set up")
	}
	n := e.cfg.Grid
	if n == 0 {
		n = DefaultGrid
	}
	q1, res, err := shoot.GridScan(ctx, e.simulator, e.cfg.Scenario.Shock, e.cfg.Shoot.Bracket, n)
	if err != nil {
		return nil, err
	}
	return &Outcome{Params: e.params, Steady: e.steady, Q1: q1, Iterations: n, Result: res}, nil
}

// Simulator exposes the underlying simulator for attaching observers.
func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }

// Steady returns the solved steady state after Setup.
func (e *Experiment) Steady() model.SteadyState { return e.steady }

// DefaultGrid matches the notebook's thousand-guess scan.
const DefaultGrid = 1000
