package sim

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/mkerins/creditcycle/internal/model"
)

func newTestSimulator(t *testing.T, cfg Config) *Simulator {
	t.Helper()
	p, ss, err := model.SolveSteadyState(model.Default())
	if err != nil {
		t.Fatalf("steady state failed: %v", err)
	}
	return New(p, ss, cfg)
}

func figure3Shock() Shock {
	return Shock{Kind: ShockProductivity, Size: 0.01, Period: 1}
}

func TestRunInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"negative horizon", Config{Horizon: -1, Epsilon: 1e-5, Window: 10, Ceiling: 1.5, Floor: 0.5}},
		{"zero epsilon", Config{Horizon: 10, Epsilon: 0, Window: 10, Ceiling: 1.5, Floor: 0.5}},
		{"negative epsilon", Config{Horizon: 10, Epsilon: -1e-5, Window: 10, Ceiling: 1.5, Floor: 0.5}},
		{"zero window", Config{Horizon: 10, Epsilon: 1e-5, Window: 0, Ceiling: 1.5, Floor: 0.5}},
		{"ceiling at 1", Config{Horizon: 10, Epsilon: 1e-5, Window: 10, Ceiling: 1.0, Floor: 0.5}},
		{"floor at 1", Config{Horizon: 10, Epsilon: 1e-5, Window: 10, Ceiling: 1.5, Floor: 1.0}},
	}

	s := newTestSimulator(t, DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.cfg = tt.cfg
			if _, err := s.Run(context.Background(), s.steady.Q, figure3Shock()); err == nil {
				t.Error("expected config error")
			}
		})
	}
}

func TestRunZeroHorizon(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Horizon = 0
	s := newTestSimulator(t, cfg)

	res, err := s.Run(context.Background(), s.steady.Q, figure3Shock())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(res.Trajectory) != 1 {
		t.Fatalf("expected single-point trajectory, got %d points", len(res.Trajectory))
	}
	pt := res.Trajectory[0]
	if pt.K != s.steady.K || pt.B != s.steady.B || pt.Q != s.steady.Q {
		t.Errorf("expected the initial condition, got %+v", pt)
	}
	if res.Outcome != Converged {
		t.Errorf("expected converged at the unperturbed steady state, got %s", res.Outcome)
	}
}

func TestRunBracketEndpoints(t *testing.T) {
	s := newTestSimulator(t, DefaultConfig())
	shock := figure3Shock()

	lo, err := s.Run(context.Background(), s.steady.Q*(1.0037-0.0005), shock)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if lo.Outcome != Undershoot {
		t.Errorf("low guess: expected undershoot, got %s (%s)", lo.Outcome, lo.Reason)
	}

	hi, err := s.Run(context.Background(), s.steady.Q*(1.0037+0.0005), shock)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if hi.Outcome != Overshoot {
		t.Errorf("high guess: expected overshoot, got %s (%s)", hi.Outcome, hi.Reason)
	}
}

func TestRunOvershootFarAbove(t *testing.T) {
	s := newTestSimulator(t, DefaultConfig())

	res, err := s.Run(context.Background(), s.steady.Q*1.2, figure3Shock())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Outcome != Overshoot {
		t.Errorf("expected overshoot, got %s (%s)", res.Outcome, res.Reason)
	}
	if len(res.Trajectory) > s.cfg.Horizon+1 {
		t.Errorf("trajectory longer than horizon: %d points", len(res.Trajectory))
	}
}

func TestRunUndershootFarBelow(t *testing.T) {
	s := newTestSimulator(t, DefaultConfig())

	res, err := s.Run(context.Background(), s.steady.Q*0.5, figure3Shock())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Outcome != Undershoot {
		t.Errorf("expected undershoot, got %s (%s)", res.Outcome, res.Reason)
	}
	// The floor trips immediately for a guess this far below.
	if len(res.Trajectory) > 3 {
		t.Errorf("expected early exit, got %d points", len(res.Trajectory))
	}
}

// Guesses strictly between the steady state price and the saddle path must
// run the full horizon without tripping a divergence threshold, across a
// range of valid parameterizations.
func TestRunNearbyGuessesReachHorizon(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 25; i++ {
		p := model.Default()
		p.R = 1.005 + 0.015*rng.Float64()
		p.Lambda = 0.95 + 0.04*rng.Float64()
		p.Eta = 0.05 + 0.15*rng.Float64()
		p.Pi = 0.05 + 0.15*rng.Float64()
		p.Phi = 10 + 20*rng.Float64()

		cp, ss, err := model.SolveSteadyState(p)
		if err != nil {
			// Some draws admit no steady state; rejection is covered elsewhere.
			continue
		}

		s := New(cp, ss, DefaultConfig())
		res, err := s.Run(context.Background(), ss.Q*1.001, figure3Shock())
		if err != nil {
			t.Fatalf("draw %d: run failed: %v", i, err)
		}
		if len(res.Trajectory) != s.cfg.Horizon+1 {
			t.Errorf("draw %d: diverged early after %d points (%s)", i, len(res.Trajectory), res.Reason)
		}
	}
}

func TestRunDeterministic(t *testing.T) {
	s := newTestSimulator(t, DefaultConfig())
	q1 := s.steady.Q * 1.004

	a, err := s.Run(context.Background(), q1, figure3Shock())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	b, err := s.Run(context.Background(), q1, figure3Shock())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if a.Outcome != b.Outcome || len(a.Trajectory) != len(b.Trajectory) {
		t.Fatal("repeated runs disagree")
	}
	for i := range a.Trajectory {
		if a.Trajectory[i] != b.Trajectory[i] {
			t.Fatalf("trajectories differ at %d", i)
		}
	}
}

func TestRunLandholdingShock(t *testing.T) {
	s := newTestSimulator(t, DefaultConfig())
	shock := Shock{Kind: ShockLandholding, Size: -0.01}

	res, err := s.Run(context.Background(), s.steady.Q, shock)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got := res.Trajectory[0].K; math.Abs(got-0.99*s.steady.K) > 1e-12*s.steady.K {
		t.Errorf("expected perturbed initial landholding, got %g", got)
	}
	if res.Trajectory[0].B != s.steady.B {
		t.Errorf("debt should be unperturbed, got %g", res.Trajectory[0].B)
	}
}

func TestRunContextCanceled(t *testing.T) {
	s := newTestSimulator(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Run(ctx, s.steady.Q*1.004, figure3Shock()); err == nil {
		t.Error("expected context error")
	}
}
