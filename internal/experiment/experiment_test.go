package experiment

import (
	"context"
	"testing"

	"github.com/mkerins/creditcycle/internal/model"
	"github.com/mkerins/creditcycle/internal/shoot"
	"github.com/mkerins/creditcycle/internal/sim"
)

func figure3Config(t *testing.T) Config {
	t.Helper()
	reg := NewRegistry()
	scenario, err := reg.Get("figure3")
	if err != nil {
		t.Fatalf("scenario lookup failed: %v", err)
	}
	return Config{
		Params:   model.Default(),
		Scenario: scenario,
		Sim:      sim.DefaultConfig(),
		Shoot:    shoot.Config{Tolerance: 1e-6, MaxIter: 100},
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	names := reg.List()
	if len(names) == 0 {
		t.Fatal("expected registered scenarios")
	}
	for _, name := range names {
		if _, err := reg.Get(name); err != nil {
			t.Errorf("listed scenario %s not gettable: %v", name, err)
		}
	}
	if _, err := reg.Get("nonexistent"); err == nil {
		t.Error("expected error for unknown scenario")
	}
}

func TestExperimentRunFigure3(t *testing.T) {
	exp := New(figure3Config(t))
	if err := exp.Setup(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	out, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if out.Result.Outcome != sim.Converged {
		t.Fatalf("expected converged, got %s", out.Result.Outcome)
	}
	if out.Q1 <= out.Steady.Q {
		t.Error("expected the initial price above the steady state")
	}
	if out.Iterations < 1 {
		t.Error("expected at least one bisection iteration")
	}
	for _, name := range []string{"mean_deviation", "peak_price_deviation", "recovery_time"} {
		if _, ok := out.Result.Metrics[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
	if peak := out.Result.Metrics["peak_price_deviation"]; peak < 0.003 || peak > 0.005 {
		t.Errorf("peak price deviation %g outside the published range", peak)
	}
}

func TestExperimentRunWithoutSetup(t *testing.T) {
	exp := New(figure3Config(t))
	if _, err := exp.Run(context.Background()); err == nil {
		t.Error("expected error before setup")
	}
}

func TestExperimentScan(t *testing.T) {
	cfg := figure3Config(t)
	cfg.Grid = 41
	exp := New(cfg)
	if err := exp.Setup(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	out, err := exp.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	br := cfg.Scenario.Bracket(exp.Steady())
	if out.Q1 < br.Lo || out.Q1 > br.Hi {
		t.Errorf("best guess %g outside the bracket", out.Q1)
	}
}

func TestExperimentInvalidParams(t *testing.T) {
	cfg := figure3Config(t)
	cfg.Params.R = 0.9
	exp := New(cfg)
	if err := exp.Setup(); err == nil {
		t.Error("expected steady state failure")
	}
}
