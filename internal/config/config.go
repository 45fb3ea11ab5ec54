package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mkerins/creditcycle/internal/model"
	"github.com/mkerins/creditcycle/internal/shoot"
	"github.com/mkerins/creditcycle/internal/sim"
)

const (
	DefaultHorizon   = 150
	DefaultEpsilon   = 1e-5
	DefaultWindow    = 10
	DefaultCeiling   = 1.5
	DefaultFloor     = 0.5
	DefaultTolerance = 1e-6
	DefaultMaxIter   = 100
	DefaultGrid      = 1000
)

type Config struct {
	Scenario string       `yaml:"scenario"`
	Params   ParamsConfig `yaml:"params"`
	Solver   SolverConfig `yaml:"solver"`
	Shock    ShockConfig  `yaml:"shock"`
}

type ParamsConfig struct {
	R      float64 `yaml:"r"`
	Lambda float64 `yaml:"lambda"`
	Eta    float64 `yaml:"eta"`
	A      float64 `yaml:"a"`
	Pi     float64 `yaml:"pi"`
	Phi    float64 `yaml:"phi"`
}

type SolverConfig struct {
	Horizon       int     `yaml:"horizon"`
	Epsilon       float64 `yaml:"epsilon"`
	Window        int     `yaml:"window"`
	Ceiling       float64 `yaml:"ceiling"`
	Floor         float64 `yaml:"floor"`
	Tolerance     float64 `yaml:"tolerance"`
	MaxIter       int     `yaml:"max_iter"`
	Grid          int     `yaml:"grid"`
	BracketCenter float64 `yaml:"bracket_center"`
	BracketWidth  float64 `yaml:"bracket_width"`
}

// ShockConfig overrides the scenario's shock when Kind is set.
type ShockConfig struct {
	Kind   string  `yaml:"kind"`
	Size   float64 `yaml:"size"`
	Period int     `yaml:"period"`
}

func Default() *Config {
	p := model.Default()
	return &Config{
		Scenario: "figure3",
		Params: ParamsConfig{
			R:      p.R,
			Lambda: p.Lambda,
			Eta:    p.Eta,
			A:      p.A,
			Pi:     p.Pi,
			Phi:    p.Phi,
		},
		Solver: SolverConfig{
			Horizon:   DefaultHorizon,
			Epsilon:   DefaultEpsilon,
			Window:    DefaultWindow,
			Ceiling:   DefaultCeiling,
			Floor:     DefaultFloor,
			Tolerance: DefaultTolerance,
			MaxIter:   DefaultMaxIter,
			Grid:      DefaultGrid,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Solver.Tolerance <= 0 {
		return fmt.Errorf("solver tolerance must be positive, got %g", c.Solver.Tolerance)
	}
	if c.Solver.MaxIter < 1 {
		return fmt.Errorf("solver max_iter must be at least 1, got %d", c.Solver.MaxIter)
	}
	if c.Solver.Grid < 2 {
		return fmt.Errorf("solver grid must be at least 2, got %d", c.Solver.Grid)
	}
	if err := c.SimConfig().Validate(); err != nil {
		return err
	}
	switch c.Shock.Kind {
	case "", string(sim.ShockProductivity), string(sim.ShockLandholding), string(sim.ShockDebt):
	default:
		return fmt.Errorf("unknown shock kind: %s", c.Shock.Kind)
	}
	return nil
}

// ModelParams converts the configured parameter block. Nu is left for
// model.SolveSteadyState to fill in.
func (c *Config) ModelParams() model.Params {
	return model.Params{
		R:      c.Params.R,
		Lambda: c.Params.Lambda,
		Eta:    c.Params.Eta,
		A:      c.Params.A,
		Pi:     c.Params.Pi,
		Phi:    c.Params.Phi,
	}
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Horizon: c.Solver.Horizon,
		Epsilon: c.Solver.Epsilon,
		Window:  c.Solver.Window,
		Ceiling: c.Solver.Ceiling,
		Floor:   c.Solver.Floor,
	}
}

// ShootConfig builds the search tuning. The bracket stays zero unless the
// config overrides the scenario's; the experiment fills it in otherwise.
func (c *Config) ShootConfig(ss model.SteadyState) shoot.Config {
	cfg := shoot.Config{
		Tolerance: c.Solver.Tolerance,
		MaxIter:   c.Solver.MaxIter,
	}
	if c.Solver.BracketCenter != 0 {
		width := c.Solver.BracketWidth
		if width == 0 {
			width = 0.0005
		}
		cfg.Bracket = shoot.Bracket{
			Lo: ss.Q * (c.Solver.BracketCenter - width),
			Hi: ss.Q * (c.Solver.BracketCenter + width),
		}
	}
	return cfg
}

// ShockOverride returns the configured shock, if any.
func (c *Config) ShockOverride() (sim.Shock, bool) {
	if c.Shock.Kind == "" {
		return sim.Shock{}, false
	}
	return sim.Shock{
		Kind:   sim.ShockKind(c.Shock.Kind),
		Size:   c.Shock.Size,
		Period: c.Shock.Period,
	}, true
}
