package experiment

import (
	"fmt"
	"sort"

	"github.com/mkerins/creditcycle/internal/model"
	"github.com/mkerins/creditcycle/internal/shoot"
	"github.com/mkerins/creditcycle/internal/sim"
)

// Scenario is a named shock specification together with the search bracket
// that contains its saddle path, expressed relative to q*.
type Scenario struct {
	Name          string
	Description   string
	Shock         sim.Shock
	BracketCenter float64 // initial price jump, relative to q*
	BracketWidth  float64 // half-width, relative to q*
}

// Bracket materializes the scenario's search interval for a steady state.
func (s Scenario) Bracket(ss model.SteadyState) shoot.Bracket {
	return shoot.Bracket{
		Lo: ss.Q * (s.BracketCenter - s.BracketWidth),
		Hi: ss.Q * (s.BracketCenter + s.BracketWidth),
	}
}

// Registry holds the named experiments.
type Registry struct {
	scenarios map[string]Scenario
}

func NewRegistry() *Registry {
	r := &Registry{scenarios: make(map[string]Scenario)}

	// The paper's Figure 3 experiment: an unanticipated 1% productivity
	// gain for a single period.
	r.scenarios["figure3"] = Scenario{
		Name:          "figure3",
		Description:   "one-time +1% productivity shock at t=1 (Kiyotaki-Moore Figure 3)",
		Shock:         sim.Shock{Kind: sim.ShockProductivity, Size: 0.01, Period: 1},
		BracketCenter: 1.0037,
		BracketWidth:  0.0005,
	}

	// State shocks leave (K, B) off the stable manifold, so these are
	// grid-scan scenarios: bisection reports a bad bracket for them.
	r.scenarios["land-shock"] = Scenario{
		Name:          "land-shock",
		Description:   "-1% shock to initial landholding (grid scan only)",
		Shock:         sim.Shock{Kind: sim.ShockLandholding, Size: -0.01},
		BracketCenter: 0.9963,
		BracketWidth:  0.0005,
	}
	r.scenarios["debt-shock"] = Scenario{
		Name:          "debt-shock",
		Description:   "+1% shock to initial debt (grid scan only)",
		Shock:         sim.Shock{Kind: sim.ShockDebt, Size: 0.01},
		BracketCenter: 0.9963,
		BracketWidth:  0.0005,
	}

	return r
}

func (r *Registry) Get(name string) (Scenario, error) {
	s, ok := r.scenarios[name]
	if !ok {
		return Scenario{}, fmt.Errorf("unknown scenario: %s (available: %v)", name, r.List())
	}
	return s, nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.scenarios))
	for name := range r.scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
