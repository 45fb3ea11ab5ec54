package model

import "math"

// Params holds the constants of the Kiyotaki-Moore credit cycle model.
// A Params value is immutable for the duration of a solve.
type Params struct {
	R      float64 // gross interest rate
	Lambda float64 // fraction of trees surviving one period
	Eta    float64 // elasticity of residual land supply at the steady state
	A      float64 // tradeable output per unit of land
	Pi     float64 // probability of an investment opportunity
	Phi    float64 // fruit cost of planting one tree
	Nu     float64 // land supply intercept, filled in by SolveSteadyState
}

// Default returns the parameterization from Kiyotaki & Moore (1997), p. 237.
// Nu is derived from the steady state; SolveSteadyState fills it in.
func Default() Params {
	return Params{
		R:      1.01,
		Lambda: 0.975,
		Eta:    0.10,
		A:      1.0,
		Pi:     0.1,
		Phi:    20.0,
	}
}

// UserCost is u(K) = K - Nu, the opportunity cost of holding one unit of
// land when farmers hold K in aggregate.
func (p Params) UserCost(k float64) float64 {
	return k - p.Nu
}

// State is the model state for one period: landholding, debt and the land
// price. K and B are predetermined, Q is the forward-looking jump variable.
type State struct {
	K float64
	B float64
	Q float64
}

// IsValid reports whether the state is finite and economically meaningful.
func (s State) IsValid() bool {
	for _, v := range []float64{s.K, s.B, s.Q} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return s.K > 0 && s.Q > 0
}

// SteadyState is a State satisfying all three model equations with
// q_{t+1} = q_t.
type SteadyState struct {
	State
}
