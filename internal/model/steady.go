package model

import "math"

// SolveSteadyState computes the unique positive fixed point of the model
// equations in closed form, together with the land supply intercept Nu
// that makes the residual supply elasticity equal Eta there:
//
//	q* = (R/(R-1)) (pi a - (1-lambda)(1-R+pi R) phi) / (lambda pi + (1-lambda)(1-R+pi R))
//	nu = ((R-1)/R) q*/eta
//	K* = ((R-1)/R) q* + nu
//	B* = (a - phi + lambda phi) K* / (R-1)
//
// The returned Params are the input with Nu filled in.
func SolveSteadyState(p Params) (Params, SteadyState, error) {
	if p.R <= 1 {
		return p, SteadyState{}, &SteadyStateError{Params: p, Reason: "gross interest rate must exceed 1"}
	}
	if p.Eta <= 0 {
		return p, SteadyState{}, &SteadyStateError{Params: p, Reason: "land supply elasticity must be positive"}
	}
	if p.Pi <= 0 || p.Pi > 1 {
		return p, SteadyState{}, &SteadyStateError{Params: p, Reason: "investment probability must be in (0, 1]"}
	}
	if p.Lambda <= 0 || p.Lambda > 1 {
		return p, SteadyState{}, &SteadyStateError{Params: p, Reason: "tree survival rate must be in (0, 1]"}
	}
	if p.A <= 0 || p.Phi <= 0 {
		return p, SteadyState{}, &SteadyStateError{Params: p, Reason: "productivity and planting cost must be positive"}
	}

	w := (1 - p.Lambda) * (1 - p.R + p.Pi*p.R)
	den := p.Lambda*p.Pi + w
	if den == 0 {
		return p, SteadyState{}, &SteadyStateError{Params: p, Reason: "degenerate land market equation"}
	}

	q := (p.R / (p.R - 1)) * (p.Pi*p.A - w*p.Phi) / den
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return p, SteadyState{}, &SteadyStateError{Params: p, Reason: "steady state land price is not positive"}
	}

	p.Nu = ((p.R - 1) / p.R) * q / p.Eta
	k := ((p.R-1)/p.R)*q + p.Nu
	b := (p.A - p.Phi + p.Lambda*p.Phi) * k / (p.R - 1)

	ss := SteadyState{State{K: k, B: b, Q: q}}
	if !ss.IsValid() || b < 0 {
		return p, SteadyState{}, &SteadyStateError{Params: p, Reason: "steady state is not economically valid"}
	}
	return p, ss, nil
}
