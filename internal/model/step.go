package model

import "math"

const (
	// denominatorFloor is the smallest downpayment term the laws of motion
	// accept before the step is declared undefined.
	denominatorFloor = 1e-9

	newtonMaxIter = 50
	newtonTol     = 1e-13
)

// Step applies the landholding and debt laws of motion for one period:
//
//	K_t = (1-pi) lambda K_{t-1} + [pi / (phi + q_t - q_{t+1}/R)] ((a_t + q_t + lambda phi) K_{t-1} - R B_{t-1})
//	B_t = R B_{t-1} + q_t (K_t - K_{t-1}) + phi (K_t - lambda K_{t-1}) - a_t K_{t-1}
//
// The next-period price qNext is an input: Step never determines the
// forward-looking price itself. A vanishing downpayment denominator is
// reported as a StepError wrapping ErrInvalidState, never as NaN/Inf.
func Step(prev State, q, qNext, a float64, p Params) (State, error) {
	den := p.Phi + q - qNext/p.R
	if math.Abs(den) < denominatorFloor {
		return State{}, &StepError{Q: q, Denominator: den, Reason: "downpayment denominator vanishes"}
	}
	k := (1-p.Pi)*p.Lambda*prev.K + (p.Pi/den)*((a+q+p.Lambda*p.Phi)*prev.K-p.R*prev.B)
	b := p.R*prev.B + q*(k-prev.K) + p.Phi*(k-p.Lambda*prev.K) - a*prev.K
	next := State{K: k, B: b, Q: q}
	if math.IsNaN(k) || math.IsInf(k, 0) || math.IsNaN(b) || math.IsInf(b, 0) {
		return State{}, &StepError{Q: q, Denominator: den, Reason: "non-finite step"}
	}
	return next, nil
}

// StepSolve jointly solves the three model equations for (K_t, B_t, q_{t+1})
// given the previous state, the current price q_t and productivity a_t.
// Substituting the land market equation q_{t+1} = R (q_t - u(K_t)) into the
// landholding law collapses the system to a scalar root-finding problem in
// K_t, solved by Newton iteration seeded at guess (the steady state
// landholding).
func StepSolve(prev State, q, a float64, p Params, guess float64) (State, float64, error) {
	// With u(K) = K - nu the downpayment denominator becomes phi + K - nu,
	// so the residual is quadratic in K.
	c := p.Pi * ((a+q+p.Lambda*p.Phi)*prev.K - p.R*prev.B)
	drift := (1 - p.Pi) * p.Lambda * prev.K

	k := guess
	converged := false
	for i := 0; i < newtonMaxIter; i++ {
		den := p.Phi + k - p.Nu
		g := k*den - drift*den - c
		dg := den + k - drift
		if dg == 0 || math.IsNaN(g) || math.IsInf(g, 0) {
			return State{}, 0, &StepError{Q: q, Denominator: den, Reason: "landholding iteration stalled"}
		}
		next := k - g/dg
		if math.Abs(next-k) <= newtonTol*math.Max(1, math.Abs(next)) {
			k = next
			converged = true
			break
		}
		k = next
	}
	if !converged || math.IsNaN(k) || math.IsInf(k, 0) {
		return State{}, 0, &StepError{Q: q, Denominator: p.Phi + k - p.Nu, Reason: "landholding iteration did not converge"}
	}

	qNext := p.R * (q - p.UserCost(k))
	next, err := Step(prev, q, qNext, a, p)
	if err != nil {
		return State{}, 0, err
	}
	return next, qNext, nil
}
