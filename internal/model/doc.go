// Package model implements the nonlinear difference equations of
// Kiyotaki & Moore, "Credit Cycles" (1997):
//
//	(1) q_{t+1} = R (q_t - u(K_t))                                    land market
//	(2) K_t = (1-pi) lambda K_{t-1}
//	        + [pi / (phi + q_t - q_{t+1}/R)] ((a_t + q_t + lambda phi) K_{t-1} - R B_{t-1})
//	(3) B_t = R B_{t-1} + q_t (K_t - K_{t-1}) + phi (K_t - lambda K_{t-1}) - a_t K_{t-1}
//
// with the linear residual land supply u(K) = K - nu. The package exposes
// the single-period transition ([Step], [StepSolve]) and the closed-form
// fixed point ([SolveSteadyState]); simulation and the shooting search
// over the initial price live in the sim and shoot packages.
//
// All functions are pure: state goes in, state comes out, and undefined
// regions surface as errors wrapping [ErrInvalidState] rather than NaN.
package model
