package model

import (
	"errors"
	"fmt"
)

// Domain errors for the model equations.
var (
	// ErrInvalidState indicates a step entered a region where the model
	// equations are undefined (vanishing downpayment denominator or a
	// non-finite solution).
	ErrInvalidState = errors.New("model: step entered an undefined region")

	// ErrNoSteadyState indicates the parameters admit no positive fixed point.
	ErrNoSteadyState = errors.New("model: parameters admit no positive steady state")
)

// StepError wraps ErrInvalidState with the inputs that produced it.
type StepError struct {
	Q           float64
	Denominator float64
	Reason      string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s (q=%.6g, denominator=%.6g)", e.Reason, e.Q, e.Denominator)
}

func (e *StepError) Unwrap() error {
	return ErrInvalidState
}

// SteadyStateError wraps ErrNoSteadyState with the offending parameters.
type SteadyStateError struct {
	Params Params
	Reason string
}

func (e *SteadyStateError) Error() string {
	return fmt.Sprintf("%s (R=%g, lambda=%g, eta=%g, a=%g, pi=%g, phi=%g)",
		e.Reason, e.Params.R, e.Params.Lambda, e.Params.Eta, e.Params.A, e.Params.Pi, e.Params.Phi)
}

func (e *SteadyStateError) Unwrap() error {
	return ErrNoSteadyState
}
