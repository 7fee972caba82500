package fit

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRegionTooSmall marks an *InvalidModelInputError caused by the fit
// region of one model, too few bins for its parameters or none left after
// the region policy, while other models may still have enough.
var ErrRegionTooSmall = errors.New("fit region too small for the model")

// FitConvergenceError reports that a single model's solve did not converge
// within its bounds, guess and solver limits. The multi-model orchestrator
// recovers from it by dropping that model from the candidate set.
type FitConvergenceError struct {
	Model  ModelName
	Reason string
	Err    error
}

func (e *FitConvergenceError) Error() string {
	msg := fmt.Sprintf("fit %s did not converge: %s", e.Model, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FitConvergenceError) Unwrap() error { return e.Err }

// InvalidModelInputError reports input that no model can be fitted to: a
// missing summary record for a moment-based guess, a histogram without
// positive-density bins, and similar. It is never recovered internally,
// except when it wraps ErrRegionTooSmall for an optional candidate.
type InvalidModelInputError struct {
	Model  ModelName
	Reason string
	Err    error
}

func (e *InvalidModelInputError) Error() string {
	msg := "invalid input"
	if e.Model != "" {
		msg += " for " + string(e.Model)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidModelInputError) Unwrap() error { return e.Err }

// NoCandidateFitError reports that every candidate model failed for one
// histogram. Failures lists each attempted candidate with its error.
type NoCandidateFitError struct {
	Failures []Candidate
}

func (e *NoCandidateFitError) Error() string {
	if len(e.Failures) == 0 {
		return "no candidate fit: candidate set is empty"
	}
	parts := make([]string, 0, len(e.Failures))
	for _, c := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s (%v)", c.Name, c.Err))
	}
	return "no candidate fit: " + strings.Join(parts, "; ")
}

func convergenceErr(name ModelName, reason string, err error) error {
	return &FitConvergenceError{Model: name, Reason: reason, Err: err}
}

func invalidInputErr(name ModelName, reason string, err error) error {
	return &InvalidModelInputError{Model: name, Reason: reason, Err: err}
}
