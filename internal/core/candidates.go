package core

import "errors"

// ErrStopCandidates aborts a FirstSuccess walk. The candidate that returned it
// is still recorded as an attempt.
var ErrStopCandidates = errors.New("candidate search stopped")

type Attempt[T any] struct {
	Candidate T
	Err       error
}

type Outcome[T any, R any] struct {
	Value    R
	Winner   T
	Found    bool
	Attempts []Attempt[T]
}

// FirstSuccess tries candidates in order and returns the first value produced
// without error. Every rejected candidate is kept in Attempts, in order.
func FirstSuccess[T any, R any](candidates []T, try func(T) (R, error)) Outcome[T, R] {
	var out Outcome[T, R]
	for _, candidate := range candidates {
		value, err := try(candidate)
		if err == nil {
			out.Value = value
			out.Winner = candidate
			out.Found = true
			return out
		}
		out.Attempts = append(out.Attempts, Attempt[T]{Candidate: candidate, Err: err})
		if errors.Is(err, ErrStopCandidates) {
			return out
		}
	}
	return out
}
