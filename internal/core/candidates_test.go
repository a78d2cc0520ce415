package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFirstSuccessReturnsFirstWinner(t *testing.T) {
	var tried []string
	outcome := FirstSuccess([]string{"a", "b", "c"}, func(candidate string) (int, error) {
		tried = append(tried, candidate)
		if candidate == "b" {
			return 2, nil
		}
		return 0, fmt.Errorf("%s failed", candidate)
	})

	require.True(t, outcome.Found)
	require.Equal(t, "b", outcome.Winner)
	require.Equal(t, 2, outcome.Value)
	require.Equal(t, []string{"a", "b"}, tried)
	require.Len(t, outcome.Attempts, 1)
	require.EqualError(t, outcome.Attempts[0].Err, "a failed")
}

func TestFirstSuccessExhaustion(t *testing.T) {
	outcome := FirstSuccess([]int{1, 2, 3}, func(candidate int) (string, error) {
		return "", fmt.Errorf("no %d", candidate)
	})

	require.False(t, outcome.Found)
	require.Len(t, outcome.Attempts, 3)
	for i, attempt := range outcome.Attempts {
		require.Equal(t, i+1, attempt.Candidate)
	}
}

func TestFirstSuccessStops(t *testing.T) {
	calls := 0
	outcome := FirstSuccess([]string{"a", "b"}, func(candidate string) (bool, error) {
		calls++
		return false, fmt.Errorf("halt: %w", ErrStopCandidates)
	})

	require.False(t, outcome.Found)
	require.Equal(t, 1, calls)
	require.True(t, errors.Is(outcome.Attempts[0].Err, ErrStopCandidates))
}

func TestFirstSuccessEmpty(t *testing.T) {
	outcome := FirstSuccess(nil, func(candidate string) (string, error) {
		t.Fatal("try must not be called")
		return "", nil
	})
	require.False(t, outcome.Found)
	require.Empty(t, outcome.Attempts)
}
