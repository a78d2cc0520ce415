package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"agent-bundles/internal/policies"
	"agent-bundles/internal/ports"
	"agent-bundles/internal/types"
)

const DefaultMaxWorkers = 3

const (
	OutcomeSuccess   = "success"
	OutcomeTransport = string(types.FetchErrorTransport)
	OutcomeContent   = string(types.FetchErrorContent)
)

// FetchValidator downloads bundles from their resolved locations and keeps
// the first body that passes ValidateBundle.
type FetchValidator struct {
	Source   ports.BundleSourcePort
	Observer ports.FetchObserver
	Strict   bool
	Clock    func() time.Time
}

type fetchError struct {
	kind types.FetchErrorKind
	err  error
}

func (e *fetchError) Error() string {
	return e.err.Error()
}

func (e *fetchError) Unwrap() error {
	return e.err
}

func NewFetchValidator(source ports.BundleSourcePort, strict bool) FetchValidator {
	return FetchValidator{Source: source, Strict: strict}
}

func (v FetchValidator) WithObserver(observer ports.FetchObserver) FetchValidator {
	v.Observer = observer
	return v
}

// DownloadBatch fetches every item and returns one result per item in input
// order, whatever order the workers finish in. Once ctx is cancelled the
// remaining items fail with a cancelled attempt and no network call.
func (v FetchValidator) DownloadBatch(ctx context.Context, items []types.FetchItem, opts types.FetchOptions) []types.FetchResult {
	results := make([]types.FetchResult, len(items))
	if len(items) == 0 {
		return results
	}
	workerCount := normalizeMaxWorkers(opts.MaxWorkers)
	if !opts.Parallel {
		workerCount = 1
	}
	if len(items) < workerCount {
		workerCount = len(items)
	}

	var done atomic.Int64
	tasks := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range tasks {
				results[idx] = v.fetchOne(ctx, items[idx])
				finished := done.Add(1)
				log.Info().
					Str("bundle", items[idx].Bundle).
					Bool("success", results[idx].Success).
					Msgf("[%d/%d] fetched", finished, len(items))
			}
		}()
	}
	for idx := range items {
		tasks <- idx
	}
	close(tasks)
	wg.Wait()
	return results
}

func (v FetchValidator) fetchOne(ctx context.Context, item types.FetchItem) types.FetchResult {
	result := types.FetchResult{Bundle: item.Bundle, Gateway: item.Gateway}
	candidates := item.Location.Candidates()
	if len(candidates) == 0 {
		result.Errors = []string{"no candidate locations for " + item.Bundle}
		v.observeBundle(result)
		return result
	}

	outcome := FirstSuccess(candidates, func(url string) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, &fetchError{kind: types.FetchErrorCancelled, err: fmt.Errorf("%w: %v", ErrStopCandidates, err)}
		}
		start := v.now()
		body, err := v.Source.Fetch(ctx, url)
		if err != nil {
			v.observeAttempt(item.Bundle, OutcomeTransport, start)
			log.Debug().Str("bundle", item.Bundle).Str("url", url).Err(err).Msg("fetch failed")
			if ctx.Err() != nil {
				return nil, &fetchError{kind: types.FetchErrorCancelled, err: fmt.Errorf("%w: %v", ErrStopCandidates, err)}
			}
			return nil, &fetchError{kind: types.FetchErrorTransport, err: err}
		}
		if err := ValidateBundle(item.Bundle, body, v.Strict); err != nil {
			v.observeAttempt(item.Bundle, OutcomeContent, start)
			log.Debug().Str("bundle", item.Bundle).Str("url", url).Err(err).Msg("fetched bundle is malformed")
			return nil, &fetchError{kind: types.FetchErrorContent, err: err}
		}
		v.observeAttempt(item.Bundle, OutcomeSuccess, start)
		return body, nil
	})

	for _, attempt := range outcome.Attempts {
		kind := types.FetchErrorTransport
		var fe *fetchError
		if errors.As(attempt.Err, &fe) {
			kind = fe.kind
		}
		message := fmt.Sprintf("%s: %s: %v", kind, attempt.Candidate, attempt.Err)
		result.Attempts = append(result.Attempts, types.FetchAttempt{
			URL:   attempt.Candidate,
			Kind:  kind,
			Error: attempt.Err.Error(),
		})
		result.Errors = append(result.Errors, message)
	}
	if outcome.Found {
		result.Success = true
		result.ResolvedLocation = outcome.Winner
		result.Content = outcome.Value
		result.Errors = nil
	}
	v.observeBundle(result)
	return result
}

func (v FetchValidator) observeAttempt(bundle string, outcome string, start time.Time) {
	if v.Observer == nil {
		return
	}
	v.Observer.ObserveAttempt(bundle, outcome, v.now().Sub(start))
}

func (v FetchValidator) observeBundle(result types.FetchResult) {
	if v.Observer == nil {
		return
	}
	v.Observer.ObserveBundle(result.Bundle, result.Gateway, result.Success)
}

func (v FetchValidator) now() time.Time {
	if v.Clock != nil {
		return v.Clock()
	}
	return time.Now()
}

func normalizeMaxWorkers(value int) int {
	if value <= 0 {
		return DefaultMaxWorkers
	}
	return value
}

// ClassifyFailures splits failed results into gateway failures, which are
// fatal, and warnings that carry a substitute suggestion.
func ClassifyFailures(results []types.FetchResult, policy policies.SelectionPolicy) (fatal []types.BundleFailure, warnings []types.BundleFailure) {
	for _, result := range results {
		if result.Success {
			continue
		}
		failure := types.BundleFailure{Bundle: result.Bundle, Errors: result.Errors}
		if result.Gateway || policy.IsGateway(result.Bundle) {
			fatal = append(fatal, failure)
			continue
		}
		failure.Substitute = policy.Substitute(result.Bundle)
		warnings = append(warnings, failure)
	}
	return fatal, warnings
}
