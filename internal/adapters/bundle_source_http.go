package adapters

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"agent-bundles/internal/ports"
	"agent-bundles/internal/shared"
)

const defaultFetchTimeout = 30 * time.Second
const defaultFetchRetries = 2
const defaultFetchRetryDelay = 250 * time.Millisecond
const maxFetchRetryDelay = 2 * time.Second
const maxBundleBytes = 1 << 20
const bundleUserAgent = "agent-bundles/1.0"

// BundleSourceHTTPAdapter fetches bundle bodies with plain GET requests.
// Retries inside one call only cover 5xx and 429 responses and network
// errors; a 404 moves the caller on to the next location immediately.
type BundleSourceHTTPAdapter struct {
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
	Client     *http.Client
}

var _ ports.BundleSourcePort = BundleSourceHTTPAdapter{}

func NewBundleSourceHTTPAdapter(timeoutSec int, retries int) BundleSourceHTTPAdapter {
	return BundleSourceHTTPAdapter{
		Timeout:    normalizeFetchTimeout(timeoutSec),
		Retries:    normalizeFetchRetries(retries),
		RetryDelay: defaultFetchRetryDelay,
	}
}

func (a BundleSourceHTTPAdapter) Fetch(ctx context.Context, url string) ([]byte, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("bundle url is empty")
	}
	attempts := a.Retries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, retry, err := a.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || attempt == attempts-1 {
			break
		}
		delay := a.retryDelay(attempt)
		log.Debug().Str("url", url).Int("attempt", attempt+1).Dur("delay", delay).Err(err).Msg("retrying bundle fetch")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

func (a BundleSourceHTTPAdapter) fetchOnce(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to create bundle request").
			WithCause(err)
	}
	req.Header.Set("User-Agent", bundleUserAgent)
	req.Header.Set("Accept", "text/markdown, text/plain;q=0.9, */*;q=0.1")
	resp, err := a.client().Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("bundle request failed").
			WithCause(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		retry := resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests
		code := errbuilder.CodeInternal
		if resp.StatusCode == http.StatusNotFound {
			code = errbuilder.CodeNotFound
		}
		return nil, retry, errbuilder.New().
			WithCode(code).
			WithMsg("bundle download failed").
			WithCause(shared.HTTPStatusErrorWithBody(resp.StatusCode, url, strings.TrimSpace(string(snippet))))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBundleBytes+1))
	if err != nil {
		return nil, true, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read bundle body").
			WithCause(err)
	}
	if len(body) > maxBundleBytes {
		return nil, false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("bundle body exceeds 1MiB").
			WithCause(shared.HTTPStatusError(resp.StatusCode, url))
	}
	return body, false, nil
}

func (a BundleSourceHTTPAdapter) client() *http.Client {
	if a.Client != nil {
		return a.Client
	}
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &http.Client{Timeout: timeout}
}

func (a BundleSourceHTTPAdapter) retryDelay(attempt int) time.Duration {
	base := a.RetryDelay
	if base <= 0 {
		base = defaultFetchRetryDelay
	}
	delay := base * time.Duration(1<<attempt)
	if delay > maxFetchRetryDelay {
		delay = maxFetchRetryDelay
	}
	jitter := time.Duration(time.Now().UnixNano() % int64(delay/2+1))
	return delay + jitter
}

func normalizeFetchTimeout(value int) time.Duration {
	timeout := time.Duration(value) * time.Second
	if timeout <= 0 {
		return defaultFetchTimeout
	}
	return timeout
}

func normalizeFetchRetries(value int) int {
	if value < 0 {
		return defaultFetchRetries
	}
	return value
}
