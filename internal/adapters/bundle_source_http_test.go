package adapters

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundleSourceHTTPAdapterFetch(t *testing.T) {
	var agents atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents.Store(r.Header.Get("User-Agent"))
		if r.URL.Path != "/core/sdlc-enforcer.md" {
			http.NotFound(w, r)
			return
		}
		_, _ = fmt.Fprint(w, "---\nname: sdlc-enforcer\n---\nbody\n")
	}))
	defer server.Close()

	adapter := NewBundleSourceHTTPAdapter(5, 0)
	body, err := adapter.Fetch(t.Context(), server.URL+"/core/sdlc-enforcer.md")
	require.NoError(t, err)
	assert.Contains(t, string(body), "name: sdlc-enforcer")
	assert.Equal(t, bundleUserAgent, agents.Load())

	_, err = adapter.Fetch(t.Context(), server.URL+"/sdlc/sdlc-enforcer.md")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
	assert.Contains(t, err.Error(), "bundle download failed")
}

func TestBundleSourceHTTPAdapterRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	adapter := NewBundleSourceHTTPAdapter(5, 2)
	adapter.RetryDelay = time.Millisecond
	body, err := adapter.Fetch(t.Context(), server.URL+"/a.md")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int64(3), calls.Load())
}

func TestBundleSourceHTTPAdapterDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	adapter := NewBundleSourceHTTPAdapter(5, 3)
	adapter.RetryDelay = time.Millisecond
	_, err := adapter.Fetch(t.Context(), server.URL+"/a.md")
	require.Error(t, err)
	assert.Equal(t, int64(1), calls.Load())
}

func TestBundleSourceHTTPAdapterTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	adapter := NewBundleSourceHTTPAdapter(5, 0)
	adapter.Timeout = 50 * time.Millisecond
	start := time.Now()
	_, err := adapter.Fetch(t.Context(), server.URL+"/slow.md")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestBundleSourceHTTPAdapterRejectsOversizedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, strings.Repeat("x", maxBundleBytes+10))
	}))
	defer server.Close()

	_, err := NewBundleSourceHTTPAdapter(5, 0).Fetch(t.Context(), server.URL+"/big.md")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}
