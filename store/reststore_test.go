// ABOUTME: Tests for the REST store backend using httptest servers
// ABOUTME: Covers key allocation, retries, error typing, and stream folding
package store

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFastRestStore(baseURL string) *RestStore {
	s := NewRestStore(baseURL, nil, &http.Client{Timeout: 2 * time.Second})
	s.baseDelay = time.Millisecond
	s.maxDelay = 5 * time.Millisecond
	return s
}

func TestRestStoreCreateAllocatesKeyAndEchoesID(t *testing.T) {
	var putBody map[string]any
	var putPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "/clients.json", r.URL.Path)
			_, _ = w.Write([]byte(`{"name":"-Nabc123"}`))
		case http.MethodPut:
			putPath = r.URL.Path
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &putBody))
			_, _ = w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer srv.Close()

	s := newFastRestStore(srv.URL)
	key, err := s.Create("clients", map[string]any{"name": "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "-Nabc123", key)
	assert.Equal(t, "/clients/-Nabc123.json", putPath)
	assert.Equal(t, "-Nabc123", putBody["id"])
	assert.Equal(t, "Acme", putBody["name"])
}

func TestRestStoreAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`null`))
	}))
	defer srv.Close()

	s := NewRestStore(srv.URL, StaticToken("sekret"), nil)
	_, err := s.ReadOnce("users")
	require.NoError(t, err)
	assert.Equal(t, "Bearer sekret", gotAuth)
}

func TestRestStoreRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	s := newFastRestStore(srv.URL)
	err := s.Patch("opportunities/o1", map[string]any{"status": "proposal"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRestStoreTypedHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`permission denied`))
	}))
	defer srv.Close()

	s := newFastRestStore(srv.URL)
	err := s.Remove("clients/c1")
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
	assert.Contains(t, httpErr.Message, "permission denied")
}

func TestRestStoreReadOnceAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	defer srv.Close()

	s := newFastRestStore(srv.URL)
	snap, err := s.ReadOnce("projects")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestApplyStreamEventRootPut(t *testing.T) {
	shadow := map[string]any{"stale": map[string]any{"id": "stale"}}
	err := applyStreamEvent(shadow, "put", `{"path":"/","data":{"c1":{"id":"c1","name":"Acme"}}}`)
	require.NoError(t, err)
	assert.NotContains(t, shadow, "stale", "root put replaces the whole tree")
	require.Contains(t, shadow, "c1")
}

func TestApplyStreamEventChildPutAndDelete(t *testing.T) {
	shadow := map[string]any{}
	require.NoError(t, applyStreamEvent(shadow, "put", `{"path":"/c1","data":{"id":"c1","name":"Acme"}}`))
	require.Contains(t, shadow, "c1")

	require.NoError(t, applyStreamEvent(shadow, "put", `{"path":"/c1","data":null}`))
	assert.NotContains(t, shadow, "c1", "null payload deletes the node")
}

func TestApplyStreamEventPatch(t *testing.T) {
	shadow := map[string]any{
		"o1": map[string]any{"id": "o1", "title": "Deal", "status": "lead"},
	}
	require.NoError(t, applyStreamEvent(shadow, "patch", `{"path":"/o1","data":{"status":"proposal"}}`))
	record := shadow["o1"].(map[string]any)
	assert.Equal(t, "proposal", record["status"])
	assert.Equal(t, "Deal", record["title"])
}

func TestApplyStreamEventMalformed(t *testing.T) {
	shadow := map[string]any{}
	assert.Error(t, applyStreamEvent(shadow, "put", `not json`))
}
