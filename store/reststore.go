// ABOUTME: Remote Store backend over a RTDB-style REST API with SSE streaming
// ABOUTME: Bounded retry on transient failures, bearer auth via oauth2 token source
package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// HTTPError is a non-2xx response from the remote store.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("store http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("store http %d", e.StatusCode)
}

// RestStore talks to a remote realtime document store exposing each path at
// {base}/{path}.json. Subscriptions are server-sent event streams carrying
// put/patch deltas; the client folds them into a shadow tree and republishes
// the full collection snapshot on every event, preserving arrival order.
type RestStore struct {
	baseURL    string
	tokens     oauth2.TokenSource
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewRestStore creates a remote store client. tokens may be nil for
// unauthenticated stores.
func NewRestStore(baseURL string, tokens oauth2.TokenSource, httpClient *http.Client) *RestStore {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &RestStore{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: httpClient,
		maxRetries: 3,
		baseDelay:  100 * time.Millisecond,
		maxDelay:   2 * time.Second,
	}
}

func (s *RestStore) Create(path string, body any) (string, error) {
	segs, err := splitPath(path)
	if err != nil {
		return "", err
	}
	value, err := toValue(body)
	if err != nil {
		return "", err
	}
	record, ok := value.(map[string]any)
	if !ok {
		return "", fmt.Errorf("record body must be an object")
	}

	var created struct {
		Name string `json:"name"`
	}
	if err := s.doJSON(http.MethodPost, strings.Join(segs, "/"), record, &created); err != nil {
		return "", err
	}
	if created.Name == "" {
		return "", fmt.Errorf("store did not assign a key for %s", path)
	}

	record["id"] = created.Name
	if err := s.doJSON(http.MethodPut, strings.Join(append(segs, created.Name), "/"), record, nil); err != nil {
		return "", err
	}
	return created.Name, nil
}

func (s *RestStore) Write(path string, body any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	return s.doJSON(http.MethodPut, strings.Join(segs, "/"), body, nil)
}

func (s *RestStore) Patch(path string, fields map[string]any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	return s.doJSON(http.MethodPatch, strings.Join(segs, "/"), fields, nil)
}

func (s *RestStore) Remove(path string) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	return s.doJSON(http.MethodDelete, strings.Join(segs, "/"), nil, nil)
}

func (s *RestStore) ReadOnce(path string) (Snapshot, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	var node any
	if err := s.doJSON(http.MethodGet, strings.Join(segs, "/"), nil, &node); err != nil {
		return nil, err
	}
	if node == nil {
		return nil, nil
	}
	return snapshotOf(node)
}

func (s *RestStore) Subscribe(path string, fn func(Snapshot)) (func(), error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, fmt.Errorf("subscribe callback is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	var once sync.Once
	release := func() {
		once.Do(cancel)
	}

	go s.stream(ctx, strings.Join(segs, "/"), fn)
	return release, nil
}

// stream maintains one SSE connection for the subscribed path, folding
// put/patch events into a shadow tree and emitting the resulting snapshot
// after each event. It reconnects with backoff until the context ends.
func (s *RestStore) stream(ctx context.Context, path string, fn func(Snapshot)) {
	shadow := map[string]any{}
	delay := s.baseDelay
	for {
		if ctx.Err() != nil {
			return
		}
		err := s.streamOnce(ctx, path, shadow, fn)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if delay < s.maxDelay {
				delay *= 2
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}
		delay = s.baseDelay
	}
}

type streamEvent struct {
	Path string          `json:"path"`
	Data json.RawMessage `json:"data"`
}

func (s *RestStore) streamOnce(ctx context.Context, path string, shadow map[string]any, fn func(Snapshot)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+path+".json", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	if err := s.authorize(req); err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &HTTPError{StatusCode: resp.StatusCode}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)
	var eventName, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "":
			if eventName == "put" || eventName == "patch" {
				if err := applyStreamEvent(shadow, eventName, data); err != nil {
					return err
				}
				snap, err := snapshotOf(shadow)
				if err != nil {
					return err
				}
				if ctx.Err() != nil {
					return nil
				}
				fn(snap)
			}
			eventName, data = "", ""
		}
	}
	return scanner.Err()
}

// applyStreamEvent folds one put/patch delta into the shadow tree. The
// event path is relative to the subscribed collection; "/" replaces the
// whole tree.
func applyStreamEvent(shadow map[string]any, eventName, data string) error {
	var ev streamEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		return fmt.Errorf("malformed stream event: %w", err)
	}
	var value any
	if len(ev.Data) > 0 {
		if err := json.Unmarshal(ev.Data, &value); err != nil {
			return fmt.Errorf("malformed stream payload: %w", err)
		}
	}

	rel := strings.Trim(ev.Path, "/")
	if rel == "" {
		for k := range shadow {
			delete(shadow, k)
		}
		if m, ok := value.(map[string]any); ok {
			for k, v := range m {
				shadow[k] = v
			}
		}
		return nil
	}

	segs := strings.Split(rel, "/")
	switch eventName {
	case "put":
		if value == nil {
			deleteIn(shadow, segs)
		} else {
			setIn(shadow, segs, value)
		}
	case "patch":
		fields, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("patch payload must be an object")
		}
		mergeIn(shadow, segs, fields)
	}
	return nil
}

func (s *RestStore) authorize(req *http.Request) error {
	if s.tokens == nil {
		return nil
	}
	tok, err := s.tokens.Token()
	if err != nil {
		return fmt.Errorf("failed to fetch store token: %w", err)
	}
	tok.SetAuthHeader(req)
	return nil
}

func (s *RestStore) doJSON(method, path string, body, out any) error {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}
	for attempt := 0; ; attempt++ {
		var bodyReader io.Reader
		if bodyBytes != nil {
			bodyReader = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequest(method, s.baseURL+"/"+path+".json", bodyReader)
		if err != nil {
			return err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if err := s.authorize(req); err != nil {
			return err
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			if attempt < s.maxRetries {
				time.Sleep(s.retryDelay(attempt + 1))
				continue
			}
			return err
		}
		payload, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return readErr
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			if out == nil || len(payload) == 0 {
				return nil
			}
			return json.Unmarshal(payload, out)
		}

		if (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500) && attempt < s.maxRetries {
			time.Sleep(s.retryDelay(attempt + 1))
			continue
		}

		return &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(payload)),
		}
	}
}

func (s *RestStore) retryDelay(attempt int) time.Duration {
	delay := s.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= s.maxDelay {
			return s.maxDelay
		}
	}
	return delay
}

// StaticToken returns a token source for a fixed bearer token, the common
// case for database-secret style credentials.
func StaticToken(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}
