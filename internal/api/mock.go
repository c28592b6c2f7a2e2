package api

import (
	"context"
	"net/http"
	"sync"
)

// InMemoryTransport is a lightweight simulation of the Rick and Morty API.
// Bodies are served verbatim per path, sufficient for unit testing cache logic.
type InMemoryTransport struct {
	mu         sync.Mutex
	bodies     map[string][]byte
	images     map[string][]byte
	failures   map[string]error
	RequestLog []RequestLogEntry
}

// RequestLogEntry records a request made to the transport.
type RequestLogEntry struct {
	Path  string
	Image bool
}

// NewInMemoryTransport creates a new in-memory transport for testing.
func NewInMemoryTransport() *InMemoryTransport {
	return &InMemoryTransport{
		bodies:     make(map[string][]byte),
		images:     make(map[string][]byte),
		failures:   make(map[string]error),
		RequestLog: make([]RequestLogEntry, 0),
	}
}

// Seed stores a JSON body for path.
func (t *InMemoryTransport) Seed(path string, body string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bodies[path] = []byte(body)
}

// SeedImage stores an image payload for path.
func (t *InMemoryTransport) SeedImage(path string, data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.images[path] = append([]byte(nil), data...)
}

// Fail makes every request for path return err.
func (t *InMemoryTransport) Fail(path string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[path] = err
}

// RequestsMade returns the number of requests made to this transport.
func (t *InMemoryTransport) RequestsMade() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.RequestLog)
}

// RequestsFor returns the number of requests made for path.
func (t *InMemoryTransport) RequestsFor(path string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, e := range t.RequestLog {
		if e.Path == path {
			n++
		}
	}
	return n
}

// Reset clears all stored bodies and recorded requests.
func (t *InMemoryTransport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bodies = make(map[string][]byte)
	t.images = make(map[string][]byte)
	t.failures = make(map[string]error)
	t.RequestLog = make([]RequestLogEntry, 0)
}

// Get simulates a JSON request.
func (t *InMemoryTransport) Get(ctx context.Context, path string) ([]byte, error) {
	return t.serve(ctx, path, false)
}

// GetImage simulates an image request.
func (t *InMemoryTransport) GetImage(ctx context.Context, path string) ([]byte, error) {
	return t.serve(ctx, path, true)
}

func (t *InMemoryTransport) serve(ctx context.Context, path string, image bool) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Track the call for assertions in unit tests
	t.RequestLog = append(t.RequestLog, RequestLogEntry{Path: path, Image: image})

	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Path: path, Err: err}
	}
	if err, ok := t.failures[path]; ok {
		return nil, err
	}

	store := t.bodies
	if image {
		store = t.images
	}
	body, ok := store[path]
	if !ok {
		return nil, &APIError{Path: path, StatusCode: http.StatusNotFound, Message: "There is nothing here"}
	}
	return append([]byte(nil), body...), nil
}
