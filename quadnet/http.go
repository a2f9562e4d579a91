package quadnet

import (
	"bytes"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quadkit/quadhost/errors"
)

// RequestID identifies one in-flight or completed HTTP request to the
// guest. Ids are never reused within a client's lifetime.
type RequestID uint32

// Response is the resolved outcome of one request. Failed responses carry
// an empty body; the guest sees resolution either way, distinct from a
// still-pending poll.
type Response struct {
	Body   []byte
	Status int
	Failed bool
}

type pendingSlot struct {
	resp Response
	done bool
}

// Client runs guest-initiated HTTP requests on host goroutines and parks
// each outcome in a pollable slot consumed exactly once.
type Client struct {
	http *http.Client
	log  *zap.Logger

	mu      sync.Mutex
	pending map[RequestID]*pendingSlot
	next    RequestID
}

// NewClient creates a client with a conservative request timeout. The
// guest layers its own timeouts above the poll surface if it needs them.
func NewClient(log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
		pending: make(map[RequestID]*pendingSlot),
		next:    1,
	}
}

// MakeRequest starts an HTTP request and returns its id immediately. The
// body slice is copied before the call returns, so guest memory backing
// it may be reused. Every failure path resolves the slot as failed and
// empty; nothing is ever thrown back to the caller.
func (c *Client) MakeRequest(method, url string, body []byte, headers map[string]string) RequestID {
	c.mu.Lock()
	id := c.next
	c.next++
	slot := &pendingSlot{}
	c.pending[id] = slot
	c.mu.Unlock()

	corr := uuid.NewString()
	c.log.Debug("http request started",
		zap.Uint32("id", uint32(id)),
		zap.String("correlation", corr),
		zap.String("method", method),
		zap.String("url", url))

	payload := make([]byte, len(body))
	copy(payload, body)

	go func() {
		resp := c.run(method, url, payload, headers, corr)
		c.mu.Lock()
		slot.resp = resp
		slot.done = true
		c.mu.Unlock()
	}()
	return id
}

func (c *Client) run(method, url string, body []byte, headers map[string]string, corr string) Response {
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		c.log.Error("http request invalid",
			zap.String("correlation", corr),
			zap.Error(errors.AsyncFailed(errors.PhaseNet, "http request", err)))
		return Response{Failed: true}
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	res, err := c.http.Do(req)
	if err != nil {
		c.log.Error("http request failed",
			zap.String("correlation", corr),
			zap.Error(errors.AsyncFailed(errors.PhaseNet, "http request", err)))
		return Response{Failed: true}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		c.log.Error("http response read failed",
			zap.String("correlation", corr),
			zap.Error(errors.AsyncFailed(errors.PhaseNet, "http response", err)))
		return Response{Status: res.StatusCode, Failed: true}
	}

	c.log.Debug("http request resolved",
		zap.String("correlation", corr),
		zap.Int("status", res.StatusCode),
		zap.Int("len", len(data)))
	return Response{Body: data, Status: res.StatusCode}
}

// TryRecv polls request id. While the request is in flight it returns
// false; the first poll after resolution returns the response and frees
// the slot, and every later poll returns false again. Polling an id that
// was never issued is an invalid-handle diagnostic.
func (c *Client) TryRecv(id RequestID) (Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, ok := c.pending[id]
	if !ok {
		// Consumed ids keep answering empty; ids never issued are a
		// guest bug worth a diagnostic.
		if id == 0 || id >= c.next {
			c.log.Warn("invalid request handle", zap.Uint32("id", uint32(id)))
		}
		return Response{}, false
	}
	if !slot.done {
		return Response{}, false
	}
	delete(c.pending, id)
	return slot.resp, true
}

// Pending returns the number of unresolved or unconsumed slots.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
