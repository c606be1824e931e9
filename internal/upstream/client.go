package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"storefront-gateway/internal/domain"
)

// StateWiper clears all persisted state for a session. The client calls it
// when the upstream reports the session is no longer valid.
type StateWiper interface {
	Clear(ctx context.Context, sessionID string) error
}

// Options shape a single upstream call.
type Options struct {
	Method string
	Body   []byte
	Header http.Header
	// Cookie is the browser's Cookie header, forwarded verbatim.
	Cookie string
	// SessionID identifies the gateway session whose stores are wiped on 401.
	SessionID string
	// IdempotencyKey, when set, collapses duplicate submissions: while a call
	// with this key is in flight, and for the dedupe window after it settles,
	// calls with the same key get the first call's reply without touching the
	// upstream.
	IdempotencyKey string
}

// Response is the raw upstream reply. Non-2xx statuses are data, not errors;
// proxy routes relay them verbatim.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Kind maps the session-relevant statuses to their typed errors. The original
// storefront conflated all three into one storage wipe; here only 401
// invalidates the session and the caller can tell the kinds apart.
func (r *Response) Kind() error {
	switch r.StatusCode {
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusPaymentRequired:
		return domain.ErrPaymentRequired
	case http.StatusUnprocessableEntity:
		return domain.ErrUnprocessable
	default:
		return nil
	}
}

// cachedReply tracks one keyed submission from reservation to expiry. at is
// zero while the owner's request is still in flight; done closes once the
// outcome is published.
type cachedReply struct {
	done chan struct{}
	at   time.Time
	resp *Response
	err  error
}

// Client is the single chokepoint for outbound calls to the commerce backend.
// One attempt per call, no retries; timeouts come from the request context
// and the underlying http.Client.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *log.Logger
	wiper   StateWiper

	mu     sync.Mutex
	recent map[string]*cachedReply
	window time.Duration
}

const defaultDedupeWindow = 10 * time.Second

// New builds a Client against baseURL. wiper may be nil.
func New(baseURL string, timeout time.Duration, logger *log.Logger, wiper StateWiper) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
		wiper:   wiper,
		recent:  make(map[string]*cachedReply),
		window:  defaultDedupeWindow,
	}
}

// Do issues one call against the configured base URL, merging default JSON
// headers with caller-supplied ones. Network failures are returned as errors;
// every HTTP response, whatever its status, is returned as a Response.
// Keyed submissions are collapsed: the first caller for a key issues the
// request, duplicates get its reply.
func (c *Client) Do(ctx context.Context, endpoint string, opts Options) (*Response, error) {
	if opts.IdempotencyKey == "" {
		return c.roundTrip(ctx, endpoint, opts)
	}

	entry, owner := c.reserve(opts.IdempotencyKey)
	if !owner {
		c.logger.Printf("dedupe hit for idempotency key %s", opts.IdempotencyKey)
		<-entry.done
		if entry.err != nil {
			return nil, entry.err
		}
		resp := *entry.resp
		return &resp, nil
	}

	resp, err := c.roundTrip(ctx, endpoint, opts)
	c.settle(opts.IdempotencyKey, entry, resp, err)
	return resp, err
}

func (c *Client) roundTrip(ctx context.Context, endpoint string, opts Options) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(opts.Body) > 0 {
		body = bytes.NewReader(opts.Body)
	}

	url := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, endpoint, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, vs := range opts.Header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if opts.Cookie != "" {
		req.Header.Set("Cookie", opts.Cookie)
	}
	if opts.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", opts.IdempotencyKey)
	}

	httpResp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream %s %s: %w", method, endpoint, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream body %s %s: %w", method, endpoint, err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header.Clone(),
		Body:       respBody,
	}

	if errors.Is(resp.Kind(), domain.ErrUnauthorized) {
		c.wipeSession(ctx, opts.SessionID)
	}

	return resp, nil
}

func (c *Client) wipeSession(ctx context.Context, sessionID string) {
	if c.wiper == nil || sessionID == "" {
		return
	}
	if err := c.wiper.Clear(ctx, sessionID); err != nil {
		c.logger.Printf("clear session %s after 401: %v", sessionID, err)
	}
}

// reserve claims an idempotency key. The first caller becomes the owner and
// issues the request; anyone else arriving while the entry is live waits for
// the owner's outcome instead of reaching the upstream.
func (c *Client) reserve(key string) (*cachedReply, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, entry := range c.recent {
		if !entry.at.IsZero() && time.Since(entry.at) > c.window {
			delete(c.recent, k)
		}
	}
	if entry, ok := c.recent[key]; ok {
		return entry, false
	}
	entry := &cachedReply{done: make(chan struct{})}
	c.recent[key] = entry
	return entry, true
}

// settle publishes the owner's outcome to any waiters. A transport failure
// releases the key immediately so a retry reaches the upstream.
func (c *Client) settle(key string, entry *cachedReply, resp *Response, err error) {
	c.mu.Lock()
	entry.resp = resp
	entry.err = err
	entry.at = time.Now()
	if err != nil {
		delete(c.recent, key)
	}
	c.mu.Unlock()
	close(entry.done)
}
