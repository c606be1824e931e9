package upstream

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storefront-gateway/internal/domain"
)

type recordingWiper struct {
	mu       sync.Mutex
	sessions []string
}

func (w *recordingWiper) Clear(_ context.Context, sessionID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sessions = append(w.sessions, sessionID)
	return nil
}

func (w *recordingWiper) cleared() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.sessions...)
}

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestDoMergesHeadersAndForwardsCookie(t *testing.T) {
	var gotHeader http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, logDiscard(), nil)
	resp, err := client.Do(context.Background(), "/cart", Options{
		Cookie: "guest_token=abc; _session_id=xyz",
		Header: http.Header{"Accept": []string{"application/vnd.api+json"}},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !resp.OK() {
		t.Fatalf("expected 2xx, got %d", resp.StatusCode)
	}
	if got := gotHeader.Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected default content type, got %q", got)
	}
	if got := gotHeader.Get("Accept"); got != "application/vnd.api+json" {
		t.Fatalf("expected caller header to win, got %q", got)
	}
	if got := gotHeader.Get("Cookie"); got != "guest_token=abc; _session_id=xyz" {
		t.Fatalf("cookie not forwarded verbatim: %q", got)
	}
}

func TestDoWipesSessionOn401Only(t *testing.T) {
	status := http.StatusUnauthorized
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	wiper := &recordingWiper{}
	client := New(srv.URL, time.Second, logDiscard(), wiper)

	resp, err := client.Do(context.Background(), "/api/orders/current", Options{SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !errors.Is(resp.Kind(), domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized kind, got %v", resp.Kind())
	}
	if got := wiper.cleared(); len(got) != 1 || got[0] != "sess-1" {
		t.Fatalf("expected one wipe for sess-1, got %v", got)
	}

	// 422 is a validation failure, not a session problem: no wipe.
	status = http.StatusUnprocessableEntity
	resp, err = client.Do(context.Background(), "/api/checkouts/R1", Options{SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !errors.Is(resp.Kind(), domain.ErrUnprocessable) {
		t.Fatalf("expected unprocessable kind, got %v", resp.Kind())
	}
	if got := wiper.cleared(); len(got) != 1 {
		t.Fatalf("422 must not wipe the session, wipes: %v", got)
	}

	// Same for 402.
	status = http.StatusPaymentRequired
	resp, err = client.Do(context.Background(), "/api/checkouts/R1", Options{SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !errors.Is(resp.Kind(), domain.ErrPaymentRequired) {
		t.Fatalf("expected payment required kind, got %v", resp.Kind())
	}
	if got := wiper.cleared(); len(got) != 1 {
		t.Fatalf("402 must not wipe the session, wipes: %v", got)
	}
}

func TestDoRelaysNon2xxWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"missing"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, logDiscard(), nil)
	resp, err := client.Do(context.Background(), "/api/products/999", Options{})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 relayed, got %d", resp.StatusCode)
	}
	if string(resp.Body) != `{"error":"missing"}` {
		t.Fatalf("body not preserved: %s", resp.Body)
	}
}

func TestDoDedupesIdempotencyKeyWithinWindow(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("Idempotency-Key") == "" {
			t.Error("expected idempotency key header")
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"state":"delivery"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, logDiscard(), nil)
	opts := Options{Method: http.MethodPatch, IdempotencyKey: "key-1"}

	first, err := client.Do(context.Background(), "/api/checkouts/R1", opts)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	second, err := client.Do(context.Background(), "/api/checkouts/R1", opts)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	if hits != 1 {
		t.Fatalf("expected a single upstream hit, got %d", hits)
	}
	if string(first.Body) != string(second.Body) {
		t.Fatalf("cached reply mismatch: %s vs %s", first.Body, second.Body)
	}

	// A fresh key goes through.
	if _, err := client.Do(context.Background(), "/api/checkouts/R1", Options{Method: http.MethodPatch, IdempotencyKey: "key-2"}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if hits != 2 {
		t.Fatalf("expected a second upstream hit, got %d", hits)
	}
}

func TestDoCollapsesConcurrentDuplicates(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(`{"state":"delivery"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, logDiscard(), nil)
	opts := Options{Method: http.MethodPatch, IdempotencyKey: "key-1"}

	var wg sync.WaitGroup
	results := make([]*Response, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := client.Do(context.Background(), "/api/checkouts/R1", opts)
			if err != nil {
				t.Errorf("Do: %v", err)
				return
			}
			results[i] = resp
		}(i)
	}
	wg.Wait()

	// The second caller must wait for the in-flight owner, not race it.
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected a single upstream hit, got %d", got)
	}
	if results[0] == nil || results[1] == nil || string(results[0].Body) != string(results[1].Body) {
		t.Fatalf("reply mismatch: %v vs %v", results[0], results[1])
	}
}

func TestDoReturnsErrorOnTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close() // refuse connections

	client := New(srv.URL, time.Second, logDiscard(), nil)
	if _, err := client.Do(context.Background(), "/cart", Options{}); err == nil {
		t.Fatal("expected transport error")
	}
}
