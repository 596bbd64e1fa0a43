package ai_services_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"modular-todo/ai_services"
)

// scriptedServer responde com os status de codes, um por chamada; depois do fim repete o último.
func scriptedServer(t *testing.T, codes []int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&calls, 1)) - 1
		if n >= len(codes) {
			n = len(codes) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(codes[n])
		if codes[n] == http.StatusOK {
			io.WriteString(w, body)
		} else {
			io.WriteString(w, `{"error":"busy"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// recordingSleeper guarda as esperas pedidas sem dormir de fato.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func newTestClient(sleeper *recordingSleeper) *ai_services.BackoffClient {
	c := ai_services.NewBackoffClient()
	c.Sleep = sleeper.Sleep
	return c
}

type reply struct {
	Ok bool `json:"ok"`
}

func TestSend_RetriesRateLimitWithDoublingDelay(t *testing.T) {
	srv, calls := scriptedServer(t, []int{429, 429, 200}, `{"ok":true}`)
	sleeper := &recordingSleeper{}

	var got reply
	err := newTestClient(sleeper).Send(context.Background(), srv.URL, map[string]string{"q": "x"}, &got, 5)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if !got.Ok {
		t.Error("expected decoded response")
	}
	if n := atomic.LoadInt32(calls); n != 3 {
		t.Errorf("expected 3 calls, got %d", n)
	}
	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if diff := cmp.Diff(want, sleeper.delays); diff != "" {
		t.Errorf("delays mismatch (-want +got):\n%s", diff)
	}
}

func TestSend_ExhaustsAfterMaxAttempts(t *testing.T) {
	srv, calls := scriptedServer(t, []int{429}, "")
	sleeper := &recordingSleeper{}

	err := newTestClient(sleeper).Send(context.Background(), srv.URL, map[string]string{}, nil, 3)
	if !errors.Is(err, ai_services.ErrExhaustedRetries) {
		t.Fatalf("expected ErrExhaustedRetries, got %v", err)
	}
	if !errors.Is(err, ai_services.ErrRateLimited) {
		t.Errorf("expected last cause to be ErrRateLimited, got %v", err)
	}
	var exhausted *ai_services.ExhaustedError
	if !errors.As(err, &exhausted) || exhausted.Attempts != 3 {
		t.Errorf("expected ExhaustedError with 3 attempts, got %#v", err)
	}
	if n := atomic.LoadInt32(calls); n != 3 {
		t.Errorf("expected exactly 3 calls, got %d", n)
	}
	// Sem espera depois da última tentativa.
	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if diff := cmp.Diff(want, sleeper.delays); diff != "" {
		t.Errorf("delays mismatch (-want +got):\n%s", diff)
	}
}

func TestSend_SingleAttemptNeverSleeps(t *testing.T) {
	srv, calls := scriptedServer(t, []int{503}, "")
	sleeper := &recordingSleeper{}

	err := newTestClient(sleeper).Send(context.Background(), srv.URL, map[string]string{}, nil, 1)
	if !errors.Is(err, ai_services.ErrExhaustedRetries) {
		t.Fatalf("expected ErrExhaustedRetries, got %v", err)
	}
	var statusErr *ai_services.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected StatusError 503 as last cause, got %v", err)
	}
	if n := atomic.LoadInt32(calls); n != 1 {
		t.Errorf("expected 1 call, got %d", n)
	}
	if len(sleeper.delays) != 0 {
		t.Errorf("expected no sleeps, got %v", sleeper.delays)
	}
}

func TestSend_RetriesServerError(t *testing.T) {
	srv, calls := scriptedServer(t, []int{500, 200}, `{"ok":true}`)
	sleeper := &recordingSleeper{}

	var got reply
	if err := newTestClient(sleeper).Send(context.Background(), srv.URL, map[string]string{}, &got, 5); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if n := atomic.LoadInt32(calls); n != 2 {
		t.Errorf("expected 2 calls, got %d", n)
	}
	if diff := cmp.Diff([]time.Duration{time.Second}, sleeper.delays); diff != "" {
		t.Errorf("delays mismatch (-want +got):\n%s", diff)
	}
}

func TestSend_DecodeErrorIsNotRetried(t *testing.T) {
	srv, calls := scriptedServer(t, []int{200}, `not json`)
	sleeper := &recordingSleeper{}

	var got reply
	err := newTestClient(sleeper).Send(context.Background(), srv.URL, map[string]string{}, &got, 5)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if errors.Is(err, ai_services.ErrExhaustedRetries) {
		t.Errorf("decode error should not be reported as exhaustion: %v", err)
	}
	if n := atomic.LoadInt32(calls); n != 1 {
		t.Errorf("expected 1 call, got %d", n)
	}
}

func TestSend_CancelDuringBackoff(t *testing.T) {
	srv, calls := scriptedServer(t, []int{429}, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := ai_services.NewBackoffClient()
	c.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	err := c.Send(ctx, srv.URL, map[string]string{}, nil, 5)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ai_services.ErrExhaustedRetries) {
		t.Errorf("cancellation should not be reported as exhaustion: %v", err)
	}
	if n := atomic.LoadInt32(calls); n != 1 {
		t.Errorf("expected 1 call, got %d", n)
	}
}

func TestSend_SendsJSONBody(t *testing.T) {
	var gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotType = r.Header.Get("Content-Type")
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	err := newTestClient(&recordingSleeper{}).Send(context.Background(), srv.URL, map[string]string{"a": "b"}, nil, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotType != "application/json" {
		t.Errorf("expected application/json, got %q", gotType)
	}
	if gotBody != `{"a":"b"}` {
		t.Errorf("expected body %q, got %q", `{"a":"b"}`, gotBody)
	}
}

// flakyDoer falha com err nas primeiras failures chamadas e depois responde 200 com body.
type flakyDoer struct {
	mu       sync.Mutex
	failures int
	err      error
	body     string
	calls    int
}

func (d *flakyDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.calls <= d.failures {
		return nil, d.err
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(d.body)),
		Request:    req,
	}, nil
}

// brokenBody devolve erro na leitura, como uma conexão que cai no meio da resposta.
type brokenBody struct{}

func (brokenBody) Read([]byte) (int, error) { return 0, errors.New("unexpected EOF") }
func (brokenBody) Close() error { return nil }

type brokenBodyDoer struct{ calls int }

func (d *brokenBodyDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls++
	return &http.Response{StatusCode: http.StatusOK, Body: brokenBody{}, Request: req}, nil
}

func TestSend_RetriesNetworkErrors(t *testing.T) {
	resetErr := errors.New("connection reset by peer")
	doer := &flakyDoer{failures: 2, err: resetErr, body: `{"ok":true}`}
	sleeper := &recordingSleeper{}
	c := newTestClient(sleeper)
	c.HTTP = doer

	var got reply
	if err := c.Send(context.Background(), "http://ai.test/generate", map[string]string{}, &got, 5); err != nil {
		t.Fatalf("expected success after transient errors, got %v", err)
	}
	if !got.Ok {
		t.Error("expected decoded response")
	}
	if doer.calls != 3 {
		t.Errorf("expected 3 calls, got %d", doer.calls)
	}
	if diff := cmp.Diff([]time.Duration{time.Second, 2 * time.Second}, sleeper.delays); diff != "" {
		t.Errorf("delays mismatch (-want +got):\n%s", diff)
	}
}

func TestSend_NetworkErrorsExhaust(t *testing.T) {
	resetErr := errors.New("connection reset by peer")
	doer := &flakyDoer{failures: 10, err: resetErr}
	sleeper := &recordingSleeper{}
	c := newTestClient(sleeper)
	c.HTTP = doer

	err := c.Send(context.Background(), "http://ai.test/generate", map[string]string{}, nil, 3)
	if !errors.Is(err, ai_services.ErrExhaustedRetries) {
		t.Fatalf("expected ErrExhaustedRetries, got %v", err)
	}
	if !errors.Is(err, resetErr) {
		t.Errorf("expected last cause to be the network error, got %v", err)
	}
	if doer.calls != 3 {
		t.Errorf("expected 3 calls, got %d", doer.calls)
	}
}

func TestSend_BodyReadFailureIsRetried(t *testing.T) {
	doer := &brokenBodyDoer{}
	sleeper := &recordingSleeper{}
	c := newTestClient(sleeper)
	c.HTTP = doer

	err := c.Send(context.Background(), "http://ai.test/generate", map[string]string{}, &reply{}, 2)
	if !errors.Is(err, ai_services.ErrExhaustedRetries) {
		t.Fatalf("expected ErrExhaustedRetries, got %v", err)
	}
	if doer.calls != 2 {
		t.Errorf("expected 2 calls, got %d", doer.calls)
	}
	if diff := cmp.Diff([]time.Duration{time.Second}, sleeper.delays); diff != "" {
		t.Errorf("delays mismatch (-want +got):\n%s", diff)
	}
}

func TestSend_MixedRateLimitAndServerErrorsExhaust(t *testing.T) {
	srv, calls := scriptedServer(t, []int{429, 500, 429, 503}, "")
	sleeper := &recordingSleeper{}

	err := newTestClient(sleeper).Send(context.Background(), srv.URL, map[string]string{}, nil, 4)
	if !errors.Is(err, ai_services.ErrExhaustedRetries) {
		t.Fatalf("expected ErrExhaustedRetries, got %v", err)
	}
	var statusErr *ai_services.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected last cause StatusError 503, got %v", err)
	}
	if n := atomic.LoadInt32(calls); n != 4 {
		t.Errorf("expected 4 calls, got %d", n)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if diff := cmp.Diff(want, sleeper.delays); diff != "" {
		t.Errorf("delays mismatch (-want +got):\n%s", diff)
	}
}
