package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// eventually polls fn every 10ms until it returns true or timeout elapses.
func eventually(t *testing.T, timeout time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error(msg)
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()

	ch := b.Subscribe()
	eventually(t, time.Second, func() bool { return b.ClientCount() == 1 },
		"client count did not reach 1")

	b.Unsubscribe(ch)
	eventually(t, time.Second, func() bool { return b.ClientCount() == 0 },
		"client count did not drop to 0")

	// Channel is closed on unsubscribe.
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel after unsubscribe")
		}
	case <-time.After(time.Second):
		t.Error("channel not closed after unsubscribe")
	}
}

func TestPublishReachesClients(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()

	ch := b.Subscribe()
	eventually(t, time.Second, func() bool { return b.ClientCount() == 1 },
		"subscription not registered")

	b.Publish(Event{Type: "joint.evaluated", Data: map[string]string{"joint_type": "half_lap"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: joint.evaluated") {
			t.Errorf("missing event line: %q", s)
		}
		if !strings.Contains(s, `"joint_type":"half_lap"`) {
			t.Errorf("missing payload: %q", s)
		}
		if !strings.HasSuffix(s, "\n\n") {
			t.Errorf("frame not terminated by blank line: %q", s)
		}
	case <-time.After(2 * time.Second):
		t.Error("published event never arrived")
	}
}

func TestReloadThrottle(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	ch := b.Subscribe()
	eventually(t, time.Second, func() bool { return b.ClientCount() == 1 },
		"subscription not registered")

	b.PublishTablesReloaded()
	select {
	case msg := <-ch:
		if !strings.Contains(string(msg), "tables.reloaded") {
			t.Errorf("unexpected event: %q", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first reload event never arrived")
	}

	// A second reload inside the throttle window is dropped.
	b.PublishTablesReloaded()
	select {
	case msg := <-ch:
		t.Errorf("throttled reload leaked through: %q", msg)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestCloseIdempotent(t *testing.T) {
	b := NewBroker(time.Second)
	ch := b.Subscribe()
	eventually(t, time.Second, func() bool { return b.ClientCount() == 1 },
		"subscription not registered")

	b.Close()
	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel after broker close")
		}
	case <-time.After(time.Second):
		t.Error("channel not closed after broker close")
	}

	// Everything is a no-op on a closed broker.
	b.Publish(Event{Type: "x"})
	b.PublishTablesReloaded()
	if n := b.ClientCount(); n != 0 {
		t.Errorf("client count = %d after close", n)
	}
	late := b.Subscribe()
	if _, ok := <-late; ok {
		t.Error("subscribe after close must return a closed channel")
	}
}

func TestServeHTTPStreamsEvents(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(rec, req)
		close(done)
	}()

	eventually(t, 2*time.Second, func() bool { return b.ClientCount() == 1 },
		"SSE handler never subscribed")

	b.Publish(Event{Type: "tables.reloaded", Data: map[string]string{}})

	// Give the handler a beat to flush, then disconnect. The recorder is
	// only inspected after the handler goroutine has exited.
	time.Sleep(200 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not exit on client disconnect")
	}

	if !strings.Contains(rec.Body.String(), "event: tables.reloaded") {
		t.Errorf("event not written to the response: %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("cache control = %q", cc)
	}
}
