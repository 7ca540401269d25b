package publishers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type stubPublisher struct {
	id       string
	typ      string
	err      error
	closeErr error
	calls    int
	closed   bool
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}
func (s *stubPublisher) Close() error {
	s.closed = true
	return s.closeErr
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	failure := errors.New("failed")
	fanout := NewFanout([]Publisher{
		&stubPublisher{id: "ok", typ: "http"},
		nil,
		&stubPublisher{id: "bad", typ: "sqs", err: failure},
	})

	if fanout.Size() != 2 {
		t.Fatalf("expected nil publishers to be dropped, size=%d", fanout.Size())
	}

	count, err := fanout.Publish(context.Background(), testEvent())
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if !errors.Is(err, failure) {
		t.Fatalf("expected aggregated error wrapping failure, got %v", err)
	}
}

func TestFanoutCloseClosesPublishers(t *testing.T) {
	a := &stubPublisher{id: "a", typ: "http"}
	b := &stubPublisher{id: "b", typ: "gcp_pubsub", closeErr: errors.New("close failed")}

	err := NewFanout([]Publisher{a, b}).Close()
	if !a.closed || !b.closed {
		t.Fatalf("expected every publisher closed")
	}
	if err == nil {
		t.Fatalf("expected close error to surface")
	}

	var nilFanout *Fanout
	if n, err := nilFanout.Publish(context.Background(), Event{}); n != 0 || err != nil {
		t.Fatalf("nil fanout should be a no-op")
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	pubs, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 1 || pubs[0].Type() != TypeHTTP {
		t.Fatalf("expected 1 http publisher, got %v", pubs)
	}

	if _, err := BuildAll(context.Background(), reg, []PublisherConfig{{ID: "x", Type: "kafka"}}, nil); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestBuildAllSkipsDisabledAndClosesOnFailure(t *testing.T) {
	built := &stubPublisher{id: "first", typ: "stub"}
	reg := NewRegistry(map[string]Builder{
		"stub": func(context.Context, PublisherConfig, Logger) (Publisher, error) { return built, nil },
		"broken": func(context.Context, PublisherConfig, Logger) (Publisher, error) {
			return nil, errors.New("no credentials")
		},
	})

	disabled := false
	pubs, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "first", Type: "stub"},
		{ID: "off", Type: "broken", Enabled: &disabled},
	}, nil)
	if err != nil || len(pubs) != 1 {
		t.Fatalf("expected disabled publisher to be skipped, got %v, %v", pubs, err)
	}

	_, err = BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "first", Type: "stub"},
		{ID: "second", Type: "broken"},
	}, nil)
	if err == nil {
		t.Fatalf("expected build error")
	}
	if !built.closed {
		t.Fatalf("expected already built publishers to be closed")
	}
}

type barrierPublisher struct {
	id      string
	arrived *sync.WaitGroup
}

func (b *barrierPublisher) ID() string   { return b.id }
func (b *barrierPublisher) Type() string { return "barrier" }
func (b *barrierPublisher) Publish(ctx context.Context, _ Event) error {
	b.arrived.Done()
	done := make(chan struct{})
	go func() {
		b.arrived.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestFanoutDeliversConcurrently(t *testing.T) {
	var arrived sync.WaitGroup
	arrived.Add(2)
	fanout := NewFanout([]Publisher{
		&barrierPublisher{id: "a", arrived: &arrived},
		&barrierPublisher{id: "b", arrived: &arrived},
	})

	// Sequential delivery would block on the barrier until the timeout.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	n, err := fanout.Publish(ctx, testEvent())
	if err != nil || n != 2 {
		t.Fatalf("expected both deliveries, got %d, %v", n, err)
	}
}
