package publishers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPPublisherSuccess(t *testing.T) {
	var (
		received bool
		body     map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if got := r.Header.Get("X-Test"); got != "1" {
			t.Errorf("missing header, got %s", got)
		}
		if r.Header.Get("X-Event-ID") == "" {
			t.Errorf("missing X-Event-ID header")
		}
		if got := r.Header.Get("X-Feed-ID"); got != "jazz" {
			t.Errorf("X-Feed-ID = %q", got)
		}
		if got := r.Header.Get("X-Station-UUID"); got != testStationUUID.String() {
			t.Errorf("X-Station-UUID = %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		received = true
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	pub, err := newHTTPPublisher(context.Background(), PublisherConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPPublisherConfig{
			URL:            srv.URL,
			Method:         http.MethodPut,
			Headers:        map[string]string{"X-Test": "1", "X-Feed-ID": "spoofed"},
			TimeoutSeconds: 2,
		},
	}, nil)
	if err != nil {
		t.Fatalf("newHTTPPublisher: %v", err)
	}

	if err := pub.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !received {
		t.Fatalf("server did not receive request")
	}
	if body["feed_id"] != "jazz" {
		t.Fatalf("unexpected body: %v", body)
	}
	station, _ := body["station"].(map[string]any)
	if station["name"] != "Jazz Radio" {
		t.Fatalf("unexpected station: %v", body["station"])
	}
}

func TestHTTPPublisherErrorOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	pub, err := newHTTPPublisher(context.Background(), PublisherConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPPublisherConfig{
			URL:            srv.URL,
			Method:         http.MethodPost,
			TimeoutSeconds: 1,
		},
	}, nil)
	if err != nil {
		t.Fatalf("newHTTPPublisher: %v", err)
	}

	if err := pub.Publish(context.Background(), Event{}); err == nil {
		t.Fatalf("expected error on non-2xx response")
	}
}

func TestReadBodySnippetTruncates(t *testing.T) {
	long := bytes.Repeat([]byte("a"), httpBodySnippetLimit+10)
	if got := readBodySnippet(long); len(got) != httpBodySnippetLimit {
		t.Fatalf("expected %d bytes, got %d", httpBodySnippetLimit, len(got))
	}
	if got := readBodySnippet([]byte("  nope \n")); got != "nope" {
		t.Fatalf("expected trimmed snippet, got %q", got)
	}
}
