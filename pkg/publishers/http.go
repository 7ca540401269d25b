package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/samvad-hq/radiodir/pkg/httpclient"
)

const httpBodySnippetLimit = 512

// httpRoutingHeaders maps event attributes onto request headers.
var httpRoutingHeaders = map[string]string{
	attrEventID:     "X-Event-ID",
	attrFeedID:      "X-Feed-ID",
	attrStationUUID: "X-Station-UUID",
}

type httpPublisher struct {
	id      string
	typ     string
	method  string
	url     string
	headers map[string]string
	client  *resty.Client
	log     Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}

	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = httpDefaultTimeoutSeconds * time.Second
	}
	method := strings.ToUpper(cfg.HTTP.Method)
	if method == "" {
		method = httpDefaultMethod
	}

	return &httpPublisher{
		id:      cfg.ID,
		typ:     TypeHTTP,
		method:  method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client:  httpclient.NewRestyHTTPClient(timeout),
		log:     ensureLogger(log),
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return h.typ }

// Publish posts the station event as JSON. Configured headers are sent
// first so the routing headers always win.
func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := evt.encode()
	if err != nil {
		return err
	}

	req := h.client.R().
		SetContext(ctx).
		SetHeaders(h.headers).
		SetHeader("Content-Type", "application/json").
		SetBody(payload)
	for attr, value := range evt.attributes() {
		req.SetHeader(httpRoutingHeaders[attr], value)
	}

	resp, err := req.Execute(h.method, h.url)
	if err != nil {
		h.log.ErrorObj("http publisher send failed", "publisher_http_error", deliveryFields(h.id, evt, err))
		return fmt.Errorf("http request: %w", err)
	}
	if resp.IsError() {
		snippet := readBodySnippet(resp.Body())
		fields := deliveryFields(h.id, evt, nil)
		fields["status"] = resp.StatusCode()
		fields["body"] = snippet
		h.log.WarnObj("http publisher rejected event", "publisher_http_error", fields)
		return fmt.Errorf("http response status %d: %s", resp.StatusCode(), snippet)
	}
	h.log.DebugObj("http publisher delivered event", "publisher_http_delivery", deliveryFields(h.id, evt, nil))
	return nil
}

func readBodySnippet(body []byte) string {
	if len(body) > httpBodySnippetLimit {
		body = body[:httpBodySnippetLimit]
	}
	return strings.TrimSpace(string(body))
}
