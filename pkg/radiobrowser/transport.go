package radiobrowser

import (
	"context"
	"time"

	"github.com/samvad-hq/radiodir/pkg/httpclient"
)

// Transport sends a finalized request. It is the only network capability
// the client depends on.
type Transport interface {
	Send(ctx context.Context, req Request) (httpclient.Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req Request) (httpclient.Response, error)

func (f TransportFunc) Send(ctx context.Context, req Request) (httpclient.Response, error) {
	return f(ctx, req)
}

// HTTPTransport sends requests through an httpclient.Client.
type HTTPTransport struct {
	client httpclient.Client
}

// NewHTTPTransport wraps client. A nil client gets a resty client with DefaultTimeout.
func NewHTTPTransport(client httpclient.Client) *HTTPTransport {
	if client == nil {
		client = httpclient.NewRestyClient(DefaultTimeout)
	}
	return &HTTPTransport{client: client}
}

// DefaultTimeout bounds a single exchange when no client is injected.
const DefaultTimeout = 30 * time.Second

func (t *HTTPTransport) Send(ctx context.Context, req Request) (httpclient.Response, error) {
	return t.client.Do(ctx, string(req.Method()), req.URL(), req.Body(), req.Headers())
}
