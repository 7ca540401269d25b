package httpclient

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// maxRedirects bounds redirect chains, which station homepages and
// stream resolvers are prone to.
const maxRedirects = 5

// RestyClient adapts resty.Client to the httpclient.Client interface.
// Retries stay disabled so failures surface to the caller immediately.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a client with the given overall request timeout.
// A zero timeout means no timeout.
func NewRestyClient(timeout time.Duration) *RestyClient {
	c := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects))
	return &RestyClient{client: c}
}

// NewRestyHTTPClient returns the underlying resty.Client for callers that
// build requests themselves.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return NewRestyClient(timeout).client
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	return r.Do(ctx, http.MethodGet, url, nil, headers)
}

// Do performs an HTTP request with the given verb. A nil body sends none.
func (r *RestyClient) Do(ctx context.Context, method, url string, body []byte, headers map[string]string) (Response, error) {
	req := r.client.R().
		SetContext(ctx).
		SetHeaders(headers)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, err
	}
	return restyResponse{resp}, nil
}

type restyResponse struct {
	*resty.Response
}

// Body and StatusCode are promoted from resty.Response.
var _ Response = restyResponse{}
