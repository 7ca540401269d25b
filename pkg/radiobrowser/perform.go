package radiobrowser

import "context"

// perform runs one request/response exchange and decodes the body into T.
// Any returned error is a *Error.
func perform[T any](ctx context.Context, c *Client, method Method, endpoint Endpoint, payload any) (T, error) {
	var zero T

	value, err := exchange[T](ctx, c, method, endpoint, payload)
	if err != nil {
		radioErr := Map(err)
		c.log.ErrorObj("radio request failed", "radio_request_error", map[string]any{
			"method": string(method),
			"url":    endpoint.String(),
			"kind":   radioErr.Kind.String(),
			"error":  radioErr.Error(),
		})
		return zero, radioErr
	}
	return value, nil
}

func exchange[T any](ctx context.Context, c *Client, method Method, endpoint Endpoint, payload any) (T, error) {
	var zero T

	req := NewRequest(endpoint.URL()).
		WithMethod(method).
		WithHeader("Accept", "application/json")
	if c.userAgent != "" {
		req = req.WithHeader("User-Agent", c.userAgent)
	}

	if method.carriesBody() && payload != nil {
		body, err := c.codec.Marshal(payload)
		if err != nil {
			return zero, failure(KindEncode, err)
		}
		req = req.WithBody(body).WithHeader("Content-Type", "application/json")
	}

	c.log.DebugObj("radio request", "radio_request", map[string]any{
		"method": string(req.Method()),
		"url":    req.URL(),
	})

	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		return zero, failure(KindTransport, err)
	}
	if resp == nil {
		return zero, &Error{Kind: KindTransport, Err: errNilResponse}
	}

	if statusErr := httpStatusError(resp.StatusCode()); statusErr != nil {
		return zero, statusErr
	}

	var out T
	if err := c.codec.Unmarshal(resp.Body(), &out); err != nil {
		return zero, failure(KindDecode, err)
	}
	return out, nil
}
