package radiobrowser

import (
	"net/http"
	"net/url"
)

// Method is the HTTP verb of a Request.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodDelete Method = http.MethodDelete
	MethodHead   Method = http.MethodHead
)

// carriesBody reports whether the verb sends an encoded payload.
func (m Method) carriesBody() bool {
	return m == MethodPost || m == MethodPut
}

// Request is an immutable, finalized request descriptor.
type Request struct {
	url     string
	method  Method
	body    []byte
	headers map[string]string
}

// NewRequest builds a GET request for u.
func NewRequest(u *url.URL) Request {
	return Request{url: u.String(), method: MethodGet}
}

// WithMethod returns a copy using method m.
func (r Request) WithMethod(m Method) Request {
	r.method = m
	return r
}

// WithBody returns a copy carrying body. The bytes are copied.
func (r Request) WithBody(body []byte) Request {
	if body == nil {
		r.body = nil
		return r
	}
	r.body = append([]byte(nil), body...)
	return r
}

// WithHeader returns a copy with the header set.
func (r Request) WithHeader(key, value string) Request {
	headers := make(map[string]string, len(r.headers)+1)
	for k, v := range r.headers {
		headers[k] = v
	}
	headers[key] = value
	r.headers = headers
	return r
}

func (r Request) URL() string    { return r.url }
func (r Request) Method() Method { return r.method }

// Body returns a copy of the payload, or nil.
func (r Request) Body() []byte {
	if r.body == nil {
		return nil
	}
	return append([]byte(nil), r.body...)
}

// Headers returns a copy of the request headers.
func (r Request) Headers() map[string]string {
	if len(r.headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(r.headers))
	for k, v := range r.headers {
		out[k] = v
	}
	return out
}
