package radiobrowser

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Scheme is the URL scheme of an Endpoint.
type Scheme string

const (
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
)

// QueryItem is a single query key/value pair. Order is significant.
type QueryItem struct {
	Name  string
	Value string
}

// Endpoint is an immutable URL under construction. Every builder method
// returns a new value; the receiver is never modified, so a base endpoint
// can be shared freely between derived ones.
type Endpoint struct {
	scheme Scheme
	host   string
	path   string
	query  []QueryItem
}

// NewEndpoint returns an endpoint rooted at scheme://host/path.
func NewEndpoint(scheme Scheme, host, path string) Endpoint {
	return Endpoint{scheme: scheme, host: host, path: path}
}

func (e Endpoint) Scheme() Scheme { return e.scheme }
func (e Endpoint) Host() string   { return e.host }
func (e Endpoint) Path() string   { return e.path }

// QueryItems returns a copy of the accumulated query items.
func (e Endpoint) QueryItems() []QueryItem {
	if len(e.query) == 0 {
		return nil
	}
	out := make([]QueryItem, len(e.query))
	copy(out, e.query)
	return out
}

// WithHost returns a copy of e pointing at another host.
func (e Endpoint) WithHost(host string) Endpoint {
	e.host = host
	e.query = e.QueryItems()
	return e
}

// AppendingPath joins segment onto the path with exactly one separator.
func (e Endpoint) AppendingPath(segment string) Endpoint {
	base := strings.TrimRight(e.path, "/")
	segment = strings.TrimLeft(segment, "/")
	e.path = base + "/" + segment
	e.query = e.QueryItems()
	return e
}

// AddingQueryItems appends items after any existing ones.
func (e Endpoint) AddingQueryItems(items ...QueryItem) Endpoint {
	merged := make([]QueryItem, 0, len(e.query)+len(items))
	merged = append(merged, e.query...)
	merged = append(merged, items...)
	e.query = merged
	return e
}

// WithPagination adds offset and limit, in that order.
func (e Endpoint) WithPagination(offset, limit int) Endpoint {
	return e.AddingQueryItems(
		QueryItem{Name: "offset", Value: strconv.Itoa(offset)},
		QueryItem{Name: "limit", Value: strconv.Itoa(limit)},
	)
}

// WithCommonItems adds hidebroken=true followed by pagination.
func (e Endpoint) WithCommonItems(offset, limit int) Endpoint {
	return e.WithCommonItemsHideBroken(offset, limit, true)
}

// WithCommonItemsHideBroken is WithCommonItems with an explicit hidebroken flag.
func (e Endpoint) WithCommonItemsHideBroken(offset, limit int, hideBroken bool) Endpoint {
	return e.
		AddingQueryItems(QueryItem{Name: "hidebroken", Value: strconv.FormatBool(hideBroken)}).
		WithPagination(offset, limit)
}

// URL materializes the endpoint. It panics when the components cannot form
// an absolute URL: that is a configuration bug, not a runtime condition.
func (e Endpoint) URL() *url.URL {
	u, err := e.materialize()
	if err != nil {
		panic(fmt.Sprintf("radiobrowser: unable to create url from %s: %v", e.describe(), err))
	}
	return u
}

// String returns the materialized URL. See URL for the panic contract.
func (e Endpoint) String() string {
	return e.URL().String()
}

// ValidateHost reports whether host can replace the default server host.
// An empty host is valid and keeps the default.
func ValidateHost(host string) error {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil
	}
	u, err := ServerEndpoint.WithHost(host).materialize()
	if err != nil {
		return fmt.Errorf("invalid host %q: %w", host, err)
	}
	if u.Host != host {
		return fmt.Errorf("invalid host %q: must be a bare host[:port]", host)
	}
	return nil
}

func (e Endpoint) materialize() (*url.URL, error) {
	if e.scheme == "" {
		return nil, fmt.Errorf("scheme is empty")
	}
	if strings.TrimSpace(e.host) == "" {
		return nil, fmt.Errorf("host is empty")
	}
	path := e.path
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	raw := string(e.scheme) + "://" + e.host + (&url.URL{Path: path}).EscapedPath()
	if q := encodeQuery(e.query); q != "" {
		raw += "?" + q
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("not an absolute url: %q", raw)
	}
	return u, nil
}

func (e Endpoint) describe() string {
	return fmt.Sprintf("scheme=%q host=%q path=%q query=%v", e.scheme, e.host, e.path, e.query)
}

// encodeQuery keeps insertion order, unlike url.Values.Encode which sorts keys.
func encodeQuery(items []QueryItem) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escapeQueryComponent(item.Name))
		b.WriteByte('=')
		b.WriteString(escapeQueryComponent(item.Value))
	}
	return b.String()
}

// queryUnescaper restores characters that are legal inside a query component.
var queryUnescaper = strings.NewReplacer("+", "%20", "%2C", ",")

func escapeQueryComponent(s string) string {
	return queryUnescaper.Replace(url.QueryEscape(s))
}
