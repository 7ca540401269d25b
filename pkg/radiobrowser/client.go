package radiobrowser

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/samvad-hq/radiodir/pkg/httpclient"
)

const (
	defaultOffset    = 0
	defaultLimit     = 20
	defaultUserAgent = "radiodir/0.1"
)

var errNilResponse = errors.New("transport returned no response")

// Page selects a window of a list endpoint.
type Page struct {
	Offset int
	Limit  int
}

// DefaultPage is used when a list call receives the zero Page.
var DefaultPage = Page{Offset: defaultOffset, Limit: defaultLimit}

func (p Page) normalized() Page {
	if p == (Page{}) {
		return DefaultPage
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	return p
}

// Client talks to the radio-browser directory. It holds no mutable state
// and is safe for concurrent use.
type Client struct {
	transport Transport
	codec     Codec
	catalog   Catalog
	log       Logger
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithTransport injects the transport used for every request.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithHTTPClient sends requests through an httpclient.Client.
func WithHTTPClient(hc httpclient.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.transport = NewHTTPTransport(hc)
		}
	}
}

// WithCodec replaces the JSON codec.
func WithCodec(codec Codec) Option {
	return func(c *Client) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithCatalog points the client at another server root.
func WithCatalog(catalog Catalog) Option {
	return func(c *Client) { c.catalog = catalog }
}

// WithHost keeps the default scheme and path but targets host.
func WithHost(host string) Option {
	return func(c *Client) {
		if host = strings.TrimSpace(host); host != "" {
			c.catalog = NewCatalog(ServerEndpoint.WithHost(host))
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(log Logger) Option {
	return func(c *Client) { c.log = ensureLogger(log) }
}

// WithUserAgent overrides the User-Agent header. Empty disables it.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = strings.TrimSpace(ua) }
}

// New builds a Client. Without options it talks to the default server over
// a resty transport.
func New(opts ...Option) *Client {
	c := &Client{
		codec:     JSONCodec{},
		catalog:   DefaultCatalog,
		log:       noopLogger{},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = NewHTTPTransport(nil)
	}
	return c
}

// Catalog returns the endpoint catalog the client resolves against.
func (c *Client) Catalog() Catalog { return c.catalog }

// Tags lists station tags.
func (c *Client) Tags(ctx context.Context, page Page) ([]StationTag, error) {
	page = page.normalized()
	return perform[[]StationTag](ctx, c, MethodGet, c.catalog.Tags(page.Offset, page.Limit), nil)
}

// Countries lists countries with their station counts.
func (c *Client) Countries(ctx context.Context, page Page) ([]Country, error) {
	page = page.normalized()
	return perform[[]Country](ctx, c, MethodGet, c.catalog.Countries(page.Offset, page.Limit), nil)
}

// Languages lists stream languages with their station counts.
func (c *Client) Languages(ctx context.Context, page Page) ([]Language, error) {
	page = page.normalized()
	return perform[[]Language](ctx, c, MethodGet, c.catalog.Languages(page.Offset, page.Limit), nil)
}

// AllStations lists stations, hiding broken ones.
func (c *Client) AllStations(ctx context.Context, page Page) ([]Station, error) {
	page = page.normalized()
	return perform[[]Station](ctx, c, MethodGet, c.catalog.AllStations(page.Offset, page.Limit), nil)
}

// TopVoteStations lists the highest voted stations.
func (c *Client) TopVoteStations(ctx context.Context, page Page) ([]Station, error) {
	page = page.normalized()
	return perform[[]Station](ctx, c, MethodGet, c.catalog.TopVote(page.Offset, page.Limit), nil)
}

// SearchStations lists stations whose name contains name.
func (c *Client) SearchStations(ctx context.Context, name string, page Page) ([]Station, error) {
	page = page.normalized()
	return perform[[]Station](ctx, c, MethodGet, c.catalog.SearchByName(name, page.Offset, page.Limit), nil)
}

// StationsByIDs returns the stations for ids. Unknown ids are simply absent.
func (c *Client) StationsByIDs(ctx context.Context, ids []uuid.UUID) ([]Station, error) {
	return perform[[]Station](ctx, c, MethodGet, c.catalog.StationsByIDs(ids), nil)
}

// Station returns the station with id, or nil when the directory has none.
func (c *Client) Station(ctx context.Context, id uuid.UUID) (*Station, error) {
	stations, err := c.StationsByIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(stations) == 0 {
		return nil, nil
	}
	st := stations[0]
	return &st, nil
}

// Vote increments the vote counter of a station.
func (c *Client) Vote(ctx context.Context, id uuid.UUID) (VoteResult, error) {
	return perform[VoteResult](ctx, c, MethodGet, c.catalog.Vote(id), nil)
}

// Click counts a listen and returns the resolved stream URL.
func (c *Client) Click(ctx context.Context, id uuid.UUID) (ClickResult, error) {
	return perform[ClickResult](ctx, c, MethodGet, c.catalog.Click(id), nil)
}
