package radiobrowser

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultHost is the directory server every endpoint derives from.
	DefaultHost = "91.132.145.114"
	basePath    = "/json"
)

// ServerEndpoint is the root of the catalog: http://91.132.145.114/json.
var ServerEndpoint = NewEndpoint(SchemeHTTP, DefaultHost, basePath)

// DefaultCatalog builds endpoints against ServerEndpoint.
var DefaultCatalog = NewCatalog(ServerEndpoint)

// Catalog holds the named endpoint constructors for one server root.
type Catalog struct {
	server Endpoint
}

// NewCatalog returns a catalog deriving from server.
func NewCatalog(server Endpoint) Catalog {
	return Catalog{server: server}
}

// Server returns the catalog root.
func (c Catalog) Server() Endpoint { return c.server }

// Stations is the bare stations collection.
func (c Catalog) Stations() Endpoint {
	return c.server.AppendingPath("stations")
}

// Countries lists countries with their station counts.
func (c Catalog) Countries(offset, limit int) Endpoint {
	return c.server.AppendingPath("countries").WithPagination(offset, limit)
}

// Tags lists tags with their station counts.
func (c Catalog) Tags(offset, limit int) Endpoint {
	return c.server.AppendingPath("tags").WithPagination(offset, limit)
}

// Languages lists stream languages with their station counts.
func (c Catalog) Languages(offset, limit int) Endpoint {
	return c.server.AppendingPath("languages").WithPagination(offset, limit)
}

// AllStations lists every station through the search endpoint.
func (c Catalog) AllStations(offset, limit int) Endpoint {
	return c.search().WithCommonItems(offset, limit)
}

// TopVote lists working stations ordered by votes.
func (c Catalog) TopVote(offset, limit int) Endpoint {
	return c.Stations().AppendingPath("topvote").WithCommonItems(offset, limit)
}

// SearchByName lists working stations whose name contains name.
func (c Catalog) SearchByName(name string, offset, limit int) Endpoint {
	return c.search().
		AddingQueryItems(QueryItem{Name: "name", Value: name}).
		WithCommonItems(offset, limit)
}

// StationsByIDs looks up stations by uuid. The ids are comma-joined into a
// single query value.
func (c Catalog) StationsByIDs(ids []uuid.UUID) Endpoint {
	return c.Stations().
		AppendingPath("byuuid").
		AddingQueryItems(QueryItem{Name: "uuids", Value: joinIDs(ids)})
}

// Vote counts one vote for the station.
func (c Catalog) Vote(id uuid.UUID) Endpoint {
	return c.server.AppendingPath("vote").AppendingPath(id.String())
}

// Click registers a listen for the station and resolves its stream URL.
func (c Catalog) Click(id uuid.UUID) Endpoint {
	return c.server.AppendingPath("url").AppendingPath(id.String())
}

func (c Catalog) search() Endpoint {
	return c.Stations().AppendingPath("search")
}

func joinIDs(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}

// Package-level shortcuts for DefaultCatalog.

// Stations returns DefaultCatalog.Stations.
func Stations() Endpoint { return DefaultCatalog.Stations() }

// Countries returns DefaultCatalog.Countries.
func Countries(offset, limit int) Endpoint { return DefaultCatalog.Countries(offset, limit) }

// Tags returns DefaultCatalog.Tags.
func Tags(offset, limit int) Endpoint { return DefaultCatalog.Tags(offset, limit) }

// Languages returns DefaultCatalog.Languages.
func Languages(offset, limit int) Endpoint { return DefaultCatalog.Languages(offset, limit) }

// AllStations returns DefaultCatalog.AllStations.
func AllStations(offset, limit int) Endpoint { return DefaultCatalog.AllStations(offset, limit) }

// TopVote returns DefaultCatalog.TopVote.
func TopVote(offset, limit int) Endpoint { return DefaultCatalog.TopVote(offset, limit) }

// SearchByName returns DefaultCatalog.SearchByName.
func SearchByName(name string, offset, limit int) Endpoint {
	return DefaultCatalog.SearchByName(name, offset, limit)
}

// StationsByIDs returns DefaultCatalog.StationsByIDs.
func StationsByIDs(ids []uuid.UUID) Endpoint { return DefaultCatalog.StationsByIDs(ids) }

// Vote returns DefaultCatalog.Vote.
func Vote(id uuid.UUID) Endpoint { return DefaultCatalog.Vote(id) }

// Click returns DefaultCatalog.Click.
func Click(id uuid.UUID) Endpoint { return DefaultCatalog.Click(id) }
