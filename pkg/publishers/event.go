package publishers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/radiodir/pkg/radiobrowser"
)

// Event announces a station newly seen on a feed.
type Event struct {
	ID          uuid.UUID            `json:"id"`
	FeedID      string               `json:"feed_id"`
	FeedName    string               `json:"feed_name"`
	Station     radiobrowser.Station `json:"station"`
	Homepage    *HomepageMeta        `json:"homepage,omitempty"`
	CollectedAt time.Time            `json:"collected_at"`
}

// HomepageMeta is the OpenGraph summary of a station homepage.
type HomepageMeta struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// NewEvent constructs an Event for a station reported by a feed.
func NewEvent(feedID, feedName string, station radiobrowser.Station) Event {
	return Event{
		ID:          uuid.New(),
		FeedID:      feedID,
		FeedName:    feedName,
		Station:     station,
		CollectedAt: time.Now().UTC(),
	}
}

// Routing attribute names sent alongside the payload by brokers that
// support them.
const (
	attrEventID     = "event_id"
	attrFeedID      = "feed_id"
	attrStationUUID = "station_uuid"
)

func (e Event) attributes() map[string]string {
	return map[string]string{
		attrEventID:     e.ID.String(),
		attrFeedID:      e.FeedID,
		attrStationUUID: e.Station.StationUUID.String(),
	}
}

// encode renders the wire payload shared by every sink.
func (e Event) encode() ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return payload, nil
}

// groupKey orders deliveries per feed on FIFO sinks.
func (e Event) groupKey() string {
	if e.FeedID == "" {
		return "default"
	}
	return e.FeedID
}

// dedupeKey collapses repeated announcements of a station on one feed.
func (e Event) dedupeKey() string {
	return e.groupKey() + "-" + e.Station.StationUUID.String()
}

// convertAttributes maps routing attributes into a broker specific value type.
func convertAttributes[T any](e Event, conv func(string) T) map[string]T {
	attrs := e.attributes()
	out := make(map[string]T, len(attrs))
	for k, v := range attrs {
		out[k] = conv(v)
	}
	return out
}
