package publishers

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/samvad-hq/radiodir/pkg/radiobrowser"
)

var testStationUUID = uuid.MustParse("96062a7b-0601-11e8-ae97-52543be04c81")

func testEvent() Event {
	return NewEvent("jazz", "Jazz stations", radiobrowser.Station{
		StationUUID: testStationUUID,
		Name:        "Jazz Radio",
		Tags:        []string{"jazz"},
	})
}

func TestEventRoutingKeys(t *testing.T) {
	evt := testEvent()

	if got := evt.groupKey(); got != "jazz" {
		t.Fatalf("groupKey = %q", got)
	}
	if got, want := evt.dedupeKey(), "jazz-"+testStationUUID.String(); got != want {
		t.Fatalf("dedupeKey = %q, want %q", got, want)
	}

	evt.FeedID = ""
	if got := evt.groupKey(); got != "default" {
		t.Fatalf("expected default group for empty feed, got %q", got)
	}
}

func TestEventEncodeCarriesStation(t *testing.T) {
	payload, err := testEvent().encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, want := range []string{`"feed_id":"jazz"`, `"name":"Jazz Radio"`, `"tags":["jazz"]`} {
		if !strings.Contains(string(payload), want) {
			t.Fatalf("payload missing %s: %s", want, payload)
		}
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(payload, &top); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if _, ok := top["homepage"]; ok {
		t.Fatalf("homepage should be omitted when not enriched: %s", payload)
	}
}

func TestConvertAttributes(t *testing.T) {
	attrs := convertAttributes(testEvent(), func(v string) int { return len(v) })
	if len(attrs) != 3 {
		t.Fatalf("expected 3 attributes, got %v", attrs)
	}
	if attrs[attrFeedID] != len("jazz") {
		t.Fatalf("unexpected feed_id conversion: %v", attrs)
	}
}
