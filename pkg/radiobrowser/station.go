package radiobrowser

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Station is one directory entry.
type Station struct {
	// ChangeUUID identifies this revision of the station record.
	ChangeUUID  uuid.UUID  `json:"changeuuid"`
	StationUUID uuid.UUID  `json:"stationuuid"`
	ServerUUID  *uuid.UUID `json:"serveruuid,omitempty"`

	Name string `json:"name"`
	// URL is the stream URL as submitted; URLResolved follows playlists and redirects.
	URL         string `json:"url"`
	URLResolved string `json:"url_resolved"`
	Homepage    string `json:"homepage"`
	Favicon     string `json:"favicon"`

	Tags []string `json:"tags"`
	// CountryCode is ISO 3166-1 alpha-2.
	CountryCode string `json:"countrycode"`
	State       string `json:"state"`
	Language    []string `json:"language"`
	// LanguageCodes are ISO 639-2/B.
	LanguageCodes []string `json:"languagecodes"`

	Votes   int    `json:"votes"`
	Codec   string `json:"codec"`
	Bitrate int    `json:"bitrate"`

	LastCheckOK        bool      `json:"lastcheckok"`
	LastCheckTime      time.Time `json:"lastchecktime_iso8601"`
	LastCheckOKTime    time.Time `json:"lastcheckoktime_iso8601"`
	LastLocalCheckTime time.Time `json:"lastlocalchecktime_iso8601"`

	GeoLat          *float64 `json:"geo_lat,omitempty"`
	GeoLong         *float64 `json:"geo_long,omitempty"`
	HasExtendedInfo *bool    `json:"has_extended_info,omitempty"`
}

// stationWire mirrors the API payload, where list fields are comma-joined
// strings and lastcheckok is 0/1.
type stationWire struct {
	ChangeUUID         uuid.UUID `json:"changeuuid"`
	StationUUID        uuid.UUID `json:"stationuuid"`
	ServerUUID         *string   `json:"serveruuid"`
	Name               string    `json:"name"`
	URL                string    `json:"url"`
	URLResolved        string    `json:"url_resolved"`
	Homepage           string    `json:"homepage"`
	Favicon            string    `json:"favicon"`
	Tags               string    `json:"tags"`
	CountryCode        string    `json:"countrycode"`
	State              string    `json:"state"`
	Language           string    `json:"language"`
	LanguageCodes      string    `json:"languagecodes"`
	Votes              int       `json:"votes"`
	Codec              string    `json:"codec"`
	Bitrate            int       `json:"bitrate"`
	LastCheckOK        int       `json:"lastcheckok"`
	LastCheckTime      string    `json:"lastchecktime_iso8601"`
	LastCheckOKTime    string    `json:"lastcheckoktime_iso8601"`
	LastLocalCheckTime string    `json:"lastlocalchecktime_iso8601"`
	GeoLat             *float64  `json:"geo_lat"`
	GeoLong            *float64  `json:"geo_long"`
	HasExtendedInfo    *bool     `json:"has_extended_info"`
}

// UnmarshalJSON decodes the API representation of a station.
func (s *Station) UnmarshalJSON(data []byte) error {
	var w stationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	serverUUID, err := parseOptionalUUID(w.ServerUUID)
	if err != nil {
		return fmt.Errorf("serveruuid: %w", err)
	}
	lastCheck, err := parseISO8601(w.LastCheckTime)
	if err != nil {
		return fmt.Errorf("lastchecktime_iso8601: %w", err)
	}
	lastCheckOK, err := parseISO8601(w.LastCheckOKTime)
	if err != nil {
		return fmt.Errorf("lastcheckoktime_iso8601: %w", err)
	}
	lastLocal, err := parseISO8601(w.LastLocalCheckTime)
	if err != nil {
		return fmt.Errorf("lastlocalchecktime_iso8601: %w", err)
	}

	*s = Station{
		ChangeUUID:         w.ChangeUUID,
		StationUUID:        w.StationUUID,
		ServerUUID:         serverUUID,
		Name:               w.Name,
		URL:                w.URL,
		URLResolved:        w.URLResolved,
		Homepage:           w.Homepage,
		Favicon:            w.Favicon,
		Tags:               splitList(w.Tags),
		CountryCode:        w.CountryCode,
		State:              w.State,
		Language:           splitList(w.Language),
		LanguageCodes:      splitList(w.LanguageCodes),
		Votes:              w.Votes,
		Codec:              w.Codec,
		Bitrate:            w.Bitrate,
		LastCheckOK:        w.LastCheckOK > 0,
		LastCheckTime:      lastCheck,
		LastCheckOKTime:    lastCheckOK,
		LastLocalCheckTime: lastLocal,
		GeoLat:             w.GeoLat,
		GeoLong:            w.GeoLong,
		HasExtendedInfo:    w.HasExtendedInfo,
	}
	return nil
}

// Location returns the coordinates of the stream when both are known.
func (s Station) Location() (lat, long float64, ok bool) {
	if s.GeoLat == nil || s.GeoLong == nil {
		return 0, 0, false
	}
	return *s.GeoLat, *s.GeoLong, true
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// parseISO8601 accepts RFC 3339 timestamps; an empty string means never.
func parseISO8601(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}
