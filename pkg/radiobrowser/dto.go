package radiobrowser

import "github.com/google/uuid"

// Country is a country with the number of stations located in it.
type Country struct {
	Name string `json:"name"`
	// ISO31661 is the ISO 3166-1 alpha-2 code.
	ISO31661     string `json:"iso_3166_1"`
	StationCount int    `json:"stationcount"`
}

// StationTag is a tag with the number of stations carrying it.
type StationTag struct {
	Name         string `json:"name"`
	StationCount int    `json:"stationcount"`
}

// Language is a stream language with the number of stations using it.
type Language struct {
	Name         string `json:"name"`
	ISO639       string `json:"iso_639"`
	StationCount int    `json:"stationcount"`
}

// VoteResult reports whether a vote was counted.
type VoteResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// ClickResult reports a counted click and the stream to play.
type ClickResult struct {
	OK          bool      `json:"ok"`
	Message     string    `json:"message"`
	StationUUID uuid.UUID `json:"stationuuid"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
}
