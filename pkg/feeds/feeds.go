// Package feeds loads the watcher's feed definitions (YAML, JSON or TOML)
// and resolves the fetcher that polls each one.
package feeds

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/radiodir/pkg/radiobrowser"
)

// Feed kinds.
const (
	KindTopVote = "top_vote"
	KindSearch  = "search"
	KindAll     = "all"
	KindByUUID  = "by_uuid"
)

// Feed is one polled view of the directory.
type Feed struct {
	ID             string   `json:"id" yaml:"id" toml:"id" validate:"required"`
	Name           string   `json:"name" yaml:"name" toml:"name" validate:"required"`
	Kind           string   `json:"kind" yaml:"kind" toml:"kind" validate:"required,oneof=top_vote search all by_uuid"`
	Query          string   `json:"query" yaml:"query" toml:"query" validate:"required_if=Kind search"`
	UUIDs          []string `json:"uuids" yaml:"uuids" toml:"uuids" validate:"required_if=Kind by_uuid,dive,uuid"`
	Limit          int      `json:"limit" yaml:"limit" toml:"limit" validate:"gte=0,lte=1000"`
	Filter         string   `json:"filter" yaml:"filter" toml:"filter"`
	Enrich         bool     `json:"enrich" yaml:"enrich" toml:"enrich"`
	RequestDelayMs int      `json:"request_delay_ms" yaml:"request_delay_ms" toml:"request_delay_ms" validate:"gte=0"`

	// filter is compiled once by ParseFeeds.
	filter *Filter
}

type registry struct {
	Feeds []Feed `json:"feeds" yaml:"feeds" toml:"feeds"`
}

var (
	regMu                 sync.RWMutex
	currentReg            registry
	feedsIdx              map[string]Feed
	defaultRequestDelayMs = 250
	validate              = validator.New()
)

// Feeds returns a copy of the currently loaded feeds.
func Feeds() []Feed {
	regMu.RLock()
	defer regMu.RUnlock()

	if len(currentReg.Feeds) == 0 {
		return nil
	}

	out := make([]Feed, len(currentReg.Feeds))
	copy(out, currentReg.Feeds)
	return out
}

// FeedByID returns the feed with the given id, if loaded.
func FeedByID(id string) (Feed, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Feed{}, false
	}

	regMu.RLock()
	defer regMu.RUnlock()

	if feedsIdx == nil {
		return Feed{}, false
	}

	f, ok := feedsIdx[id]
	return f, ok
}

// LoadFeeds loads the feed registry from path and makes it current.
func LoadFeeds(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("feeds file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open feeds file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read feeds file: %w", err)
	}

	list, err := ParseFeeds(raw, filepath.Ext(path))
	if err != nil {
		return err
	}

	idx := make(map[string]Feed, len(list))
	for _, f := range list {
		idx[f.ID] = f
	}

	regMu.Lock()
	currentReg = registry{Feeds: list}
	feedsIdx = idx
	regMu.Unlock()

	return nil
}

// ParseFeeds decodes, sanitizes and validates a feed registry. ext selects
// the format; an empty ext tries each format in turn.
func ParseFeeds(data []byte, ext string) ([]Feed, error) {
	reg, err := parseRegistry(data, ext)
	if err != nil {
		return nil, err
	}
	if len(reg.Feeds) == 0 {
		return nil, errors.New("feeds file contains no feeds entries")
	}

	seen := make(map[string]struct{}, len(reg.Feeds))
	for i := range reg.Feeds {
		f := sanitizeFeed(reg.Feeds[i])
		filter, err := validateFeed(f)
		if err != nil {
			return nil, fmt.Errorf("feed[%d]: %w", i, err)
		}
		f.filter = filter
		if _, exists := seen[f.ID]; exists {
			return nil, fmt.Errorf("duplicate feed id %q", f.ID)
		}
		seen[f.ID] = struct{}{}
		reg.Feeds[i] = f
	}
	return reg.Feeds, nil
}

func parseRegistry(data []byte, ext string) (registry, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
		{name: "toml", ext: ".toml", fn: toml.Unmarshal},
	}

	for _, d := range decoders {
		if ext == "" {
			if reg, err := unmarshalRegistry(d.name, data, d.fn); err == nil {
				return reg, nil
			}
			continue
		}
		if ext == d.ext {
			return unmarshalRegistry(d.name, data, d.fn)
		}
	}

	if ext != "" {
		return registry{}, fmt.Errorf("feeds file extension %q not supported (expected YAML, JSON or TOML)", ext)
	}
	return registry{}, errors.New("feeds file format not recognized (expected YAML, JSON or TOML)")
}

type unmarshalFn func([]byte, any) error

func unmarshalRegistry(name string, data []byte, fn unmarshalFn) (registry, error) {
	var reg registry
	if err := fn(data, &reg); err != nil {
		return registry{}, fmt.Errorf("decode %s feeds: %w", name, err)
	}
	return reg, nil
}

func sanitizeFeed(f Feed) Feed {
	f.ID = strings.TrimSpace(f.ID)
	f.Name = strings.TrimSpace(f.Name)
	f.Kind = strings.ToLower(strings.TrimSpace(f.Kind))
	f.Query = strings.TrimSpace(f.Query)
	f.Filter = strings.TrimSpace(f.Filter)

	var uuids []string
	for _, id := range f.UUIDs {
		if id = strings.ToLower(strings.TrimSpace(id)); id != "" {
			uuids = append(uuids, id)
		}
	}
	f.UUIDs = uuids

	if f.RequestDelayMs <= 0 {
		f.RequestDelayMs = defaultRequestDelayMs
	}
	return f
}

// validateFeed checks f and returns its compiled filter.
func validateFeed(f Feed) (*Filter, error) {
	if err := validate.Struct(f); err != nil {
		var valErrs validator.ValidationErrors
		if errors.As(err, &valErrs) {
			msgs := make([]string, 0, len(valErrs))
			for _, ve := range valErrs {
				msgs = append(msgs, formatValidationError(ve))
			}
			return nil, fmt.Errorf("feed %q: %s", f.ID, strings.Join(msgs, "; "))
		}
		return nil, err
	}
	filter, err := CompileFilter(f.Filter)
	if err != nil {
		return nil, fmt.Errorf("feed %q: %w", f.ID, err)
	}
	return filter, nil
}

// StationFilter returns the feed's compiled filter. Feeds built outside
// ParseFeeds, or whose Filter changed since, are compiled on demand.
func (f Feed) StationFilter() (*Filter, error) {
	if f.filter != nil && f.filter.Expression() == strings.TrimSpace(f.Filter) {
		return f.filter, nil
	}
	return CompileFilter(f.Filter)
}

func formatValidationError(ve validator.FieldError) string {
	field := strings.ToLower(ve.Field())
	switch ve.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, ve.Param())
	case "uuid":
		return fmt.Sprintf("%s contains an invalid uuid %v", field, ve.Value())
	case "gte", "lte":
		return fmt.Sprintf("%s must be %s %s", field, ve.Tag(), ve.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, ve.Tag())
	}
}

// RequestDelay returns the pause between homepage requests while enriching.
func (f Feed) RequestDelay() time.Duration {
	if f.RequestDelayMs <= 0 {
		return time.Duration(defaultRequestDelayMs) * time.Millisecond
	}
	return time.Duration(f.RequestDelayMs) * time.Millisecond
}

// Page returns the window polled for list kinds.
func (f Feed) Page() radiobrowser.Page {
	return radiobrowser.Page{Limit: f.Limit}
}

// StationIDs parses UUIDs. Validation guarantees they are well formed.
func (f Feed) StationIDs() ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(f.UUIDs))
	for _, raw := range f.UUIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("feed %q: parse uuid %q: %w", f.ID, raw, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
