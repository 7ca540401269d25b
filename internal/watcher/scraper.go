package watcher

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/radiodir/internal/logger"
	"github.com/samvad-hq/radiodir/pkg/feeds"
	"github.com/samvad-hq/radiodir/pkg/httpclient"
	"github.com/samvad-hq/radiodir/pkg/publishers"
)

const (
	maxHTMLBodyBytes      = 1 << 20 // 1 MiB
	defaultScraperTimeout = 15 * time.Second
)

// Scraper fetches station homepages and extracts their OpenGraph metadata.
type Scraper struct {
	client    httpclient.Client
	log       logger.Logger
	userAgent string
}

// NewScraper constructs a scraper with the provided HTTP client (or default).
func NewScraper(client httpclient.Client, log logger.Logger) *Scraper {
	if client == nil {
		client = httpclient.NewRestyClient(defaultScraperTimeout)
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Scraper{client: client, log: log}
}

// WithUserAgent sets the User-Agent sent to homepages.
func (s *Scraper) WithUserAgent(ua string) *Scraper {
	s.userAgent = strings.TrimSpace(ua)
	return s
}

// Enrich fetches each homepage in turn, pausing feed.RequestDelay between
// requests. Items without a homepage or whose page fails are kept as is.
// On cancellation the items processed so far are returned.
func (s *Scraper) Enrich(ctx context.Context, feed feeds.Feed, items []Item) []Item {
	delay := feed.RequestDelay()
	out := append([]Item(nil), items...)

	for i, item := range items {
		select {
		case <-ctx.Done():
			return out[:i]
		default:
		}

		homepage := strings.TrimSpace(item.Station.Homepage)
		if homepage == "" {
			continue
		}

		meta, err := s.fetchAndParse(ctx, homepage)
		if err != nil {
			s.log.WarnObj("station homepage scrape failed", "metadata_error", map[string]any{
				"feed_id":      feed.ID,
				"station_uuid": item.Station.StationUUID.String(),
				"url":          homepage,
				"error":        err.Error(),
			})
		} else {
			out[i].Homepage = meta
		}

		if delay > 0 && i < len(items)-1 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return out[:i+1]
			case <-timer.C:
			}
		}
	}

	return out
}

func (s *Scraper) fetchAndParse(ctx context.Context, homepage string) (*publishers.HomepageMeta, error) {
	headers := map[string]string{"Accept": "text/html,application/xhtml+xml"}
	if s.userAgent != "" {
		headers["User-Agent"] = s.userAgent
	}

	resp, err := s.client.Get(ctx, homepage, headers)
	if err != nil {
		return nil, fmt.Errorf("http fetch: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		return nil, fmt.Errorf("status %d body: %s", resp.StatusCode(), snippet)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	meta, err := parseMeta(body)
	if err != nil {
		return nil, err
	}
	meta.Image = resolveURL(meta.Image, homepage)
	if meta == (publishers.HomepageMeta{}) {
		return nil, nil
	}
	return &meta, nil
}

func parseMeta(body []byte) (publishers.HomepageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return publishers.HomepageMeta{}, fmt.Errorf("parse html: %w", err)
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	return publishers.HomepageMeta{
		Title: firstNonEmpty(
			extract(`meta[property="og:title"]`),
			strings.TrimSpace(doc.Find("title").First().Text()),
		),
		Description: firstNonEmpty(
			extract(`meta[property="og:description"]`),
			extract(`meta[name="description"]`),
		),
		Image: extract(`meta[property="og:image"]`),
	}, nil
}

// resolveURL makes ref absolute against base. Unparseable input is returned unchanged.
func resolveURL(ref, base string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
