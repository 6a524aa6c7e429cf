// Package scrape fetches the news listing page and extracts full article
// content from the pages it links to. Parsing is selector-driven so a site
// layout change is a configuration problem, not a code change.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/book-expert/logger"

	"github.com/Jukowsky/newsTTS/internal/config"
	"github.com/Jukowsky/newsTTS/internal/core"
)

// Browser-like headers; some news sites reject requests without them.
const (
	headerUserAgent = "User-Agent"
	headerAccept    = "Accept"
	userAgentValue  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	acceptValue     = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// Minimum length for a link text to count as a headline in the anchor-scan
// fallback. Filters out "Read more" style links.
const minFallbackTitleLength = 10

// Fetcher retrieves the listing page and locates article headlines on it.
type Fetcher struct {
	client *http.Client
	cfg    config.SourceConfig
	log    *logger.Logger
}

// NewFetcher creates a listing fetcher for the configured source.
func NewFetcher(cfg config.SourceConfig, log *logger.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSec) * time.Second,
		},
		cfg: cfg,
		log: log,
	}
}

// FetchListing fetches the configured listing URL and returns the headlines
// found on it, in page order, deduplicated by URL, and capped at the
// configured maximum. Fetch problems are reported as core.ErrNetwork; a page
// that yields no headlines is reported as core.ErrParse because it usually
// means the site structure changed. No retry happens at this layer.
func (f *Fetcher) FetchListing(ctx context.Context) ([]core.Headline, error) {
	doc, err := fetchDocument(ctx, f.client, f.cfg.ListingURL)
	if err != nil {
		return nil, err
	}

	headlines := f.headlinesFromCards(doc)
	if len(headlines) == 0 {
		f.log.Warn("No article cards matched %q, scanning anchors instead", f.cfg.ArticleCardSelector)

		headlines = f.headlinesFromAnchors(doc)
	}

	if len(headlines) == 0 {
		return nil, fmt.Errorf("%w: no headlines found at %s", core.ErrParse, f.cfg.ListingURL)
	}

	return headlines, nil
}

// headlinesFromCards walks the configured article-card elements.
func (f *Fetcher) headlinesFromCards(doc *goquery.Document) []core.Headline {
	if f.cfg.ArticleCardSelector == "" {
		return nil
	}

	collector := newHeadlineCollector(f.cfg.ListingURL, f.cfg.MaxArticles)

	doc.Find(f.cfg.ArticleCardSelector).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		title := strings.TrimSpace(card.Find(f.cfg.TitleSelector).First().Text())

		link := card.Find(f.cfg.LinkSelector).First()
		if link.Length() == 0 {
			link = card.Find("a").First()
		}

		href, ok := link.Attr("href")
		if title == "" || !ok {
			return true
		}

		return collector.add(title, href)
	})

	return collector.headlines
}

// headlinesFromAnchors is the fallback when no cards match: scan every anchor
// whose href contains the configured article path hint.
func (f *Fetcher) headlinesFromAnchors(doc *goquery.Document) []core.Headline {
	if f.cfg.ArticlePathHint == "" {
		return nil
	}

	collector := newHeadlineCollector(f.cfg.ListingURL, f.cfg.MaxArticles)

	doc.Find("a[href]").EachWithBreak(func(_ int, anchor *goquery.Selection) bool {
		href, _ := anchor.Attr("href")
		if !strings.Contains(href, f.cfg.ArticlePathHint) ||
			strings.HasSuffix(strings.TrimRight(href, "/"), strings.Trim(f.cfg.ArticlePathHint, "/")) {
			return true
		}

		title := strings.TrimSpace(anchor.Text())
		if len(title) < minFallbackTitleLength {
			return true
		}

		return collector.add(title, href)
	})

	return collector.headlines
}

// headlineCollector deduplicates by resolved URL while preserving page order.
type headlineCollector struct {
	base      string
	limit     int
	seen      map[string]struct{}
	headlines []core.Headline
}

func newHeadlineCollector(base string, limit int) *headlineCollector {
	return &headlineCollector{
		base:      base,
		limit:     limit,
		seen:      make(map[string]struct{}),
		headlines: nil,
	}
}

// add records one headline and reports whether collection should continue.
func (c *headlineCollector) add(title, href string) bool {
	resolved, err := resolveURL(c.base, href)
	if err != nil {
		return true
	}

	if _, dup := c.seen[resolved]; dup {
		return true
	}

	c.seen[resolved] = struct{}{}
	c.headlines = append(c.headlines, core.Headline{Title: title, URL: resolved})

	return len(c.headlines) < c.limit
}

// resolveURL resolves href against the listing URL, so relative article links
// become absolute.
func resolveURL(base, href string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL %q: %w", base, err)
	}

	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("failed to parse link %q: %w", href, err)
	}

	return baseURL.ResolveReference(ref).String(), nil
}

// fetchDocument issues a GET with browser-like headers and parses the body.
func fetchDocument(ctx context.Context, client *http.Client, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", pageURL, err)
	}

	req.Header.Set(headerUserAgent, userAgentValue)
	req.Header.Set(headerAccept, acceptValue)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request to %s failed: %v", core.ErrNetwork, pageURL, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %s returned status %d", core.ErrNetwork, pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse markup from %s: %v", core.ErrParse, pageURL, err)
	}

	return doc, nil
}
