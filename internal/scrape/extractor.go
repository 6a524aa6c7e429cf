package scrape

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/book-expert/logger"

	"github.com/Jukowsky/newsTTS/internal/config"
	"github.com/Jukowsky/newsTTS/internal/core"
)

// Author reported when the article page does not expose one.
const unknownAuthor = "Unknown"

// Attribute and selector names for publication-date discovery.
const (
	timeSelector      = "time[datetime]"
	datetimeAttr      = "datetime"
	metaDateSelector  = `meta[property="article:published_time"]`
	metaContentAttr   = "content"
	publishedDateOnly = "2006-01-02"
)

// Extractor turns one headline into a full core.Article by fetching the
// article page and pulling the primary content container out of it.
type Extractor struct {
	client *http.Client
	cfg    config.SourceConfig
	log    *logger.Logger
	now    func() time.Time
}

// NewExtractor creates an article extractor for the configured source.
func NewExtractor(cfg config.SourceConfig, log *logger.Logger) *Extractor {
	return &Extractor{
		client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSec) * time.Second,
		},
		cfg: cfg,
		log: log,
		now: time.Now,
	}
}

// ExtractArticle fetches the article page behind the headline and extracts
// its body text. The configured content selectors are tried in order; within
// the first container that matches, paragraph text is collected and any
// elements matching the exclusion selectors (navigation, ads, related-story
// boxes) are dropped first. A page where no selector yields text is reported
// as core.ErrParse.
func (e *Extractor) ExtractArticle(ctx context.Context, headline core.Headline) (core.Article, error) {
	doc, err := fetchDocument(ctx, e.client, headline.URL)
	if err != nil {
		return core.Article{}, err
	}

	body := e.extractBody(doc)
	if body == "" {
		return core.Article{}, fmt.Errorf(
			"%w: no content found at %s with selectors %v",
			core.ErrParse, headline.URL, e.cfg.ContentSelectors,
		)
	}

	return core.Article{
		Title:       headline.Title,
		Author:      e.extractAuthor(doc),
		URL:         headline.URL,
		Body:        body,
		PublishedAt: e.extractPublishedAt(doc),
	}, nil
}

// extractBody tries each configured content selector in order and returns the
// joined paragraph text of the first container that yields any.
func (e *Extractor) extractBody(doc *goquery.Document) string {
	for _, selector := range e.cfg.ContentSelectors {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}

		for _, exclude := range e.cfg.ExcludeSelectors {
			container.Find(exclude).Remove()
		}

		var paragraphs []string

		container.Find("p").Each(func(_ int, paragraph *goquery.Selection) {
			text := strings.TrimSpace(paragraph.Text())
			if text != "" {
				paragraphs = append(paragraphs, text)
			}
		})

		if len(paragraphs) > 0 {
			return strings.Join(paragraphs, "\n")
		}
	}

	return ""
}

func (e *Extractor) extractAuthor(doc *goquery.Document) string {
	if e.cfg.AuthorSelector == "" {
		return unknownAuthor
	}

	author := strings.TrimSpace(doc.Find(e.cfg.AuthorSelector).First().Text())
	if author == "" {
		return unknownAuthor
	}

	return author
}

// extractPublishedAt reads the publication date from a <time datetime>
// element or the article:published_time meta tag, falling back to the
// current time when neither parses.
func (e *Extractor) extractPublishedAt(doc *goquery.Document) time.Time {
	candidates := []string{
		doc.Find(timeSelector).First().AttrOr(datetimeAttr, ""),
		doc.Find(metaDateSelector).First().AttrOr(metaContentAttr, ""),
	}

	for _, raw := range candidates {
		if raw == "" {
			continue
		}

		for _, layout := range []string{time.RFC3339, publishedDateOnly} {
			parsed, err := time.Parse(layout, raw)
			if err == nil {
				return parsed
			}
		}
	}

	return e.now()
}
