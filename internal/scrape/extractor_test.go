package scrape_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jukowsky/newsTTS/internal/core"
	"github.com/Jukowsky/newsTTS/internal/scrape"
)

const articleHTML = `<html><head>
<meta property="article:published_time" content="2026-08-20T09:30:00Z">
</head><body>
<div class="author-info">Jane Writer</div>
<div class="article-content">
  <p>First paragraph of the column.</p>
  <div class="related"><p>You may also like this other story.</p></div>
  <p>Second paragraph of the column.</p>
  <p>   </p>
</div>
</body></html>`

const fallbackSelectorHTML = `<html><body>
<article>
  <p>Body found through the second selector.</p>
</article>
</body></html>`

func TestExtractArticleJoinsParagraphsAndStripsBoilerplate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	extractor := scrape.NewExtractor(sourceConfig(server.URL), newTestLogger(t))

	headline := core.Headline{Title: "The Column", URL: server.URL + "/columns/the-column"}

	article, err := extractor.ExtractArticle(context.Background(), headline)
	require.NoError(t, err)

	assert.Equal(t, "The Column", article.Title)
	assert.Equal(t, "Jane Writer", article.Author)
	assert.Equal(t, headline.URL, article.URL)
	assert.Equal(t, "First paragraph of the column.\nSecond paragraph of the column.", article.Body)
	assert.Equal(t, time.Date(2026, time.August, 20, 9, 30, 0, 0, time.UTC), article.PublishedAt)
}

func TestExtractArticleTriesSelectorsInOrder(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(fallbackSelectorHTML))
	}))
	defer server.Close()

	extractor := scrape.NewExtractor(sourceConfig(server.URL), newTestLogger(t))

	article, err := extractor.ExtractArticle(context.Background(), core.Headline{
		Title: "Fallback",
		URL:   server.URL + "/columns/fallback",
	})
	require.NoError(t, err)

	assert.Equal(t, "Body found through the second selector.", article.Body)
	assert.Equal(t, "Unknown", article.Author)
}

func TestExtractArticleMissingContentIsParseError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body><div class='sidebar'>No article here</div></body></html>"))
	}))
	defer server.Close()

	extractor := scrape.NewExtractor(sourceConfig(server.URL), newTestLogger(t))

	_, err := extractor.ExtractArticle(context.Background(), core.Headline{
		Title: "Missing",
		URL:   server.URL + "/columns/missing",
	})
	require.ErrorIs(t, err, core.ErrParse)
}

func TestExtractArticleNonOKStatusIsNetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	extractor := scrape.NewExtractor(sourceConfig(server.URL), newTestLogger(t))

	_, err := extractor.ExtractArticle(context.Background(), core.Headline{
		Title: "Gone",
		URL:   server.URL + "/columns/gone",
	})
	require.ErrorIs(t, err, core.ErrNetwork)
}
