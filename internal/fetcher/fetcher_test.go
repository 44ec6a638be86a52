package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Amxn-2/cyber-feed/internal/config"
	"github.com/Amxn-2/cyber-feed/internal/source"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Advisories</title>
    <item>
      <title>Critical OpenSSL vulnerability patched</title>
      <description>Upgrade immediately.</description>
      <link>https://example.com/advisories/1</link>
      <pubDate>Mon, 02 Jan 2006 15:04:05 +0000</pubDate>
    </item>
    <item>
      <title></title>
      <description>Entry without a title.</description>
    </item>
  </channel>
</rss>`

const testPage = `<html><body>
  <div class="news_listing">
    <h3 class="list_title">Phishing campaign targets payment apps</h3>
    <p class="list_desc">Users report fake UPI collect requests.</p>
    <a href="/news/phishing-campaign">Read more</a>
  </div>
  <div class="news_listing">
    <h3 class="list_title"></h3>
  </div>
</body></html>`

func newTestFetcher(retryCount int) *Fetcher {
	return New(config.CollectorConfig{
		RequestTimeout: 5 * time.Second,
		RetryCount:     retryCount,
		UserAgent:      "cyber-feed-test/1.0",
	}, zap.NewNop())
}

func TestFetchFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cyber-feed-test/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testFeed))
	}))
	defer server.Close()

	desc := source.Descriptor{Name: "Advisories", URL: server.URL, Strategy: source.StrategyFeed}
	items := newTestFetcher(0).Fetch(context.Background(), desc)

	require.Len(t, items, 2)
	assert.Equal(t, "Critical OpenSSL vulnerability patched", items[0].Title)
	assert.Equal(t, "https://example.com/advisories/1", items[0].Link)
	assert.Equal(t, "Advisories", items[0].Source)
	assert.Equal(t, 2006, items[0].Published.Year())

	// Missing fields default rather than drop the entry.
	assert.Equal(t, "Untitled advisory", items[1].Title)
	assert.Equal(t, server.URL, items[1].Link)
}

func TestFetchRetriesThenGivesUp(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	desc := source.Descriptor{Name: "Broken", URL: server.URL, Strategy: source.StrategyFeed}
	items := newTestFetcher(1).Fetch(context.Background(), desc)

	assert.Empty(t, items)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchRetrySucceedsSecondAttempt(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(testFeed))
	}))
	defer server.Close()

	desc := source.Descriptor{Name: "Flaky", URL: server.URL, Strategy: source.StrategyFeed}
	items := newTestFetcher(2).Fetch(context.Background(), desc)

	assert.Len(t, items, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchScrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testPage))
	}))
	defer server.Close()

	desc := source.Descriptor{
		Name:     "ET CISO",
		URL:      server.URL,
		Strategy: source.StrategyScrape,
		Selectors: source.Selectors{
			Article:     ".news_listing",
			Title:       ".list_title",
			Description: ".list_desc",
			Link:        "a",
		},
	}
	items := newTestFetcher(0).Fetch(context.Background(), desc)

	// The titleless block is dropped.
	require.Len(t, items, 1)
	assert.Equal(t, "Phishing campaign targets payment apps", items[0].Title)
	assert.Equal(t, "Users report fake UPI collect requests.", items[0].Description)
	assert.Equal(t, server.URL+"/news/phishing-campaign", items[0].Link)
}

func TestFetchScrapeFallbackSelector(t *testing.T) {
	page := `<html><body><article><h2>Botnet takedown announced</h2><a href="https://example.com/b1">link</a></article></body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer server.Close()

	desc := source.Descriptor{
		Name:      "Portal",
		URL:       server.URL,
		Strategy:  source.StrategyScrape,
		Selectors: source.Selectors{Article: ".does-not-exist", Title: "h2", Link: "a"},
	}
	items := newTestFetcher(0).Fetch(context.Background(), desc)

	require.Len(t, items, 1)
	assert.Equal(t, "Botnet takedown announced", items[0].Title)
	assert.Equal(t, "https://example.com/b1", items[0].Link)
}

func TestFetchCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	desc := source.Descriptor{Name: "Cancelled", URL: server.URL, Strategy: source.StrategyFeed}
	items := newTestFetcher(3).Fetch(ctx, desc)
	assert.Empty(t, items)
}
