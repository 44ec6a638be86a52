// Package fetcher retrieves raw items from registered sources. A fetch never
// propagates an error to the orchestrator: transient failures are retried
// with exponential backoff and final failures degrade to an empty result.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/Amxn-2/cyber-feed/internal/config"
	"github.com/Amxn-2/cyber-feed/internal/models"
	"github.com/Amxn-2/cyber-feed/internal/normalize"
	"github.com/Amxn-2/cyber-feed/internal/source"
	"github.com/Amxn-2/cyber-feed/internal/util"
)

const (
	maxFeedEntries  = 20
	maxScrapedItems = 10
	responseByteCap = 4 << 20
	feedPlaceholder = "Untitled advisory"
)

// Fetcher turns source descriptors into raw items over a shared HTTP client.
type Fetcher struct {
	client     *http.Client
	parser     *gofeed.Parser
	userAgent  string
	retryCount int
	logger     *zap.Logger
}

// New builds a fetcher with the configured timeout and retry policy.
func New(cfg config.CollectorConfig, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		parser:     gofeed.NewParser(),
		userAgent:  cfg.UserAgent,
		retryCount: cfg.RetryCount,
		logger:     logger,
	}
}

// Fetch retrieves all items from one source. It retries transient failures
// up to the configured count with 2^attempt second backoff and returns an
// empty slice after exhausting retries; errors never cross this boundary.
func (f *Fetcher) Fetch(ctx context.Context, desc source.Descriptor) []models.RawItem {
	for attempt := 0; attempt <= f.retryCount; attempt++ {
		items, err := f.fetchOnce(ctx, desc)
		if err == nil {
			f.logger.Info("Fetched source",
				util.String("source", desc.Name),
				util.String("strategy", desc.Strategy.String()),
				util.Int("items", len(items)),
			)
			return items
		}

		if attempt < f.retryCount {
			f.logger.Warn("Fetch attempt failed, retrying",
				util.String("source", desc.Name),
				util.Int("attempt", attempt+1),
				util.ErrorField(err),
			)
			if !sleepCtx(ctx, time.Duration(1<<attempt)*time.Second) {
				return nil
			}
			continue
		}

		f.logger.Error("Fetch failed after retries",
			util.String("source", desc.Name),
			util.ErrorField(err),
		)
	}
	return nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, desc source.Descriptor) ([]models.RawItem, error) {
	body, err := f.get(ctx, desc.URL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	switch desc.Strategy {
	case source.StrategyScrape:
		return f.parseScrape(body, desc)
	default:
		return f.parseFeed(body, desc)
	}
}

func (f *Fetcher) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return newLimitedBody(resp.Body), nil
}

// parseFeed maps the newest feed entries onto raw items, defaulting the
// fields upstream feeds routinely omit.
func (f *Fetcher) parseFeed(body io.Reader, desc source.Descriptor) ([]models.RawItem, error) {
	feed, err := f.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := feed.Items
	if len(entries) > maxFeedEntries {
		entries = entries[:maxFeedEntries]
	}

	items := make([]models.RawItem, 0, len(entries))
	for _, entry := range entries {
		title := entry.Title
		if title == "" {
			title = feedPlaceholder
		}

		description := entry.Description
		if description == "" {
			description = entry.Content
		}

		link := entry.Link
		if link == "" {
			link = desc.URL
		}

		published := time.Now().UTC()
		if entry.PublishedParsed != nil {
			published = entry.PublishedParsed.UTC()
		} else if entry.UpdatedParsed != nil {
			published = entry.UpdatedParsed.UTC()
		}

		items = append(items, models.RawItem{
			Title:       title,
			Description: description,
			Link:        link,
			Source:      desc.Name,
			SourceURL:   link,
			RawContent:  entry.Description + entry.Content,
			Published:   published,
		})
	}
	return items, nil
}

// parseScrape extracts article blocks with the source selectors, cascading
// through the generic fallback list when the primary selector matches
// nothing.
func (f *Fetcher) parseScrape(body io.Reader, desc source.Descriptor) ([]models.RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	blocks := doc.Find(desc.Selectors.Article)
	if blocks.Length() == 0 {
		for _, fallback := range source.FallbackArticleSelectors {
			if blocks = doc.Find(fallback); blocks.Length() > 0 {
				f.logger.Debug("Primary selector empty, fallback matched",
					util.String("source", desc.Name),
					util.String("selector", fallback),
				)
				break
			}
		}
	}

	var items []models.RawItem
	blocks.EachWithBreak(func(_ int, block *goquery.Selection) bool {
		if len(items) >= maxScrapedItems {
			return false
		}
		if item, ok := f.parseBlock(block, desc); ok {
			items = append(items, item)
		}
		return true
	})
	return items, nil
}

func (f *Fetcher) parseBlock(block *goquery.Selection, desc source.Descriptor) (models.RawItem, bool) {
	sel := desc.Selectors

	titleNode := block
	if sel.Title != "" {
		titleNode = block.Find(sel.Title)
	}
	title := normalize.CleanTitle(titleNode.Text())
	if title == "" {
		return models.RawItem{}, false
	}

	description := ""
	if sel.Description != "" {
		description = block.Find(sel.Description).Text()
	}
	if description == "" {
		// Anchor-style sources carry their context in the surrounding block.
		description = block.Text()
	}

	linkNode := block
	if sel.Link != "" {
		linkNode = block.Find(sel.Link)
	}
	href, _ := linkNode.Attr("href")
	link := normalize.ResolveLink(desc.URL, href)

	published := time.Now().UTC()
	if sel.Date != "" {
		published = normalize.ParseTime(block.Find(sel.Date).Text())
	}

	return models.RawItem{
		Title:       title,
		Description: description,
		Link:        link,
		Source:      desc.Name,
		SourceURL:   link,
		RawContent:  block.Text(),
		Published:   published,
	}, true
}

// sleepCtx waits for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

type limitedBody struct {
	io.Reader
	closer io.Closer
}

func newLimitedBody(rc io.ReadCloser) io.ReadCloser {
	return &limitedBody{Reader: io.LimitReader(rc, responseByteCap), closer: rc}
}

func (l *limitedBody) Close() error {
	return l.closer.Close()
}
