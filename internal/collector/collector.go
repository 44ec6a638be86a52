// Package collector orchestrates one collection cycle: fan out a fetch per
// registered source, then normalize, classify and persist every item. One
// cycle runs at a time; overlapping requests are rejected, not queued.
package collector

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Amxn-2/cyber-feed/internal/classify"
	"github.com/Amxn-2/cyber-feed/internal/config"
	"github.com/Amxn-2/cyber-feed/internal/models"
	"github.com/Amxn-2/cyber-feed/internal/normalize"
	mongorepo "github.com/Amxn-2/cyber-feed/internal/repository/mongo"
	"github.com/Amxn-2/cyber-feed/internal/source"
	"github.com/Amxn-2/cyber-feed/internal/util"
)

// ErrCycleInProgress rejects a cycle request while one is already running.
var ErrCycleInProgress = errors.New("collection cycle already in progress")

// Fetcher retrieves raw items for one source. Failures surface as an empty
// slice, never an error.
type Fetcher interface {
	Fetch(ctx context.Context, desc source.Descriptor) []models.RawItem
}

// Deduper is the optional fast-path fingerprint cache in front of the store.
type Deduper interface {
	MarkSeen(ctx context.Context, fingerprint string) bool
	Forget(ctx context.Context, fingerprint string)
}

// Publisher emits newly inserted incidents to the event stream.
type Publisher interface {
	PublishIncident(ctx context.Context, incident *models.Incident) error
}

// CycleResult summarizes one collection cycle.
type CycleResult struct {
	ItemsCollected int           `json:"items_collected"`
	ItemsInserted  int           `json:"items_inserted"`
	SourcesActive  int           `json:"sources_active"`
	SourcesTotal   int           `json:"sources_total"`
	Duration       time.Duration `json:"duration"`
}

// Status is the collector's contribution to the process status snapshot.
type Status struct {
	InProgress    bool      `json:"in_progress"`
	LastRun       time.Time `json:"last_run"`
	SourcesActive int       `json:"sources_active"`
	SourcesTotal  int       `json:"sources_total"`
	LastInserted  int       `json:"last_inserted"`
}

// Collector drives the pipeline across all registered sources.
type Collector struct {
	sources    []source.Descriptor
	fetcher    Fetcher
	classifier classify.Classifier
	repo       mongorepo.IncidentRepository
	dedup      Deduper
	publisher  Publisher
	strict     bool
	fanout     int
	logger     *zap.Logger

	mu           sync.Mutex
	inProgress   bool
	lastRun      time.Time
	lastActive   int
	lastInserted int
}

// New wires the collector. dedup and publisher may be nil; both are
// optional layers.
func New(
	cfg *config.Config,
	sources []source.Descriptor,
	fetcher Fetcher,
	classifier classify.Classifier,
	repo mongorepo.IncidentRepository,
	dedup Deduper,
	publisher Publisher,
	logger *zap.Logger,
) *Collector {
	fanout := cfg.Collector.ConcurrencyCap
	if fanout <= 0 {
		fanout = 1
	}
	return &Collector{
		sources:    sources,
		fetcher:    fetcher,
		classifier: classifier,
		repo:       repo,
		dedup:      dedup,
		publisher:  publisher,
		strict:     cfg.StrictRelevance(),
		fanout:     fanout,
		logger:     logger,
	}
}

// TryStart claims the in-progress flag. Callers must pair a successful claim
// with finish on every exit path.
func (c *Collector) TryStart() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inProgress {
		return false
	}
	c.inProgress = true
	return true
}

func (c *Collector) finish(result CycleResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inProgress = false
	c.lastRun = time.Now().UTC()
	c.lastActive = result.SourcesActive
	c.lastInserted = result.ItemsInserted
}

// RunCycle executes one full collection cycle. It returns
// ErrCycleInProgress when another cycle holds the flag; any other outcome,
// including every source failing, is a completed (possibly empty) cycle.
func (c *Collector) RunCycle(ctx context.Context) (CycleResult, error) {
	if !c.TryStart() {
		return CycleResult{}, ErrCycleInProgress
	}
	return c.run(ctx), nil
}

// RunClaimed executes a cycle for a caller that already holds the
// in-progress flag via TryStart. It lets callers reserve the flag
// synchronously and run the cycle later, typically on another goroutine.
func (c *Collector) RunClaimed(ctx context.Context) CycleResult {
	return c.run(ctx)
}

// run assumes the in-progress flag is held and releases it on return.
func (c *Collector) run(ctx context.Context) CycleResult {
	start := time.Now()
	result := CycleResult{SourcesTotal: len(c.sources)}
	defer func() {
		result.Duration = time.Since(start)
		c.finish(result)
		c.logger.Info("Collection cycle finished",
			util.Int("items_collected", result.ItemsCollected),
			util.Int("items_inserted", result.ItemsInserted),
			util.Int("sources_active", result.SourcesActive),
			util.Int("sources_total", result.SourcesTotal),
			util.Duration("duration", result.Duration),
		)
	}()

	var mu sync.Mutex
	group := &errgroup.Group{}
	group.SetLimit(c.fanout)

	for _, desc := range c.sources {
		desc := desc
		group.Go(func() error {
			// Fetch absorbs its own failures; a source returning nothing
			// must not cancel its siblings.
			items := c.fetcher.Fetch(ctx, desc)

			collected, inserted := 0, 0
			for _, item := range items {
				collected++
				if c.processItem(ctx, desc, item) {
					inserted++
				}
			}

			mu.Lock()
			defer mu.Unlock()
			result.ItemsCollected += collected
			result.ItemsInserted += inserted
			if collected > 0 {
				result.SourcesActive++
			}
			return nil
		})
	}

	_ = group.Wait()
	return result
}

// processItem runs one raw item through normalize, filter, classify and
// persist. Any failure drops the item and the cycle continues.
func (c *Collector) processItem(ctx context.Context, desc source.Descriptor, item models.RawItem) bool {
	textLimit := normalize.FeedTextLimit
	if desc.Strategy == source.StrategyScrape {
		textLimit = normalize.ScrapeTextLimit
	}

	title := normalize.CleanTitle(item.Title)
	description := normalize.Clean(item.Description, textLimit)
	link := normalize.ResolveLink(desc.URL, item.Link)

	if !normalize.Filter(title, description, c.strict) {
		c.logger.Debug("Item dropped by relevance filter",
			util.String("source", desc.Name),
			util.String("title", title),
		)
		return false
	}

	fingerprint := models.Fingerprint(title, description, link)
	if c.dedup != nil && c.dedup.MarkSeen(ctx, fingerprint) {
		c.logger.Debug("Duplicate incident skipped by cache",
			util.String("fingerprint", fingerprint),
			util.String("title", title),
		)
		return false
	}

	verdict := c.classifier.Classify(ctx, title, description, item.RawContent)

	published := item.Published
	if published.IsZero() {
		published = time.Now().UTC()
	}
	now := time.Now().UTC()

	incident := &models.Incident{
		ID:              models.NewIncidentID(),
		Title:           title,
		Description:     description,
		Category:        verdict.Category,
		Severity:        verdict.Severity,
		Source:          desc.Name,
		SourceURL:       link,
		Location:        verdict.Location,
		AffectedSystems: affectedSystems(verdict.Severity, verdict.Analysis.RiskScore),
		ThreatActor:     verdict.ThreatActor,
		Analysis:        verdict.Analysis,
		IsIndiaSpecific: verdict.IndiaOnly,
		Tags:            verdict.Tags,
		Fingerprint:     fingerprint,
		Timestamp:       published,
		IngestedAt:      now,
		LastUpdated:     now,
	}

	inserted, err := c.repo.Insert(ctx, incident)
	if err != nil {
		c.logger.Error("Failed to persist incident",
			util.String("source", desc.Name),
			util.String("title", title),
			util.ErrorField(err),
		)
		if c.dedup != nil {
			// Let the next cycle retry this item instead of caching a ghost.
			c.dedup.Forget(ctx, fingerprint)
		}
		return false
	}
	if !inserted {
		c.logger.Debug("Duplicate incident skipped by store",
			util.String("fingerprint", fingerprint),
			util.String("title", title),
		)
		return false
	}

	if c.publisher != nil {
		if err := c.publisher.PublishIncident(ctx, incident); err != nil {
			c.logger.Warn("Failed to publish incident event",
				util.String("incident_id", incident.ID),
				util.ErrorField(err),
			)
		}
	}
	return true
}

// affectedSystems estimates reach from severity and risk, mirroring the
// scale the dashboard charts expect.
func affectedSystems(severity models.Severity, riskScore int) int {
	switch severity {
	case models.SeverityCritical:
		return riskScore * 100
	case models.SeverityHigh:
		return riskScore * 50
	default:
		return riskScore * 10
	}
}

// Status returns the collector's current snapshot.
func (c *Collector) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		InProgress:    c.inProgress,
		LastRun:       c.lastRun,
		SourcesActive: c.lastActive,
		SourcesTotal:  len(c.sources),
		LastInserted:  c.lastInserted,
	}
}

// SourcesTotal reports how many sources are registered.
func (c *Collector) SourcesTotal() int {
	return len(c.sources)
}
