package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Amxn-2/cyber-feed/internal/classify"
	"github.com/Amxn-2/cyber-feed/internal/collector"
	"github.com/Amxn-2/cyber-feed/internal/config"
	"github.com/Amxn-2/cyber-feed/internal/models"
	mongorepo "github.com/Amxn-2/cyber-feed/internal/repository/mongo"
	"github.com/Amxn-2/cyber-feed/internal/source"
)

type stubRepo struct {
	mu        sync.Mutex
	incidents map[string]*models.Incident
	todayN    int64
	updated   []string
}

func newStubRepo() *stubRepo {
	return &stubRepo{incidents: make(map[string]*models.Incident)}
}

func (r *stubRepo) Insert(_ context.Context, incident *models.Incident) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.incidents[incident.ID] = incident
	return true, nil
}

func (r *stubRepo) InsertBatch(ctx context.Context, incidents []*models.Incident) int {
	for _, incident := range incidents {
		r.Insert(ctx, incident)
	}
	return len(incidents)
}

func (r *stubRepo) Find(context.Context, mongorepo.Filter) ([]models.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Incident, 0, len(r.incidents))
	for _, incident := range r.incidents {
		out = append(out, *incident)
	}
	return out, nil
}

func (r *stubRepo) FindByID(_ context.Context, id string) (*models.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.incidents[id], nil
}

func (r *stubRepo) UpdateAnalysis(_ context.Context, incident *models.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *incident
	r.incidents[incident.ID] = &stored
	r.updated = append(r.updated, incident.ID)
	return nil
}

func (r *stubRepo) CountSince(context.Context, time.Time) (int64, error) {
	return r.todayN, nil
}

func (r *stubRepo) Analytics(context.Context) (*models.Analytics, error) {
	return &models.Analytics{TotalIncidents: len(r.incidents)}, nil
}

func (r *stubRepo) MapData(context.Context, string, string, int64) ([]models.MapPoint, error) {
	return nil, nil
}

func (r *stubRepo) HealthCheck(context.Context) error { return nil }

type noopFetcher struct{}

func (noopFetcher) Fetch(context.Context, source.Descriptor) []models.RawItem { return nil }

// blockingFetcher parks every Fetch call until release closes, so tests can
// hold a cycle in flight at a known point.
type blockingFetcher struct {
	started chan struct{}
	release chan struct{}
}

func (f *blockingFetcher) Fetch(context.Context, source.Descriptor) []models.RawItem {
	f.started <- struct{}{}
	<-f.release
	return nil
}

func newTestService(repo mongorepo.IncidentRepository) *IncidentService {
	return newTestServiceWith(repo, noopFetcher{}, nil, false)
}

func newTestServiceWith(repo mongorepo.IncidentRepository, f collector.Fetcher, sources []source.Descriptor, remote bool) *IncidentService {
	cfg := &config.Config{}
	cfg.Collector.ConcurrencyCap = 2
	col := collector.New(cfg, sources, f, classify.NewLocal(), repo, nil, nil, zap.NewNop())
	return NewIncidentService(repo, col, classify.NewLocal(), nil, remote, false, false, zap.NewNop())
}

func TestGetIncidentNotFound(t *testing.T) {
	svc := newTestService(newStubRepo())
	_, err := svc.GetIncident(context.Background(), "INC-MISSING1")
	assert.ErrorIs(t, err, ErrIncidentNotFound)
}

func TestGetIncidentEmptyID(t *testing.T) {
	svc := newTestService(newStubRepo())
	_, err := svc.GetIncident(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetIncidentFound(t *testing.T) {
	repo := newStubRepo()
	stored := &models.Incident{ID: "INC-ABCD1234", Title: "Stored incident"}
	repo.incidents[stored.ID] = stored

	svc := newTestService(repo)
	got, err := svc.GetIncident(context.Background(), "INC-ABCD1234")
	require.NoError(t, err)
	assert.Equal(t, "Stored incident", got.Title)
}

func TestListIncidentsRejectsUnknownEnums(t *testing.T) {
	svc := newTestService(newStubRepo())

	_, err := svc.ListIncidents(context.Background(), mongorepo.Filter{Severity: "severe"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.ListIncidents(context.Background(), mongorepo.Filter{Category: "advisory"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListIncidentsNeverReturnsNilSlice(t *testing.T) {
	svc := newTestService(newStubRepo())
	incidents, err := svc.ListIncidents(context.Background(), mongorepo.Filter{})
	require.NoError(t, err)
	assert.NotNil(t, incidents)
	assert.Empty(t, incidents)
}

func TestGetMapDataRejectsUnknownEnums(t *testing.T) {
	svc := newTestService(newStubRepo())
	_, err := svc.GetMapData(context.Background(), "apocalyptic", "", 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetStatusComposition(t *testing.T) {
	repo := newStubRepo()
	repo.todayN = 7
	svc := newTestService(repo)

	status, err := svc.GetStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.IsOnline)
	assert.Equal(t, int64(7), status.IncidentsToday)
	assert.Equal(t, "active", status.CollectionStatus)
	assert.Equal(t, "local-fallback", status.ClassifierStatus)
	assert.False(t, status.DedupCacheAvailable)
	assert.False(t, status.EventStreamingEnabled)
}

func TestTriggerCollectionRunsInBackground(t *testing.T) {
	svc := newTestService(newStubRepo())

	err := svc.TriggerCollection(context.Background(), "127.0.0.1")
	require.NoError(t, err)

	// The cycle has no sources, so the flag clears almost immediately.
	assert.Eventually(t, func() bool {
		status, err := svc.GetStatus(context.Background())
		return err == nil && status.CollectionStatus == "active" && !status.LastUpdate.IsZero()
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTriggerCollectionRejectsConcurrentTrigger(t *testing.T) {
	fetcher := &blockingFetcher{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	sources := []source.Descriptor{
		{Name: "FeedOne", URL: "https://one.example/rss", Strategy: source.StrategyFeed},
	}
	svc := newTestServiceWith(newStubRepo(), fetcher, sources, false)

	require.NoError(t, svc.TriggerCollection(context.Background(), "10.0.0.1"))

	// The second trigger must be rejected immediately, even before the
	// background cycle has reached its first fetch.
	err := svc.TriggerCollection(context.Background(), "10.0.0.2")
	assert.ErrorIs(t, err, ErrCollectionInProgress)

	<-fetcher.started
	close(fetcher.release)

	assert.Eventually(t, func() bool {
		status, err := svc.GetStatus(context.Background())
		return err == nil && status.CollectionStatus == "active"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAnalyzeIncidentRequiresRemoteClassifier(t *testing.T) {
	repo := newStubRepo()
	repo.incidents["INC-AAAA0001"] = &models.Incident{ID: "INC-AAAA0001", Title: "Stored incident"}

	svc := newTestService(repo)
	_, err := svc.AnalyzeIncident(context.Background(), "INC-AAAA0001", "10.0.0.1")
	assert.ErrorIs(t, err, ErrClassifierUnavailable)
	assert.Empty(t, repo.updated)
}

func TestAnalyzeIncidentNotFound(t *testing.T) {
	svc := newTestServiceWith(newStubRepo(), noopFetcher{}, nil, true)
	_, err := svc.AnalyzeIncident(context.Background(), "INC-MISSING1", "10.0.0.1")
	assert.ErrorIs(t, err, ErrIncidentNotFound)
}

func TestAnalyzeIncidentEmptyID(t *testing.T) {
	svc := newTestServiceWith(newStubRepo(), noopFetcher{}, nil, true)
	_, err := svc.AnalyzeIncident(context.Background(), "", "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnalyzeIncidentRefreshesAnalysis(t *testing.T) {
	repo := newStubRepo()
	stale := &models.Incident{
		ID:          "INC-BBBB0002",
		Title:       "Ransomware gang encrypts hospital network in Mumbai",
		Description: "Attackers demand payment after locking patient records.",
		Category:    models.CategoryVulnerability,
		Severity:    models.SeverityLow,
		LastUpdated: time.Now().UTC().Add(-24 * time.Hour),
	}
	repo.incidents[stale.ID] = stale
	staleUpdated := stale.LastUpdated

	svc := newTestServiceWith(repo, noopFetcher{}, nil, true)
	got, err := svc.AnalyzeIncident(context.Background(), stale.ID, "10.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, models.CategoryRansomware, got.Category)
	assert.Equal(t, models.SeverityHigh, got.Severity)
	assert.True(t, got.LastUpdated.After(staleUpdated))
	assert.WithinDuration(t, time.Now().UTC(), got.LastUpdated, time.Minute)
	assert.Equal(t, []string{stale.ID}, repo.updated)

	stored, err := repo.FindByID(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryRansomware, stored.Category)
}
