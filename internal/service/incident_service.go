package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Amxn-2/cyber-feed/internal/classify"
	"github.com/Amxn-2/cyber-feed/internal/collector"
	"github.com/Amxn-2/cyber-feed/internal/models"
	mongorepo "github.com/Amxn-2/cyber-feed/internal/repository/mongo"
	redisrepo "github.com/Amxn-2/cyber-feed/internal/repository/redis"
	"github.com/Amxn-2/cyber-feed/internal/util"
)

var (
	ErrIncidentNotFound      = errors.New("incident not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrCollectionInProgress  = errors.New("collection already in progress")
	ErrRateLimited           = errors.New("rate limit exceeded")
	ErrClassifierUnavailable = errors.New("remote classifier not configured")
)

// IncidentService is the business layer between the HTTP handlers and the
// pipeline: it serves queries from the store and schedules collection
// cycles on the collector.
type IncidentService struct {
	repo          mongorepo.IncidentRepository
	collector     *collector.Collector
	classifier    classify.Classifier
	rateLimiter   *redisrepo.RateLimitCache
	remoteEnabled bool
	kafkaEnabled  bool
	dedupEnabled  bool
	logger        *zap.Logger
}

// NewIncidentService wires the service. rateLimiter may be nil when Redis is
// unavailable; triggering and re-analysis then run unmetered.
func NewIncidentService(
	repo mongorepo.IncidentRepository,
	col *collector.Collector,
	classifier classify.Classifier,
	rateLimiter *redisrepo.RateLimitCache,
	remoteEnabled, kafkaEnabled, dedupEnabled bool,
	logger *zap.Logger,
) *IncidentService {
	return &IncidentService{
		repo:          repo,
		collector:     col,
		classifier:    classifier,
		rateLimiter:   rateLimiter,
		remoteEnabled: remoteEnabled,
		kafkaEnabled:  kafkaEnabled,
		dedupEnabled:  dedupEnabled,
		logger:        logger,
	}
}

// ListIncidents returns incidents matching the filter.
func (s *IncidentService) ListIncidents(ctx context.Context, filter mongorepo.Filter) ([]models.Incident, error) {
	if filter.Severity != "" && !models.Severity(filter.Severity).Valid() {
		return nil, ErrInvalidInput
	}
	if filter.Category != "" && !models.Category(filter.Category).Valid() {
		return nil, ErrInvalidInput
	}

	incidents, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if incidents == nil {
		incidents = []models.Incident{}
	}
	return incidents, nil
}

// GetIncident returns one incident by identifier.
func (s *IncidentService) GetIncident(ctx context.Context, id string) (*models.Incident, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	incident, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if incident == nil {
		return nil, ErrIncidentNotFound
	}
	return incident, nil
}

// AnalyzeIncident re-runs the remote classifier against a stored incident
// and persists the refreshed analysis. It is the expensive on-demand path,
// so it is metered per caller and refused outright when no model is
// configured rather than silently serving the keyword fallback.
func (s *IncidentService) AnalyzeIncident(ctx context.Context, id, callerKey string) (*models.Incident, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	if !s.remoteEnabled {
		return nil, ErrClassifierUnavailable
	}
	if s.rateLimiter != nil && !s.rateLimiter.Allow(ctx, callerKey) {
		return nil, ErrRateLimited
	}

	incident, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if incident == nil {
		return nil, ErrIncidentNotFound
	}

	result := s.classifier.Classify(ctx, incident.Title, incident.Description, incident.Description)

	incident.Category = result.Category
	incident.Severity = result.Severity
	incident.Analysis = result.Analysis
	incident.IsIndiaSpecific = result.IndiaOnly
	if result.Location != nil {
		incident.Location = result.Location
	}
	if result.ThreatActor != "" {
		incident.ThreatActor = result.ThreatActor
	}
	if len(result.Tags) > 0 {
		incident.Tags = result.Tags
	}
	incident.LastUpdated = time.Now().UTC()

	if err := s.repo.UpdateAnalysis(ctx, incident); err != nil {
		return nil, err
	}

	s.logger.Info("Incident re-analyzed",
		util.String("incident_id", incident.ID),
		util.String("category", string(incident.Category)),
		util.String("severity", string(incident.Severity)),
	)
	return incident, nil
}

// GetAnalytics returns the dashboard aggregate.
func (s *IncidentService) GetAnalytics(ctx context.Context) (*models.Analytics, error) {
	return s.repo.Analytics(ctx)
}

// GetMapData returns coordinate-bearing incidents for the map.
func (s *IncidentService) GetMapData(ctx context.Context, severity, category string, limit int64) ([]models.MapPoint, error) {
	if severity != "" && !models.Severity(severity).Valid() {
		return nil, ErrInvalidInput
	}
	if category != "" && !models.Category(category).Valid() {
		return nil, ErrInvalidInput
	}
	points, err := s.repo.MapData(ctx, severity, category, limit)
	if err != nil {
		return nil, err
	}
	if points == nil {
		points = []models.MapPoint{}
	}
	return points, nil
}

// TriggerCollection schedules a collection cycle in the background. The
// caller gets an immediate answer; an in-flight cycle rejects the request.
func (s *IncidentService) TriggerCollection(ctx context.Context, callerKey string) error {
	if s.rateLimiter != nil && !s.rateLimiter.Allow(ctx, callerKey) {
		return ErrRateLimited
	}
	// Claim the in-progress flag before answering so the rejection is
	// authoritative even under concurrent triggers.
	if !s.collector.TryStart() {
		return ErrCollectionInProgress
	}

	go func() {
		// Detach from the request context: the cycle outlives the HTTP call.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		result := s.collector.RunClaimed(ctx)
		s.logger.Info("Background collection cycle completed",
			util.Int("items_inserted", result.ItemsInserted),
			util.Int("sources_active", result.SourcesActive),
		)
	}()
	return nil
}

// GetStatus composes the process-wide status snapshot.
func (s *IncidentService) GetStatus(ctx context.Context) (*models.SystemStatus, error) {
	colStatus := s.collector.Status()

	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	today, err := s.repo.CountSince(ctx, midnight)
	if err != nil {
		s.logger.Warn("Failed to count today's incidents", util.ErrorField(err))
		today = 0
	}

	collection := "active"
	if colStatus.InProgress {
		collection = "collecting"
	}
	classifier := "local-fallback"
	if s.remoteEnabled {
		classifier = "operational"
	}

	return &models.SystemStatus{
		IsOnline:              true,
		LastUpdate:            time.Now().UTC(),
		DataSourcesActive:     colStatus.SourcesActive,
		TotalDataSources:      colStatus.SourcesTotal,
		IncidentsToday:        today,
		CollectionStatus:      collection,
		ClassifierStatus:      classifier,
		DedupCacheAvailable:   s.dedupEnabled,
		EventStreamingEnabled: s.kafkaEnabled,
	}, nil
}

// HealthCheck verifies the store is reachable.
func (s *IncidentService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}
