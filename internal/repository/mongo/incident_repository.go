// Package mongo persists classified incidents in the document store and
// serves the dashboard's query and analytics surface.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Amxn-2/cyber-feed/internal/client"
	"github.com/Amxn-2/cyber-feed/internal/models"
	"github.com/Amxn-2/cyber-feed/internal/util"
)

const defaultListLimit = 50

// IncidentStore is the MongoDB-backed repository.
type IncidentStore struct {
	client *client.MongoClient
}

// NewIncidentStore wraps the Mongo client as an IncidentRepository.
func NewIncidentStore(mc *client.MongoClient) *IncidentStore {
	return &IncidentStore{client: mc}
}

// Insert writes the incident unless its fingerprint already exists. The
// upsert with $setOnInsert rides the unique fingerprint index, so two
// concurrent cycles racing on the same item cannot both insert it.
func (s *IncidentStore) Insert(ctx context.Context, incident *models.Incident) (bool, error) {
	filter := bson.M{"fingerprint": incident.Fingerprint}
	update := bson.M{"$setOnInsert": incident}

	result, err := s.client.Incidents().UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost the race to a concurrent cycle; same outcome as a lookup hit.
			return false, nil
		}
		return false, fmt.Errorf("failed to insert incident: %w", err)
	}

	if result.UpsertedCount == 0 {
		util.Debug("Duplicate incident skipped",
			zap.String("fingerprint", incident.Fingerprint),
			zap.String("title", incident.Title),
		)
		return false, nil
	}
	return true, nil
}

// InsertBatch applies the single-item contract across the slice. A failing
// item is logged and skipped; the rest of the batch proceeds.
func (s *IncidentStore) InsertBatch(ctx context.Context, incidents []*models.Incident) int {
	inserted := 0
	for _, incident := range incidents {
		ok, err := s.Insert(ctx, incident)
		if err != nil {
			util.Error("Failed to persist incident in batch",
				zap.String("title", incident.Title),
				zap.Error(err),
			)
			continue
		}
		if ok {
			inserted++
		}
	}
	return inserted
}

// Find returns incidents matching the filter, newest first by default.
func (s *IncidentStore) Find(ctx context.Context, filter Filter) ([]models.Incident, error) {
	query := bson.M{}
	if filter.Severity != "" {
		query["severity"] = filter.Severity
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.IndiaOnly {
		query["is_india_specific"] = true
	}
	if filter.Search != "" {
		query["$text"] = bson.M{"$search": filter.Search}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "timestamp"
	}
	direction := -1
	if filter.SortOrder == "asc" {
		direction = 1
	}

	opts := options.Find().
		SetSort(bson.D{{Key: sortBy, Value: direction}}).
		SetSkip(filter.Offset).
		SetLimit(limit)

	cursor, err := s.client.Incidents().Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query incidents: %w", err)
	}
	defer cursor.Close(ctx)

	var incidents []models.Incident
	for cursor.Next(ctx) {
		var incident models.Incident
		if err := cursor.Decode(&incident); err != nil {
			// A document failing validation is excluded from the response
			// set rather than returned malformed.
			util.Warn("Skipping undecodable incident document", zap.Error(err))
			continue
		}
		incidents = append(incidents, incident)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("incident cursor failed: %w", err)
	}
	return incidents, nil
}

// FindByID returns one incident by its generated identifier.
func (s *IncidentStore) FindByID(ctx context.Context, id string) (*models.Incident, error) {
	var incident models.Incident
	err := s.client.Incidents().FindOne(ctx, bson.M{"id": id}).Decode(&incident)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find incident %s: %w", id, err)
	}
	return &incident, nil
}

// UpdateAnalysis rewrites the classifier-derived fields of an existing
// incident after a re-analysis. The stable fields (title, source,
// fingerprint, timestamps other than last_updated) are left untouched.
func (s *IncidentStore) UpdateAnalysis(ctx context.Context, incident *models.Incident) error {
	update := bson.M{"$set": bson.M{
		"category":          incident.Category,
		"severity":          incident.Severity,
		"ai_analysis":       incident.Analysis,
		"is_india_specific": incident.IsIndiaSpecific,
		"location":          incident.Location,
		"threat_actor":      incident.ThreatActor,
		"tags":              incident.Tags,
		"last_updated":      incident.LastUpdated,
	}}

	result, err := s.client.Incidents().UpdateOne(ctx, bson.M{"id": incident.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update analysis for %s: %w", incident.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("failed to update analysis for %s: %w", incident.ID, mongo.ErrNoDocuments)
	}
	return nil
}

// CountSince counts incidents ingested at or after the given instant.
func (s *IncidentStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	count, err := s.client.Incidents().CountDocuments(ctx, bson.M{
		"timestamp": bson.M{"$gte": since},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count incidents: %w", err)
	}
	return count, nil
}

// Analytics runs the dashboard aggregations: severity totals, a 30-day daily
// series, category and state distributions, and the top threat actors.
func (s *IncidentStore) Analytics(ctx context.Context) (*models.Analytics, error) {
	coll := s.client.Incidents()
	analytics := &models.Analytics{
		DailyIncidents:       []models.DailyBucket{},
		CategoryDistribution: []models.CategoryCount{},
		StateDistribution:    []models.StateCount{},
		TopThreatActors:      []models.ActorCount{},
	}

	total, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count incidents: %w", err)
	}
	analytics.TotalIncidents = int(total)

	for severity, target := range map[models.Severity]*int{
		models.SeverityCritical: &analytics.CriticalIncidents,
		models.SeverityHigh:     &analytics.HighIncidents,
		models.SeverityMedium:   &analytics.MediumIncidents,
		models.SeverityLow:      &analytics.LowIncidents,
	} {
		n, err := coll.CountDocuments(ctx, bson.M{"severity": severity})
		if err != nil {
			return nil, fmt.Errorf("failed to count %s incidents: %w", severity, err)
		}
		*target = int(n)
	}

	thirtyDaysAgo := time.Now().UTC().AddDate(0, 0, -30)
	dailyPipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"timestamp": bson.M{"$gte": thirtyDaysAgo}}}},
		{{Key: "$group", Value: bson.M{
			"_id":      bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$timestamp"}},
			"total":    bson.M{"$sum": 1},
			"critical": severitySum("critical"),
			"high":     severitySum("high"),
			"medium":   severitySum("medium"),
			"low":      severitySum("low"),
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	if err := s.aggregate(ctx, dailyPipeline, func(doc bson.M) {
		analytics.DailyIncidents = append(analytics.DailyIncidents, models.DailyBucket{
			Date:     asString(doc["_id"]),
			Total:    asInt(doc["total"]),
			Critical: asInt(doc["critical"]),
			High:     asInt(doc["high"]),
			Medium:   asInt(doc["medium"]),
			Low:      asInt(doc["low"]),
		})
	}); err != nil {
		return nil, err
	}

	categoryPipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	}
	if err := s.aggregate(ctx, categoryPipeline, func(doc bson.M) {
		analytics.CategoryDistribution = append(analytics.CategoryDistribution, models.CategoryCount{
			Name:  asString(doc["_id"]),
			Value: asInt(doc["count"]),
		})
	}); err != nil {
		return nil, err
	}

	statePipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"location.state": bson.M{"$nin": bson.A{nil, ""}}}}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$location.state",
			"incidents": bson.M{"$sum": 1},
			"critical":  severitySum("critical"),
		}}},
		{{Key: "$sort", Value: bson.M{"incidents": -1}}},
		{{Key: "$limit", Value: 10}},
	}
	if err := s.aggregate(ctx, statePipeline, func(doc bson.M) {
		analytics.StateDistribution = append(analytics.StateDistribution, models.StateCount{
			State:     asString(doc["_id"]),
			Incidents: asInt(doc["incidents"]),
			Critical:  asInt(doc["critical"]),
		})
	}); err != nil {
		return nil, err
	}

	actorPipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"threat_actor": bson.M{"$nin": bson.A{nil, ""}}}}},
		{{Key: "$group", Value: bson.M{"_id": "$threat_actor", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
		{{Key: "$limit", Value: 10}},
	}
	if err := s.aggregate(ctx, actorPipeline, func(doc bson.M) {
		analytics.TopThreatActors = append(analytics.TopThreatActors, models.ActorCount{
			Actor: asString(doc["_id"]),
			Count: asInt(doc["count"]),
		})
	}); err != nil {
		return nil, err
	}

	return analytics, nil
}

// MapData returns coordinate-bearing incidents projected down to what the
// map needs.
func (s *IncidentStore) MapData(ctx context.Context, severity, category string, limit int64) ([]models.MapPoint, error) {
	query := bson.M{"location.coordinates": bson.M{"$ne": nil}}
	if severity != "" {
		query["severity"] = severity
	}
	if category != "" {
		query["category"] = category
	}
	if limit <= 0 {
		limit = 1000
	}

	opts := options.Find().
		SetLimit(limit).
		SetProjection(bson.M{
			"id":           1,
			"title":        1,
			"severity":     1,
			"category":     1,
			"location":     1,
			"timestamp":    1,
			"threat_actor": 1,
			"risk_score":   "$ai_analysis.risk_score",
		})

	cursor, err := s.client.Incidents().Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query map data: %w", err)
	}
	defer cursor.Close(ctx)

	var points []models.MapPoint
	for cursor.Next(ctx) {
		var point models.MapPoint
		if err := cursor.Decode(&point); err != nil {
			util.Warn("Skipping undecodable map document", zap.Error(err))
			continue
		}
		points = append(points, point)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("map cursor failed: %w", err)
	}
	return points, nil
}

// HealthCheck pings the underlying deployment.
func (s *IncidentStore) HealthCheck(ctx context.Context) error {
	return s.client.HealthCheck(ctx)
}

func (s *IncidentStore) aggregate(ctx context.Context, pipeline mongo.Pipeline, collect func(bson.M)) error {
	cursor, err := s.client.Incidents().Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			util.Warn("Skipping undecodable aggregation document", zap.Error(err))
			continue
		}
		collect(doc)
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("aggregation cursor failed: %w", err)
	}
	return nil
}

func severitySum(severity string) bson.M {
	return bson.M{"$sum": bson.M{"$cond": bson.A{
		bson.M{"$eq": bson.A{"$severity", severity}}, 1, 0,
	}}}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}
