package mongo

import (
	"context"
	"time"

	"github.com/Amxn-2/cyber-feed/internal/models"
)

// Filter narrows incident list queries.
type Filter struct {
	Severity  string
	Category  string
	IndiaOnly bool
	Search    string
	Limit     int64
	Offset    int64
	SortBy    string
	SortOrder string
}

// IncidentRepository is the persistence contract the collector and the
// control surface share. Insert is atomic insert-if-absent keyed by the
// content fingerprint: a duplicate reports (false, nil), never an error.
type IncidentRepository interface {
	Insert(ctx context.Context, incident *models.Incident) (bool, error)
	InsertBatch(ctx context.Context, incidents []*models.Incident) int
	Find(ctx context.Context, filter Filter) ([]models.Incident, error)
	FindByID(ctx context.Context, id string) (*models.Incident, error)
	UpdateAnalysis(ctx context.Context, incident *models.Incident) error
	CountSince(ctx context.Context, since time.Time) (int64, error)
	Analytics(ctx context.Context) (*models.Analytics, error)
	MapData(ctx context.Context, severity, category string, limit int64) ([]models.MapPoint, error)
	HealthCheck(ctx context.Context) error
}
