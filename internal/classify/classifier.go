// Package classify assigns category, severity and geographic relevance to
// normalized items. Two strategies sit behind one contract: a remote
// text-classification call and a deterministic keyword heuristic. The remote
// path degrades to the local one on any failure, so Classify never errors
// and the pipeline's availability does not depend on the model's uptime.
package classify

import (
	"context"

	"github.com/Amxn-2/cyber-feed/internal/models"
)

// Result is a fully-populated classification. Every field is always set;
// numeric scores are clamped into their documented ranges.
type Result struct {
	Category    models.Category
	Severity    models.Severity
	Analysis    models.Analysis
	IndiaOnly   bool
	Location    *models.Location
	ThreatActor string
	Tags        []string
}

// Classifier classifies one item. Implementations must be total: any
// internal failure resolves to a schema-valid Result, never an error.
type Classifier interface {
	Classify(ctx context.Context, title, description, raw string) Result
}
