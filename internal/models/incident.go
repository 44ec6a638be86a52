package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"
)

// Coordinates is a WGS84 point used by the map endpoints.
type Coordinates struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Location describes where an incident is anchored geographically.
type Location struct {
	City        string       `bson:"city,omitempty" json:"city,omitempty"`
	State       string       `bson:"state,omitempty" json:"state,omitempty"`
	Country     string       `bson:"country" json:"country"`
	Coordinates *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
}

// Analysis carries the classifier's scoring output. All numeric fields are
// clamped on construction; documents in storage are always in range.
type Analysis struct {
	RiskScore          int      `bson:"risk_score" json:"risk_score"`
	Indicators         []string `bson:"indicators" json:"indicators"`
	Mitigation         []string `bson:"mitigation" json:"mitigation"`
	CategoryConfidence float64  `bson:"category_confidence" json:"category_confidence"`
	SeverityConfidence float64  `bson:"severity_confidence" json:"severity_confidence"`
	IndiaRelevance     float64  `bson:"india_relevance_score" json:"india_relevance_score"`
}

// Clamp forces every score into its documented range.
func (a *Analysis) Clamp() {
	a.RiskScore = ClampRiskScore(a.RiskScore)
	a.CategoryConfidence = ClampConfidence(a.CategoryConfidence)
	a.SeverityConfidence = ClampConfidence(a.SeverityConfidence)
	a.IndiaRelevance = ClampConfidence(a.IndiaRelevance)
}

// Incident is the persisted entity. One document per deduplicated item.
type Incident struct {
	ID          string `bson:"id" json:"id"`
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description" json:"description"`

	Category Category `bson:"category" json:"category"`
	Severity Severity `bson:"severity" json:"severity"`

	Source    string `bson:"source" json:"source"`
	SourceURL string `bson:"source_url,omitempty" json:"source_url,omitempty"`

	Location        *Location `bson:"location,omitempty" json:"location,omitempty"`
	AffectedSystems int       `bson:"affected_systems,omitempty" json:"affected_systems,omitempty"`
	ThreatActor     string    `bson:"threat_actor,omitempty" json:"threat_actor,omitempty"`

	Analysis        Analysis `bson:"ai_analysis" json:"ai_analysis"`
	IsIndiaSpecific bool     `bson:"is_india_specific" json:"is_india_specific"`

	Tags        []string `bson:"tags" json:"tags"`
	Fingerprint string   `bson:"fingerprint" json:"fingerprint"`

	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
	IngestedAt  time.Time `bson:"ingested_at" json:"ingested_at"`
	LastUpdated time.Time `bson:"last_updated" json:"last_updated"`
}

// NewIncidentID returns a fresh identifier in the INC-XXXXXXXX form.
func NewIncidentID() string {
	return "INC-" + strings.ToUpper(uuid.New().String()[:8])
}

// Fingerprint hashes the stable text fields of an item. It is the
// deduplication key: identical (title, description, link) triples always
// produce the same value across runs and processes.
func Fingerprint(title, description, link string) string {
	h := murmur3.New128()
	h.Write([]byte(title))
	h.Write([]byte{0x1f})
	h.Write([]byte(description))
	h.Write([]byte{0x1f})
	h.Write([]byte(link))
	sum := h.Sum(nil)
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 0, len(sum)*2)
	for _, b := range sum {
		out = append(out, hexdigits[b>>4], hexdigits[b&0x0f])
	}
	return string(out)
}

// ClampRiskScore bounds a risk score to [0,100].
func ClampRiskScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ClampConfidence bounds a confidence or relevance score to [0.0,1.0].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RawItem is the transient record a fetch produces before normalization and
// classification. It is never persisted directly.
type RawItem struct {
	Title       string
	Description string
	Link        string
	Source      string
	SourceURL   string
	RawContent  string
	Published   time.Time
}
