package models

import "time"

// DailyBucket is one day of incident counts broken down by severity.
type DailyBucket struct {
	Date     string `bson:"date" json:"date"`
	Total    int    `bson:"total" json:"total"`
	Critical int    `bson:"critical" json:"critical"`
	High     int    `bson:"high" json:"high"`
	Medium   int    `bson:"medium" json:"medium"`
	Low      int    `bson:"low" json:"low"`
}

// CategoryCount is one slice of the category distribution.
type CategoryCount struct {
	Name  string `bson:"name" json:"name"`
	Value int    `bson:"value" json:"value"`
}

// StateCount is one entry of the per-state distribution.
type StateCount struct {
	State     string `bson:"state" json:"state"`
	Incidents int    `bson:"incidents" json:"incidents"`
	Critical  int    `bson:"critical" json:"critical"`
}

// ActorCount is one entry of the top-threat-actor ranking.
type ActorCount struct {
	Actor string `bson:"actor" json:"actor"`
	Count int    `bson:"count" json:"count"`
}

// Analytics is the aggregate document served to the dashboard.
type Analytics struct {
	TotalIncidents       int             `json:"total_incidents"`
	CriticalIncidents    int             `json:"critical_incidents"`
	HighIncidents        int             `json:"high_incidents"`
	MediumIncidents      int             `json:"medium_incidents"`
	LowIncidents         int             `json:"low_incidents"`
	DailyIncidents       []DailyBucket   `json:"daily_incidents"`
	CategoryDistribution []CategoryCount `json:"category_distribution"`
	StateDistribution    []StateCount    `json:"state_distribution"`
	TopThreatActors      []ActorCount    `json:"top_threat_actors"`
}

// MapPoint is the projected incident shape for the map surface; only
// incidents with resolved coordinates qualify.
type MapPoint struct {
	ID          string    `bson:"id" json:"id"`
	Title       string    `bson:"title" json:"title"`
	Severity    Severity  `bson:"severity" json:"severity"`
	Category    Category  `bson:"category" json:"category"`
	Location    *Location `bson:"location" json:"location"`
	RiskScore   int       `bson:"risk_score" json:"risk_score"`
	ThreatActor string    `bson:"threat_actor,omitempty" json:"threat_actor,omitempty"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
}

// SystemStatus is the process-wide status snapshot reported by the control
// surface.
type SystemStatus struct {
	IsOnline              bool      `json:"is_online"`
	LastUpdate            time.Time `json:"last_update"`
	DataSourcesActive     int       `json:"data_sources_active"`
	TotalDataSources      int       `json:"total_data_sources"`
	IncidentsToday        int64     `json:"incidents_processed_today"`
	CollectionStatus      string    `json:"collection_status"`
	ClassifierStatus      string    `json:"classifier_status"`
	DedupCacheAvailable   bool      `json:"dedup_cache_available"`
	EventStreamingEnabled bool      `json:"event_streaming_enabled"`
}
