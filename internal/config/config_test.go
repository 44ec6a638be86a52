package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "cyber-incidents", cfg.Mongo.Database)
	assert.Equal(t, 2, cfg.Collector.RetryCount)
	assert.Equal(t, 30*time.Second, cfg.Collector.RequestTimeout)
	assert.True(t, cfg.StrictRelevance())
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RELEVANCE_POLICY", "inclusive")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("RSS_FEEDS_ENABLED", "false")

	cfg := LoadConfig()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.StrictRelevance())
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.Collector.FeedsEnabled)
}

func TestDurationAcceptsBareSeconds(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "45")
	t.Setenv("GEMINI_TIMEOUT", "2m")

	cfg := LoadConfig()

	assert.Equal(t, 45*time.Second, cfg.Collector.RequestTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Gemini.Timeout)
}

func TestListParsingTrimsAndDropsEmpties(t *testing.T) {
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")

	cfg := LoadConfig()

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}
