package models

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintIsStable(t *testing.T) {
	a := Fingerprint("CERT-In advisory", "OpenSSL flaw", "https://cert-in.org.in/a1")
	b := Fingerprint("CERT-In advisory", "OpenSSL flaw", "https://cert-in.org.in/a1")
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), a)
}

func TestFingerprintFieldBoundaries(t *testing.T) {
	// Shuffling characters across field boundaries must change the hash.
	a := Fingerprint("ab", "c", "link")
	b := Fingerprint("a", "bc", "link")
	assert.NotEqual(t, a, b)

	c := Fingerprint("title", "desc", "https://x/1")
	d := Fingerprint("title", "desc", "https://x/2")
	assert.NotEqual(t, c, d)
}

func TestNewIncidentIDFormat(t *testing.T) {
	id := NewIncidentID()
	assert.Regexp(t, regexp.MustCompile(`^INC-[0-9A-F]{8}$`), id)
	assert.NotEqual(t, id, NewIncidentID())
}

func TestClampRiskScore(t *testing.T) {
	assert.Equal(t, 0, ClampRiskScore(-20))
	assert.Equal(t, 55, ClampRiskScore(55))
	assert.Equal(t, 100, ClampRiskScore(900))
}

func TestAnalysisClamp(t *testing.T) {
	a := Analysis{
		RiskScore:          150,
		CategoryConfidence: 1.8,
		SeverityConfidence: -0.4,
		IndiaRelevance:     0.5,
	}
	a.Clamp()
	assert.Equal(t, 100, a.RiskScore)
	assert.Equal(t, 1.0, a.CategoryConfidence)
	assert.Equal(t, 0.0, a.SeverityConfidence)
	assert.Equal(t, 0.5, a.IndiaRelevance)
}
