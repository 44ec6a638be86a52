package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategoryCanonical(t *testing.T) {
	assert.Equal(t, CategoryRansomware, ParseCategory("ransomware"))
	assert.Equal(t, CategoryDataBreach, ParseCategory("  Data_Breach "))
}

func TestParseCategoryLegacyVocabulary(t *testing.T) {
	assert.Equal(t, CategoryVulnerability, ParseCategory("advisory"))
	assert.Equal(t, CategoryVulnerability, ParseCategory("alert"))
	assert.Equal(t, CategoryVulnerability, ParseCategory("news"))
	assert.Equal(t, CategoryMalware, ParseCategory("cyber_attack"))
	assert.Equal(t, CategoryPhishing, ParseCategory("fraud"))
}

func TestParseCategoryUnknownDefaults(t *testing.T) {
	assert.Equal(t, CategoryVulnerability, ParseCategory("quantum weirdness"))
	assert.Equal(t, CategoryVulnerability, ParseCategory(""))
}

func TestParseSeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, ParseSeverity("CRITICAL"))
	assert.Equal(t, SeverityLow, ParseSeverity(" low "))
	assert.Equal(t, SeverityMedium, ParseSeverity("catastrophic"))
	assert.Equal(t, SeverityMedium, ParseSeverity(""))
}

func TestSeverityOrdering(t *testing.T) {
	assert.True(t, SeverityLow.Rank() < SeverityMedium.Rank())
	assert.True(t, SeverityMedium.Rank() < SeverityHigh.Rank())
	assert.True(t, SeverityHigh.Rank() < SeverityCritical.Rank())
}

func TestValidity(t *testing.T) {
	assert.True(t, CategoryAPT.Valid())
	assert.False(t, Category("advisory").Valid())
	assert.True(t, SeverityHigh.Valid())
	assert.False(t, Severity("severe").Valid())
}
