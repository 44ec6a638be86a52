package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Amxn-2/cyber-feed/internal/config"
	"github.com/Amxn-2/cyber-feed/internal/models"
	"github.com/Amxn-2/cyber-feed/internal/util"
)

// Remote classifies through the Gemini generateContent endpoint and falls
// back to the local heuristic on any failure: network errors, non-200
// responses, responses without a JSON object, or undecodable JSON. The
// fallback keeps classification available when the model is not.
type Remote struct {
	cfg      config.GeminiConfig
	client   *http.Client
	fallback Classifier
	logger   *zap.Logger
}

// NewRemote builds the remote classifier. fallback must never be nil.
func NewRemote(cfg config.GeminiConfig, fallback Classifier, logger *zap.Logger) *Remote {
	return &Remote{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		fallback: fallback,
		logger:   logger,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Classify invokes the model once and validates its output field by field.
// Every failure path resolves through the local fallback.
func (r *Remote) Classify(ctx context.Context, title, description, raw string) Result {
	text, err := r.generate(ctx, buildPrompt(title, description, raw))
	if err != nil {
		r.logger.Warn("Remote classification failed, using local fallback",
			util.ErrorField(err),
			util.String("title", title),
		)
		return r.fallback.Classify(ctx, title, description, raw)
	}

	obj := extractJSONObject(text)
	if obj == "" {
		r.logger.Warn("No JSON object in model response, using local fallback",
			util.String("title", title),
		)
		return r.fallback.Classify(ctx, title, description, raw)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		r.logger.Warn("Model response JSON undecodable, using local fallback",
			util.ErrorField(err),
		)
		return r.fallback.Classify(ctx, title, description, raw)
	}

	return resultFromFields(fields)
}

func (r *Remote) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimSuffix(r.cfg.Endpoint, "/"), r.cfg.Model, r.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model returned status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read model response: %w", err)
	}

	var parsed generateResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode model response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("model response has no candidates")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

func buildPrompt(title, description, raw string) string {
	var b strings.Builder
	b.WriteString("You are a cybersecurity expert analyzing threat intelligence. ")
	b.WriteString("Analyze the following incident data and provide a JSON response with the specified format.\n\n")
	b.WriteString("INCIDENT DATA:\n")
	fmt.Fprintf(&b, "Title: %s\nDescription: %s\nContent: %s\n\n", title, description, raw)
	b.WriteString(`RESPONSE FORMAT (JSON only):
{
    "category": "one of: malware, phishing, ransomware, data_breach, apt, ddos, vulnerability, insider_threat",
    "severity": "one of: low, medium, high, critical",
    "risk_score": "integer from 0-100",
    "category_confidence": "float from 0.0-1.0",
    "severity_confidence": "float from 0.0-1.0",
    "india_relevance_score": "float from 0.0-1.0",
    "is_india_specific": "boolean",
    "location": {"city": "city name or null", "state": "state name or null", "country": "India or other country"},
    "threat_actor": "threat actor name or null",
    "indicators": ["list of threat indicators"],
    "mitigation": ["list of mitigation recommendations"],
    "tags": ["list of relevant tags"]
}

ANALYSIS CRITERIA:
- India relevance: Indian cities, organizations (CERT-In, UIDAI, ISRO, etc.), .in domains, INR currency
- Severity: Critical (nation-state attacks, infrastructure), High (data breaches, ransomware), Medium (malware, phishing), Low (minor vulnerabilities)
- Risk score: based on potential impact, affected systems, threat sophistication

Provide only the JSON response, no additional text.`)
	return b.String()
}

// resultFromFields validates the decoded object field by field, substituting
// the documented default for anything missing, mistyped or out of range.
func resultFromFields(fields map[string]any) Result {
	analysis := models.Analysis{
		RiskScore:          intField(fields, "risk_score", 50),
		Indicators:         stringsField(fields, "indicators"),
		Mitigation:         stringsField(fields, "mitigation"),
		CategoryConfidence: floatField(fields, "category_confidence", 0.8),
		SeverityConfidence: floatField(fields, "severity_confidence", 0.8),
		IndiaRelevance:     floatField(fields, "india_relevance_score", 0.5),
	}
	analysis.Clamp()

	result := Result{
		Category:    models.ParseCategory(stringField(fields, "category", "vulnerability")),
		Severity:    models.ParseSeverity(stringField(fields, "severity", "medium")),
		Analysis:    analysis,
		IndiaOnly:   boolField(fields, "is_india_specific"),
		ThreatActor: stringField(fields, "threat_actor", ""),
		Tags:        stringsField(fields, "tags"),
	}

	if loc, ok := fields["location"].(map[string]any); ok {
		city := stringField(loc, "city", "")
		state := stringField(loc, "state", "")
		if city != "" || state != "" {
			result.Location = resolveLocation(city, state, stringField(loc, "country", "India"))
		}
	}

	if len(result.Tags) == 0 {
		result.Tags = []string{"cybersecurity", "threat", string(result.Category), string(result.Severity)}
	}
	return result
}

func stringField(fields map[string]any, key, def string) string {
	if v, ok := fields[key].(string); ok {
		s := strings.TrimSpace(v)
		if s != "" && !strings.EqualFold(s, "null") {
			return s
		}
	}
	return def
}

func intField(fields map[string]any, key string, def int) int {
	switch v := fields[key].(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func floatField(fields map[string]any, key string, def float64) float64 {
	switch v := fields[key].(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

func boolField(fields map[string]any, key string) bool {
	switch v := fields[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

func stringsField(fields map[string]any, key string) []string {
	raw, ok := fields[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
