package scans

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scoreNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func allSecurityHeaders() map[string]string {
	m := make(map[string]string, len(securityHeaderNames))
	for _, h := range securityHeaderNames {
		m[h] = "set"
	}
	return m
}

func fullySecurePayload() *ProbePayload {
	return &ProbePayload{
		Target: "example.com",
		WAF:    &WAFInfo{Detected: true, Provider: "Cloudflare"},
		TLS: &TLSInfo{
			Protocols:   []string{"TLSv1.2", "TLSv1.3"},
			Certificate: &Certificate{Issuer: "Let's Encrypt", Expiry: scoreNow.AddDate(0, 6, 0).Format(time.RFC3339)},
		},
		Headers: &HeadersInfo{
			Server:          "nginx",
			SecurityHeaders: allSecurityHeaders(),
		},
	}
}

func TestComputeSecurityScore_EmptyPayload(t *testing.T) {
	res := ComputeSecurityScore(&ProbePayload{}, scoreNow)

	assert.Equal(t, 0, res.Breakdown.TLS)
	assert.Equal(t, 0, res.Breakdown.Headers)
	assert.Equal(t, 0, res.Breakdown.WAF)
	assert.Equal(t, 0, res.Breakdown.Certificate)
	// No server header means nothing is exposed
	assert.Equal(t, 10, res.Breakdown.ServerExposure)
	assert.Equal(t, 10, res.Score)
	assert.Equal(t, "F", res.Grade)
	assert.Contains(t, res.Recommendations, "No TLS detected")
	assert.Contains(t, res.Recommendations, "No certificate found")
	assert.Contains(t, res.Recommendations, "Consider deploying a Web Application Firewall")
}

func TestComputeSecurityScore_PerfectScore(t *testing.T) {
	res := ComputeSecurityScore(fullySecurePayload(), scoreNow)

	assert.Equal(t, 100, res.Score)
	assert.Equal(t, "A", res.Grade)
	assert.Empty(t, res.Recommendations)
	assert.Equal(t, ScoreBreakdown{TLS: 25, Headers: 30, WAF: 15, Certificate: 20, ServerExposure: 10}, res.Breakdown)
}

func TestComputeSecurityScore_AggregateIsSumOfBreakdown(t *testing.T) {
	payloads := []*ProbePayload{
		{},
		fullySecurePayload(),
		{TLS: &TLSInfo{Protocols: []string{"TLSv1.0"}}},
		{Headers: &HeadersInfo{Server: "Apache/2.4.41", SecurityHeaders: map[string]string{"referrer-policy": "no-referrer"}}},
	}
	for _, p := range payloads {
		res := ComputeSecurityScore(p, scoreNow)
		sum := res.Breakdown.TLS + res.Breakdown.Headers + res.Breakdown.WAF +
			res.Breakdown.Certificate + res.Breakdown.ServerExposure
		assert.Equal(t, sum, res.Score)
		assert.GreaterOrEqual(t, res.Score, 0)
		assert.LessOrEqual(t, res.Score, 100)
	}
}

func TestScoreTLS_LegacyWithout13(t *testing.T) {
	p := &ProbePayload{TLS: &TLSInfo{Protocols: []string{"TLSv1.0", "TLSv1.2"}}}
	score, recs := scoreTLS(p)

	// 25 - 10 (legacy) - 5 (no 1.3)
	assert.Equal(t, 10, score)
	require.Len(t, recs, 2)
	assert.Contains(t, recs[0], "Disable TLS 1.0/1.1")
	assert.Contains(t, recs[1], "Enable TLS 1.3")
}

func TestScoreTLS_NoProtocols(t *testing.T) {
	score, recs := scoreTLS(&ProbePayload{})
	assert.Equal(t, 0, score)
	assert.Equal(t, []string{"No TLS detected"}, recs)
}

func TestScoreTLS_ModernOnly(t *testing.T) {
	p := &ProbePayload{TLS: &TLSInfo{Protocols: []string{"TLSv1.2", "TLSv1.3"}}}
	score, recs := scoreTLS(p)
	assert.Equal(t, 25, score)
	assert.Empty(t, recs)
}

func TestScoreHeaders_PartialCoverage(t *testing.T) {
	p := &ProbePayload{Headers: &HeadersInfo{SecurityHeaders: map[string]string{
		"strict-transport-security": "max-age=31536000",
		"content-security-policy":   "default-src 'self'",
		"x-frame-options":           "DENY",
		"x-content-type-options":    "nosniff",
	}}}
	score, recs := scoreHeaders(p)

	// round(4/7 * 30) = 17, one recommendation per absent header
	assert.Equal(t, 17, score)
	assert.Len(t, recs, 3)
	assert.Contains(t, recs, "Add x-xss-protection header")
	assert.Contains(t, recs, "Add referrer-policy header")
	assert.Contains(t, recs, "Add permissions-policy header")
}

func TestScoreHeaders_MissingPlaceholderDoesNotCount(t *testing.T) {
	p := &ProbePayload{Headers: &HeadersInfo{SecurityHeaders: map[string]string{
		"strict-transport-security": "missing",
		"x-frame-options":           "",
	}}}
	score, recs := scoreHeaders(p)
	assert.Equal(t, 0, score)
	assert.Len(t, recs, 7)
}

func TestScoreWAF(t *testing.T) {
	score, recs := scoreWAF(&ProbePayload{WAF: &WAFInfo{Detected: true}})
	assert.Equal(t, 15, score)
	assert.Empty(t, recs)

	score, recs = scoreWAF(&ProbePayload{})
	assert.Equal(t, 0, score)
	assert.Equal(t, []string{"Consider deploying a Web Application Firewall"}, recs)
}

func TestScoreCertificate_ExpiringSoon(t *testing.T) {
	p := &ProbePayload{TLS: &TLSInfo{Certificate: &Certificate{
		Expiry: scoreNow.Add(10 * 24 * time.Hour).Format(time.RFC3339),
	}}}
	score, recs := scoreCertificate(p, scoreNow)

	assert.Equal(t, 10, score)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0], "10 days")
}

func TestScoreCertificate_Expired(t *testing.T) {
	p := &ProbePayload{TLS: &TLSInfo{Certificate: &Certificate{
		Expiry: scoreNow.AddDate(0, -1, 0).Format(time.RFC3339),
	}}}
	score, recs := scoreCertificate(p, scoreNow)

	assert.Equal(t, 0, score)
	assert.Equal(t, []string{"Certificate has expired!"}, recs)
}

func TestScoreCertificate_Absent(t *testing.T) {
	score, recs := scoreCertificate(&ProbePayload{}, scoreNow)
	assert.Equal(t, 0, score)
	assert.Equal(t, []string{"No certificate found"}, recs)

	score, recs = scoreCertificate(&ProbePayload{TLS: &TLSInfo{Certificate: &Certificate{Issuer: "x"}}}, scoreNow)
	assert.Equal(t, 0, score)
	assert.Equal(t, []string{"No certificate found"}, recs)
}

func TestScoreCertificate_BareDateLayout(t *testing.T) {
	p := &ProbePayload{TLS: &TLSInfo{Certificate: &Certificate{
		Expiry: scoreNow.AddDate(1, 0, 0).Format("2006-01-02"),
	}}}
	score, recs := scoreCertificate(p, scoreNow)
	assert.Equal(t, 20, score)
	assert.Empty(t, recs)
}

func TestScoreServerExposure(t *testing.T) {
	p := &ProbePayload{Headers: &HeadersInfo{Server: "Apache/2.4.41"}}
	score, recs := scoreServerExposure(p)
	assert.Equal(t, 5, score)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0], "Apache/2.4.41")

	score, recs = scoreServerExposure(&ProbePayload{Headers: &HeadersInfo{Server: "nginx"}})
	assert.Equal(t, 10, score)
	assert.Empty(t, recs)

	score, recs = scoreServerExposure(&ProbePayload{Headers: &HeadersInfo{Server: "N/A"}})
	assert.Equal(t, 10, score)
	assert.Empty(t, recs)
}

func TestGradeFromScore(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "A"}, {90, "A"},
		{89, "B"}, {80, "B"},
		{79, "C"}, {65, "C"},
		{64, "D"}, {50, "D"},
		{49, "F"}, {0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, gradeFromScore(tt.score), "score=%d", tt.score)
	}
}

func TestComputeSecurityScore_RecommendationOrder(t *testing.T) {
	p := &ProbePayload{
		TLS:     &TLSInfo{Protocols: []string{"TLSv1.0"}},
		Headers: &HeadersInfo{Server: "Apache/2.4.1"},
	}
	res := ComputeSecurityScore(p, scoreNow)

	// tls recs first, then headers, waf, certificate, server exposure
	assert.Contains(t, res.Recommendations[0], "Disable TLS 1.0/1.1")
	assert.Contains(t, res.Recommendations[1], "Enable TLS 1.3")
	last := res.Recommendations[len(res.Recommendations)-1]
	assert.Contains(t, last, "Server header exposes version info")
}
