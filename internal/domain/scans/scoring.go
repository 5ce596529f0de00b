package scans

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

// Security scoring. Pure function over the probe payload: every input
// field is optional and an empty payload simply scores zero. Computed
// once at scan completion and stored with the results.

// ScoreBreakdown holds the five sub-scores. Maxima: tls 25, headers 30,
// waf 15, certificate 20, server_exposure 10.
type ScoreBreakdown struct {
	TLS            int `json:"tls"`
	Headers        int `json:"headers"`
	WAF            int `json:"waf"`
	Certificate    int `json:"certificate"`
	ServerExposure int `json:"server_exposure"`
}

type ScoreResult struct {
	Score           int            `json:"score"`
	Grade           string         `json:"grade"`
	Breakdown       ScoreBreakdown `json:"breakdown"`
	Recommendations []string       `json:"recommendations"`
}

// securityHeaderNames are checked in the headers sub-score, one
// recommendation per absent header.
var securityHeaderNames = []string{
	"strict-transport-security",
	"content-security-policy",
	"x-frame-options",
	"x-content-type-options",
	"x-xss-protection",
	"referrer-policy",
	"permissions-policy",
}

var serverVersionRe = regexp.MustCompile(`/[\d.]`)

func scoreTLS(p *ProbePayload) (int, []string) {
	var protocols []string
	if p.TLS != nil {
		protocols = p.TLS.Protocols
	}
	if len(protocols) == 0 {
		return 0, []string{"No TLS detected"}
	}

	score := 25
	var recs []string
	hasLegacy := false
	has13 := false
	for _, proto := range protocols {
		if strings.Contains(proto, "1.0") || strings.Contains(proto, "1.1") {
			hasLegacy = true
		}
		if strings.Contains(proto, "1.3") {
			has13 = true
		}
	}
	if hasLegacy {
		score -= 10
		recs = append(recs, "Disable TLS 1.0/1.1 — they have known vulnerabilities")
	}
	if !has13 {
		score -= 5
		recs = append(recs, "Enable TLS 1.3 for better performance and security")
	}
	if score < 0 {
		score = 0
	}
	return score, recs
}

func scoreHeaders(p *ProbePayload) (int, []string) {
	var sec map[string]string
	if p.Headers != nil {
		sec = p.Headers.SecurityHeaders
	}

	present := 0
	var recs []string
	for _, name := range securityHeaderNames {
		val := sec[name]
		if val != "" && val != "missing" {
			present++
		} else {
			recs = append(recs, fmt.Sprintf("Add %s header", name))
		}
	}

	score := int(math.Round(float64(present) / float64(len(securityHeaderNames)) * 30))
	return score, recs
}

func scoreWAF(p *ProbePayload) (int, []string) {
	if p.WAF != nil && p.WAF.Detected {
		return 15, nil
	}
	return 0, []string{"Consider deploying a Web Application Firewall"}
}

// certExpiryLayouts are tried in order when parsing certificate expiry
// timestamps; workers emit RFC3339 but older sslyze output uses a bare
// date.
var certExpiryLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func scoreCertificate(p *ProbePayload, now time.Time) (int, []string) {
	var cert *Certificate
	if p.TLS != nil {
		cert = p.TLS.Certificate
	}
	if cert == nil || cert.Expiry == "" {
		return 0, []string{"No certificate found"}
	}

	score := 20
	var recs []string

	var expiry time.Time
	var err error
	for _, layout := range certExpiryLayouts {
		expiry, err = time.Parse(layout, cert.Expiry)
		if err == nil {
			break
		}
	}
	if err != nil {
		// Unparseable expiry: present but unknown, no deduction
		return score, recs
	}

	daysUntilExpiry := expiry.Sub(now).Hours() / 24
	if daysUntilExpiry < 0 {
		score -= 20
		recs = append(recs, "Certificate has expired!")
	} else if daysUntilExpiry < 30 {
		score -= 10
		recs = append(recs, fmt.Sprintf("Certificate expires in %d days — renew soon", int(math.Round(daysUntilExpiry))))
	}

	if score < 0 {
		score = 0
	}
	return score, recs
}

func scoreServerExposure(p *ProbePayload) (int, []string) {
	server := ""
	if p.Headers != nil {
		server = p.Headers.Server
	}

	score := 10
	var recs []string
	if server != "" && server != "N/A" && serverVersionRe.MatchString(server) {
		score -= 5
		recs = append(recs, fmt.Sprintf("Server header exposes version info (%s) — consider hiding it", server))
	}
	if score < 0 {
		score = 0
	}
	return score, recs
}

func gradeFromScore(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 65:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}

// ComputeSecurityScore scores the payload. Recommendations keep the
// fixed sub-scorer order: tls, headers, waf, certificate, server
// exposure.
func ComputeSecurityScore(p *ProbePayload, now time.Time) ScoreResult {
	tlsScore, tlsRecs := scoreTLS(p)
	headerScore, headerRecs := scoreHeaders(p)
	wafScore, wafRecs := scoreWAF(p)
	certScore, certRecs := scoreCertificate(p, now)
	exposureScore, exposureRecs := scoreServerExposure(p)

	total := tlsScore + headerScore + wafScore + certScore + exposureScore

	recs := make([]string, 0, len(tlsRecs)+len(headerRecs)+len(wafRecs)+len(certRecs)+len(exposureRecs))
	recs = append(recs, tlsRecs...)
	recs = append(recs, headerRecs...)
	recs = append(recs, wafRecs...)
	recs = append(recs, certRecs...)
	recs = append(recs, exposureRecs...)

	return ScoreResult{
		Score: total,
		Grade: gradeFromScore(total),
		Breakdown: ScoreBreakdown{
			TLS:            tlsScore,
			Headers:        headerScore,
			WAF:            wafScore,
			Certificate:    certScore,
			ServerExposure: exposureScore,
		},
		Recommendations: recs,
	}
}
