package reports

import (
	"sort"

	"domainintel/internal/domain/scans"
)

// Summary is the bounded, inference-ready projection of a completed
// scan: capped lists, vendor/category tallies, placeholder fields
// dropped. Built fresh per synthesis call and never persisted. The
// caps keep generation input small no matter how large the raw probe
// payload grew.

const (
	maxCipherSuites       = 5
	maxSamplesPerCategory = 3
)

type SummaryTechnology struct {
	Name     string `json:"name"`
	Version  string `json:"version,omitempty"`
	Category string `json:"category,omitempty"`
}

type SummaryCertificate struct {
	Issuer string `json:"issuer,omitempty"`
	Expiry string `json:"expiry,omitempty"`
}

type SummaryTLS struct {
	Protocols    []string            `json:"protocols"`
	CipherSuites []string            `json:"cipher_suites"`
	Certificate  *SummaryCertificate `json:"certificate,omitempty"`
}

type SummaryWAF struct {
	Detected bool   `json:"detected"`
	Provider string `json:"provider,omitempty"`
}

type SummaryDNS struct {
	ARecords        []string `json:"a_records"`
	CNAMERecords    []string `json:"cname_records"`
	NSRecords       []string `json:"ns_records"`
	MXRecords       []string `json:"mx_records"`
	CDNDetected     string   `json:"cdn_detected,omitempty"`
	HostingProvider string   `json:"hosting_provider,omitempty"`
}

type SummaryHeaders struct {
	Server          string              `json:"server,omitempty"`
	SecurityHeaders map[string]string   `json:"security_headers"`
	RedirectChain   []scans.RedirectHop `json:"redirect_chain,omitempty"`
	FinalURL        string              `json:"final_url,omitempty"`
}

type SummaryIPInfo struct {
	IP  string `json:"ip,omitempty"`
	ASN string `json:"asn,omitempty"`
	Org string `json:"org,omitempty"`
}

type SummaryWhois struct {
	Registrar    string   `json:"registrar,omitempty"`
	Nameservers  []string `json:"nameservers,omitempty"`
	CreationDate string   `json:"creation_date,omitempty"`
	ExpiryDate   string   `json:"expiry_date,omitempty"`
}

type SummarySubdomains struct {
	Total            int                    `json:"total"`
	Stats            *scans.SubdomainStats  `json:"stats,omitempty"`
	Categories       map[string]int         `json:"categories"`
	TopCategories    []string               `json:"top_categories,omitempty"`
	SampleByCategory map[string][]string    `json:"sample_by_category"`
	Groups           []scans.SubdomainGroup `json:"groups,omitempty"`
}

type Summary struct {
	Target        string             `json:"target"`
	WAF           SummaryWAF         `json:"waf"`
	Technologies  []SummaryTechnology `json:"technologies"`
	TLS           SummaryTLS         `json:"tls"`
	DNS           SummaryDNS         `json:"dns"`
	Headers       SummaryHeaders     `json:"headers"`
	IPInfo        SummaryIPInfo      `json:"ip_info"`
	Whois         SummaryWhois       `json:"whois"`
	Subdomains    SummarySubdomains  `json:"subdomains"`
	SecurityScore *scans.ScoreResult `json:"security_score,omitempty"`
}

// BuildSummary compresses a probe payload into a Summary. Pure and
// total: every payload field may be absent.
func BuildSummary(p *scans.ProbePayload) Summary {
	s := Summary{
		Target:        p.Target,
		SecurityScore: p.SecurityScore,
	}

	if p.WAF != nil {
		s.WAF = SummaryWAF{Detected: p.WAF.Detected, Provider: p.WAF.Provider}
	}

	s.Technologies = make([]SummaryTechnology, 0, len(p.Technologies))
	for _, t := range p.Technologies {
		st := SummaryTechnology{Name: t.Name, Version: t.Version}
		if t.Category != "Unknown" {
			st.Category = t.Category
		}
		s.Technologies = append(s.Technologies, st)
	}

	s.TLS = SummaryTLS{Protocols: []string{}, CipherSuites: []string{}}
	if p.TLS != nil {
		if p.TLS.Protocols != nil {
			s.TLS.Protocols = p.TLS.Protocols
		}
		suites := p.TLS.CipherSuites
		if len(suites) > maxCipherSuites {
			suites = suites[:maxCipherSuites]
		}
		if suites != nil {
			s.TLS.CipherSuites = suites
		}
		if p.TLS.Certificate != nil {
			s.TLS.Certificate = &SummaryCertificate{
				Issuer: p.TLS.Certificate.Issuer,
				Expiry: p.TLS.Certificate.Expiry,
			}
		}
	}

	s.DNS = SummaryDNS{ARecords: []string{}, CNAMERecords: []string{}, NSRecords: []string{}, MXRecords: []string{}}
	if p.DNS != nil {
		if p.DNS.ARecords != nil {
			s.DNS.ARecords = p.DNS.ARecords
		}
		if p.DNS.CNAMERecords != nil {
			s.DNS.CNAMERecords = p.DNS.CNAMERecords
		}
		if p.DNS.NSRecords != nil {
			s.DNS.NSRecords = p.DNS.NSRecords
		}
		if p.DNS.MXRecords != nil {
			s.DNS.MXRecords = p.DNS.MXRecords
		}
		s.DNS.CDNDetected = p.DNS.CDNDetected
		s.DNS.HostingProvider = p.DNS.HostingProvider
	}

	s.Headers = SummaryHeaders{SecurityHeaders: map[string]string{}}
	if p.Headers != nil {
		s.Headers.Server = p.Headers.Server
		if p.Headers.SecurityHeaders != nil {
			s.Headers.SecurityHeaders = p.Headers.SecurityHeaders
		}
		s.Headers.RedirectChain = p.Headers.RedirectChain
		s.Headers.FinalURL = p.Headers.FinalURL
	}

	if p.IPInfo != nil {
		s.IPInfo = SummaryIPInfo{IP: p.IPInfo.IP, ASN: p.IPInfo.ASN, Org: p.IPInfo.Org}
	}

	if p.Whois != nil {
		s.Whois = SummaryWhois{
			Registrar:    p.Whois.Registrar,
			Nameservers:  p.Whois.Nameservers,
			CreationDate: p.Whois.CreationDate,
			ExpiryDate:   p.Whois.ExpiryDate,
		}
	}

	s.Subdomains = summarizeSubdomains(p.Subdomains)
	return s
}

func summarizeSubdomains(info *scans.SubdomainInfo) SummarySubdomains {
	out := SummarySubdomains{
		Categories:       map[string]int{},
		SampleByCategory: map[string][]string{},
	}
	if info == nil {
		return out
	}

	out.Total = len(info.Subdomains)
	out.Stats = info.Stats
	out.Groups = info.Groups

	for _, item := range info.Classified {
		cat := item.Category
		if cat == "" {
			cat = "Unknown"
		}
		out.Categories[cat]++
		if len(out.SampleByCategory[cat]) < maxSamplesPerCategory {
			out.SampleByCategory[cat] = append(out.SampleByCategory[cat], item.Subdomain)
		}
	}
	out.TopCategories = out.CategoryNames()
	return out
}

// CategoryNames returns the tallied categories sorted by descending
// count, name as tie-break. Used by callers that want a stable view of
// the tallies.
func (s SummarySubdomains) CategoryNames() []string {
	names := make([]string, 0, len(s.Categories))
	for name := range s.Categories {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if s.Categories[names[i]] != s.Categories[names[j]] {
			return s.Categories[names[i]] > s.Categories[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
