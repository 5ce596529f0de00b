package scans

// Probe payload as produced by the scanner workers. Every field is
// optional: workers report partial results when individual tools time
// out, so nothing here may be assumed present.

type ProbePayload struct {
	Target        string         `json:"target,omitempty"`
	ScanTimestamp string         `json:"scan_timestamp,omitempty"`
	WAF           *WAFInfo       `json:"waf,omitempty"`
	Technologies  []Technology   `json:"technologies,omitempty"`
	TLS           *TLSInfo       `json:"tls,omitempty"`
	DNS           *DNSInfo       `json:"dns,omitempty"`
	Headers       *HeadersInfo   `json:"headers,omitempty"`
	IPInfo        *IPInfo        `json:"ip_info,omitempty"`
	Whois         *WhoisInfo     `json:"whois,omitempty"`
	Subdomains    *SubdomainInfo `json:"subdomains,omitempty"`
	Errors        []string       `json:"errors,omitempty"`
	DurationMS    int64          `json:"duration_ms,omitempty"`
	SecurityScore *ScoreResult   `json:"security_score,omitempty"`
}

type WAFInfo struct {
	Detected bool           `json:"detected"`
	Provider string         `json:"provider,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

type Technology struct {
	Name     string `json:"name"`
	Version  string `json:"version,omitempty"`
	Category string `json:"category,omitempty"`
}

type TLSInfo struct {
	Protocols    []string     `json:"protocols,omitempty"`
	CipherSuites []string     `json:"cipher_suites,omitempty"`
	Certificate  *Certificate `json:"certificate,omitempty"`
}

type Certificate struct {
	Issuer string   `json:"issuer,omitempty"`
	Expiry string   `json:"expiry,omitempty"`
	SAN    []string `json:"san,omitempty"`
}

type DNSInfo struct {
	ARecords        []string `json:"a_records,omitempty"`
	CNAMERecords    []string `json:"cname_records,omitempty"`
	NSRecords       []string `json:"ns_records,omitempty"`
	MXRecords       []string `json:"mx_records,omitempty"`
	CDNDetected     string   `json:"cdn_detected,omitempty"`
	HostingProvider string   `json:"hosting_provider,omitempty"`
	ASN             string   `json:"asn,omitempty"`
}

type RedirectHop struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
	Location   string `json:"location,omitempty"`
}

type HeadersInfo struct {
	Server          string            `json:"server,omitempty"`
	SecurityHeaders map[string]string `json:"security_headers,omitempty"`
	AllHeaders      map[string]string `json:"all_headers,omitempty"`
	RedirectChain   []RedirectHop     `json:"redirect_chain,omitempty"`
	FinalURL        string            `json:"final_url,omitempty"`
}

type IPInfo struct {
	IP  string `json:"ip,omitempty"`
	ASN string `json:"asn,omitempty"`
	Org string `json:"org,omitempty"`
}

type WhoisInfo struct {
	Registrar     string   `json:"registrar,omitempty"`
	CreationDate  string   `json:"creation_date,omitempty"`
	ExpiryDate    string   `json:"expiry_date,omitempty"`
	UpdatedDate   string   `json:"updated_date,omitempty"`
	Nameservers   []string `json:"nameservers,omitempty"`
	RegistrantOrg string   `json:"registrant_org,omitempty"`
	Status        []string `json:"status,omitempty"`
}

type ClassifiedSubdomain struct {
	Subdomain     string `json:"subdomain"`
	Category      string `json:"category,omitempty"`
	Interest      string `json:"interest,omitempty"`
	CFOpportunity string `json:"cf_opportunity,omitempty"`
}

type SubdomainStats struct {
	HighInterest   int `json:"high_interest,omitempty"`
	MediumInterest int `json:"medium_interest,omitempty"`
	LowInterest    int `json:"low_interest,omitempty"`
}

type SubdomainGroup struct {
	Prefix   string `json:"prefix"`
	Count    int    `json:"count"`
	Category string `json:"category,omitempty"`
}

type SubdomainInfo struct {
	Subdomains []string              `json:"subdomains,omitempty"`
	Sources    map[string]string     `json:"sources,omitempty"`
	Count      int                   `json:"count,omitempty"`
	Classified []ClassifiedSubdomain `json:"classified,omitempty"`
	Stats      *SubdomainStats       `json:"stats,omitempty"`
	Groups     []SubdomainGroup      `json:"groups,omitempty"`
}
