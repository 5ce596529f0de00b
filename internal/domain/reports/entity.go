package reports

import "time"

// AI report sections. Each section is generated independently and may
// be empty when its generation task failed; the composite report is
// assembled from whatever succeeded.

type Opportunity struct {
	Area    string `json:"area"`
	Product string `json:"product"`
	Impact  string `json:"impact"`
}

type OpportunitySummary struct {
	Narrative        string        `json:"narrative"`
	TopOpportunities []Opportunity `json:"top_opportunities"`
}

type VendorMapping struct {
	DetectedVendor string   `json:"detected_vendor"`
	VendorCategory string   `json:"vendor_category"`
	CFReplacement  string   `json:"cf_replacement"`
	TalkingPoints  []string `json:"talking_points"`
	Confidence     string   `json:"confidence"`
}

type SecurityGap struct {
	Gap           string `json:"gap"`
	Severity      string `json:"severity"`
	CFProduct     string `json:"cf_product"`
	CFFeature     string `json:"cf_feature"`
	BusinessPitch string `json:"business_pitch"`
}

type InfrastructureIntelligence struct {
	Patterns              []string `json:"patterns"`
	ShadowITIndicators    []string `json:"shadow_it_indicators"`
	MultiCloudDetected    bool     `json:"multi_cloud_detected"`
	CloudProviders        []string `json:"cloud_providers"`
	InfrastructureSummary string   `json:"infrastructure_summary"`
}

type MigrationComponent struct {
	Component       string   `json:"component"`
	CurrentVendor   string   `json:"current_vendor"`
	Complexity      string   `json:"complexity"`
	EstimatedEffort string   `json:"estimated_effort"`
	Approach        string   `json:"approach"`
	CFProducts      []string `json:"cf_products"`
	Risks           []string `json:"risks"`
}

// AiReport is the composite report, sections always in the fixed
// logical order regardless of generation completion order.
type AiReport struct {
	OpportunitySummary         *OpportunitySummary         `json:"opportunity_summary"`
	VendorMapping              []VendorMapping             `json:"vendor_mapping"`
	SecurityGaps               []SecurityGap               `json:"security_gaps"`
	InfrastructureIntelligence *InfrastructureIntelligence `json:"infrastructure_intelligence"`
	MigrationAssessment        []MigrationComponent        `json:"migration_assessment"`
}

// Record is the cached report row, one-to-one with a scan id.
// Regeneration overwrites it; reports are never versioned.
type Record struct {
	ScanID       string    `json:"scan_id"`
	Report       string    `json:"report"`
	Model        string    `json:"model"`
	GeneratedAt  time.Time `json:"generated_at"`
	GenerationMS int64     `json:"generation_ms"`
}

// Response is what the analyze endpoint returns. Errors lists the
// sections whose generation failed, as "<section>: <reason>".
type Response struct {
	ScanID       string    `json:"scan_id"`
	Target       string    `json:"target"`
	GeneratedAt  time.Time `json:"generated_at"`
	Cached       bool      `json:"cached"`
	GenerationMS int64     `json:"generation_ms"`
	Report       AiReport  `json:"report"`
	Errors       []string  `json:"errors"`
}
