package prompt

import (
	"encoding/json"
	"fmt"

	"domainintel/internal/domain/reports"
)

// Prompt builders for the five report sections. Every prompt shares the
// product-context block and instructs the model to answer with a single
// JSON object matching the section schema.

// Payload is one section's prompt pair. User carries the scan summary
// as JSON.
type Payload struct {
	System string
	User   string
}

const productContext = `Cloudflare Product Portfolio (use exact names):
- CDN & Caching: Cloudflare CDN, Cache Rules, Tiered Cache, Argo Smart Routing
- Security: Cloudflare WAF, DDoS Protection, Bot Management, API Shield, Page Shield, Turnstile
- SSL/TLS: Cloudflare SSL, Advanced Certificate Manager, Keyless SSL, automatic TLS 1.3
- Zero Trust: Cloudflare Access, Gateway, Tunnel, WARP, Browser Isolation, CASB
- Email: Area 1 Email Security, Email Routing
- DNS: Cloudflare Authoritative DNS, DNS Firewall, DNSSEC
- Compute & Developer: Workers, Pages, R2, D1, Durable Objects, KV, Queues, Workers AI
- Network: Spectrum, Magic Transit, Magic WAN, China Network
- Performance: Early Hints, Zaraz, Web Analytics, Speed Brain
- Media: Cloudflare Images, Stream, Image Resizing`

func system(sectionInstructions string) string {
	return fmt.Sprintf(`You are a Cloudflare solutions engineer analyzing a website's infrastructure for competitive displacement opportunities. Your audience is other Cloudflare sales/solutions engineers who need actionable intelligence.

%s

%s

Respond ONLY with valid JSON matching the schema described. No markdown, no explanation outside the JSON.`, productContext, sectionInstructions)
}

func userJSON(summary reports.Summary) string {
	b, err := json.Marshal(summary)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func OpportunitySummary(summary reports.Summary) Payload {
	return Payload{
		System: system(`Analyze the scan data and produce a Cloudflare opportunity summary.

Return JSON: {"narrative":"string (2-3 paragraphs)","top_opportunities":[{"area":"string","product":"string","impact":"high|medium|low"}]}

The narrative should:
- Open with what the site currently uses (vendors, CDN, WAF, DNS, hosting)
- Highlight the strongest Cloudflare displacement opportunities
- Note security weaknesses that Cloudflare fixes easily

top_opportunities: max 5 items, sorted by impact (high first).`),
		User: userJSON(summary),
	}
}

func VendorMapping(summary reports.Summary) Payload {
	return Payload{
		System: system(`Identify all detected third-party vendors and technologies, and map each to the best Cloudflare replacement.

Return JSON: {"vendors":[{"detected_vendor":"string","vendor_category":"string","cf_replacement":"string","talking_points":["string"],"confidence":"high|medium|low"}]}

Sources of vendor info: WAF provider, CDN vendor from DNS, technology stack names, hosting provider, nameservers, email (MX records), subdomain patterns suggesting competitor products.

Only include vendors where Cloudflare has a competitive replacement. 2-3 talking points per vendor focusing on concrete advantages.`),
		User: userJSON(summary),
	}
}

func SecurityGaps(summary reports.Summary) Payload {
	return Payload{
		System: system(`Map each security weakness to a specific Cloudflare product with a business justification.

Return JSON: {"gaps":[{"gap":"string","severity":"high|medium|low","cf_product":"string","cf_feature":"string","business_pitch":"string"}]}

Look at: security_score (grade, breakdown, recommendations), missing security headers, TLS configuration, WAF status, certificate expiry, server version exposure, redirect chain issues.

business_pitch should be 1-2 sentences a sales engineer can use in conversation. Be specific about the CF feature, not generic.`),
		User: userJSON(summary),
	}
}

func InfrastructureIntel(summary reports.Summary) Payload {
	return Payload{
		System: system(`Analyze the subdomain and infrastructure data to infer patterns, shadow IT, and multi-cloud usage.

Return JSON: {"patterns":["string"],"shadow_it_indicators":["string"],"multi_cloud_detected":boolean,"cloud_providers":["string"],"infrastructure_summary":"string (1-2 paragraphs)"}

Look at: subdomain categories, subdomain naming patterns (groups), hosting provider, CDN vendor, DNS nameservers, technology stack, CNAME records.

patterns: infrastructure patterns you can infer (e.g., "Kubernetes cluster detected from node-* subdomains", "SaaS-heavy stack with multiple vendors").
shadow_it_indicators: services that may be unmanaged or forgotten.
cloud_providers: list cloud providers detected from any signal.`),
		User: userJSON(summary),
	}
}

func MigrationAssessment(summary reports.Summary) Payload {
	return Payload{
		System: system(`Assess migration complexity for each detected technology component to its Cloudflare equivalent.

Return JSON: {"components":[{"component":"string","current_vendor":"string","complexity":"easy|medium|hard","estimated_effort":"string","approach":"string (1-2 sentences)","cf_products":["string"],"risks":["string"]}]}

Complexity guide:
- easy: DNS/config change only (DNS migration, CDN proxy, WAF enable, SSL)
- medium: requires some config or policy migration (email routing, header rules, access policies)
- hard: requires code changes or deep integration work (compute migration, custom WAF rules, full Zero Trust rollout)

Order by complexity (easy first). Include a migration sequence recommendation in the first component's approach.`),
		User: userJSON(summary),
	}
}
