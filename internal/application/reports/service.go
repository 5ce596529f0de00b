package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"domainintel/internal/application"
	domain "domainintel/internal/domain/reports"
	"domainintel/internal/domain/reports/prompt"
	scansdomain "domainintel/internal/domain/scans"
)

// Section names, fixed logical order. The names double as the error
// list prefixes in the response.
const (
	sectionOpportunity    = "opportunity_summary"
	sectionVendor         = "vendor_mapping"
	sectionSecurity       = "security_gaps"
	sectionInfrastructure = "infrastructure_intelligence"
	sectionMigration      = "migration_assessment"
)

// Service implements report synthesis: read-through cache over a five-way
// concurrent generation fan-out that tolerates per-section failure.
type Service struct {
	Scans   scansdomain.Repository
	Cache   domain.Repository
	Gen     domain.Generator
	Clock   application.Clock
	Model   string
	Timeout time.Duration
}

// Analyze synthesizes (or returns the cached) report for a completed
// scan. A cache hit short-circuits generation entirely and returns the
// original generation duration, which makes the call idempotent after
// first success.
func (s *Service) Analyze(ctx context.Context, scanID string) (*domain.Response, error) {
	if resp := s.fromCache(ctx, scanID); resp != nil {
		return resp, nil
	}

	scan, err := s.Scans.Get(ctx, scansdomain.ScanID(scanID))
	if err != nil {
		return nil, err
	}
	if scan.Status != scansdomain.StatusCompleted || scan.Results == "" {
		return nil, domain.ErrNotCompleted
	}

	var payload scansdomain.ProbePayload
	if err := json.Unmarshal([]byte(scan.Results), &payload); err != nil {
		return nil, domain.ErrCorrupted
	}

	summary := domain.BuildSummary(&payload)
	start := s.Clock.Now()
	report, errList := s.generate(ctx, summary)
	generationMS := s.Clock.Now().Sub(start).Milliseconds()

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}

	// Cache write is best-effort: the generated report is returned to
	// the caller even when caching fails.
	rec := &domain.Record{
		ScanID:       scanID,
		Report:       string(reportJSON),
		Model:        s.Model,
		GeneratedAt:  s.Clock.Now(),
		GenerationMS: generationMS,
	}
	if err := s.Cache.Put(ctx, rec); err != nil {
		logrus.WithField("scan_id", scanID).Warnf("report cache write failed: %v", err)
	}

	return &domain.Response{
		ScanID:       scanID,
		Target:       scan.Target,
		GeneratedAt:  rec.GeneratedAt,
		Cached:       false,
		GenerationMS: generationMS,
		Report:       report,
		Errors:       errList,
	}, nil
}

// Cached returns the stored report record for a scan id, if any.
// Used by the scan detail endpoint to attach a report block.
func (s *Service) Cached(ctx context.Context, scanID string) (*domain.Record, error) {
	return s.Cache.Get(ctx, scanID)
}

func (s *Service) fromCache(ctx context.Context, scanID string) *domain.Response {
	rec, err := s.Cache.Get(ctx, scanID)
	if err != nil || rec == nil {
		return nil
	}
	var report domain.AiReport
	if err := json.Unmarshal([]byte(rec.Report), &report); err != nil {
		// Unreadable cache entry: regenerate instead of failing
		return nil
	}

	target := ""
	if scan, err := s.Scans.Get(ctx, scansdomain.ScanID(scanID)); err == nil {
		target = scan.Target
	}

	return &domain.Response{
		ScanID:       scanID,
		Target:       target,
		GeneratedAt:  rec.GeneratedAt,
		Cached:       true,
		GenerationMS: rec.GenerationMS,
		Report:       report,
		Errors:       []string{},
	}
}

// generate fans the summary out to the five section tasks and joins on
// all of them. No fail-fast: each task resolves independently to a
// section or an error entry, and a section that failed degrades to its
// empty representation. A timeout on the joint wait degrades all
// still-pending tasks to failures with the context error as reason.
func (s *Service) generate(ctx context.Context, summary domain.Summary) (domain.AiReport, []string) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	prompts := []struct {
		name string
		p    prompt.Payload
	}{
		{sectionOpportunity, prompt.OpportunitySummary(summary)},
		{sectionVendor, prompt.VendorMapping(summary)},
		{sectionSecurity, prompt.SecurityGaps(summary)},
		{sectionInfrastructure, prompt.InfrastructureIntel(summary)},
		{sectionMigration, prompt.MigrationAssessment(summary)},
	}

	type outcome struct {
		raw string
		err error
	}
	outs := make([]outcome, len(prompts))

	var g errgroup.Group
	for i := range prompts {
		i := i
		g.Go(func() error {
			raw, err := s.Gen.Generate(ctx, prompts[i].p.System, prompts[i].p.User)
			outs[i] = outcome{raw: raw, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var report domain.AiReport
	errList := []string{}

	collect := func(i int, into any) {
		if outs[i].err != nil {
			errList = append(errList, fmt.Sprintf("%s: %v", prompts[i].name, outs[i].err))
			return
		}
		if err := json.Unmarshal([]byte(outs[i].raw), into); err != nil {
			errList = append(errList, fmt.Sprintf("%s: malformed response: %v", prompts[i].name, err))
		}
	}

	var opportunity domain.OpportunitySummary
	before := len(errList)
	collect(0, &opportunity)
	if len(errList) == before {
		report.OpportunitySummary = &opportunity
	}

	var vendors struct {
		Vendors []domain.VendorMapping `json:"vendors"`
	}
	collect(1, &vendors)
	report.VendorMapping = vendors.Vendors
	if report.VendorMapping == nil {
		report.VendorMapping = []domain.VendorMapping{}
	}

	var gaps struct {
		Gaps []domain.SecurityGap `json:"gaps"`
	}
	collect(2, &gaps)
	report.SecurityGaps = gaps.Gaps
	if report.SecurityGaps == nil {
		report.SecurityGaps = []domain.SecurityGap{}
	}

	var infra domain.InfrastructureIntelligence
	before = len(errList)
	collect(3, &infra)
	if len(errList) == before {
		report.InfrastructureIntelligence = &infra
	}

	var migration struct {
		Components []domain.MigrationComponent `json:"components"`
	}
	collect(4, &migration)
	report.MigrationAssessment = migration.Components
	if report.MigrationAssessment == nil {
		report.MigrationAssessment = []domain.MigrationComponent{}
	}

	return report, errList
}
