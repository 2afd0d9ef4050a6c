package validator

import (
	"errors"
	"strings"
	"testing"

	"framerag/config"
	"framerag/internal/domain"
)

func testValidationConfig() config.ValidationConfig {
	return config.ValidationConfig{
		ComponentThreshold: 0.75,
		AtomicSizeCeiling:  6000,
		CohesionFloor:      0.5,
		RemediationPolicy:  "merge",
	}
}

func testVocab() domain.Vocabulary {
	return domain.Vocabulary{
		Frameworks: []domain.FrameworkPattern{
			{
				Name:          "Value Equation",
				StartMarkers:  []string{"Value ="},
				Components:    []string{"dream outcome", "perceived likelihood", "time delay", "effort"},
				MinComponents: 2,
				Priority:      domain.PriorityCritical,
			},
		},
	}
}

func frameworkChunk(id, text string) domain.Chunk {
	return domain.Chunk{
		ID:            id,
		Text:          text,
		Kind:          domain.ChunkAtomic,
		CohesionScore: 1.0,
		Metadata: domain.ChunkMetadata{
			FrameworkName: "Value Equation",
			ContentType:   domain.ContentFramework,
			PriorityTier:  domain.PriorityCritical,
		},
	}
}

func listChunk(id, text string) domain.Chunk {
	return domain.Chunk{
		ID:            id,
		Text:          text,
		Kind:          domain.ChunkAtomic,
		CohesionScore: 1.0,
		SourceUnits: []domain.AtomicUnit{
			{Kind: domain.UnitNumberedList, Priority: domain.PriorityHigh},
		},
		Metadata: domain.ChunkMetadata{
			ContentType:  domain.ContentProcess,
			PriorityTier: domain.PriorityHigh,
		},
	}
}

func TestValidateSplitFramework(t *testing.T) {
	chunks := []domain.Chunk{
		frameworkChunk("a", "Value = Dream Outcome times Perceived Likelihood"),
		frameworkChunk("b", "divided by Time Delay plus Effort and Sacrifice."),
	}
	chunks[0].Start, chunks[0].End = 0, 48
	chunks[1].Start, chunks[1].End = 50, 98

	v := New(testValidationConfig(), testVocab(), nil)
	report := v.Validate(chunks)

	var criticals []domain.CohesionViolation
	for _, viol := range report.Violations {
		if viol.Severity == domain.SeverityCritical {
			criticals = append(criticals, viol)
		}
	}
	if len(criticals) != 1 {
		t.Fatalf("expected exactly 1 critical violation, got %d: %+v", len(criticals), criticals)
	}
	if criticals[0].Kind != "split_framework" {
		t.Errorf("Kind = %q, want split_framework", criticals[0].Kind)
	}
	if report.FrameworkIntegrityRate >= 1.0 {
		t.Errorf("FrameworkIntegrityRate = %v, want < 1.0", report.FrameworkIntegrityRate)
	}
	if !report.HasCritical() {
		t.Errorf("HasCritical should be true")
	}
	if report.CohesionScore >= 1.0 {
		t.Errorf("CohesionScore = %v, a critical violation must cost score", report.CohesionScore)
	}
}

func TestValidateIncompleteFramework(t *testing.T) {
	chunks := []domain.Chunk{
		frameworkChunk("a", "Value = something about the Dream Outcome only."),
	}

	v := New(testValidationConfig(), testVocab(), nil)
	report := v.Validate(chunks)

	if len(report.Violations) != 1 {
		t.Fatalf("expected 1 violation, got %+v", report.Violations)
	}
	if report.Violations[0].Kind != "incomplete_framework" {
		t.Errorf("Kind = %q, want incomplete_framework", report.Violations[0].Kind)
	}
	if report.Violations[0].Severity != domain.SeverityCritical {
		t.Errorf("Severity = %v, want critical", report.Violations[0].Severity)
	}
}

func TestValidateCompleteFrameworkClean(t *testing.T) {
	chunks := []domain.Chunk{
		frameworkChunk("a", "Value = (Dream Outcome * Perceived Likelihood) / (Time Delay + Effort and Sacrifice)"),
	}

	v := New(testValidationConfig(), testVocab(), nil)
	report := v.Validate(chunks)

	if len(report.Violations) != 0 {
		t.Fatalf("complete framework should be clean, got %+v", report.Violations)
	}
	if report.FrameworkIntegrityRate != 1.0 {
		t.Errorf("FrameworkIntegrityRate = %v, want 1.0", report.FrameworkIntegrityRate)
	}
}

func TestValidateIncompleteList(t *testing.T) {
	chunks := []domain.Chunk{listChunk("a", "1. Only one item survived the split")}

	v := New(testValidationConfig(), testVocab(), nil)
	report := v.Validate(chunks)

	if len(report.Violations) != 1 || report.Violations[0].Kind != "incomplete_list" {
		t.Fatalf("expected incomplete_list, got %+v", report.Violations)
	}
	if report.ListCompletenessRate != 0 {
		t.Errorf("ListCompletenessRate = %v, want 0", report.ListCompletenessRate)
	}
}

func TestValidateStepSequenceClean(t *testing.T) {
	chunks := []domain.Chunk{
		{
			ID:            "a",
			Text:          "Step 1: Identify the dream outcome\nStep 2: Stack the value\nStep 3: Add the guarantee",
			Kind:          domain.ChunkAtomic,
			CohesionScore: 1.0,
			SourceUnits: []domain.AtomicUnit{
				{Kind: domain.UnitSequence, Priority: domain.PriorityHigh},
			},
			Metadata: domain.ChunkMetadata{
				ContentType:  domain.ContentProcess,
				PriorityTier: domain.PriorityHigh,
			},
		},
	}

	v := New(testValidationConfig(), testVocab(), nil)
	report := v.Validate(chunks)

	if len(report.Violations) != 0 {
		t.Fatalf("complete step sequence should be clean, got %+v", report.Violations)
	}
	if report.ListCompletenessRate != 1.0 {
		t.Errorf("ListCompletenessRate = %v, want 1.0", report.ListCompletenessRate)
	}
}

func TestValidateTruncatedList(t *testing.T) {
	chunks := []domain.Chunk{listChunk("a", "1. Name the niche\n2. Name the outcome,")}

	v := New(testValidationConfig(), testVocab(), nil)
	report := v.Validate(chunks)

	if len(report.Violations) != 1 || report.Violations[0].Kind != "truncated_list" {
		t.Fatalf("expected truncated_list, got %+v", report.Violations)
	}
	if report.Violations[0].Severity != domain.SeverityHigh {
		t.Errorf("Severity = %v, want high", report.Violations[0].Severity)
	}
}

func TestValidateIncoherentExample(t *testing.T) {
	chunks := []domain.Chunk{
		{
			ID:            "a",
			Text:          "For example, X.",
			Kind:          domain.ChunkAtomic,
			CohesionScore: 1.0,
			Metadata:      domain.ChunkMetadata{ContentType: domain.ContentExample},
		},
	}

	v := New(testValidationConfig(), testVocab(), nil)
	report := v.Validate(chunks)

	if len(report.Violations) != 1 || report.Violations[0].Kind != "incoherent_example" {
		t.Fatalf("expected incoherent_example, got %+v", report.Violations)
	}
	if report.ExampleCoherenceRate != 0 {
		t.Errorf("ExampleCoherenceRate = %v, want 0", report.ExampleCoherenceRate)
	}
}

func TestValidateGeneralQuality(t *testing.T) {
	cfg := testValidationConfig()
	cfg.AtomicSizeCeiling = 100

	chunks := []domain.Chunk{
		{
			ID:            "big",
			Text:          strings.Repeat("x", 200),
			Kind:          domain.ChunkAtomic,
			CohesionScore: 1.0,
			Metadata:      domain.ChunkMetadata{ContentType: domain.ContentConcept},
		},
		{
			ID:            "weak",
			Text:          "short standard chunk",
			Kind:          domain.ChunkStandard,
			CohesionScore: 0.3,
		},
	}

	v := New(cfg, testVocab(), nil)
	report := v.Validate(chunks)

	kinds := map[string]domain.Severity{}
	for _, viol := range report.Violations {
		kinds[viol.Kind] = viol.Severity
	}
	if sev, ok := kinds["oversized_atomic"]; !ok || sev != domain.SeverityLow {
		t.Errorf("expected low-severity oversized_atomic, got %+v", report.Violations)
	}
	if sev, ok := kinds["low_cohesion"]; !ok || sev != domain.SeverityLow {
		t.Errorf("expected low-severity low_cohesion, got %+v", report.Violations)
	}
	if report.HasCritical() {
		t.Errorf("low-severity findings must not count as critical")
	}
}

func TestRemediateMergesSplitFramework(t *testing.T) {
	chunks := []domain.Chunk{
		frameworkChunk("a", "Value = Dream Outcome times Perceived Likelihood"),
		frameworkChunk("b", "divided by Time Delay plus Effort and Sacrifice."),
	}
	chunks[0].Start, chunks[0].End = 0, 48
	chunks[1].Start, chunks[1].End = 50, 98

	v := New(testValidationConfig(), testVocab(), nil)
	report := v.Validate(chunks)

	merged, newReport, err := v.Remediate(chunks, report)
	if err != nil {
		t.Fatalf("Remediate: %v", err)
	}
	if len(merged) != 1 {
		t.Fatalf("expected 1 merged chunk, got %d", len(merged))
	}

	ch := merged[0]
	if ch.Kind != domain.ChunkAtomic {
		t.Errorf("Kind = %v, want atomic", ch.Kind)
	}
	if !strings.Contains(ch.Text, "Dream Outcome") || !strings.Contains(ch.Text, "Effort and Sacrifice") {
		t.Errorf("merged text should contain both halves: %q", ch.Text)
	}
	if !ch.Metadata.IsCompleteFramework {
		t.Errorf("merged chunk carries all components, should be complete")
	}
	if ch.Metadata.Detail["remediation"] == "" {
		t.Errorf("merged chunk should record its remediation")
	}
	if ch.Metadata.Detail["span"] != "nominal" {
		t.Errorf("merged chunk must mark its span nominal, got %q", ch.Metadata.Detail["span"])
	}
	if newReport.HasCritical() {
		t.Errorf("regenerated report should be critical-free, got %+v", newReport.Violations)
	}
}

func TestRemediateReportPolicyPassesThrough(t *testing.T) {
	cfg := testValidationConfig()
	cfg.RemediationPolicy = "report"

	chunks := []domain.Chunk{
		frameworkChunk("a", "Value = Dream Outcome times Perceived Likelihood"),
		frameworkChunk("b", "divided by Time Delay plus Effort and Sacrifice."),
	}

	v := New(cfg, testVocab(), nil)
	report := v.Validate(chunks)

	out, outReport, err := v.Remediate(chunks, report)
	if err != nil {
		t.Fatalf("Remediate: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("report policy must not rewrite chunks, got %d", len(out))
	}
	if !outReport.HasCritical() {
		t.Errorf("report policy must keep the violations visible")
	}
}

func TestRemediateBlockPolicy(t *testing.T) {
	cfg := testValidationConfig()
	cfg.RemediationPolicy = "block"

	chunks := []domain.Chunk{
		frameworkChunk("a", "Value = Dream Outcome times Perceived Likelihood"),
		frameworkChunk("b", "divided by Time Delay plus Effort and Sacrifice."),
	}

	v := New(cfg, testVocab(), nil)
	report := v.Validate(chunks)

	if _, _, err := v.Remediate(chunks, report); !errors.Is(err, ErrCohesionBlocked) {
		t.Errorf("err = %v, want ErrCohesionBlocked", err)
	}
}

func TestRemediateNoCriticalsNoOp(t *testing.T) {
	chunks := []domain.Chunk{listChunk("a", "1. Name the niche\n2. Name the outcome")}

	v := New(testValidationConfig(), testVocab(), nil)
	report := v.Validate(chunks)
	if report.HasCritical() {
		t.Fatalf("setup: expected no criticals, got %+v", report.Violations)
	}

	out, _, err := v.Remediate(chunks, report)
	if err != nil {
		t.Fatalf("Remediate: %v", err)
	}
	if len(out) != 1 || out[0].ID != "a" {
		t.Errorf("clean input must pass through untouched")
	}
}

func TestRemediateUnmergeableCriticalPassesThrough(t *testing.T) {
	// incomplete_framework cannot be fixed by merging; merge policy falls
	// back to passthrough with the original report.
	chunks := []domain.Chunk{
		frameworkChunk("a", "Value = something about the Dream Outcome only."),
	}

	v := New(testValidationConfig(), testVocab(), nil)
	report := v.Validate(chunks)

	out, outReport, err := v.Remediate(chunks, report)
	if err != nil {
		t.Fatalf("Remediate: %v", err)
	}
	if len(out) != 1 || out[0].ID != "a" {
		t.Errorf("unmergeable violation should leave chunks untouched")
	}
	if !outReport.HasCritical() {
		t.Errorf("original report should survive passthrough")
	}
}
