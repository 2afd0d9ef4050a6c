package chunker

import (
	"testing"

	"framerag/internal/domain"
)

func TestResolveFrameworkBeatsOverlappingList(t *testing.T) {
	units := []domain.AtomicUnit{
		{Start: 10, End: 100, Kind: domain.UnitFramework, FrameworkTag: "Value Equation",
			Priority: domain.PriorityCritical, Confidence: 0.9},
		{Start: 50, End: 150, Kind: domain.UnitNumberedList,
			Priority: domain.PriorityHigh, Confidence: 0.8},
	}

	regions := ResolveRegions(units)
	if len(regions) != 1 {
		t.Fatalf("expected 1 region, got %d: %+v", len(regions), regions)
	}

	r := regions[0]
	if r.Kind != domain.UnitFramework {
		t.Errorf("Kind = %v, want framework", r.Kind)
	}
	if r.Start != 10 || r.End != 100 {
		t.Errorf("region = [%d, %d), want the framework's span [10, 100)", r.Start, r.End)
	}
	if r.Priority != domain.PriorityCritical {
		t.Errorf("Priority = %v, want critical", r.Priority)
	}
}

func TestResolveDisjointUnitsAllKept(t *testing.T) {
	units := []domain.AtomicUnit{
		{Start: 200, End: 300, Kind: domain.UnitNumberedList, Priority: domain.PriorityHigh, Confidence: 0.7},
		{Start: 0, End: 100, Kind: domain.UnitFramework, Priority: domain.PriorityCritical, Confidence: 0.9},
	}

	regions := ResolveRegions(units)
	if len(regions) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(regions))
	}
	if regions[0].Start != 0 || regions[1].Start != 200 {
		t.Errorf("regions not in document order: %+v", regions)
	}
}

func TestResolveMergesTouchingRegions(t *testing.T) {
	units := []domain.AtomicUnit{
		{Start: 0, End: 50, Kind: domain.UnitNumberedList, Priority: domain.PriorityHigh, Confidence: 0.7},
		{Start: 50, End: 90, Kind: domain.UnitSequence, Priority: domain.PriorityHigh, Confidence: 0.6},
	}

	regions := ResolveRegions(units)
	if len(regions) != 1 {
		t.Fatalf("touching regions should merge, got %d", len(regions))
	}
	if regions[0].Start != 0 || regions[0].End != 90 {
		t.Errorf("merged span = [%d, %d), want [0, 90)", regions[0].Start, regions[0].End)
	}
	if len(regions[0].SourceUnits) != 2 {
		t.Errorf("merged region should carry both source units, got %d", len(regions[0].SourceUnits))
	}
}

func TestResolveEqualPriorityHigherConfidenceWins(t *testing.T) {
	units := []domain.AtomicUnit{
		{Start: 0, End: 60, Kind: domain.UnitNumberedList, Priority: domain.PriorityHigh, Confidence: 0.6},
		{Start: 40, End: 120, Kind: domain.UnitSequence, Priority: domain.PriorityHigh, Confidence: 0.9},
	}

	regions := ResolveRegions(units)
	if len(regions) != 1 {
		t.Fatalf("expected 1 region, got %d", len(regions))
	}
	if regions[0].Kind != domain.UnitSequence {
		t.Errorf("higher-confidence unit should win, got %v", regions[0].Kind)
	}
}

func TestResolveDropsInvertedSpans(t *testing.T) {
	units := []domain.AtomicUnit{
		{Start: 50, End: 50, Kind: domain.UnitNumberedList, Priority: domain.PriorityHigh},
		{Start: 80, End: 20, Kind: domain.UnitNumberedList, Priority: domain.PriorityHigh},
	}
	if regions := ResolveRegions(units); len(regions) != 0 {
		t.Errorf("degenerate spans should be dropped, got %+v", regions)
	}
}

func TestResolveRegionsNeverOverlap(t *testing.T) {
	units := []domain.AtomicUnit{
		{Start: 0, End: 100, Kind: domain.UnitFramework, Priority: domain.PriorityCritical, Confidence: 0.9},
		{Start: 20, End: 140, Kind: domain.UnitNumberedList, Priority: domain.PriorityHigh, Confidence: 0.8},
		{Start: 130, End: 200, Kind: domain.UnitSequence, Priority: domain.PriorityHigh, Confidence: 0.7},
		{Start: 190, End: 260, Kind: domain.UnitExamplePair, Priority: domain.PriorityMedium, Confidence: 0.6},
		{Start: 300, End: 400, Kind: domain.UnitExamplePair, Priority: domain.PriorityMedium, Confidence: 0.6},
	}

	regions := ResolveRegions(units)
	for i := 0; i < len(regions); i++ {
		for j := i + 1; j < len(regions); j++ {
			if overlaps(regions[i].Start, regions[i].End, regions[j].Start, regions[j].End) {
				t.Fatalf("regions %d and %d overlap: %+v", i, j, regions)
			}
		}
	}
	for i := 1; i < len(regions); i++ {
		if regions[i].Start < regions[i-1].End {
			t.Fatalf("regions not in document order: %+v", regions)
		}
	}
}
