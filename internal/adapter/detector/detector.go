package detector

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"framerag/config"
	"framerag/internal/domain"
)

var (
	// ErrEmptyText is returned when the input contains no text.
	ErrEmptyText = errors.New("empty text")

	// ErrTextTooShort is returned when the input is below the minimum
	// viable length for detection.
	ErrTextTooShort = errors.New("text too short")
)

// CompositeDetector runs one independent pass per unit kind and merges the
// results. A pass failing loses only that kind's units; when every pass
// fails the detector falls back to a minimal numbered-list scan.
type CompositeDetector struct {
	cfg    config.DetectionConfig
	vocab  domain.Vocabulary
	logger *slog.Logger
}

// New creates a CompositeDetector. A nil logger uses slog.Default().
func New(cfg config.DetectionConfig, vocab domain.Vocabulary, logger *slog.Logger) *CompositeDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompositeDetector{cfg: cfg, vocab: vocab, logger: logger}
}

// Detect returns the atomic units found in text, sorted by start offset.
func (d *CompositeDetector) Detect(text string) ([]domain.AtomicUnit, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if len(text) < d.cfg.MinTextLength {
		return nil, fmt.Errorf("%w: %d bytes, minimum %d", ErrTextTooShort, len(text), d.cfg.MinTextLength)
	}

	passes := []struct {
		name string
		run  func(string) []domain.AtomicUnit
	}{
		{"framework", d.detectFrameworks},
		{"numbered_list", d.detectLists},
		{"sequence", d.detectSequences},
		{"example_pair", d.detectExamples},
	}

	results := make([][]domain.AtomicUnit, len(passes))
	failures := make([]error, len(passes))

	if d.cfg.ParallelPasses {
		var g errgroup.Group
		for i := range passes {
			i := i
			g.Go(func() error {
				results[i], failures[i] = runPass(passes[i].name, passes[i].run, text)
				return nil
			})
		}
		// Pass failures are collected in failures, never propagated.
		_ = g.Wait()
	} else {
		for i := range passes {
			results[i], failures[i] = runPass(passes[i].name, passes[i].run, text)
		}
	}

	var units []domain.AtomicUnit
	failed := 0
	for i := range passes {
		if failures[i] != nil {
			failed++
			d.logger.Warn("detector pass failed, continuing without it",
				"pass", passes[i].name, "err", failures[i])
			continue
		}
		units = append(units, results[i]...)
	}

	if failed == len(passes) {
		d.logger.Error("all detector passes failed, falling back to minimal list scan")
		units = minimalListScan(text, d.cfg.ListMinItems)
	}

	sort.Slice(units, func(i, j int) bool {
		if units[i].Start != units[j].Start {
			return units[i].Start < units[j].Start
		}
		return units[i].End > units[j].End
	})

	return units, nil
}

// runPass isolates one kind pass so a panic in its pattern logic cannot
// abort detection of the remaining kinds.
func runPass(name string, fn func(string) []domain.AtomicUnit, text string) (units []domain.AtomicUnit, err error) {
	defer func() {
		if r := recover(); r != nil {
			units = nil
			err = fmt.Errorf("%s pass panicked: %v", name, r)
		}
	}()
	return fn(text), nil
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
