package config

import (
	"os"
	"path/filepath"
	"testing"

	"framerag/internal/domain"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chunking.TargetSize != DefaultConfig().Chunking.TargetSize {
		t.Errorf("missing file should yield defaults")
	}
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framerag.yaml")
	data := []byte("chunking:\n  target_size: 800\nretrieval:\n  vector_weight: 0.5\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chunking.TargetSize != 800 {
		t.Errorf("TargetSize = %d, want 800", cfg.Chunking.TargetSize)
	}
	if cfg.Retrieval.VectorWeight != 0.5 {
		t.Errorf("VectorWeight = %v, want 0.5", cfg.Retrieval.VectorWeight)
	}
	// Untouched values stay at defaults.
	if cfg.Retrieval.KeywordWeight != DefaultConfig().Retrieval.KeywordWeight {
		t.Errorf("KeywordWeight should keep its default")
	}
}

func TestValidateRejectsUnsupportedSimilarity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retrieval.Similarity = "dot_product"
	if err := cfg.Validate(); err == nil {
		t.Errorf("non-cosine similarity must be rejected")
	}
}

func TestValidateRejectsUnknownRemediationPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Validation.RemediationPolicy = "ignore"
	if err := cfg.Validate(); err == nil {
		t.Errorf("unknown remediation policy must be rejected")
	}
}

func TestValidateRejectsBadChunkSizes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chunking.MaxSize = cfg.Chunking.TargetSize - 1
	if err := cfg.Validate(); err == nil {
		t.Errorf("max_size below target_size must be rejected")
	}

	cfg = DefaultConfig()
	cfg.Chunking.Overlap = cfg.Chunking.TargetSize
	if err := cfg.Validate(); err == nil {
		t.Errorf("overlap at or above target_size must be rejected")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framerag.yaml")

	cfg := DefaultConfig()
	cfg.Ingest.Workers = 9
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Ingest.Workers != 9 {
		t.Errorf("Workers = %d, want 9", loaded.Ingest.Workers)
	}
}

func TestDefaultVocabularyFrameworksAreCritical(t *testing.T) {
	vocab := DefaultVocabulary()
	if len(vocab.Frameworks) == 0 {
		t.Fatalf("default vocabulary should carry frameworks")
	}
	for _, p := range vocab.Frameworks {
		if p.Priority != domain.PriorityCritical {
			t.Errorf("framework %q priority = %v, want critical", p.Name, p.Priority)
		}
		if p.MinComponents <= 0 {
			t.Errorf("framework %q has no minimum component count", p.Name)
		}
	}
}

func TestLoadVocabularyMissingFileReturnsDefaults(t *testing.T) {
	vocab, err := LoadVocabulary(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadVocabulary: %v", err)
	}
	if len(vocab.Frameworks) != len(DefaultVocabulary().Frameworks) {
		t.Errorf("missing file should yield the default vocabulary")
	}
}

func TestLoadVocabularyUserFrameworksForcedCritical(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocabulary.yaml")
	data := []byte(`frameworks:
  - name: Custom Framework
    start_markers: ["custom ="]
    components: ["part one", "part two"]
synonyms:
  widget: ["gadget"]
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	vocab, err := LoadVocabulary(path)
	if err != nil {
		t.Fatalf("LoadVocabulary: %v", err)
	}
	if len(vocab.Frameworks) != 1 {
		t.Fatalf("user frameworks should replace defaults, got %d", len(vocab.Frameworks))
	}
	p := vocab.Frameworks[0]
	if p.Priority != domain.PriorityCritical {
		t.Errorf("user framework priority = %v, want forced critical", p.Priority)
	}
	if p.MinComponents != 1 {
		t.Errorf("MinComponents = %d, want defaulted 1", p.MinComponents)
	}
	if got := vocab.Synonyms["widget"]; len(got) != 1 || got[0] != "gadget" {
		t.Errorf("synonyms not merged: %v", vocab.Synonyms["widget"])
	}
	// Default synonym tables survive the merge.
	if _, ok := vocab.Synonyms["offer"]; !ok {
		t.Errorf("default synonyms should survive a user file merge")
	}
}
