package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the framerag pipeline.
type Config struct {
	Ingest     IngestConfig     `yaml:"ingest"`
	Detection  DetectionConfig  `yaml:"detection"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Validation ValidationConfig `yaml:"validation"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Rerank     RerankConfig     `yaml:"rerank"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// IngestConfig controls which documents are ingested and with how many
// workers.
type IngestConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
	Workers  int      `yaml:"workers"`
}

// DetectionConfig holds atomic-unit detection thresholds.
type DetectionConfig struct {
	MinTextLength  int  `yaml:"min_text_length"` // below this, Detect fails fast
	ListMinItems   int  `yaml:"list_min_items"`  // minimum lines for a list unit
	MaxSpan        int  `yaml:"max_span"`        // hard cap on a framework span, bytes
	ExampleMinLen  int  `yaml:"example_min_len"` // discard shorter example spans
	ExampleMaxLen  int  `yaml:"example_max_len"` // hard cap on an example span
	ParallelPasses bool `yaml:"parallel_passes"` // run kind passes concurrently
}

// ChunkingConfig holds standard-segmentation sizes, in bytes.
type ChunkingConfig struct {
	TargetSize int `yaml:"target_size"`
	MaxSize    int `yaml:"max_size"`
	Overlap    int `yaml:"overlap"`
}

// ValidationConfig holds cohesion-validation thresholds.
type ValidationConfig struct {
	// ComponentThreshold is the fraction of expected components a single
	// chunk must contain for its framework to count as complete.
	ComponentThreshold float64 `yaml:"component_threshold"`
	AtomicSizeCeiling  int     `yaml:"atomic_size_ceiling"`
	CohesionFloor      float64 `yaml:"cohesion_floor"`
	// RemediationPolicy is applied when critical violations exist:
	// "merge", "report", or "block".
	RemediationPolicy string `yaml:"remediation_policy"`
}

// RetrievalConfig holds fusion weights, floors, and boost factors.
// Weights need not sum to 1.
type RetrievalConfig struct {
	TopKDefault     int     `yaml:"top_k_default"`
	MaxTopK         int     `yaml:"max_top_k"`
	Similarity      string  `yaml:"similarity"` // only "cosine" is supported
	VectorWeight    float64 `yaml:"vector_weight"`
	KeywordWeight   float64 `yaml:"keyword_weight"`
	FrameworkWeight float64 `yaml:"framework_weight"`
	SimilarityFloor float64 `yaml:"similarity_floor"`
	KeywordFloor    float64 `yaml:"keyword_floor"`
	CandidateBudget int     `yaml:"candidate_budget"`
	K1              float64 `yaml:"k1"`
	B               float64 `yaml:"b"`

	IntentBoost            float64 `yaml:"intent_boost"`
	UseCaseBoost           float64 `yaml:"use_case_boost"`
	PriorityBoostCritical  float64 `yaml:"priority_boost_critical"`
	PriorityBoostHigh      float64 `yaml:"priority_boost_high"`
	CompleteFrameworkBoost float64 `yaml:"complete_framework_boost"`

	RetryAttempts    int `yaml:"retry_attempts"`
	RetryBaseDelayMs int `yaml:"retry_base_delay_ms"`
}

// EmbeddingConfig holds embedding-provider configuration.
type EmbeddingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Provider  string `yaml:"provider"` // "openai" or "mock"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
	CacheSize int    `yaml:"cache_size"`
}

// RerankConfig holds external-reranker configuration. Reranking is a pure
// enhancement: any failure keeps the fused order.
type RerankConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Provider       string `yaml:"provider"` // "cohere" or "lexical"
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	Candidates     int    `yaml:"candidates"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Ingest: IngestConfig{
			Includes: []string{"**/*.md", "**/*.txt"},
			Excludes: []string{"**/node_modules/**", "**/.git/**", "**/.framerag/**"},
			Workers:  4,
		},
		Detection: DetectionConfig{
			MinTextLength:  40,
			ListMinItems:   2,
			MaxSpan:        4000,
			ExampleMinLen:  60,
			ExampleMaxLen:  2000,
			ParallelPasses: true,
		},
		Chunking: ChunkingConfig{
			TargetSize: 1200,
			MaxSize:    2000,
			Overlap:    150,
		},
		Validation: ValidationConfig{
			ComponentThreshold: 0.75,
			AtomicSizeCeiling:  6000,
			CohesionFloor:      0.5,
			RemediationPolicy:  "merge",
		},
		Retrieval: RetrievalConfig{
			TopKDefault:            5,
			MaxTopK:                50,
			Similarity:             "cosine",
			VectorWeight:           0.7,
			KeywordWeight:          0.3,
			FrameworkWeight:        1.0,
			SimilarityFloor:        0.25,
			KeywordFloor:           0.05,
			CandidateBudget:        50,
			K1:                     1.2,
			B:                      0.75,
			IntentBoost:            1.25,
			UseCaseBoost:           0.2,
			PriorityBoostCritical:  1.3,
			PriorityBoostHigh:      1.15,
			CompleteFrameworkBoost: 1.5,
			RetryAttempts:          3,
			RetryBaseDelayMs:       200,
		},
		Embedding: EmbeddingConfig{
			Enabled:   true,
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 64,
			CacheSize: 2048,
		},
		Rerank: RerankConfig{
			Enabled:        false,
			Provider:       "cohere",
			Model:          "rerank-english-v3.0",
			APIKeyEnv:      "COHERE_API_KEY",
			Candidates:     25,
			TimeoutSeconds: 30,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, layered over the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// LoadFromDir loads configuration from a directory (looks for framerag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "framerag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".framerag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects configurations the pipeline cannot honor.
func (c *Config) Validate() error {
	if c.Retrieval.Similarity != "" && c.Retrieval.Similarity != "cosine" {
		return fmt.Errorf("unsupported similarity metric: %q", c.Retrieval.Similarity)
	}
	switch c.Validation.RemediationPolicy {
	case "", "merge", "report", "block":
	default:
		return fmt.Errorf("unknown remediation policy: %q", c.Validation.RemediationPolicy)
	}
	if c.Chunking.MaxSize < c.Chunking.TargetSize {
		return fmt.Errorf("chunking max_size (%d) below target_size (%d)", c.Chunking.MaxSize, c.Chunking.TargetSize)
	}
	if c.Chunking.Overlap >= c.Chunking.TargetSize {
		return fmt.Errorf("chunking overlap (%d) must be below target_size (%d)", c.Chunking.Overlap, c.Chunking.TargetSize)
	}
	return nil
}

// StoreDBPath returns the path to the chunk database.
func StoreDBPath(dir string) string {
	return filepath.Join(dir, ".framerag", "chunks.db")
}

// EnsureDataDir ensures the .framerag directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".framerag"), 0755)
}
