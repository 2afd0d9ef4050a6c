package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"framerag/config"
	"framerag/internal/domain"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "framerag",
	Short: "Cohesion-aware chunking and hybrid retrieval for framework documents",
	Long: `framerag ingests methodology documents, keeping frameworks, numbered
lists, and worked examples intact as atomic chunks, then serves hybrid
vector + keyword + framework retrieval over them.

Example usage:
  framerag ingest ./docs              # Chunk, validate, and index documents
  framerag query -q "value equation"  # Hybrid search
  framerag validate ./docs            # Report cohesion violations only`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		setupLogging(cfg.Logging.Level)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./framerag.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// loadVocabulary returns the project vocabulary: a user file when present,
// the built-in table otherwise.
func loadVocabulary(dir string) (domain.Vocabulary, error) {
	return config.LoadVocabulary(filepath.Join(dir, ".framerag", "vocabulary.yaml"))
}
