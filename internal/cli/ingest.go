package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"framerag/config"
	"framerag/internal/adapter/fs"
	"framerag/internal/adapter/store"
	"framerag/internal/usecase"
)

var ingestRebuild bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Chunk, validate, and index documents",
	Long: `Ingest documents in the specified directory: detect atomic units,
segment around them, validate cohesion, embed, and store the chunks in
.framerag/chunks.db within the target directory.

Examples:
  framerag ingest .              # Ingest current directory
  framerag ingest ./docs         # Ingest a document tree
  framerag ingest --rebuild .    # Discard the existing index first`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestRebuild, "rebuild", false, "clear the existing index before ingesting")
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	cfg := GetConfig()

	vocab, err := loadVocabulary(path)
	if err != nil {
		return fmt.Errorf("failed to load vocabulary: %w", err)
	}

	if err := config.EnsureDataDir(path); err != nil {
		return fmt.Errorf("failed to create .framerag directory: %w", err)
	}

	st, err := store.Open(config.StoreDBPath(path))
	if err != nil {
		return fmt.Errorf("failed to open chunk store: %w", err)
	}
	defer st.Close()

	if ingestRebuild {
		if err := st.Clear(); err != nil {
			return fmt.Errorf("failed to clear chunk store: %w", err)
		}
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to configure embedder: %w", err)
	}

	ingestor := usecase.NewIngestor(
		fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes),
		buildSegmenter(cfg, vocab),
		buildValidator(cfg, vocab),
		embedder,
		st,
		cfg.Ingest.Workers,
		nil,
	)

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total), "ingesting")
		}
		bar.Set(done)
	}

	stats, err := ingestor.Ingest(cmd.Context(), path, progress)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	if bar != nil {
		bar.Finish()
	}

	fmt.Printf("Ingested %d documents (%d failed) in %s\n", stats.Documents, stats.Failed, stats.Duration.Round(time.Millisecond))
	fmt.Printf("  chunks: %d (%d atomic)\n", stats.Chunks, stats.AtomicChunks)
	if stats.Violations > 0 {
		fmt.Printf("  cohesion violations: %d (%d critical)\n", stats.Violations, stats.Criticals)
	}

	return nil
}
