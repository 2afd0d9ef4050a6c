package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"framerag/internal/adapter/fs"
	"framerag/internal/domain"
)

var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Report cohesion violations without writing an index",
	Long: `Segment every document under the given path and report cohesion
violations. Nothing is embedded or stored; exit status is non-zero when
any critical violation remains.

Examples:
  framerag validate .
  framerag validate ./docs`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
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

	segmenter := buildSegmenter(cfg, vocab)
	val := buildValidator(cfg, vocab)
	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)

	files, err := walker.Walk(path)
	if err != nil {
		return fmt.Errorf("walking %s: %w", path, err)
	}

	totalChunks := 0
	totalViolations := 0
	criticals := 0

	for _, file := range files {
		text, err := walker.ReadFile(file.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", file.Path, err)
			continue
		}

		chunks, err := segmenter.Segment(text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", file.Path, err)
			continue
		}

		report := val.Validate(chunks)
		totalChunks += len(chunks)
		totalViolations += len(report.Violations)

		for _, v := range report.Violations {
			if v.Severity == domain.SeverityCritical {
				criticals++
			}
			rel, relErr := filepath.Rel(path, file.Path)
			if relErr != nil {
				rel = file.Path
			}
			fmt.Printf("%s: [%s] %s: %s\n", rel, v.Severity, v.Kind, v.Description)
		}
	}

	fmt.Printf("\n%d documents, %d chunks, %d violations (%d critical)\n",
		len(files), totalChunks, totalViolations, criticals)

	if criticals > 0 {
		return fmt.Errorf("%d critical cohesion violations", criticals)
	}
	return nil
}
