package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"framerag/config"
	"framerag/internal/adapter/analyzer"
	"framerag/internal/adapter/queryproc"
	"framerag/internal/adapter/retriever"
	"framerag/internal/adapter/store"
	"framerag/internal/domain"
	"framerag/internal/usecase"
)

var (
	queryText      string
	queryTopK      int
	queryFramework string
	queryUseCase   string
	queryJSON      bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search ingested documents",
	Long: `Run a hybrid search over the ingested chunks, fusing vector
similarity, keyword relevance, and direct framework matches.

Examples:
  framerag query -q "what is the value equation"
  framerag query -q "pricing" -k 10
  framerag query --framework "Value Equation"   # direct lookup
  framerag query --use-case pricing             # use-case lookup`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().StringVar(&queryFramework, "framework", "", "look up a framework's chunks directly")
	queryCmd.Flags().StringVar(&queryUseCase, "use-case", "", "look up chunks by use case")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "emit results as JSON")
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryText == "" && queryFramework == "" && queryUseCase == "" {
		return fmt.Errorf("one of --query, --framework, or --use-case is required")
	}

	cfg := GetConfig()
	rootDir := GetRootDir()

	dbPath := config.StoreDBPath(rootDir)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("no index found. Run 'framerag ingest' first")
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open chunk store: %w", err)
	}
	defer st.Close()

	chunks, embeddings, err := st.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load chunks: %w", err)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("index is empty. Run 'framerag ingest' first")
	}

	vocab, err := loadVocabulary(rootDir)
	if err != nil {
		return fmt.Errorf("failed to load vocabulary: %w", err)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to configure embedder: %w", err)
	}
	if embedder == nil || !haveVectors(embeddings) {
		// No query-side embedder or no stored vectors: lexical-only.
		embedder = nil
		embeddings = nil
	}

	tokenizer := analyzer.NewTokenizer()
	hybrid, err := retriever.NewHybridRetriever(
		chunks,
		embeddings,
		retriever.NewBM25Index(chunks, tokenizer, cfg.Retrieval.K1, cfg.Retrieval.B),
		embedder,
		buildReranker(cfg),
		queryproc.New(vocab, tokenizer),
		cfg.Retrieval,
		cfg.Rerank,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to build retriever: %w", err)
	}

	svc := usecase.NewRetrievalService(hybrid, hybrid, cfg.Retrieval)

	switch {
	case queryFramework != "":
		return printResults(svc.Framework(queryFramework), "")
	case queryUseCase != "":
		return printResults(svc.UseCase(queryUseCase), "")
	default:
		outcome, err := svc.Query(cmd.Context(), queryText, queryTopK)
		if err != nil {
			return err
		}
		return printResults(outcome.Results, outcome.Diagnostic)
	}
}

// haveVectors reports whether every loaded chunk carries an embedding.
func haveVectors(embeddings [][]float32) bool {
	if len(embeddings) == 0 {
		return false
	}
	for _, v := range embeddings {
		if v == nil {
			return false
		}
	}
	return true
}

func printResults(results []domain.RetrievalResult, diagnostic string) error {
	if queryJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		if diagnostic != "" {
			fmt.Println(diagnostic)
		}
		return nil
	}

	for i, res := range results {
		meta := res.Chunk.Metadata
		header := fmt.Sprintf("%d. [%.3f] %s", i+1, res.Score, res.MatchReason)
		if meta.FrameworkName != "" {
			header += " framework=" + meta.FrameworkName
		}
		fmt.Println(header)
		fmt.Println(indent(snippet(res.Chunk.Text, 300)))
	}
	if diagnostic != "" {
		fmt.Println("note:", diagnostic)
	}
	return nil
}

func snippet(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	cut := text[:max]
	if idx := strings.LastIndexByte(cut, ' '); idx > max/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}

func indent(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "   " + line
	}
	return strings.Join(lines, "\n")
}
