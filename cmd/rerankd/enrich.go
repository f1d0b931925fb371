package rerankd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/soundprediction/rerankd/pkg/config"
	"github.com/soundprediction/rerankd/pkg/enrich"
	"github.com/soundprediction/rerankd/pkg/logger"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich a CSV file with relevance scores",
	Long: `Enrich a CSV file by scoring each row's (query, text) pair and rewriting
its annotation column with a score clause.

The input is streamed row by row, so files of any size fit in memory. Rows
missing a query or text value pass through unchanged. Re-running the job on
its own output replaces the previous score instead of duplicating it.`,
	RunE: runEnrich,
}

var (
	enrichInput  string
	enrichOutput string
)

func init() {
	rootCmd.AddCommand(enrichCmd)

	enrichCmd.Flags().StringVar(&enrichInput, "input", "", "Input CSV path")
	enrichCmd.Flags().StringVar(&enrichOutput, "output", "", "Output CSV path")
	enrichCmd.MarkFlagRequired("input")
	enrichCmd.MarkFlagRequired("output")

	enrichCmd.Flags().Int("batch-size", 64, "Rows scored per engine call")
	enrichCmd.Flags().Int("max-rows", 0, "Stop after writing this many rows (0 = unlimited)")

	// Model flags
	enrichCmd.Flags().String("model", "BAAI/bge-reranker-base", "Hugging Face model name or local model directory")
	enrichCmd.Flags().String("device", "auto", "Device preference (auto, cpu, cuda, mps)")
	enrichCmd.Flags().Int("max-length", 256, "Token cap per encoded pair")

	// Column flags
	enrichCmd.Flags().String("query-column", "gameName", "Column holding the query")
	enrichCmd.Flags().String("text-column", "candidateTitle", "Column holding the candidate text")
	enrichCmd.Flags().String("annotation-column", "reasons", "Column rewritten with the score clause")
}

func runEnrich(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("model") {
		cfg.Reranker.Model, _ = cmd.Flags().GetString("model")
	}
	if cmd.Flags().Changed("device") {
		cfg.Reranker.Device, _ = cmd.Flags().GetString("device")
	}
	if cmd.Flags().Changed("max-length") {
		cfg.Reranker.MaxLength, _ = cmd.Flags().GetInt("max-length")
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.Reranker.BatchSize, _ = cmd.Flags().GetInt("batch-size")
	}

	if cfg.Reranker.Model == "" {
		return fmt.Errorf("model is required")
	}
	if cfg.Reranker.MaxLength <= 0 {
		return fmt.Errorf("invalid max length: %d", cfg.Reranker.MaxLength)
	}
	if cfg.Reranker.BatchSize <= 0 {
		return fmt.Errorf("invalid batch size: %d", cfg.Reranker.BatchSize)
	}

	log := slog.New(logger.NewColorHandler(os.Stderr, &slog.HandlerOptions{
		Level: logger.ParseLevel(cfg.Log.Level),
	}))
	slog.SetDefault(log)

	fmt.Println("Loading model...")
	engine, session, err := initializeEngine(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}
	defer session.Close()

	maxRows, _ := cmd.Flags().GetInt("max-rows")
	queryColumn, _ := cmd.Flags().GetString("query-column")
	textColumn, _ := cmd.Flags().GetString("text-column")
	annotationColumn, _ := cmd.Flags().GetString("annotation-column")

	job := enrich.New(engine, enrich.Options{
		Input:            enrichInput,
		Output:           enrichOutput,
		BatchSize:        cfg.Reranker.BatchSize,
		MaxRows:          maxRows,
		QueryColumn:      queryColumn,
		TextColumn:       textColumn,
		AnnotationColumn: annotationColumn,
	})

	total, err := job.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("enrichment failed after %d rows: %w", total, err)
	}

	fmt.Printf("wrote %d rows to %s\n", total, enrichOutput)
	return nil
}
