package rerankd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soundprediction/rerankd/pkg/config"
	"github.com/soundprediction/rerankd/pkg/logger"
	"github.com/soundprediction/rerankd/pkg/server"
	"github.com/soundprediction/rerankd/pkg/telemetry"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the rerankd HTTP server",
	Long: `Start the rerankd HTTP server to provide REST API access to the score engine.

The server provides endpoints for:
- Scoring a single (query, text) pair
- Scoring batches of pairs
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	// Server-specific flags
	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	// Model flags
	serverCmd.Flags().String("model", "BAAI/bge-reranker-base", "Hugging Face model name or local model directory")
	serverCmd.Flags().String("device", "auto", "Device preference (auto, cpu, cuda, mps)")
	serverCmd.Flags().Int("max-length", 256, "Token cap per encoded pair")

	// Telemetry flags
	serverCmd.Flags().String("telemetry-parquet-path", "", "Path to directory for error telemetry")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	overrideConfigWithFlags(cmd, cfg)

	// Validate configuration
	if err := validateServerConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, parquetHandler, err := initializeLogger(cfg)
	if err != nil {
		return err
	}
	if parquetHandler != nil {
		defer parquetHandler.Flush()
	}
	slog.SetDefault(log)

	// Load tokenizer and model before accepting traffic; /health reports 503
	// until this succeeds.
	fmt.Println("Loading model...")
	engine, session, err := initializeEngine(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}
	defer session.Close()

	// Create and setup server
	srv := server.New(cfg, engine)
	srv.Setup()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)

		// Create shutdown context with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Shutdown server
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		fmt.Println("Server stopped gracefully")
		return nil
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	// Server flags
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	// Model flags
	if cmd.Flags().Changed("model") {
		cfg.Reranker.Model, _ = cmd.Flags().GetString("model")
	}
	if cmd.Flags().Changed("device") {
		cfg.Reranker.Device, _ = cmd.Flags().GetString("device")
	}
	if cmd.Flags().Changed("max-length") {
		cfg.Reranker.MaxLength, _ = cmd.Flags().GetInt("max-length")
	}

	// Telemetry flags
	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
	}
}

func validateServerConfig(cfg *config.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}
	if cfg.Reranker.Model == "" {
		return fmt.Errorf("model is required")
	}
	if cfg.Reranker.MaxLength <= 0 {
		return fmt.Errorf("invalid max length: %d", cfg.Reranker.MaxLength)
	}
	return nil
}

// initializeLogger builds the process logger. When a telemetry path is
// configured, error records are additionally persisted to Parquet there.
func initializeLogger(cfg *config.Config) (*slog.Logger, *telemetry.ParquetHandler, error) {
	colorHandler := logger.NewColorHandler(os.Stderr, &slog.HandlerOptions{
		Level: logger.ParseLevel(cfg.Log.Level),
	})

	if cfg.Telemetry.ParquetPath == "" {
		return slog.New(colorHandler), nil, nil
	}

	parquetHandler, err := telemetry.NewParquetHandler(colorHandler,
		cfg.Telemetry.ParquetPath, cfg.Reranker.Model, cfg.Reranker.Device)
	if err != nil {
		fmt.Printf("Warning: Failed to initialize error tracking: %v\n", err)
		return slog.New(colorHandler), nil, nil
	}
	fmt.Printf("Error tracking enabled at: %s\n", cfg.Telemetry.ParquetPath)
	return slog.New(parquetHandler), parquetHandler, nil
}
