package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/querylens/querylens/internal/dataset"
	"github.com/querylens/querylens/internal/embedder"
	"github.com/querylens/querylens/internal/mcp"
	"github.com/querylens/querylens/internal/pipeline"
	"github.com/querylens/querylens/internal/projection"
	"github.com/querylens/querylens/internal/retriever"
	"github.com/querylens/querylens/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Log to stderr; stdout is reserved for command output and, when
	// serving, the MCP protocol.
	log.SetOutput(os.Stderr)

	// Best effort: API keys may come from a .env file.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("querylens: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "querylens",
		Short:        "Learned asymmetric projection for code retrieval",
		SilenceUsage: true,
	}
	root.AddCommand(newTrainCmd(), newSearchCmd(), newServeCmd(), newVersionCmd())
	return root
}

func newTrainCmd() *cobra.Command {
	var (
		dbPath        string
		learningRate  float64
		epochs        int
		trainFraction float64
		seed          int64
		negatives     int
		warmupWorkers int
		noStore       bool
	)

	cmd := &cobra.Command{
		Use:   "train <dataset>",
		Short: "Train a projection matrix on a relevance dataset and report MAP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			emb, err := embedder.NewFromEnv()
			if err != nil {
				return err
			}
			defer func() { _ = emb.Close() }()
			log.Printf("querylens: embedding provider %s (%s)", emb.Provider(), emb.Model())

			var store storage.Store
			if !noStore {
				s, err := storage.NewSQLiteStore(dbPath)
				if err != nil {
					return err
				}
				defer func() { _ = s.Close() }()
				store = s
			}

			report, err := pipeline.Run(cmd.Context(), pipeline.Config{
				DatasetPath:          args[0],
				LearningRate:         learningRate,
				Epochs:               epochs,
				TrainFraction:        trainFraction,
				Seed:                 seed,
				NegativesPerPositive: negatives,
				WarmupWorkers:        warmupWorkers,
				Embedder:             emb,
				Store:                store,
			})
			if err != nil {
				return err
			}

			fmt.Printf("run:           %s\n", report.RunID)
			fmt.Printf("baseline MAP:  %.4f\n", report.BaselineMAP)
			fmt.Printf("projected MAP: %.4f\n", report.ProjectedMAP)
			if n := len(report.Epochs); n > 0 {
				fmt.Printf("final loss:    train %.6f / val %.6f after %d epochs\n",
					report.Epochs[n-1].TrainLoss, report.Epochs[n-1].ValLoss, n)
			}
			fmt.Printf("pairs:         %d train / %d val (%d examples skipped)\n",
				report.TrainPairs, report.ValPairs, report.PairStats.SkippedExamples)
			fmt.Printf("duration:      %s\n", report.Duration)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "querylens.db", "path to the run store")
	cmd.Flags().Float64Var(&learningRate, "learning-rate", 0.01, "optimizer step size")
	cmd.Flags().IntVar(&epochs, "epochs", 100, "number of training epochs")
	cmd.Flags().Float64Var(&trainFraction, "train-fraction", 0.8, "fraction of pairs used for training")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed for shuffling and negative sampling")
	cmd.Flags().IntVar(&negatives, "negatives", 1, "negatives sampled per positive pair")
	cmd.Flags().IntVar(&warmupWorkers, "warmup-workers", 4, "parallel embedding warm-up workers (0 disables)")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "skip persisting the run")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var (
		dbPath   string
		runID    string
		limit    int
		baseline bool
	)

	cmd := &cobra.Command{
		Use:   "search <dataset> <query>",
		Short: "Rank a dataset's passages against a query",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.Load(args[0])
			if err != nil {
				return err
			}

			emb, err := embedder.NewFromEnv()
			if err != nil {
				return err
			}
			defer func() { _ = emb.Close() }()

			matrix, err := loadMatrix(cmd.Context(), dbPath, runID, baseline)
			if err != nil {
				return err
			}

			ranked, err := retriever.New(emb).Retrieve(cmd.Context(), args[1], ds.Corpus(), matrix)
			if err != nil {
				return err
			}
			if limit > len(ranked) {
				limit = len(ranked)
			}
			for i := 0; i < limit; i++ {
				fmt.Printf("[%d] score=%.4f\n%s\n\n", i+1, ranked[i].Score, ranked[i].Passage)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "querylens.db", "path to the run store")
	cmd.Flags().StringVar(&runID, "run", "", "use the matrix from this run (default: latest)")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum results to print")
	cmd.Flags().BoolVar(&baseline, "baseline", false, "rank with the plain dot product")
	return cmd
}

// loadMatrix resolves which matrix to search with. Baseline or a missing
// store falls back to nil (identity scoring).
func loadMatrix(ctx context.Context, dbPath, runID string, baseline bool) (*projection.Matrix, error) {
	if baseline {
		return nil, nil
	}
	if _, err := os.Stat(dbPath); err != nil {
		log.Printf("querylens: no run store at %s, using baseline ranking", dbPath)
		return nil, nil
	}

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	if runID != "" {
		return store.GetMatrix(ctx, runID)
	}
	matrix, id, err := store.LatestMatrix(ctx)
	if err != nil {
		log.Printf("querylens: no trained matrix found, using baseline ranking")
		return nil, nil
	}
	log.Printf("querylens: using matrix from run %s", id)
	return matrix, nil
}

func newServeCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve querylens tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Printf("querylens MCP server v%s starting...", version)

			server, err := mcp.NewServer(dbPath)
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			errChan := make(chan error, 1)
			go func() {
				log.Println("MCP server ready, listening on stdio...")
				errChan <- server.Serve(ctx)
			}()

			select {
			case sig := <-sigChan:
				log.Printf("received signal %v, shutting down gracefully...", sig)
				cancel()
				return nil
			case err := <-errChan:
				return err
			}
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", mcp.DefaultDBPath, "directory for the run store")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("querylens\n")
			fmt.Printf("Version: %s\n", version)
			fmt.Printf("Build Time: %s\n", buildTime)
			fmt.Printf("Build Mode: %s\n", storage.BuildMode)
			fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
			fmt.Printf("Embedding Provider: %s\n", embedder.DetectProvider())
		},
	}
}
