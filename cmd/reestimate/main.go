// Command reestimate recomputes the estimate totals of an existing document
// result with a new rounding step and appends it as the next version.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/presalekit/estimator/internal/common"
	"github.com/presalekit/estimator/internal/entity"
	"github.com/presalekit/estimator/internal/pipeline"
	"github.com/presalekit/estimator/internal/repository"
)

func main() {
	var (
		docFlag   = flag.String("document", "", "document id (uuid)")
		roundFlag = flag.Float64("round-to", 0.5, "rounding step in hours")
	)
	flag.Parse()

	documentID, err := uuid.Parse(*docFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid -document:", err)
		os.Exit(2)
	}
	if *roundFlag <= 0 {
		fmt.Fprintln(os.Stderr, "-round-to must be positive")
		os.Exit(2)
	}

	_ = godotenv.Load(".env.local")

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "db:", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	docs := repository.NewDocumentRepository(pool, logger)
	results := repository.NewResultRepository(pool, logger)

	// Only the result store is exercised here; the rest of the orchestrator's
	// collaborators are unused for a re-estimate.
	orch := pipeline.NewOrchestrator(logger, pipeline.Config{Model: cfg.LLM.Model}, docs, results, nil, nil, nil, nil)

	version, err := orch.Reestimate(ctx, documentID, entity.DocumentParams{RoundToHours: *roundFlag})
	if err != nil {
		fmt.Fprintln(os.Stderr, "reestimate:", err)
		os.Exit(1)
	}
	fmt.Printf("document %s: appended version %d\n", documentID, version)
}
