// Command pipelinehealth probes the database and the LLM gateway and exits
// non-zero when either dependency is unreachable. Intended for container
// healthchecks and deploy gates.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/presalekit/estimator/internal/common"
	"github.com/presalekit/estimator/internal/llm"
	"github.com/presalekit/estimator/internal/repository"
)

func main() {
	_ = godotenv.Load(".env.local")

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	failed := false

	pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "db: unreachable:", err)
		failed = true
	} else {
		if err := repository.HealthCheck(ctx, pool, cfg.Database.DialTimeout, logger); err != nil {
			fmt.Fprintln(os.Stderr, "db: ping failed:", err)
			failed = true
		} else {
			fmt.Println("db: ok")
		}
		repository.Close(pool, logger)
	}

	gateway := llm.NewOllamaClient(cfg.LLM, llm.DefaultRetryPolicy(), logger)
	if err := gateway.Health(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "llm: unreachable:", err)
		failed = true
	} else {
		fmt.Println("llm: ok")
	}

	if failed {
		os.Exit(1)
	}
}
