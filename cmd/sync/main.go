package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"lavpop-sync/internal/config"
	"lavpop-sync/internal/database"
	"lavpop-sync/internal/features/customer"
	"lavpop-sync/internal/features/sync"
	"lavpop-sync/internal/features/whatchimp"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// One-shot sync runner: loads the customer base, pushes it through the CRM
// pipeline and prints the tally. Exits non-zero when any customer failed.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateSyncCredentials(); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	db, err := sql.Open("postgres", cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to reach database: %v", err)
	}

	repo := customer.NewCustomerRepository(&database.SupabaseDB{DB: db})

	customers, err := repo.List(ctx)
	if err != nil {
		log.Fatalf("Failed to load customers: %v", err)
	}
	blacklist, err := repo.ListBlacklist(ctx)
	if err != nil {
		log.Fatalf("Failed to load blacklist: %v", err)
	}

	filtered := sync.FilterBlacklisted(customers, blacklist)
	deduped, duplicates := sync.Deduplicate(filtered)

	fmt.Printf("Customers: %d loaded, %d after blacklist, %d after dedup (%d duplicates)\n",
		len(customers), len(filtered), len(deduped), len(duplicates))

	crm, err := whatchimp.NewClient(cfg)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	pipeline := sync.NewPipeline(crm, cfg.SyncConcurrency, logger)
	results := pipeline.Run(ctx, deduped, func(processed, total int) {
		fmt.Printf("  %d/%d\n", processed, total)
	})

	summary := sync.Tally(results, duplicates)
	fmt.Printf("\nTotal: %d  Created: %d  Updated: %d  Failed: %d  Duplicates resolved: %d\n",
		summary.Total, summary.Created, summary.Updated, summary.Failed, summary.DuplicatesResolved)

	if summary.Failed > 0 {
		fmt.Println("\nFailures:")
		shown := 0
		for _, r := range results {
			if r.Status != sync.StatusFailed {
				continue
			}
			if shown == 10 {
				fmt.Printf("  ... and %d more\n", summary.Failed-shown)
				break
			}
			fmt.Printf("  %s (%s): %s\n", r.Doc, r.Phone, r.Error)
			shown++
		}
		os.Exit(1)
	}
}
