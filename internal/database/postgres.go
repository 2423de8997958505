package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"lavpop-sync/internal/config"

	_ "github.com/lib/pq"
	"go.uber.org/fx"
)

// SupabaseDB wraps the Supabase Postgres connection holding the customer
// data, the WhatsApp blacklist and the POS transaction tables.
type SupabaseDB struct {
	DB *sql.DB
}

// NewSupabaseDB opens the Supabase Postgres pool with lifecycle management
func NewSupabaseDB(lc fx.Lifecycle, cfg *config.Config) (*SupabaseDB, error) {
	if cfg.SupabaseDBURL == "" {
		return nil, fmt.Errorf("SUPABASE_DB_URL is not configured")
	}

	db, err := sql.Open("postgres", cfg.SupabaseDBURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open supabase postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping supabase postgres: %w", err)
	}

	// The service is a low-volume batch worker, keep the pool small.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	log.Println("Connected to Supabase Postgres!")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Println("Closing Supabase Postgres pool...")
			return db.Close()
		},
	})

	return &SupabaseDB{DB: db}, nil
}
