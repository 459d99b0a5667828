package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/proovit/proovit/internal/config"
	"github.com/proovit/proovit/internal/db"
	"github.com/proovit/proovit/internal/logger"
)

// openDB loads config from the environment and connects without migrating.
func openDB() (*config.Config, *sqlx.DB, error) {
	cfg := config.Load()
	logger.Init(logger.Options{Development: cfg.IsDevelopment()})

	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return cfg, database, nil
}
