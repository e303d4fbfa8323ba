package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/replenish/internal/pipeline"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/andresuchdata/replenish/internal/repository/postgres"
)

type ctxKey string

const dbKey ctxKey = "db"

// initDB opens the database when --db-url is set and stores it in the context.
func initDB(c *cli.Context) error {
	url := c.String("db-url")
	if url == "" {
		return nil
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(c.Context); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db := dbFrom(c); db != nil {
		return db.Close()
	}
	return nil
}

func dbFrom(c *cli.Context) *sql.DB {
	db, _ := c.Context.Value(dbKey).(*sql.DB)
	return db
}

// stores bundles the persistence wired from an optional database.
type stores struct {
	runs     *pipeline.Repository
	results  repository.ResultRepository
	datasets *repository.DatasetRepository
}

func storesFrom(c *cli.Context) *stores {
	db := dbFrom(c)
	if db == nil {
		return nil
	}
	return &stores{
		runs:     pipeline.NewRepository(db),
		results:  postgres.NewResultRepository(postgres.Wrap(sqlx.NewDb(db, "pgx"), 4)),
		datasets: repository.NewDatasetRepository(db),
	}
}
