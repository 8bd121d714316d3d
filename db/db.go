/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultMaxConns sizes the pool when Config.MaxConns is unset. Each save is
// one short transaction and the history pages run a single query.
const DefaultMaxConns = 4

// historyIdleTime closes pooled connections nobody used for a while. Report
// history is browsed occasionally, so idle connections are not kept warm.
const historyIdleTime = 5 * time.Minute

// Config describes the report history database
type Config struct {
	URL            string
	MaxConns       int32
	CreateDatabase bool // Create the target database when it is missing
}

func (c Config) maxConns() int32 {
	if c.MaxConns <= 0 {
		return DefaultMaxConns
	}

	return c.MaxConns
}

var (
	pool *pgxpool.Pool
	// poolURL is the URL the pool was opened with. Migrations reuse it
	// verbatim so Unix sockets and connection options carry over.
	poolURL string
)

// Init opens the report history pool and checks that it is reachable.
func Init(ctx context.Context, cfg Config) error {
	if strings.TrimSpace(cfg.URL) == "" {
		return ErrDatabaseURLNotSet
	}

	if cfg.CreateDatabase {
		if err := ensureDatabaseExists(ctx, cfg.URL); err != nil {
			return fmt.Errorf("failed to ensure database exists: %w", err)
		}
	}

	config, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = cfg.maxConns()
	config.MinConns = 0
	config.MaxConnIdleTime = historyIdleTime

	p, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := p.Ping(ctx); err != nil {
		p.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	pool = p
	poolURL = cfg.URL

	logger.Info("Connected to report history database",
		"database", config.ConnConfig.Database,
		"max_conns", config.MaxConns,
	)

	return nil
}

// Enabled reports whether a database connection pool is available. Report
// history is only offered when it is.
func Enabled() bool {
	return pool != nil
}

// Close closes the database connection pool
func Close() {
	if pool != nil {
		pool.Close()
		pool = nil
	}

	poolURL = ""
}

// ensureDatabaseExists creates the database if it doesn't exist
func ensureDatabaseExists(ctx context.Context, databaseURL string) error {
	// Parse the config to get database name
	config, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	dbName := config.Database
	if dbName == "" {
		return ErrDatabaseNameNotSpecified
	}

	// Connect to 'postgres' database to create the target database
	config.Database = "postgres"

	conn, err := pgx.ConnectConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres database: %w", err)
	}

	defer func() {
		if err := conn.Close(ctx); err != nil {
			logger.Warn("Failed to close bootstrap database connection", "error", err)
		}
	}()

	// Check if database exists
	var exists bool

	err = conn.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}

	// Create database if it doesn't exist
	if !exists {
		// Database names can't be parameterized, so we need to sanitize
		// pgx.Identifier handles proper quoting
		sql := "CREATE DATABASE " + pgx.Identifier{dbName}.Sanitize()

		_, err = conn.Exec(ctx, sql)
		if err != nil {
			// Ignore error if database was created by another process
			if !strings.Contains(err.Error(), "already exists") {
				return fmt.Errorf("failed to create database: %w", err)
			}
		}
	}

	return nil
}
