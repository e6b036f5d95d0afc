// Package db is the relational store: Records, QuestionSets, Questions,
// InterviewSessions, and Checkpoints. The chunk/embedding table it
// bootstraps is owned and queried by internal/vectorstore, but both
// packages share one connection pool and one circuit breaker wrapper,
// since they are both Postgres and a single record delete must cascade
// across both in one transaction.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/smeasylife/highlog-ai/internal/circuitbreaker"
)

// Config holds Postgres connection settings.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Client wraps a circuit-breaker-protected *sql.DB.
type Client struct {
	DB     *circuitbreaker.DatabaseWrapper
	Raw    *sql.DB
	logger *zap.Logger
}

// NewClient opens the connection pool, wraps it in the circuit breaker,
// and verifies connectivity before returning.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 20
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 30 * time.Minute
	}

	raw, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	raw.SetMaxOpenConns(cfg.MaxOpenConns)
	raw.SetMaxIdleConns(cfg.MaxIdleConns)
	raw.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	wrapped := circuitbreaker.NewDatabaseWrapper(raw, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := raw.PingContext(ctx); err != nil {
		raw.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}

	logger.Info("database client initialized", zap.Int("max_open_conns", cfg.MaxOpenConns))

	return &Client{DB: wrapped, Raw: raw, logger: logger}, nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.Raw.Close()
}

// Bootstrap creates the schema if it does not already exist. Called once
// at worker startup; migrations beyond additive DDL are out of scope.
func (c *Client) Bootstrap(ctx context.Context, embeddingDim int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS records (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			title TEXT NOT NULL,
			blob_key TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			id UUID PRIMARY KEY,
			record_id UUID NOT NULL REFERENCES records(id) ON DELETE CASCADE,
			chunk_index INT NOT NULL,
			text TEXT NOT NULL,
			category TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			UNIQUE (record_id, chunk_index)
		)`, embeddingDim),
		`CREATE TABLE IF NOT EXISTS question_sets (
			id UUID PRIMARY KEY,
			record_id UUID NOT NULL REFERENCES records(id) ON DELETE CASCADE,
			target_school TEXT NOT NULL,
			target_major TEXT NOT NULL,
			interview_type TEXT NOT NULL,
			title TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			id UUID PRIMARY KEY,
			question_set_id UUID NOT NULL REFERENCES question_sets(id) ON DELETE CASCADE,
			category TEXT NOT NULL,
			body TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			model_answer TEXT,
			purpose TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS interview_sessions (
			id UUID PRIMARY KEY,
			thread_id TEXT NOT NULL UNIQUE,
			user_id UUID NOT NULL,
			record_id UUID NOT NULL REFERENCES records(id) ON DELETE CASCADE,
			difficulty TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			ended_at TIMESTAMPTZ,
			question_count INT NOT NULL DEFAULT 0,
			avg_response_time_s DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_duration_s DOUBLE PRECISION NOT NULL DEFAULT 0,
			final_report_key TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS checkpoints (
			id BIGSERIAL PRIMARY KEY,
			thread_id TEXT NOT NULL REFERENCES interview_sessions(thread_id) ON DELETE CASCADE,
			state JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_checkpoints_thread ON checkpoints (thread_id, id DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_record_category ON chunks (record_id, category)`,
	}

	for _, stmt := range stmts {
		if _, err := c.Raw.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("db: bootstrap: %w", err)
		}
	}
	return nil
}
