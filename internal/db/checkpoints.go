package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/smeasylife/highlog-ai/internal/apperr"
)

// CommitCheckpoint appends a new state snapshot for a thread. Checkpoint
// ids are assigned by the BIGSERIAL primary key, which is strictly
// increasing within a thread by insertion order.
func (c *Client) CommitCheckpoint(ctx context.Context, threadID string, state JSONB) (int64, error) {
	row, err := c.DB.QueryRowContextCB(ctx,
		`INSERT INTO checkpoints (thread_id, state) VALUES ($1, $2) RETURNING id`, threadID, state)
	if err != nil {
		return 0, apperr.Storage(err, "commit checkpoint for thread %s", threadID)
	}
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, apperr.Storage(err, "commit checkpoint for thread %s", threadID)
	}
	return id, nil
}

// LatestCheckpoint returns the most recently committed state for a thread,
// or apperr.NotFound if none exists.
func (c *Client) LatestCheckpoint(ctx context.Context, threadID string) (*Checkpoint, error) {
	row := c.DB.QueryRowContext(ctx,
		`SELECT id, thread_id, state, created_at FROM checkpoints
		 WHERE thread_id = $1 ORDER BY id DESC LIMIT 1`, threadID)
	var cp Checkpoint
	if err := row.Scan(&cp.ID, &cp.ThreadID, &cp.State, &cp.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("no checkpoint for thread %s", threadID)
		}
		return nil, apperr.Storage(err, "latest checkpoint for thread %s", threadID)
	}
	return &cp, nil
}

// CheckpointHistory returns all snapshots for a thread in ascending id
// order, used to reconstruct answer_metadata for get_logs.
func (c *Client) CheckpointHistory(ctx context.Context, threadID string) ([]Checkpoint, error) {
	rows, err := c.DB.QueryContext(ctx,
		`SELECT id, thread_id, state, created_at FROM checkpoints
		 WHERE thread_id = $1 ORDER BY id ASC`, threadID)
	if err != nil {
		return nil, apperr.Storage(err, "checkpoint history for thread %s", threadID)
	}
	defer rows.Close()

	var out []Checkpoint
	for rows.Next() {
		var cp Checkpoint
		if err := rows.Scan(&cp.ID, &cp.ThreadID, &cp.State, &cp.CreatedAt); err != nil {
			return nil, apperr.Storage(err, "scan checkpoint")
		}
		out = append(out, cp)
	}
	return out, nil
}

// CheckpointByID restores a specific snapshot, for rollback.
func (c *Client) CheckpointByID(ctx context.Context, threadID string, id int64) (*Checkpoint, error) {
	row := c.DB.QueryRowContext(ctx,
		`SELECT id, thread_id, state, created_at FROM checkpoints WHERE thread_id = $1 AND id = $2`, threadID, id)
	var cp Checkpoint
	if err := row.Scan(&cp.ID, &cp.ThreadID, &cp.State, &cp.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("checkpoint %d for thread %s", id, threadID)
		}
		return nil, apperr.Storage(err, "get checkpoint %d for thread %s", id, threadID)
	}
	return &cp, nil
}
