package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/smeasylife/highlog-ai/internal/apperr"
)

// CreateRecord inserts a new record in PENDING status.
func (c *Client) CreateRecord(ctx context.Context, r Record) error {
	_, err := c.DB.ExecContext(ctx,
		`INSERT INTO records (id, user_id, title, blob_key, status) VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.UserID, r.Title, r.BlobKey, r.Status)
	if err != nil {
		return apperr.Storage(err, "create record %s", r.ID)
	}
	return nil
}

// SetRecordStatus transitions a record's lifecycle status.
func (c *Client) SetRecordStatus(ctx context.Context, recordID string, status RecordStatus) error {
	res, err := c.DB.ExecContext(ctx,
		`UPDATE records SET status = $1, updated_at = now() WHERE id = $2`, status, recordID)
	if err != nil {
		return apperr.Storage(err, "update record %s status", recordID)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.NotFound("record %s", recordID)
	}
	return nil
}

// GetRecord fetches a record by id.
func (c *Client) GetRecord(ctx context.Context, recordID string) (*Record, error) {
	row := c.DB.QueryRowContext(ctx,
		`SELECT id, user_id, title, blob_key, status, created_at, updated_at FROM records WHERE id = $1`, recordID)
	var r Record
	if err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.BlobKey, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("record %s", recordID)
		}
		return nil, apperr.Storage(err, "get record %s", recordID)
	}
	return &r, nil
}

// DeleteRecord removes a record; FK cascades purge chunks, question sets,
// and sessions.
func (c *Client) DeleteRecord(ctx context.Context, recordID string) error {
	_, err := c.DB.ExecContext(ctx, `DELETE FROM records WHERE id = $1`, recordID)
	if err != nil {
		return apperr.Storage(err, "delete record %s", recordID)
	}
	return nil
}

// RequireReady returns apperr.PreconditionFailed if the record is not
// READY, as required before question generation may proceed.
func (c *Client) RequireReady(ctx context.Context, recordID string) error {
	r, err := c.GetRecord(ctx, recordID)
	if err != nil {
		return err
	}
	if r.Status != RecordReady {
		return apperr.PreconditionFailed("record %s not ready: status=%s", recordID, r.Status)
	}
	return nil
}
