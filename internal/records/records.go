// Package records wraps the Record lifecycle (PENDING -> PROCESSING ->
// READY|FAILED) as the narrow surface the Ingestion Pipeline and Question
// Generation Pipeline depend on, separating lifecycle transitions from
// raw SQL in internal/db.
package records

import (
	"context"

	"github.com/google/uuid"

	dbpkg "github.com/smeasylife/highlog-ai/internal/db"
)

// Service manages Record lifecycle transitions.
type Service struct {
	db *dbpkg.Client
}

// New constructs a Service over the shared database client.
func New(db *dbpkg.Client) *Service {
	return &Service{db: db}
}

// Create registers a new upload in PENDING status.
func (s *Service) Create(ctx context.Context, userID, title, blobKey string) (*dbpkg.Record, error) {
	r := dbpkg.Record{
		ID:      uuid.New().String(),
		UserID:  userID,
		Title:   title,
		BlobKey: blobKey,
		Status:  dbpkg.RecordPending,
	}
	if err := s.db.CreateRecord(ctx, r); err != nil {
		return nil, err
	}
	return &r, nil
}

// StartProcessing flips a record to PROCESSING at ingestion start.
func (s *Service) StartProcessing(ctx context.Context, recordID string) error {
	return s.db.SetRecordStatus(ctx, recordID, dbpkg.RecordProcessing)
}

// MarkReady flips a record to READY once all chunks are persisted.
func (s *Service) MarkReady(ctx context.Context, recordID string) error {
	return s.db.SetRecordStatus(ctx, recordID, dbpkg.RecordReady)
}

// MarkFailed flips a record to FAILED on a terminal ingestion error.
func (s *Service) MarkFailed(ctx context.Context, recordID string) error {
	return s.db.SetRecordStatus(ctx, recordID, dbpkg.RecordFailed)
}

// Get fetches a record by id.
func (s *Service) Get(ctx context.Context, recordID string) (*dbpkg.Record, error) {
	return s.db.GetRecord(ctx, recordID)
}

// Delete removes a record; FK cascades purge chunks, question sets, and
// sessions.
func (s *Service) Delete(ctx context.Context, recordID string) error {
	return s.db.DeleteRecord(ctx, recordID)
}

// RequireReady fails with apperr.PreconditionFailed unless the record is
// READY, the Question Generation Pipeline's precondition.
func (s *Service) RequireReady(ctx context.Context, recordID string) error {
	return s.db.RequireReady(ctx, recordID)
}
