package vectorstore

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/smeasylife/highlog-ai/internal/circuitbreaker"
	dbpkg "github.com/smeasylife/highlog-ai/internal/db"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	wrapper := circuitbreaker.NewDatabaseWrapper(db, zaptest.NewLogger(t))
	return New(wrapper, 3, zaptest.NewLogger(t)), mock
}

func TestPutChunks_RejectsWrongDimension(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.PutChunks(context.Background(), "rec-1", []Chunk{
		{ChunkIndex: 0, Text: "t", Category: dbpkg.Category성적, Embedding: []float32{1, 2}},
	})

	assert.Error(t, err)
}

func TestPutChunks_DeletesThenInsertsInATransaction(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM chunks WHERE record_id").
		WithArgs("rec-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO chunks").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := s.PutChunks(context.Background(), "rec-1", []Chunk{
		{ID: "c1", ChunkIndex: 0, Text: "t", Category: dbpkg.Category성적, Embedding: []float32{1, 2, 3}},
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_RejectsWrongDimension(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Search(context.Background(), "rec-1", []float32{1, 2}, 5, nil)

	assert.Error(t, err)
}

func TestDeleteByRecord_ExecutesDelete(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec("DELETE FROM chunks WHERE record_id").
		WithArgs("rec-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	err := s.DeleteByRecord(context.Background(), "rec-1")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
