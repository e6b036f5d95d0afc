// Package registry is the Session Registry: identity, status, aggregate
// statistics, and final report per InterviewSession. Grounded on the
// teacher's internal/session.Manager struct shape (a manager wrapping a
// backing store plus a logger), but backed by Postgres rather than Redis
// since sessions here are long-lived records, not ephemeral chat
// context, and need list/aggregate queries that are natural in SQL.
package registry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	dbpkg "github.com/smeasylife/highlog-ai/internal/db"
	"github.com/smeasylife/highlog-ai/internal/interview"
	"github.com/smeasylife/highlog-ai/internal/metrics"
)

// Manager is the Session Registry.
type Manager struct {
	db     *dbpkg.Client
	logger *zap.Logger
}

// New constructs a Manager over the shared database client.
func New(db *dbpkg.Client, logger *zap.Logger) *Manager {
	return &Manager{db: db, logger: logger}
}

// Create registers a new IN_PROGRESS session with a freshly generated
// thread id.
func (m *Manager) Create(ctx context.Context, userID, recordID, difficulty string) (*dbpkg.InterviewSession, error) {
	s := dbpkg.InterviewSession{
		ID:         uuid.New().String(),
		ThreadID:   uuid.New().String(),
		UserID:     userID,
		RecordID:   recordID,
		Difficulty: dbpkg.Difficulty(difficulty),
		Status:     dbpkg.SessionInProgress,
	}
	if err := m.db.CreateSession(ctx, s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Complete finalizes a session with its aggregate statistics and report.
func (m *Manager) Complete(ctx context.Context, threadID string, answers []interview.AnswerRecord, reportKey string) error {
	questionCount := len(answers)
	var totalResponseTime float64
	for _, a := range answers {
		totalResponseTime += a.ResponseTimeS
	}
	avg := 0.0
	if questionCount > 0 {
		avg = totalResponseTime / float64(questionCount)
	}

	s, err := m.db.GetSessionByThread(ctx, threadID)
	if err != nil {
		return err
	}
	totalDuration := time.Since(s.StartedAt).Seconds()

	if err := m.db.CompleteSession(ctx, threadID, questionCount, avg, totalDuration, reportKey); err != nil {
		return err
	}
	metrics.InterviewSessionsCompleted.WithLabelValues("completed").Inc()
	return nil
}

// Abandon marks a session ABANDONED, for disconnects that never resume.
func (m *Manager) Abandon(ctx context.Context, threadID string) error {
	if err := m.db.AbandonSession(ctx, threadID); err != nil {
		return err
	}
	metrics.InterviewSessionsCompleted.WithLabelValues("abandoned").Inc()
	return nil
}

// ListByUser returns all sessions owned by a user.
func (m *Manager) ListByUser(ctx context.Context, userID string) ([]dbpkg.InterviewSession, error) {
	return m.db.ListSessionsByUser(ctx, userID)
}

// Get fetches a session by thread id.
func (m *Manager) Get(ctx context.Context, threadID string) (*dbpkg.InterviewSession, error) {
	return m.db.GetSessionByThread(ctx, threadID)
}

// GetLogs reconstructs the ordered answer_metadata from the latest
// Checkpoint for a thread.
func (m *Manager) GetLogs(ctx context.Context, threadID string) ([]interview.AnswerRecord, error) {
	cp, err := m.db.LatestCheckpoint(ctx, threadID)
	if err != nil {
		return nil, err
	}
	var state interview.State
	if err := decodeState(cp.State, &state); err != nil {
		return nil, err
	}
	return state.AnswerMetadata, nil
}
