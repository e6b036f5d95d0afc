package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/smeasylife/highlog-ai/internal/apperr"
)

// CreateSession inserts a new IN_PROGRESS InterviewSession.
func (c *Client) CreateSession(ctx context.Context, s InterviewSession) error {
	_, err := c.DB.ExecContext(ctx,
		`INSERT INTO interview_sessions (id, thread_id, user_id, record_id, difficulty, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.ThreadID, s.UserID, s.RecordID, s.Difficulty, s.Status)
	if err != nil {
		return apperr.Storage(err, "create session %s", s.ThreadID)
	}
	return nil
}

// GetSessionByThread fetches a session by its externally visible thread id.
func (c *Client) GetSessionByThread(ctx context.Context, threadID string) (*InterviewSession, error) {
	row := c.DB.QueryRowContext(ctx,
		`SELECT id, thread_id, user_id, record_id, difficulty, status, started_at, ended_at,
		        question_count, avg_response_time_s, total_duration_s, final_report_key
		 FROM interview_sessions WHERE thread_id = $1`, threadID)
	var s InterviewSession
	if err := row.Scan(&s.ID, &s.ThreadID, &s.UserID, &s.RecordID, &s.Difficulty, &s.Status,
		&s.StartedAt, &s.EndedAt, &s.QuestionCount, &s.AvgResponseTimeS, &s.TotalDurationS, &s.FinalReportKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("session %s", threadID)
		}
		return nil, apperr.Storage(err, "get session %s", threadID)
	}
	return &s, nil
}

// CompleteSession finalizes a session with aggregate stats and a report key.
func (c *Client) CompleteSession(ctx context.Context, threadID string, questionCount int, avgResponseTimeS, totalDurationS float64, reportKey string) error {
	now := time.Now()
	res, err := c.DB.ExecContext(ctx,
		`UPDATE interview_sessions
		 SET status = $1, ended_at = $2, question_count = $3, avg_response_time_s = $4,
		     total_duration_s = $5, final_report_key = $6
		 WHERE thread_id = $7`,
		SessionCompleted, now, questionCount, avgResponseTimeS, totalDurationS, reportKey, threadID)
	if err != nil {
		return apperr.Storage(err, "complete session %s", threadID)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.NotFound("session %s", threadID)
	}
	return nil
}

// AbandonSession marks a session ABANDONED without a report.
func (c *Client) AbandonSession(ctx context.Context, threadID string) error {
	now := time.Now()
	res, err := c.DB.ExecContext(ctx,
		`UPDATE interview_sessions SET status = $1, ended_at = $2 WHERE thread_id = $3`,
		SessionAbandoned, now, threadID)
	if err != nil {
		return apperr.Storage(err, "abandon session %s", threadID)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.NotFound("session %s", threadID)
	}
	return nil
}

// ListSessionsByUser returns all sessions owned by a user, most recent first.
func (c *Client) ListSessionsByUser(ctx context.Context, userID string) ([]InterviewSession, error) {
	rows, err := c.DB.QueryContext(ctx,
		`SELECT id, thread_id, user_id, record_id, difficulty, status, started_at, ended_at,
		        question_count, avg_response_time_s, total_duration_s, final_report_key
		 FROM interview_sessions WHERE user_id = $1 ORDER BY started_at DESC`, userID)
	if err != nil {
		return nil, apperr.Storage(err, "list sessions for user %s", userID)
	}
	defer rows.Close()

	var sessions []InterviewSession
	for rows.Next() {
		var s InterviewSession
		if err := rows.Scan(&s.ID, &s.ThreadID, &s.UserID, &s.RecordID, &s.Difficulty, &s.Status,
			&s.StartedAt, &s.EndedAt, &s.QuestionCount, &s.AvgResponseTimeS, &s.TotalDurationS, &s.FinalReportKey); err != nil {
			return nil, apperr.Storage(err, "scan session")
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}
