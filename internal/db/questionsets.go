package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/smeasylife/highlog-ai/internal/apperr"
)

// CreateQuestionSet atomically inserts a QuestionSet and its Questions.
func (c *Client) CreateQuestionSet(ctx context.Context, qs QuestionSet, questions []Question) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Storage(err, "begin question set tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO question_sets (id, record_id, target_school, target_major, interview_type, title)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		qs.ID, qs.RecordID, qs.TargetSchool, qs.TargetMajor, qs.InterviewType, qs.Title); err != nil {
		return apperr.Storage(err, "insert question set %s", qs.ID)
	}

	for _, q := range questions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO questions (id, question_set_id, category, body, difficulty, model_answer, purpose)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			q.ID, qs.ID, q.Category, q.Body, q.Difficulty, q.ModelAnswer, q.Purpose); err != nil {
			return apperr.Storage(err, "insert question %s", q.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Storage(err, "commit question set %s", qs.ID)
	}
	return nil
}

// GetQuestionSet fetches a question set and its questions.
func (c *Client) GetQuestionSet(ctx context.Context, id string) (*QuestionSet, []Question, error) {
	row := c.DB.QueryRowContext(ctx,
		`SELECT id, record_id, target_school, target_major, interview_type, title, created_at
		 FROM question_sets WHERE id = $1`, id)
	var qs QuestionSet
	if err := row.Scan(&qs.ID, &qs.RecordID, &qs.TargetSchool, &qs.TargetMajor, &qs.InterviewType, &qs.Title, &qs.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperr.NotFound("question set %s", id)
		}
		return nil, nil, apperr.Storage(err, "get question set %s", id)
	}

	rows, err := c.DB.QueryContext(ctx,
		`SELECT id, question_set_id, category, body, difficulty, model_answer, purpose
		 FROM questions WHERE question_set_id = $1`, id)
	if err != nil {
		return nil, nil, apperr.Storage(err, "list questions for set %s", id)
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.QuestionSetID, &q.Category, &q.Body, &q.Difficulty, &q.ModelAnswer, &q.Purpose); err != nil {
			return nil, nil, apperr.Storage(err, "scan question")
		}
		questions = append(questions, q)
	}
	return &qs, questions, nil
}
