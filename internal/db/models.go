package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONB represents a PostgreSQL jsonb column.
type JSONB map[string]interface{}

// Value implements driver.Valuer.
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner.
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into JSONB", value)
	}
	return json.Unmarshal(bytes, j)
}

// Record lifecycle status, per the data model.
type RecordStatus string

const (
	RecordPending    RecordStatus = "PENDING"
	RecordProcessing RecordStatus = "PROCESSING"
	RecordReady      RecordStatus = "READY"
	RecordFailed     RecordStatus = "FAILED"
)

// Record is an uploaded 생기부 document.
type Record struct {
	ID        string       `db:"id"`
	UserID    string       `db:"user_id"`
	Title     string       `db:"title"`
	BlobKey   string       `db:"blob_key"`
	Status    RecordStatus `db:"status"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

// Category is the fixed closed set of chunk categories produced by the
// ingestion categorizer.
type Category string

const (
	Category성적 Category = "성적"
	Category세특 Category = "세특"
	Category창체 Category = "창체"
	Category행특 Category = "행특"
	Category출결 Category = "출결"
	Category독서 Category = "독서"
	Category수상 Category = "수상"
	Category진로 Category = "진로"
	Category기타 Category = "기타"
)

// Chunk is a categorized span of verbatim text extracted from a Record,
// with its embedding vector stored alongside it in the vector store
// schema (see internal/vectorstore).
type Chunk struct {
	ID         string
	RecordID   string
	ChunkIndex int
	Text       string
	Category   Category
}

// Difficulty is shared by Question and InterviewSession.
type Difficulty string

const (
	DifficultyBasic Difficulty = "BASIC"
	DifficultyDeep  Difficulty = "DEEP"

	SessionDifficultyEasy   Difficulty = "Easy"
	SessionDifficultyNormal Difficulty = "Normal"
	SessionDifficultyHard   Difficulty = "Hard"
)

// QuestionSet groups Questions generated for one record/target combo.
type QuestionSet struct {
	ID            string    `db:"id"`
	RecordID      string    `db:"record_id"`
	TargetSchool  string    `db:"target_school"`
	TargetMajor   string    `db:"target_major"`
	InterviewType string    `db:"interview_type"`
	Title         string    `db:"title"`
	CreatedAt     time.Time `db:"created_at"`
}

// Question is one generated interview question grounded in a category's
// chunks.
type Question struct {
	ID           string     `db:"id"`
	QuestionSetID string    `db:"question_set_id"`
	Category     Category   `db:"category"`
	Body         string     `db:"body"`
	Difficulty   Difficulty `db:"difficulty"`
	ModelAnswer  *string    `db:"model_answer"`
	Purpose      *string    `db:"purpose"`
}

// SessionStatus is the InterviewSession lifecycle.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionCompleted  SessionStatus = "COMPLETED"
	SessionAbandoned  SessionStatus = "ABANDONED"
)

// InterviewSession is the durable record of one interview run.
type InterviewSession struct {
	ID               string        `db:"id"`
	ThreadID         string        `db:"thread_id"`
	UserID           string        `db:"user_id"`
	RecordID         string        `db:"record_id"`
	Difficulty       Difficulty    `db:"difficulty"`
	Status           SessionStatus `db:"status"`
	StartedAt        time.Time     `db:"started_at"`
	EndedAt          *time.Time    `db:"ended_at"`
	QuestionCount    int           `db:"question_count"`
	AvgResponseTimeS float64       `db:"avg_response_time_s"`
	TotalDurationS   float64       `db:"total_duration_s"`
	FinalReportKey   *string       `db:"final_report_key"`
}

// Checkpoint is one persisted InterviewState snapshot.
type Checkpoint struct {
	ID        int64     `db:"id"`
	ThreadID  string    `db:"thread_id"`
	State     JSONB     `db:"state"`
	CreatedAt time.Time `db:"created_at"`
}
