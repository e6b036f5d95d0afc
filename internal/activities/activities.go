// Package activities adapts the ingestion, qgen, and interview packages
// into Temporal activities. Each method on Activities is registered
// under its internal/constants name; workflows never touch the
// underlying packages directly, mirroring the teacher's
// workflows-call-activities-call-packages layering.
package activities

import (
	"context"

	"go.uber.org/zap"

	dbpkg "github.com/smeasylife/highlog-ai/internal/db"
	"github.com/smeasylife/highlog-ai/internal/ingestion"
	"github.com/smeasylife/highlog-ai/internal/interview"
	"github.com/smeasylife/highlog-ai/internal/metrics"
	"github.com/smeasylife/highlog-ai/internal/qgen"
	"github.com/smeasylife/highlog-ai/internal/registry"
	"github.com/smeasylife/highlog-ai/internal/streaming"
	"github.com/smeasylife/highlog-ai/internal/ttsstt"
)

// Activities bundles everything the Temporal worker's activities need.
type Activities struct {
	Ingestion   *ingestion.Pipeline
	QGen        *qgen.Pipeline
	Nodes       *interview.Nodes
	DB          *dbpkg.Client
	Registry    *registry.Manager
	Progress    *streaming.Manager
	Synthesizer ttsstt.Synthesizer
	Logger      *zap.Logger
}

// IngestDocumentInput is the input to the ingestion activity.
type IngestDocumentInput struct {
	RecordID string
	BlobKey  string
	Title    string
}

// IngestDocument runs the full ingestion pipeline for one record as a
// single activity; each internal stage still emits its own progress
// events, so the workflow does not need per-stage activities to get
// fine-grained progress.
func (a *Activities) IngestDocument(ctx context.Context, in IngestDocumentInput) error {
	return a.Ingestion.Run(ctx, in.RecordID, in.BlobKey, in.Title)
}

// GenerateQuestionsInput is the input to the question generation activity.
type GenerateQuestionsInput struct {
	RecordID      string
	TargetSchool  string
	TargetMajor   string
	InterviewType string
	Title         string
}

// GenerateQuestionsResult carries back the created QuestionSet id.
type GenerateQuestionsResult struct {
	QuestionSetID string
}

// GenerateQuestions runs the question generation pipeline for one record.
func (a *Activities) GenerateQuestions(ctx context.Context, in GenerateQuestionsInput) (GenerateQuestionsResult, error) {
	id, err := a.QGen.Run(ctx, in.RecordID, in.TargetSchool, in.TargetMajor, in.InterviewType, in.Title)
	if err != nil {
		return GenerateQuestionsResult{}, err
	}
	return GenerateQuestionsResult{QuestionSetID: id}, nil
}

// CommitCheckpointInput persists a state snapshot.
type CommitCheckpointInput struct {
	ThreadID string
	State    *interview.State
}

// CommitCheckpointResult carries back the assigned checkpoint id.
type CommitCheckpointResult struct {
	CheckpointID int64
}

// CommitCheckpoint appends a new Checkpoint row for a thread.
func (a *Activities) CommitCheckpoint(ctx context.Context, in CommitCheckpointInput) (CommitCheckpointResult, error) {
	encoded, err := registry.EncodeState(in.State)
	if err != nil {
		return CommitCheckpointResult{}, err
	}
	id, err := a.DB.CommitCheckpoint(ctx, in.ThreadID, encoded)
	if err != nil {
		return CommitCheckpointResult{}, err
	}
	metrics.CheckpointsCommitted.Inc()
	return CommitCheckpointResult{CheckpointID: id}, nil
}

// LoadLatestCheckpointInput identifies which thread's state to restore.
type LoadLatestCheckpointInput struct {
	ThreadID string
}

// LoadLatestCheckpoint restores the most recent persisted state for a
// thread, used by chat_turn to resume after a worker restart.
func (a *Activities) LoadLatestCheckpoint(ctx context.Context, in LoadLatestCheckpointInput) (*interview.State, error) {
	cp, err := a.DB.LatestCheckpoint(ctx, in.ThreadID)
	if err != nil {
		return nil, err
	}
	return registry.DecodeState(cp.State)
}

// InitializeInterviewInput opens a thread's state machine.
type InitializeInterviewInput struct {
	State        *interview.State
	OpeningTopic string
}

// InitializeInterview runs the opening node and returns the updated state.
func (a *Activities) InitializeInterview(ctx context.Context, in InitializeInterviewInput) (*interview.State, error) {
	if err := a.Nodes.InitializeInterview(ctx, in.State, in.OpeningTopic); err != nil {
		return nil, err
	}
	return in.State, nil
}

// AnalyzeAnswerInput carries the candidate's latest answer into the
// analyzer node.
type AnalyzeAnswerInput struct {
	State         *interview.State
	Answer        string
	ResponseTimeS float64
}

// AnalyzeAnswerResult returns the updated state and the evaluation used
// to pick the next node.
type AnalyzeAnswerResult struct {
	State      *interview.State
	Evaluation interview.Evaluation
}

// AnalyzeAnswer scores the latest answer and sets State.NextAction.
func (a *Activities) AnalyzeAnswer(ctx context.Context, in AnalyzeAnswerInput) (AnalyzeAnswerResult, error) {
	eval, err := a.Nodes.Analyzer(ctx, in.State, in.Answer, in.ResponseTimeS)
	if err != nil {
		return AnalyzeAnswerResult{}, err
	}
	return AnalyzeAnswerResult{State: in.State, Evaluation: eval}, nil
}

// FollowUpGenerator produces a deeper probe on the current sub-topic.
func (a *Activities) FollowUpGenerator(ctx context.Context, s *interview.State) (*interview.State, error) {
	if err := a.Nodes.FollowUpGenerator(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// RetrieveNewTopicInput carries the chosen next sub-topic.
type RetrieveNewTopicInput struct {
	State     *interview.State
	NextTopic string
}

// RetrieveNewTopic retrieves fresh grounding context for the next topic.
func (a *Activities) RetrieveNewTopic(ctx context.Context, in RetrieveNewTopicInput) (*interview.State, error) {
	if err := a.Nodes.RetrieveNewTopic(ctx, in.State, in.NextTopic); err != nil {
		return nil, err
	}
	return in.State, nil
}

// NewQuestionGenerator produces an opening question on the new topic.
func (a *Activities) NewQuestionGenerator(ctx context.Context, s *interview.State) (*interview.State, error) {
	if err := a.Nodes.NewQuestionGenerator(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// WrapUpResult carries the updated state and the generated report back to
// the caller.
type WrapUpResult struct {
	State  *interview.State
	Report *interview.WrapUpResult
}

// WrapUp produces the closing remark and final report.
func (a *Activities) WrapUp(ctx context.Context, s *interview.State) (WrapUpResult, error) {
	report, err := a.Nodes.WrapUp(ctx, s)
	if err != nil {
		return WrapUpResult{}, err
	}
	return WrapUpResult{State: s, Report: report}, nil
}

// TranscribeAnswerInput carries raw audio for chat_turn_audio.
type TranscribeAnswerInput struct {
	Audio []byte
	Mime  string
}

// TranscribeAnswer converts the candidate's spoken answer to text via the
// Model Gateway's STT capability.
func (a *Activities) TranscribeAnswer(ctx context.Context, in TranscribeAnswerInput) (string, error) {
	return a.Nodes.Gateway.Transcribe(ctx, in.Audio, in.Mime)
}

// SynthesizeQuestion renders the interviewer's next question to speech,
// returning an addressable audio URL.
func (a *Activities) SynthesizeQuestion(ctx context.Context, text string) (string, error) {
	return a.Synthesizer.Synthesize(ctx, text)
}

// EmitProgressInput publishes one Progress Stream event.
type EmitProgressInput struct {
	Subject  streaming.Subject
	ID       string
	Kind     streaming.Kind
	Progress int
	Reason   string
}

// EmitProgress publishes a progress event outside the pipeline's own
// internal emission (used by the Interview Orchestrator, which streams
// per-turn rather than per-pipeline-stage).
func (a *Activities) EmitProgress(ctx context.Context, in EmitProgressInput) error {
	return a.Progress.Publish(ctx, streaming.Event{
		Subject: in.Subject, ID: in.ID, Kind: in.Kind, Progress: in.Progress, Reason: in.Reason,
	})
}
