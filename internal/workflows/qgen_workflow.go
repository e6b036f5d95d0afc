package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/smeasylife/highlog-ai/internal/activities"
	"github.com/smeasylife/highlog-ai/internal/constants"
)

// QuestionGenerationInput starts a QuestionGenerationWorkflow.
type QuestionGenerationInput struct {
	RecordID      string
	TargetSchool  string
	TargetMajor   string
	InterviewType string
	Title         string
}

// QuestionGenerationWorkflow wraps the question generation pipeline,
// which internally fans per-category generation out to a bounded worker
// pool (see internal/qgen) rather than at the workflow level, since that
// fan-out has no need to be independently retried by Temporal beyond the
// whole-activity retry policy below.
func QuestionGenerationWorkflow(ctx workflow.Context, input QuestionGenerationInput) (activities.GenerateQuestionsResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("starting QuestionGenerationWorkflow", "record_id", input.RecordID)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 15 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{"InvalidRequest", "PreconditionFailed"},
		},
	})

	var result activities.GenerateQuestionsResult
	err := workflow.ExecuteActivity(ctx, constants.GenerateQuestionsActivity, activities.GenerateQuestionsInput{
		RecordID:      input.RecordID,
		TargetSchool:  input.TargetSchool,
		TargetMajor:   input.TargetMajor,
		InterviewType: input.InterviewType,
		Title:         input.Title,
	}).Get(ctx, &result)
	if err != nil {
		logger.Error("question generation failed", "record_id", input.RecordID, "error", err)
		return activities.GenerateQuestionsResult{}, err
	}
	return result, nil
}
