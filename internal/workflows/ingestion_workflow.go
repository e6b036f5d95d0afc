package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/smeasylife/highlog-ai/internal/activities"
	"github.com/smeasylife/highlog-ai/internal/constants"
)

// IngestionInput starts an IngestionWorkflow.
type IngestionInput struct {
	RecordID string
	BlobKey  string
	Title    string
}

// IngestionWorkflow drives the five-stage ingestion pipeline for one
// record as a single retried activity; per-stage progress is carried by
// the Progress Stream events the activity emits internally, following
// the teacher's SimpleTaskWorkflow shape of one workflow wrapping one
// long activity plus surrounding lifecycle events.
func IngestionWorkflow(ctx workflow.Context, input IngestionInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("starting IngestionWorkflow", "record_id", input.RecordID)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 20 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{"InvalidRequest", "PreconditionFailed"},
		},
	})

	err := workflow.ExecuteActivity(ctx, constants.IngestDocumentActivity, activities.IngestDocumentInput{
		RecordID: input.RecordID,
		BlobKey:  input.BlobKey,
		Title:    input.Title,
	}).Get(ctx, nil)
	if err != nil {
		logger.Error("ingestion failed", "record_id", input.RecordID, "error", err)
		return err
	}
	return nil
}
