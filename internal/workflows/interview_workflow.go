package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/smeasylife/highlog-ai/internal/activities"
	"github.com/smeasylife/highlog-ai/internal/constants"
	"github.com/smeasylife/highlog-ai/internal/interview"
	"github.com/smeasylife/highlog-ai/internal/util"
)

// InterviewWorkflowInput starts one InterviewWorkflow execution, one per
// thread_id.
type InterviewWorkflowInput struct {
	ThreadID     string
	RecordID     string
	Difficulty   string
	TotalTimeS   int
	OpeningTopic string
}

// ChatTurnInput is the chat_turn Update's request payload.
type ChatTurnInput struct {
	Answer        string
	ResponseTimeS float64
}

// ChatTurnAudioInput is the chat_turn_audio Update's request payload.
type ChatTurnAudioInput struct {
	Audio         []byte
	Mime          string
	ResponseTimeS float64
}

// ChatTurnResult is the synchronous response both Update handlers return:
// the interviewer's next line (or the closing remark, if the interview
// just finished) and enough state to let the caller render a UI.
type ChatTurnResult struct {
	Evaluation   interview.Evaluation
	NextQuestion string
	AudioURL     string
	Finished     bool
	Report       *interview.WrapUpResult
}

// activityOpts is the one retry policy every node activity shares.
func activityOpts(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{"InvalidRequest", "Cancelled"},
		},
	})
}

// InterviewWorkflow holds one thread's live InterviewState for the life
// of the interview and exposes chat_turn/chat_turn_audio as Temporal
// Updates, giving request/response semantics and per-thread
// serialization (each handler's Validator rejects a second Update while a
// turn is in flight) instead of a fire-and-forget Signal.
func InterviewWorkflow(ctx workflow.Context, input InterviewWorkflowInput) error {
	logger := workflow.GetLogger(ctx)
	state := interview.NewState(input.ThreadID, input.RecordID, input.Difficulty, input.TotalTimeS)

	nodeCtx := activityOpts(ctx)
	if err := workflow.ExecuteActivity(nodeCtx, constants.InitializeInterviewActivity, activities.InitializeInterviewInput{
		State: state, OpeningTopic: input.OpeningTopic,
	}).Get(ctx, &state); err != nil {
		return err
	}
	if err := commitCheckpoint(ctx, input.ThreadID, state); err != nil {
		logger.Warn("checkpoint commit failed after initialize", "error", err)
	}

	turnInFlight := false

	processTurn := func(answer string, responseTimeS float64) (ChatTurnResult, error) {
		logger.Debug("processing turn", "thread_id", input.ThreadID,
			"answer_preview", util.TruncateString(answer, 80, true))

		var analyzed activities.AnalyzeAnswerResult
		if err := workflow.ExecuteActivity(nodeCtx, constants.AnalyzeAnswerActivity, activities.AnalyzeAnswerInput{
			State: state, Answer: answer, ResponseTimeS: responseTimeS,
		}).Get(ctx, &analyzed); err != nil {
			return ChatTurnResult{}, err
		}
		state = analyzed.State

		result := ChatTurnResult{Evaluation: analyzed.Evaluation}

		switch state.NextAction {
		case interview.ActionFollowUp:
			if err := workflow.ExecuteActivity(nodeCtx, constants.FollowUpGeneratorActivity, state).Get(ctx, &state); err != nil {
				return ChatTurnResult{}, err
			}
		case interview.ActionNewTopic:
			next := state.NextUnusedSubTopic()
			if next == "" {
				state.NextAction = interview.ActionWrapUp
			} else {
				if err := workflow.ExecuteActivity(nodeCtx, constants.RetrieveNewTopicActivity, activities.RetrieveNewTopicInput{
					State: state, NextTopic: next,
				}).Get(ctx, &state); err != nil {
					return ChatTurnResult{}, err
				}
				if err := workflow.ExecuteActivity(nodeCtx, constants.NewQuestionGeneratorActivity, state).Get(ctx, &state); err != nil {
					return ChatTurnResult{}, err
				}
			}
		}

		if state.NextAction == interview.ActionWrapUp {
			var wrapped activities.WrapUpResult
			if err := workflow.ExecuteActivity(nodeCtx, constants.WrapUpActivity, state).Get(ctx, &wrapped); err != nil {
				return ChatTurnResult{}, err
			}
			state = wrapped.State
			result.Finished = true
			result.Report = wrapped.Report
			result.NextQuestion = wrapped.Report.ClosingRemark
		} else {
			result.NextQuestion = state.PendingQuestion
		}

		if err := commitCheckpoint(ctx, input.ThreadID, state); err != nil {
			logger.Warn("checkpoint commit failed after turn", "error", err)
		}
		return result, nil
	}

	if err := workflow.SetUpdateHandler(ctx, "chat_turn",
		func(ctx workflow.Context, in ChatTurnInput) (ChatTurnResult, error) {
			turnInFlight = true
			defer func() { turnInFlight = false }()
			return processTurn(in.Answer, in.ResponseTimeS)
		},
		workflow.UpdateHandlerOptions{
			Validator: func(ctx workflow.Context, in ChatTurnInput) error {
				if turnInFlight {
					return temporal.NewApplicationError("turn already in progress for this thread", "Conflict")
				}
				if state.Finished {
					return temporal.NewApplicationError("interview already finished", "PreconditionFailed")
				}
				return nil
			},
		}); err != nil {
		return err
	}

	if err := workflow.SetUpdateHandler(ctx, "chat_turn_audio",
		func(ctx workflow.Context, in ChatTurnAudioInput) (ChatTurnResult, error) {
			turnInFlight = true
			defer func() { turnInFlight = false }()

			var transcript string
			if err := workflow.ExecuteActivity(nodeCtx, constants.TranscribeAnswerActivity, activities.TranscribeAnswerInput{
				Audio: in.Audio, Mime: in.Mime,
			}).Get(ctx, &transcript); err != nil {
				return ChatTurnResult{}, err
			}
			result, err := processTurn(transcript, in.ResponseTimeS)
			if err != nil {
				return ChatTurnResult{}, err
			}
			if !result.Finished {
				var audioURL string
				if err := workflow.ExecuteActivity(nodeCtx, constants.SynthesizeQuestionActivity, result.NextQuestion).Get(ctx, &audioURL); err != nil {
					logger.Warn("synthesize question failed", "error", err)
				} else {
					result.AudioURL = audioURL
				}
			}
			return result, nil
		},
		workflow.UpdateHandlerOptions{
			Validator: func(ctx workflow.Context, in ChatTurnAudioInput) error {
				if turnInFlight {
					return temporal.NewApplicationError("turn already in progress for this thread", "Conflict")
				}
				if state.Finished {
					return temporal.NewApplicationError("interview already finished", "PreconditionFailed")
				}
				return nil
			},
		}); err != nil {
		return err
	}

	if err := workflow.SetQueryHandler(ctx, "GetLogs", func() ([]interview.AnswerRecord, error) {
		return state.AnswerMetadata, nil
	}); err != nil {
		return err
	}

	if err := workflow.Await(ctx, func() bool { return state.Finished }); err != nil {
		return err
	}
	if !state.Finished {
		return errors.New("workflow exited before interview finished")
	}
	return nil
}

func commitCheckpoint(ctx workflow.Context, threadID string, state *interview.State) error {
	actCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 3},
	})
	return workflow.ExecuteActivity(actCtx, constants.CommitCheckpointActivity, activities.CommitCheckpointInput{
		ThreadID: threadID, State: state,
	}).Get(ctx, nil)
}
