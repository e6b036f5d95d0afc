package interview

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/smeasylife/highlog-ai/internal/modelgateway"
	"github.com/smeasylife/highlog-ai/internal/vectorstore"
)

const retrievalK = 5

// Nodes groups the external dependencies every node needs: the Model
// Gateway for generation/evaluation and the Vector Store for context
// retrieval. Each method is a pure transition over a *State plus
// whatever external call the node requires; callers (the Temporal
// activities in internal/activities) are responsible for checkpointing
// the result.
type Nodes struct {
	Gateway *modelgateway.Gateway
	Schemas *modelgateway.SchemaSet
	Vectors *vectorstore.Store
	Routing RoutingConfig
}

// InitializeInterview opens a session: picks an opening sub-topic,
// retrieves its context, and writes the first interviewer turn.
func (n *Nodes) InitializeInterview(ctx context.Context, s *State, openingTopic string) error {
	s.Stage = StageIntro
	chunks, err := n.retrieveTopic(ctx, s, openingTopic)
	if err != nil {
		return err
	}
	question, err := n.generateOpeningQuestion(ctx, openingTopic, chunks)
	if err != nil {
		return err
	}
	s.AppendInterviewerTurn(question)
	return nil
}

// Analyzer scores the latest candidate answer and decides the next
// action via Route.
func (n *Nodes) Analyzer(ctx context.Context, s *State, answer string, responseTimeS float64) (Evaluation, error) {
	s.AppendCandidateTurn(answer, responseTimeS)

	prompt := evaluationPrompt(s.PendingQuestion, answer, s.CurrentContext)
	raw, err := n.Gateway.Generate(ctx, "answer_evaluation", prompt, n.Schemas.AnswerEvaluation)
	if err != nil {
		return Evaluation{}, err
	}

	var eval Evaluation
	if err := json.Unmarshal(raw, &eval); err != nil {
		return Evaluation{}, fmt.Errorf("interview: decode evaluation: %w", err)
	}
	eval.Grade = GradeForScore(eval.Score)

	s.AnswerMetadata = append(s.AnswerMetadata, AnswerRecord{
		Question: s.PendingQuestion, Answer: answer, ResponseTimeS: responseTimeS,
		SubTopic: s.CurrentSubTopic, Evaluation: eval, ContextUsed: append([]string{}, s.CurrentContext...),
	})
	s.ApplyScore(s.CurrentSubTopic, eval)
	s.NextAction = NextAction(Route(s, eval, n.Routing))
	return eval, nil
}

// FollowUpGenerator produces a deeper probe on the same sub-topic,
// reusing the existing retrieved context.
func (n *Nodes) FollowUpGenerator(ctx context.Context, s *State) error {
	s.FollowUpCount++
	question, err := n.generateOpeningQuestion(ctx, s.CurrentSubTopic, s.CurrentContext)
	if err != nil {
		return err
	}
	s.AppendInterviewerTurn(question)
	return nil
}

// RetrieveNewTopic picks an unused sub-topic and retrieves fresh context
// for it.
func (n *Nodes) RetrieveNewTopic(ctx context.Context, s *State, nextTopic string) error {
	prior := s.CurrentSubTopic
	chunks, err := n.retrieveTopic(ctx, s, nextTopic)
	if err != nil {
		return err
	}
	s.AskedSubTopics = append(s.AskedSubTopics, prior)
	s.CurrentContext = chunks
	s.FollowUpCount = 0
	return nil
}

// NewQuestionGenerator produces an opening question on the new topic.
func (n *Nodes) NewQuestionGenerator(ctx context.Context, s *State) error {
	question, err := n.generateOpeningQuestion(ctx, s.CurrentSubTopic, s.CurrentContext)
	if err != nil {
		return err
	}
	s.AppendInterviewerTurn(question)
	return nil
}

// WrapUpResult carries the generated closing material back to the
// caller, which persists it as the session's final report.
type WrapUpResult struct {
	ClosingRemark        string   `json:"closing_remark"`
	Summary              string   `json:"summary"`
	Strengths            []string `json:"strengths"`
	AreasForImprovement  []string `json:"areas_for_improvement"`
}

// WrapUp produces the closing remark and final report, marking the state
// finished.
func (n *Nodes) WrapUp(ctx context.Context, s *State) (*WrapUpResult, error) {
	s.Stage = StageWrapUp

	prompt := wrapUpPrompt(s)
	raw, err := n.Gateway.Generate(ctx, "wrap_up_report", prompt, n.Schemas.WrapUpReport)
	if err != nil {
		return nil, err
	}
	var result WrapUpResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("interview: decode wrap-up report: %w", err)
	}
	s.AppendInterviewerTurn(result.ClosingRemark)
	s.Finished = true
	return &result, nil
}

func (n *Nodes) retrieveTopic(ctx context.Context, s *State, topic string) ([]string, error) {
	vec, err := n.Gateway.Embed(ctx, topic)
	if err != nil {
		return nil, err
	}
	scored, err := n.Vectors.Search(ctx, s.RecordID, vec, retrievalK, nil)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(scored))
	for _, sc := range scored {
		texts = append(texts, sc.Text)
	}
	s.CurrentSubTopic = topic
	s.CurrentContext = texts
	return texts, nil
}

func (n *Nodes) generateOpeningQuestion(ctx context.Context, topic string, context []string) (string, error) {
	prompt := fmt.Sprintf(
		"Ask one interview question in Korean about the sub-topic \"%s\", grounded strictly in the "+
			"following excerpts. Return only the question text, no preamble.\n\n%v", topic, context)
	raw, err := n.Gateway.Generate(ctx, "question_batch", prompt, n.Schemas.QuestionBatch)
	if err != nil {
		return "", err
	}
	var parsed struct {
		Questions []struct {
			Body string `json:"body"`
		} `json:"questions"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil || len(parsed.Questions) == 0 {
		return "", fmt.Errorf("interview: no question generated for topic %q", topic)
	}
	return parsed.Questions[0].Body, nil
}

func evaluationPrompt(question, answer string, context []string) string {
	return fmt.Sprintf(
		"Question: %s\nCandidate answer: %s\nGrounding context: %v\n\n"+
			"Score the answer 0-100 on relevance, depth, and clarity. Return JSON matching the required "+
			"schema with score, feedback, and optional strength_tags/weakness_tags.",
		question, answer, context)
}

func wrapUpPrompt(s *State) string {
	return fmt.Sprintf(
		"The interview is ending. Scores so far: %v. Topics covered: %v. Produce a closing remark in "+
			"Korean, a short summary, and lists of strengths and areas for improvement, as JSON matching "+
			"the required schema.",
		s.Scores, s.AskedSubTopics)
}
