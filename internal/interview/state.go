// Package interview implements the per-thread interview state machine:
// nodes, routing, and cumulative scoring. The state machine itself is
// plain, deterministic Go so it can be driven either directly (tests) or
// from inside a Temporal workflow (internal/workflows), mirroring the
// teacher's separation between workflow orchestration and the agent
// logic it invokes.
package interview

import "github.com/smeasylife/highlog-ai/internal/util"

// Stage is the coarse phase of an interview.
type Stage string

const (
	StageIntro  Stage = "INTRO"
	StageMain   Stage = "MAIN"
	StageWrapUp Stage = "WRAP_UP"
)

// NextAction is the analyzer's routing decision.
type NextAction string

const (
	ActionFollowUp NextAction = "follow_up"
	ActionNewTopic NextAction = "new_topic"
	ActionWrapUp   NextAction = "wrap_up"
)

// Role distinguishes sides of the conversation.
type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleCandidate   Role = "candidate"
)

// Turn is one line of the conversation history.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Axis is an evaluation axis accumulated across the interview.
type Axis string

const (
	Axis전공적합성 Axis = "전공적합성"
	Axis인성     Axis = "인성"
	Axis발전가능성 Axis = "발전가능성"
	Axis의사소통   Axis = "의사소통"
)

// Grade is the coarse banding of an evaluation score.
type Grade string

const (
	Grade좋음 Grade = "좋음"
	Grade보통 Grade = "보통"
	Grade개선 Grade = "개선"
)

// GradeForScore buckets a 0..100 score per spec §3.
func GradeForScore(score int) Grade {
	switch {
	case score >= 80:
		return Grade좋음
	case score >= 60:
		return Grade보통
	default:
		return Grade개선
	}
}

// Evaluation is the analyzer's judgment of one answer.
type Evaluation struct {
	Score        int      `json:"score"`
	Grade        Grade    `json:"grade"`
	Feedback     string   `json:"feedback"`
	StrengthTags []string `json:"strength_tags,omitempty"`
	WeaknessTags []string `json:"weakness_tags,omitempty"`
}

// AnswerRecord is one scored question/answer pair.
type AnswerRecord struct {
	Question      string     `json:"question"`
	Answer        string     `json:"answer"`
	ResponseTimeS float64    `json:"response_time_s"`
	SubTopic      string     `json:"sub_topic"`
	Evaluation    Evaluation `json:"evaluation"`
	ContextUsed   []string   `json:"context_used"`
}

// State is the full per-thread InterviewState, checkpointed after every
// node execution.
type State struct {
	ThreadID           string          `json:"thread_id"`
	RecordID           string          `json:"record_id"`
	Difficulty         string          `json:"difficulty"`
	RemainingTimeS     int             `json:"remaining_time_s"`
	Stage              Stage           `json:"stage"`
	ConversationHistory []Turn         `json:"conversation_history"`
	CurrentContext     []string        `json:"current_context"`
	CurrentSubTopic    string          `json:"current_sub_topic"`
	AskedSubTopics     []string        `json:"asked_sub_topics"`
	AnswerMetadata     []AnswerRecord  `json:"answer_metadata"`
	Scores             map[Axis]int    `json:"scores"`
	NextAction         NextAction      `json:"next_action"`
	FollowUpCount      int             `json:"follow_up_count"`
	PendingQuestion    string          `json:"pending_question"`
	Finished           bool            `json:"finished"`
}

// NewState builds the initial state for a freshly created thread.
func NewState(threadID, recordID, difficulty string, totalTimeS int) *State {
	return &State{
		ThreadID:       threadID,
		RecordID:       recordID,
		Difficulty:     difficulty,
		RemainingTimeS: totalTimeS,
		Stage:          StageIntro,
		Scores:         make(map[Axis]int),
	}
}

// HasAskedSubTopic reports whether a sub-topic has already been used.
func (s *State) HasAskedSubTopic(topic string) bool {
	return util.ContainsString(s.AskedSubTopics, topic)
}

// AppendCandidateTurn records the candidate's answer and decrements the
// clock, clamped at zero.
func (s *State) AppendCandidateTurn(answer string, responseTimeS float64) {
	s.ConversationHistory = append(s.ConversationHistory, Turn{Role: RoleCandidate, Text: answer})
	s.RemainingTimeS -= int(responseTimeS)
	if s.RemainingTimeS < 0 {
		s.RemainingTimeS = 0
	}
}

// AppendInterviewerTurn records the next question.
func (s *State) AppendInterviewerTurn(question string) {
	s.ConversationHistory = append(s.ConversationHistory, Turn{Role: RoleInterviewer, Text: question})
	s.PendingQuestion = question
}
