package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendCandidateTurn_ClampsAtZero(t *testing.T) {
	s := NewState("t1", "r1", "Normal", 60)

	s.AppendCandidateTurn("answer", 90)

	assert.Equal(t, 0, s.RemainingTimeS)
	assert.Len(t, s.ConversationHistory, 1)
	assert.Equal(t, RoleCandidate, s.ConversationHistory[0].Role)
}

func TestAppendInterviewerTurn_SetsPendingQuestion(t *testing.T) {
	s := NewState("t1", "r1", "Normal", 900)

	s.AppendInterviewerTurn("질문입니다")

	assert.Equal(t, "질문입니다", s.PendingQuestion)
	assert.Equal(t, RoleInterviewer, s.ConversationHistory[0].Role)
}

func TestHasAskedSubTopic(t *testing.T) {
	s := NewState("t1", "r1", "Normal", 900)
	s.AskedSubTopics = []string{"리더십", "봉사"}

	assert.True(t, s.HasAskedSubTopic("봉사"))
	assert.False(t, s.HasAskedSubTopic("독서"))
}
