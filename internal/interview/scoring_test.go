package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyScore_MappedTopicAccumulates(t *testing.T) {
	s := NewState("t1", "r1", "Normal", 900)

	s.ApplyScore("성적", Evaluation{Score: 70})
	s.ApplyScore("동아리", Evaluation{Score: 20})

	assert.Equal(t, 90, s.Scores[Axis전공적합성])
}

func TestApplyScore_UnmappedTopicIgnored(t *testing.T) {
	s := NewState("t1", "r1", "Normal", 900)

	s.ApplyScore("기타", Evaluation{Score: 100})

	assert.Empty(t, s.Scores)
}

func TestApplyScore_NeverResets(t *testing.T) {
	s := NewState("t1", "r1", "Normal", 900)

	s.ApplyScore("출결", Evaluation{Score: 10})
	s.ApplyScore("출결", Evaluation{Score: 5})

	assert.Equal(t, 15, s.Scores[Axis의사소통])
}

func TestGradeForScore_Bands(t *testing.T) {
	assert.Equal(t, Grade좋음, GradeForScore(80))
	assert.Equal(t, Grade좋음, GradeForScore(100))
	assert.Equal(t, Grade보통, GradeForScore(60))
	assert.Equal(t, Grade보통, GradeForScore(79))
	assert.Equal(t, Grade개선, GradeForScore(59))
	assert.Equal(t, Grade개선, GradeForScore(0))
}

func TestNextUnusedSubTopic_SkipsAskedAndCurrent(t *testing.T) {
	s := NewState("t1", "r1", "Normal", 900)
	s.CurrentSubTopic = "성적"
	s.AskedSubTopics = []string{"동아리"}

	next := s.NextUnusedSubTopic()

	assert.Equal(t, "리더십", next)
}

func TestNextUnusedSubTopic_EmptyWhenExhausted(t *testing.T) {
	s := NewState("t1", "r1", "Normal", 900)
	s.AskedSubTopics = append([]string{}, subTopicCandidates...)

	next := s.NextUnusedSubTopic()

	assert.Empty(t, next)
}
