package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func defaultRoutingConfig() RoutingConfig {
	return RoutingConfig{WrapUpThresholdS: 30, MaxFollowUps: 3, MaxTopics: 8}
}

func TestRoute_LowTimeForcesWrapUp(t *testing.T) {
	s := NewState("t1", "r1", "Normal", 900)
	s.RemainingTimeS = 20

	action := Route(s, Evaluation{Score: 90}, defaultRoutingConfig())

	assert.Equal(t, ActionWrapUp, action)
}

func TestRoute_LowScoreTriggersFollowUp(t *testing.T) {
	s := NewState("t1", "r1", "Normal", 900)
	s.RemainingTimeS = 500
	s.FollowUpCount = 0
	s.CurrentSubTopic = "리더십"

	action := Route(s, Evaluation{Score: 55}, defaultRoutingConfig())

	assert.Equal(t, ActionFollowUp, action)
}

func TestRoute_FollowUpExhaustedFallsThroughToNewTopic(t *testing.T) {
	s := NewState("t1", "r1", "Normal", 900)
	s.RemainingTimeS = 500
	s.FollowUpCount = 3 // already at MaxFollowUps

	action := Route(s, Evaluation{Score: 40}, defaultRoutingConfig())

	assert.Equal(t, ActionNewTopic, action)
}

func TestRoute_EightAskedTopicsForcesWrapUp(t *testing.T) {
	s := NewState("t1", "r1", "Normal", 900)
	s.RemainingTimeS = 500
	s.AskedSubTopics = []string{"a", "b", "c", "d", "e", "f", "g", "리더십"}

	action := Route(s, Evaluation{Score: 90}, defaultRoutingConfig())

	assert.Equal(t, ActionWrapUp, action)
}

func TestRoute_HighScoreManyTopicsRoutesNewTopic(t *testing.T) {
	s := NewState("t1", "r1", "Normal", 900)
	s.RemainingTimeS = 500
	s.AskedSubTopics = make([]string, 7)
	s.AskedSubTopics[0] = "리더십"

	action := Route(s, Evaluation{Score: 90}, defaultRoutingConfig())

	assert.Equal(t, ActionNewTopic, action)
}
