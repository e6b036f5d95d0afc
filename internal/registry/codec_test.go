package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smeasylife/highlog-ai/internal/interview"
)

func TestEncodeDecodeState_RoundTrip(t *testing.T) {
	s := interview.NewState("t1", "r1", "Normal", 900)
	s.AppendInterviewerTurn("첫 질문")
	s.ApplyScore("성적", interview.Evaluation{Score: 80})

	encoded, err := EncodeState(s)
	require.NoError(t, err)

	decoded, err := DecodeState(encoded)
	require.NoError(t, err)

	assert.Equal(t, s.ThreadID, decoded.ThreadID)
	assert.Equal(t, s.PendingQuestion, decoded.PendingQuestion)
	assert.Equal(t, s.Scores, decoded.Scores)
}
