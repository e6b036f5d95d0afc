package qgen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dbpkg "github.com/smeasylife/highlog-ai/internal/db"
	"github.com/smeasylife/highlog-ai/internal/vectorstore"
)

func TestQuestionBatchPrompt_IncludesCategoryLimitAndChunkText(t *testing.T) {
	chunks := []vectorstore.Chunk{
		{Text: "3학년 1학기 전 과목 평균 1.2등급"},
		{Text: "수학 동아리 부장으로 활동"},
	}

	p := questionBatchPrompt(dbpkg.Category성적, chunks)

	assert.Contains(t, p, "성적")
	assert.Contains(t, p, "at most 5 interview questions")
	assert.Contains(t, p, "3학년 1학기 전 과목 평균 1.2등급")
	assert.Contains(t, p, "수학 동아리 부장으로 활동")
}

func TestQuestionBatchPrompt_EmptyChunksStillProducesPrompt(t *testing.T) {
	p := questionBatchPrompt(dbpkg.Category독서, nil)

	assert.Contains(t, p, "독서")
	assert.Contains(t, p, "at most 5")
}
