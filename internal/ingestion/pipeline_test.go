package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOCRBatchPrompt_IncludesRecordAndPageCount(t *testing.T) {
	p := ocrBatchPrompt("rec-7", 3)

	assert.Contains(t, p, "rec-7")
	assert.Contains(t, p, "3 scanned pages")
	assert.Contains(t, p, "성적, 세특, 창체, 행특, 출결, 독서, 수상, 진로, 기타")
}

func TestMax1_ClampsToOne(t *testing.T) {
	assert.Equal(t, 1, max1(0))
	assert.Equal(t, 1, max1(-5))
	assert.Equal(t, 4, max1(4))
}
