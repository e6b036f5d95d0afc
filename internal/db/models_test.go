package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONB_ValueScanRoundTrip(t *testing.T) {
	j := JSONB{"thread_id": "t1", "remaining_time_s": float64(900)}

	v, err := j.Value()
	require.NoError(t, err)

	var out JSONB
	require.NoError(t, out.Scan(v))

	assert.Equal(t, "t1", out["thread_id"])
	assert.Equal(t, float64(900), out["remaining_time_s"])
}

func TestJSONB_ValueNil(t *testing.T) {
	var j JSONB
	v, err := j.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestJSONB_ScanNil(t *testing.T) {
	j := JSONB{"a": 1}
	require.NoError(t, j.Scan(nil))
	assert.Nil(t, j)
}

func TestJSONB_ScanRejectsNonBytes(t *testing.T) {
	var j JSONB
	err := j.Scan(42)
	assert.Error(t, err)
}
