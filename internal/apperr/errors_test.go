package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAs_ClassifiesWrappedError(t *testing.T) {
	err := fmt.Errorf("wrapping: %w", NotFound("record %s", "r1"))

	assert.Equal(t, KindNotFound, As(err))
}

func TestAs_UnknownForBareError(t *testing.T) {
	assert.Equal(t, KindUnknown, As(errors.New("boom")))
}

func TestIs_MatchesKind(t *testing.T) {
	err := Conflict("turn already in flight")

	assert.True(t, Is(err, KindConflict))
	assert.False(t, Is(err, KindPreconditionFailed))
}

func TestError_IncludesCauseWhenWrapped(t *testing.T) {
	cause := errors.New("connection refused")
	err := Storage(cause, "query chunks for %s", "r1")

	assert.ErrorContains(t, err, "connection refused")
	assert.ErrorContains(t, err, "query chunks for r1")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "PreconditionFailed", KindPreconditionFailed.String())
	assert.Equal(t, "Unknown", Kind(999).String())
}
