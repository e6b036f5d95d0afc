package registry

import (
	"encoding/json"

	dbpkg "github.com/smeasylife/highlog-ai/internal/db"
	"github.com/smeasylife/highlog-ai/internal/interview"
)

// decodeState round-trips a db.JSONB checkpoint payload into a typed
// InterviewState; JSONB is stored as map[string]interface{} so this goes
// through a JSON re-encode rather than a direct type assertion.
func decodeState(raw dbpkg.JSONB, out *interview.State) error {
	buf, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, out)
}

// EncodeState converts a typed InterviewState into the JSONB shape
// internal/db.CommitCheckpoint expects.
func EncodeState(s *interview.State) (dbpkg.JSONB, error) {
	buf, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var m dbpkg.JSONB
	if err := json.Unmarshal(buf, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// DecodeState is the exported form of decodeState, used by activities
// that need to restore state from a Checkpoint outside this package.
func DecodeState(raw dbpkg.JSONB) (*interview.State, error) {
	var s interview.State
	if err := decodeState(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
