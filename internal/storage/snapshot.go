package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cory-johannsen/probsim/internal/distribution"
	"github.com/cory-johannsen/probsim/internal/trial"
)

// record is the persisted shape of one trial. Pointer fields let Decode tell
// a missing field from a zero value.
type record struct {
	Type      *string `json:"type"`
	Result    *string `json:"result"`
	Timestamp *int64  `json:"timestamp"`
}

// Encode serializes trials, newest first, as a JSON array of
// {type, result, timestamp} objects. Equal inputs give byte-identical output.
//
// Postcondition: Decode accepts every document Encode returns. Trials Decode
// would reject yield an error wrapping ErrCorruptSnapshot and no data.
func Encode(trials []trial.Trial) ([]byte, error) {
	for i, tr := range trials {
		if err := validate(i, tr.Type, tr.Result); err != nil {
			return nil, err
		}
	}
	out := make([]trial.Trial, 0, len(trials))
	out = append(out, trials...)
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot produced by Encode.
//
// Postcondition: Returns the trials in stored order, or an error wrapping
// ErrCorruptSnapshot when the data is not a JSON array of complete, in-domain records.
func Decode(data []byte) ([]trial.Trial, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrCorruptSnapshot)
	}
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	trials := make([]trial.Trial, 0, len(recs))
	for i, r := range recs {
		if r.Type == nil || r.Result == nil || r.Timestamp == nil {
			return nil, fmt.Errorf("%w: record %d is missing a field", ErrCorruptSnapshot, i)
		}
		t := distribution.Type(*r.Type)
		if err := validate(i, t, *r.Result); err != nil {
			return nil, err
		}
		trials = append(trials, trial.Trial{Type: t, Result: *r.Result, Timestamp: *r.Timestamp})
	}
	return trials, nil
}

func validate(i int, t distribution.Type, result string) error {
	if !t.Valid() {
		return fmt.Errorf("%w: record %d has unknown type %q", ErrCorruptSnapshot, i, string(t))
	}
	if !distribution.Contains(t, result) {
		return fmt.Errorf("%w: record %d has %s result %q", ErrCorruptSnapshot, i, t, result)
	}
	return nil
}
