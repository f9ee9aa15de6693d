package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/modelkeeper/internal/common"
)

// Model is a named computation instance owned by exactly one Account.
// Algorithm is a key into the algorithm registry; Inputs and Weights are
// stored independently and default to empty.
//
// Inputs and Weights hold the stored JSON as-is. Rows written outside this
// service may contain anything, so decoding happens only when the vectors are
// needed, via Parameters.
type Model struct {
	ID        int64           `json:"id"`
	OwnerID   int64           `json:"owner_id"`
	Algorithm string          `json:"algorithm"`
	Inputs    json.RawMessage `json:"inputs"`
	Weights   json.RawMessage `json:"weights"`
}

// OwnedBy reports whether accountID owns the model.
func (m *Model) OwnedBy(accountID int64) bool {
	return m.OwnerID == accountID
}

// Parameters decodes Inputs and Weights. Anything other than an array of
// finite numbers yields common.ErrorInvalidModelParameters.
func (m *Model) Parameters() (inputs, weights []float64, err error) {
	if inputs, err = DecodeVector(m.Inputs); err != nil {
		return nil, nil, fmt.Errorf("inputs of model %d: %w", m.ID, err)
	}
	if weights, err = DecodeVector(m.Weights); err != nil {
		return nil, nil, fmt.Errorf("weights of model %d: %w", m.ID, err)
	}
	return inputs, weights, nil
}

var emptyVector = json.RawMessage(`[]`)

// EncodeVector renders v in stored form. Nil becomes [].
func EncodeVector(v []float64) (json.RawMessage, error) {
	if v == nil {
		v = []float64{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode vector: %w", err)
	}
	return b, nil
}

// NormalizeVector maps empty or null stored values to [].
func NormalizeVector(raw []byte) json.RawMessage {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 || bytes.Equal(t, []byte("null")) {
		return append(json.RawMessage(nil), emptyVector...)
	}
	return append(json.RawMessage(nil), raw...)
}

// DecodeVector parses a stored vector. Empty and null decode to an empty slice.
func DecodeVector(raw json.RawMessage) ([]float64, error) {
	v := make([]float64, 0)
	t := bytes.TrimSpace(raw)
	if len(t) == 0 || bytes.Equal(t, []byte("null")) {
		return v, nil
	}
	if err := json.Unmarshal(t, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInvalidModelParameters, err)
	}
	if v == nil {
		v = make([]float64, 0)
	}
	return v, nil
}
