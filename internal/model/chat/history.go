package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidHistory marks documents that cannot be imported.
var ErrInvalidHistory = errors.New("invalid history document")

// History is the ordered record of turns for one session. It only grows,
// except for Reset which brings it back to a single seed turn.
//
// History is not safe for concurrent use; the owning session registry
// serialises access.
type History struct {
	turns []Turn
}

// NewHistory returns a history holding the supplied turns in order.
func NewHistory(turns ...Turn) *History {
	h := &History{turns: make([]Turn, 0, len(turns)+16)}
	h.turns = append(h.turns, turns...)
	return h
}

// Append adds a turn at the end of the conversation.
func (h *History) Append(turn Turn) {
	h.turns = append(h.turns, turn)
}

// Len reports the number of turns.
func (h *History) Len() int {
	return len(h.turns)
}

// Turns returns a copy of every turn, oldest first.
func (h *History) Turns() []Turn {
	copied := make([]Turn, len(h.turns))
	copy(copied, h.turns)
	return copied
}

// Reset discards all turns and keeps only seed.
func (h *History) Reset(seed Turn) {
	h.turns = append(h.turns[:0:0], seed)
}

// Replace swaps the whole conversation, used when importing an export.
func (h *History) Replace(turns []Turn) {
	h.turns = append(make([]Turn, 0, len(turns)+16), turns...)
}

// MarshalJSON encodes the history as a plain array of turns.
func (h *History) MarshalJSON() ([]byte, error) {
	if h == nil || h.turns == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h.turns)
}

// UnmarshalJSON decodes a plain array of turns.
func (h *History) UnmarshalJSON(data []byte) error {
	turns, err := DecodeTurns(data)
	if err != nil {
		return err
	}
	h.turns = turns
	return nil
}

// EncodeTurns renders turns as the downloadable export document: an
// indented JSON array of {role, content} objects.
func EncodeTurns(turns []Turn) ([]byte, error) {
	if turns == nil {
		turns = []Turn{}
	}
	return json.MarshalIndent(turns, "", "    ")
}

// DecodeTurns parses an export document and validates every role.
func DecodeTurns(data []byte) ([]Turn, error) {
	var turns []Turn
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&turns); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHistory, err)
	}
	for i, turn := range turns {
		if err := turn.Validate(); err != nil {
			return nil, fmt.Errorf("%w: turn %d: %w", ErrInvalidHistory, i, err)
		}
	}
	return turns, nil
}
