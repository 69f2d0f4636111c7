package signal

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Op is a signal mutation.
type Op string

// Supported operations.
const (
	OpSet   Op = "set"
	OpMerge Op = "merge"
	OpClear Op = "clear"
)

// ParseOp validates s as an Op.
func ParseOp(s string) (Op, error) {
	switch op := Op(strings.ToLower(strings.TrimSpace(s))); op {
	case OpSet, OpMerge, OpClear:
		return op, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOp, s)
}

// Message is the wire form of one operation.
type Message struct {
	Name   string `json:"name"`
	Op     Op     `json:"op"`
	Value  any    `json:"value,omitempty"`
	Origin string `json:"origin,omitempty"`
}

// DecodeMessage parses a wire message.
func DecodeMessage(data []byte) (Message, error) {
	var msg Message
	err := json.Unmarshal(data, &msg)
	return msg, err
}

// applyOp computes the next value of a signal.
func applyOp(current any, op Op, value any) any {
	switch op {
	case OpMerge:
		next := map[string]any{}
		if cur, ok := current.(map[string]any); ok {
			for k, v := range cur {
				next[k] = v
			}
		}
		if in, ok := value.(map[string]any); ok {
			for k, v := range in {
				next[k] = v
			}
		}
		return next
	case OpClear:
		return map[string]any{}
	}
	return value
}
