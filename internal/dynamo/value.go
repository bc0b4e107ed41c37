// Package dynamo unmarshals DynamoDB-export tagged values into native Go
// values. Every attribute in a snapshot line is a single-key object mapping a
// type tag (S, N, B, BOOL, NULL, M, L, SS, NS, BS) to its payload.
package dynamo

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/starford/othala/internal/apperr"
)

// Unmarshal converts one tagged value into a native value:
//
//	S → string, BOOL → bool, NULL → nil, B → []byte,
//	N → int64 when integral, float64 otherwise,
//	M → map[string]any (recursive), L → []any (recursive),
//	SS → []string, NS → []any of numbers, BS → [][]byte.
//
// An unrecognized type tag is fatal: it signals an export format change the
// pipeline has not been taught, never something to skip.
func Unmarshal(raw json.RawMessage) (any, error) {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(raw, &tagged); err != nil {
		return nil, fmt.Errorf("dynamo: decode tagged value: %w", err)
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("dynamo: tagged value has %d type tags, want 1: %w", len(tagged), apperr.ErrEnvelope)
	}

	for tag, payload := range tagged {
		return unmarshalTagged(tag, payload)
	}
	return nil, nil // unreachable
}

func unmarshalTagged(tag string, payload json.RawMessage) (any, error) {
	switch tag {
	case "S":
		var s string
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, fmt.Errorf("dynamo: S payload: %w", err)
		}
		return s, nil

	case "N":
		var s string
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, fmt.Errorf("dynamo: N payload: %w", err)
		}
		return parseNumber(s)

	case "B":
		var s string
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, fmt.Errorf("dynamo: B payload: %w", err)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("dynamo: B base64: %w", err)
		}
		return b, nil

	case "BOOL":
		var b bool
		if err := json.Unmarshal(payload, &b); err != nil {
			return nil, fmt.Errorf("dynamo: BOOL payload: %w", err)
		}
		return b, nil

	case "NULL":
		return nil, nil

	case "M":
		var m map[string]json.RawMessage
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, fmt.Errorf("dynamo: M payload: %w", err)
		}
		out := make(map[string]any, len(m))
		for k, v := range m {
			val, err := Unmarshal(v)
			if err != nil {
				return nil, fmt.Errorf("dynamo: M[%s]: %w", k, err)
			}
			out[k] = val
		}
		return out, nil

	case "L":
		var l []json.RawMessage
		if err := json.Unmarshal(payload, &l); err != nil {
			return nil, fmt.Errorf("dynamo: L payload: %w", err)
		}
		out := make([]any, len(l))
		for i, v := range l {
			val, err := Unmarshal(v)
			if err != nil {
				return nil, fmt.Errorf("dynamo: L[%d]: %w", i, err)
			}
			out[i] = val
		}
		return out, nil

	case "SS":
		var ss []string
		if err := json.Unmarshal(payload, &ss); err != nil {
			return nil, fmt.Errorf("dynamo: SS payload: %w", err)
		}
		return ss, nil

	case "NS":
		var ns []string
		if err := json.Unmarshal(payload, &ns); err != nil {
			return nil, fmt.Errorf("dynamo: NS payload: %w", err)
		}
		out := make([]any, len(ns))
		for i, s := range ns {
			n, err := parseNumber(s)
			if err != nil {
				return nil, fmt.Errorf("dynamo: NS[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil

	case "BS":
		var bs []string
		if err := json.Unmarshal(payload, &bs); err != nil {
			return nil, fmt.Errorf("dynamo: BS payload: %w", err)
		}
		out := make([][]byte, len(bs))
		for i, s := range bs {
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, fmt.Errorf("dynamo: BS[%d] base64: %w", i, err)
			}
			out[i] = b
		}
		return out, nil

	default:
		return nil, fmt.Errorf("dynamo: tag %q: %w", tag, apperr.ErrUnknownTypeTag)
	}
}

// parseNumber coerces a numeric string to the narrowest type that
// round-trips: int64 when there is no fractional part, float64 otherwise.
func parseNumber(s string) (any, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("dynamo: parse number %q: %w", s, err)
	}
	return f, nil
}
