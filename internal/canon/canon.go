// Package canon implements deterministic canonicalization and checksumming
// of schema values (spec C1): ordered sequences preserve order, mappings
// are rewritten with lexicographically sorted keys, and the result is
// serialized as compact, whitespace-free JSON before SHA-256 hashing.
package canon

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ridoystarlord/sqlbuns/internal/sqlbunserr"
)

// Canonicalize recursively normalizes v: scalars pass through, slices
// preserve order recursing on elements, and maps are rebuilt as
// map[string]any with canonicalized values (encoding/json serializes
// map[string]any in sorted key order — see Serialize).
func Canonicalize(v any) (any, error) {
	switch t := v.(type) {
	case nil, bool, string, int, int32, int64, float32, float64:
		return t, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			cv, err := Canonicalize(val)
			if err != nil {
				return nil, err
			}
			out[k] = cv
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			cv, err := Canonicalize(val)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	case []string:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: value of type %T is not canonicalizable", sqlbunserr.ErrInvalidSchema, v)
	}
}

// Serialize renders a canonicalized value as compact JSON with map keys
// sorted lexicographically. encoding/json already sorts map[string]any
// keys during marshaling, which is exactly the guarantee spec C1 needs;
// no third-party canonical-JSON library in this corpus supersedes it
// (see DESIGN.md).
func Serialize(v any) ([]byte, error) {
	canonical, err := Canonicalize(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(canonical); err != nil {
		return nil, fmt.Errorf("%w: %v", sqlbunserr.ErrInvalidSchema, err)
	}
	// json.Encoder.Encode appends a trailing newline; strip it so the
	// serialization is exactly the compact form with no insignificant
	// whitespace.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Checksum returns the lowercase hex SHA-256 of Serialize(v).
func Checksum(v any) (string, error) {
	data, err := Serialize(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum), nil
}

// SortedKeys is a small helper for callers that need a deterministic
// key order themselves (e.g. printing a diff diagnostic).
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
