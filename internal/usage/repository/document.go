package repository

import (
	"bytes"
	"encoding/json"
)

// CanonicalJSON re-encodes a JSON object with sorted keys so stored documents
// compare byte for byte regardless of how the database returned them.
func CanonicalJSON(raw []byte) ([]byte, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// MergeDocument overlays the top-level fields of next onto stored.
func MergeDocument(stored []byte, next map[string]any) ([]byte, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(stored)) > 0 {
		decoded, err := decodeObject(stored)
		if err != nil {
			return nil, err
		}
		fields = decoded
	}
	for key, value := range next {
		fields[key] = value
	}
	return json.Marshal(fields)
}

func decodeObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	fields := map[string]any{}
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}
