package repository

import "encoding/json"

// marshalStrings encodes a string slice for storage in a JSON column.  A
// nil slice is stored as an empty array so reads never yield SQL NULL.
func marshalStrings(v []string) ([]byte, error) {
	if v == nil {
		v = []string{}
	}
	return json.Marshal(v)
}

// unmarshalStrings decodes a JSON column into a string slice, tolerating
// NULL and malformed payloads by returning an empty slice.
func unmarshalStrings(raw []byte) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}
