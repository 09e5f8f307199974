package roster

import (
	"fmt"
	"strconv"
)

// Serialization helpers for converting between Entry and Redis hashes
//
// Redis stores each entry as a string-to-string hash. Every field is stored
// so that a hash can be decoded without consulting the position index.

// EntryToHash converts an Entry to a Redis hash format.
func EntryToHash(e *Entry) map[string]interface{} {
	return map[string]interface{}{
		"position": e.Position,
		"name":     e.Name,
		"status":   string(e.Status),
	}
}

// HashToEntry converts a Redis hash to an Entry.
// A hash without a parseable position, or whose decoded entry fails
// Validate, is malformed.
func HashToEntry(hash map[string]string) (*Entry, error) {
	raw, ok := hash["position"]
	if !ok {
		return nil, fmt.Errorf("missing position field")
	}

	position, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid position field: %w", err)
	}

	status, ok := hash["status"]
	if !ok {
		return nil, fmt.Errorf("missing status field")
	}

	entry := &Entry{
		Position: position,
		Name:     hash["name"],
		Status:   Status(status),
	}
	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stored entry: %w", err)
	}
	return entry, nil
}
