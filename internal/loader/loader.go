// Package loader reads the bulk lock-record format: a JSON array of
// 3-element records [resourceId, start, end]. It owns the structural
// concerns (file access, deserialization, element shape); range and
// identifier validation stay with the registry.
package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
)

// Record is one well-shaped triple. Its values may still fail registry
// validation (blank id after trimming, start >= end).
type Record struct {
	ResourceID string
	Start      int64
	End        int64
}

// ParseRecords decodes records from r. A source that is not a JSON
// array is a structural failure: the error is returned and zero
// records are produced. Elements of the wrong shape (length != 3,
// non-string id, non-numeric or fractional bounds) are skipped and
// counted; parsing continues with the rest, in order.
func ParseRecords(r io.Reader) ([]Record, int, error) {
	var raw []json.RawMessage
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, 0, fmt.Errorf("decode records: %w", err)
	}

	records := make([]Record, 0, len(raw))
	skipped := 0
	for _, el := range raw {
		rec, ok := parseElement(el)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

func parseElement(el json.RawMessage) (Record, bool) {
	var fields []json.RawMessage
	if err := json.Unmarshal(el, &fields); err != nil {
		return Record{}, false
	}
	if len(fields) != 3 {
		return Record{}, false
	}

	var id string
	if err := json.Unmarshal(fields[0], &id); err != nil || id == "" {
		return Record{}, false
	}
	start, ok := parseTick(fields[1])
	if !ok {
		return Record{}, false
	}
	end, ok := parseTick(fields[2])
	if !ok {
		return Record{}, false
	}
	return Record{ResourceID: id, Start: start, End: end}, true
}

// parseTick accepts integral JSON numbers only. Fractional values are
// a type violation, not something to round.
func parseTick(raw json.RawMessage) (int64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	if f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

// ReadFile loads records from path. A missing or unreadable file is a
// structural failure like any other: error out with zero records and
// let the caller decide what to log.
func ReadFile(path string) ([]Record, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open records: %w", err)
	}
	defer f.Close()
	return ParseRecords(f)
}
