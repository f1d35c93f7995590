package wnm

import (
	"encoding/json"
	"fmt"
	"time"
)

// Time is an RFC 3339 timestamp that the standard additionally requires to be
// in UTC. A timestamp without a zone is assumed to be UTC; a timestamp in any
// other zone is rejected rather than silently converted.
type Time struct {
	time.Time
}

// Accepted layouts: full RFC 3339, and the zone-less variant that implies UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func ParseTime(s string) (Time, error) {
	var t time.Time
	var err error
	for _, layout := range timeLayouts {
		t, err = time.Parse(layout, s)
		if err == nil {
			break
		}
	}
	if err != nil {
		return Time{}, fmt.Errorf("invalid RFC 3339 timestamp %q", s)
	}

	if _, offset := t.Zone(); offset != 0 {
		return Time{}, fmt.Errorf("timestamp %q is not in UTC", s)
	}

	return Time{Time: t.UTC()}, nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string")
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
