package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// timestampLayouts are tried in order by ParseTimestamp. Mobile clients
// send RFC3339, older builds drop the zone and keep milli or micro seconds.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp forms accepted by the API.
// Values without a zone are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp %q", s)
}

// JSONTime wraps time.Time so API payloads always carry full RFC3339.
type JSONTime time.Time

// UnmarshalJSON accepts any layout understood by ParseTimestamp.
func (jt *JSONTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("JSONTime.UnmarshalJSON: %w", err)
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return fmt.Errorf("JSONTime.UnmarshalJSON: %w", err)
	}
	*jt = JSONTime(t)
	return nil
}

// MarshalJSON always emits full RFC3339 ("…Z").
func (jt JSONTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(jt).UTC().Format(time.RFC3339))
}

// Time returns the wrapped time.
func (jt JSONTime) Time() time.Time {
	return time.Time(jt)
}
