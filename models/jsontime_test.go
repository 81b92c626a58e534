package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{"rfc3339 utc", "2025-05-16T15:32:25Z", time.Date(2025, 5, 16, 15, 32, 25, 0, time.UTC), false},
		{"rfc3339 nano", "2025-05-16T15:32:25.5Z", time.Date(2025, 5, 16, 15, 32, 25, 500000000, time.UTC), false},
		{"microseconds without zone", "2025-05-16T15:32:25.181226", time.Date(2025, 5, 16, 15, 32, 25, 181226000, time.UTC), false},
		{"milliseconds without zone", "2025-05-16T15:32:25.000", time.Date(2025, 5, 16, 15, 32, 25, 0, time.UTC), false},
		{"no fraction", "2025-05-16T15:32:25", time.Date(2025, 5, 16, 15, 32, 25, 0, time.UTC), false},
		{"date only", "2025-05-16", time.Date(2025, 5, 16, 0, 0, 0, 0, time.UTC), false},
		{"surrounding whitespace", " 2025-05-16 ", time.Date(2025, 5, 16, 0, 0, 0, 0, time.UTC), false},
		{"garbage", "yesterday", time.Time{}, true},
		{"empty", "", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimestamp(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.expected) {
				t.Errorf("ParseTimestamp(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestJSONTime(t *testing.T) {
	var payload struct {
		At JSONTime `json:"at"`
	}
	if err := json.Unmarshal([]byte(`{"at":"2025-05-16T15:32:25.181226"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"at":"2025-05-16T15:32:25Z"}` {
		t.Errorf("unexpected JSON %s", out)
	}

	if err := json.Unmarshal([]byte(`{"at":12}`), &payload); err == nil {
		t.Error("expected error for non-string timestamp")
	}
}
