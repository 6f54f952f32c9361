package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// timestampLayouts lists the formats the service has been seen to emit.
// Values without an offset are treated as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Timestamp is a time.Time that tolerates the offset-less timestamps the
// service returns for createdOn fields.
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses raw using the known layouts.
func ParseTimestamp(raw string) (Timestamp, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Timestamp{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Timestamp{Time: t}, true
		}
	}
	return Timestamp{}, false
}

// UnmarshalJSON accepts null, an empty string, or any known layout.
// Unknown layouts decode to the zero time rather than failing the whole list.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, _ := ParseTimestamp(raw)
	*t = parsed
	return nil
}

// MarshalJSON writes RFC 3339, or null for the zero time.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// FormatDate renders the date part as DD.MM.YYYY, or "" when the timestamp is unset.
func (t Timestamp) FormatDate() string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02.01.2006")
}

// FormatDate parses raw and renders it as DD.MM.YYYY. Unparseable input yields "".
func FormatDate(raw string) string {
	ts, ok := ParseTimestamp(raw)
	if !ok {
		return ""
	}
	return ts.FormatDate()
}
