// Package forms validates user input before it is sent to the service and
// builds the request payloads. Field errors use the same keys as the
// service's validation problem details so both can be shown in one place.
package forms

import (
	"sort"
	"strings"
)

// FieldErrors maps a field key ("FirstName", "Address.ZipCode") to messages.
type FieldErrors map[string][]string

// Add appends msg to key.
func (fe FieldErrors) Add(key, msg string) {
	fe[key] = append(fe[key], msg)
}

// Has reports whether key has at least one message.
func (fe FieldErrors) Has(key string) bool {
	return len(fe[key]) > 0
}

// First returns the first message for key, or "".
func (fe FieldErrors) First(key string) string {
	if msgs := fe[key]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Clear removes key, used when the user edits that field.
func (fe FieldErrors) Clear(key string) {
	delete(fe, key)
}

// Keys returns the keys that carry messages, sorted.
func (fe FieldErrors) Keys() []string {
	keys := make([]string, 0, len(fe))
	for k, v := range fe {
		if len(v) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Error implements error so validation failures can travel as one value.
func (fe FieldErrors) Error() string {
	var parts []string
	for _, k := range fe.Keys() {
		parts = append(parts, k+": "+strings.Join(fe[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// MergeErrors combines local and server errors. Server messages replace
// local ones for the same key. Neither input is modified.
func MergeErrors(local, server map[string][]string) FieldErrors {
	out := FieldErrors{}
	for k, v := range local {
		if len(v) > 0 {
			out[k] = append([]string(nil), v...)
		}
	}
	for k, v := range server {
		if len(v) > 0 {
			out[k] = append([]string(nil), v...)
		}
	}
	return out
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
