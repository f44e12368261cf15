package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
)

const redacted = "[REDACTED]"

// Redactor masks values whose key contains one of its markers. Matching is
// case-insensitive and ignores underscores, so "bank_account" and
// "bankAccount" are the same key.
type Redactor struct {
	markers []string
}

func NewRedactor(markers ...string) *Redactor {
	r := &Redactor{}
	for _, m := range markers {
		r.markers = append(r.markers, normalizeKey(m))
	}
	return r
}

// DefaultRedactor covers credentials and the private parts of a person record.
func DefaultRedactor() *Redactor {
	return NewRedactor(
		"password", "token", "authorization", "secret", "apikey", "cookie", "session",
		"salary", "bankaccount", "nationalid", "insurancenumber",
	)
}

func normalizeKey(k string) string {
	return strings.ReplaceAll(strings.ToLower(k), "_", "")
}

func (r *Redactor) Sensitive(key string) bool {
	k := normalizeKey(key)
	for _, m := range r.markers {
		if strings.Contains(k, m) {
			return true
		}
	}
	return false
}

func (r *Redactor) Headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		if r.Sensitive(name) {
			out[name] = redacted
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// Body returns a JSON body with sensitive keys masked at any depth. A body
// that is not JSON is dropped entirely when it mentions a marker.
func (r *Redactor) Body(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		lower := normalizeKey(string(body))
		for _, m := range r.markers {
			if strings.Contains(lower, m) {
				return redacted
			}
		}
		return string(body)
	}
	out, err := json.Marshal(r.walk(doc))
	if err != nil {
		return redacted
	}
	return string(out)
}

func (r *Redactor) walk(v any) any {
	switch node := v.(type) {
	case map[string]any:
		for k, child := range node {
			if r.Sensitive(k) {
				node[k] = redacted
			} else {
				node[k] = r.walk(child)
			}
		}
		return node
	case []any:
		for i, child := range node {
			node[i] = r.walk(child)
		}
		return node
	default:
		return v
	}
}
