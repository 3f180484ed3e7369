// Package security provides secret redaction for log output. Plugin options
// marked secret (API keys, bot tokens) must never reach log files verbatim.
package security

import (
	"strings"
	"sync"

	"github.com/wasilibs/go-re2"
)

const redactedPlaceholder = "[REDACTED]"

// Well-known credential shapes redacted regardless of configuration.
var secretPatterns = []*re2.Regexp{
	// OpenAI-style API keys
	re2.MustCompile(`sk-[A-Za-z0-9_-]{20,}`),
	// Telegram bot tokens: <digits>:<35 chars>
	re2.MustCompile(`\d{3,15}:[A-Za-z0-9_-]{30,50}`),
	// Bearer headers
	re2.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/-]{16,}=*`),
}

// Redactor removes known secret values and credential-shaped strings
// from text before it is logged.
type Redactor struct {
	mu     sync.RWMutex
	values []string
}

// NewRedactor creates a redactor seeded with the given secret values.
// Empty and very short values are ignored to avoid mangling ordinary text.
func NewRedactor(values ...string) *Redactor {
	r := &Redactor{}
	r.Add(values...)
	return r
}

// Add registers additional secret values to redact.
func (r *Redactor) Add(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range values {
		if len(v) >= 8 {
			r.values = append(r.values, v)
		}
	}
}

// Redact returns text with all registered secret values and
// credential-shaped substrings replaced by a placeholder.
func (r *Redactor) Redact(text string) string {
	if text == "" {
		return text
	}

	r.mu.RLock()
	for _, v := range r.values {
		text = strings.ReplaceAll(text, v, redactedPlaceholder)
	}
	r.mu.RUnlock()

	for _, p := range secretPatterns {
		text = p.ReplaceAllString(text, redactedPlaceholder)
	}

	return text
}
