// Package logging provides logging utilities including sensitive data filtering.
// Captured run records embed the upstream tool's full stdout, which can echo
// API keys or other credentials from the generation environment. Everything
// routed to the log file sink passes through the filters here so those values
// never land on disk.
package logging

import (
	"io"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// RedactedValue is the replacement string for sensitive data.
const RedactedValue = "[REDACTED]"

// previewEllipsis terminates truncated raw-output previews.
const previewEllipsis = "..."

// sensitivePatterns contains compiled regular expressions for detecting sensitive values.
// These cover the credential formats of the provider CLIs whose output the
// engine captures, plus common generic key/secret assignments.
var sensitivePatterns = []*regexp.Regexp{ //nolint:gochecknoglobals // Package-level patterns for reuse
	// Anthropic API keys (sk-ant-api...)
	regexp.MustCompile(`sk-ant-api[a-zA-Z0-9_-]+`),

	// OpenAI API keys (sk-...)
	regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`),

	// Google API keys (AIza...), as used by the Gemini CLI
	regexp.MustCompile(`AIza[a-zA-Z0-9_-]{30,}`),

	// GitHub tokens (ghp_, gho_, ghu_, ghs_, ghr_)
	regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{20,}`),

	// Generic API keys (any string with api_key, apikey, api-key followed by value)
	regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*["']?([a-zA-Z0-9_-]{16,})["']?`),

	// Bearer tokens
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9_-]{20,}`),

	// Authorization headers with tokens
	regexp.MustCompile(`(?i)authorization\s*[:=]\s*["']?[a-zA-Z0-9_-]{20,}["']?`),

	// Generic secret patterns (secret, password, credential, token with values)
	regexp.MustCompile(`(?i)(secret|password|credential|passwd|pwd)\s*[:=]\s*["']?[^\s"']{8,}["']?`),

	// SSH private keys (starts with -----)
	regexp.MustCompile(`(?i)-----BEGIN[A-Z\s]+PRIVATE KEY-----`),

	// Base64-encoded secrets that look like tokens (long alphanumeric strings)
	regexp.MustCompile(`(?i)(token|auth)\s*[:=]\s*["']?[a-zA-Z0-9+/=]{32,}["']?`),
}

// sensitiveFieldNames contains field names that should always have their values redacted.
// Case-insensitive matching is performed, exact or at a separator boundary.
var sensitiveFieldNames = []string{ //nolint:gochecknoglobals // Package-level patterns for reuse
	"api_key",
	"apikey",
	"api-key",
	"auth_token",
	"authtoken",
	"auth-token",
	"password",
	"passwd",
	"secret",
	"credential",
	"credentials",
	"private_key",
	"privatekey",
	"private-key",
	"access_token",
	"accesstoken",
	"access-token",
	"refresh_token",
	"refreshtoken",
	"refresh-token",
	"bearer",
	"authorization",
	"anthropic_api_key",
	"gemini_api_key",
	"google_api_key",
	"github_token",
	"openai_api_key",
}

// sensitiveFieldSet provides O(1) exact-match lookup for sensitiveFieldNames.
var sensitiveFieldSet = func() map[string]struct{} { //nolint:gochecknoglobals // Derived lookup table
	set := make(map[string]struct{}, len(sensitiveFieldNames))
	for _, name := range sensitiveFieldNames {
		set[name] = struct{}{}
	}
	return set
}()

// fieldSeparators are the word separators recognized in field names.
var fieldSeparators = []string{"_", "-"} //nolint:gochecknoglobals // Package-level constant set

// SensitiveDataHook is a zerolog hook that flags log entries carrying
// sensitive data. Zerolog hooks cannot rewrite the message or fields, so the
// hook only marks the entry; actual redaction happens in FilteringWriter on
// the file sink and via FilterSensitiveValue at call sites.
type SensitiveDataHook struct{}

// NewSensitiveDataHook creates a new SensitiveDataHook.
func NewSensitiveDataHook() *SensitiveDataHook {
	return &SensitiveDataHook{}
}

// Run implements the zerolog.Hook interface.
func (h *SensitiveDataHook) Run(e *zerolog.Event, _ zerolog.Level, msg string) {
	if ContainsSensitiveData(msg) {
		e.Bool("contains_filtered_data", true)
	}
}

// ContainsSensitiveData checks if a string contains any sensitive data patterns.
func ContainsSensitiveData(s string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// FilterSensitiveValue replaces any matches of sensitive patterns in the
// value with [REDACTED]. Use it when logging raw capture content or other
// values of unknown provenance.
func FilterSensitiveValue(value string) string {
	result := value
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, RedactedValue)
	}
	return result
}

// IsSensitiveFieldName checks if a field name indicates sensitive data.
// A name matches when it equals a known sensitive name or contains one at a
// separator boundary, so "db_password" matches while "secretariat" does not.
func IsSensitiveFieldName(fieldName string) bool {
	lowerName := strings.ToLower(fieldName)
	if _, ok := sensitiveFieldSet[lowerName]; ok {
		return true
	}
	for _, sensitive := range sensitiveFieldNames {
		if matchesSensitivePattern(lowerName, sensitive) {
			return true
		}
	}
	return false
}

// matchesSensitivePattern reports whether name equals the sensitive word or
// contains it delimited by a separator.
func matchesSensitivePattern(name, sensitive string) bool {
	if name == "" || sensitive == "" {
		return false
	}
	if name == sensitive {
		return true
	}
	return containsWordBoundary(name, sensitive, fieldSeparators)
}

// containsWordBoundary reports whether word occurs in name bounded by one of
// the separators on at least one side (prefix, suffix, or infix position).
func containsWordBoundary(name, word string, seps []string) bool {
	if name == "" || word == "" {
		return false
	}
	for _, sep := range seps {
		if strings.HasPrefix(name, word+sep) || strings.HasSuffix(name, sep+word) {
			return true
		}
		for _, sep2 := range seps {
			if strings.Contains(name, sep+word+sep2) {
				return true
			}
		}
	}
	return false
}

// RedactIfSensitive returns [REDACTED] when the field name itself indicates
// sensitive data, otherwise the pattern-filtered value.
func RedactIfSensitive(fieldName, value string) string {
	if IsSensitiveFieldName(fieldName) {
		return RedactedValue
	}
	return FilterSensitiveValue(value)
}

// Preview returns a single-line, filtered prefix of a raw capture blob,
// suitable for debug logs. Newlines collapse to spaces and the result is
// truncated to max runes with a trailing ellipsis.
//
// Usage:
//
//	log.Debug().Str("raw_output", logging.Preview(rec.RawOutput, 120)).Msg("extracting artifact")
func Preview(s string, max int) string {
	filtered := FilterSensitiveValue(s)
	flat := strings.Join(strings.Fields(filtered), " ")
	if max <= 0 || len([]rune(flat)) <= max {
		return flat
	}
	runes := []rune(flat)
	return string(runes[:max]) + previewEllipsis
}

// FilteringWriter wraps an io.Writer and filters sensitive data from output.
// The file sink is wrapped in one of these so redaction holds even for
// values logged without call-site filtering.
type FilteringWriter struct {
	w io.Writer
}

// NewFilteringWriter creates a new FilteringWriter that wraps the given writer.
func NewFilteringWriter(w io.Writer) *FilteringWriter {
	return &FilteringWriter{w: w}
}

// Write implements io.Writer, filtering sensitive data before writing.
// It reports the original length so callers do not observe a short write
// when redaction changes the byte count.
func (fw *FilteringWriter) Write(p []byte) (n int, err error) {
	filtered := FilterSensitiveValue(string(p))
	if _, err = fw.w.Write([]byte(filtered)); err != nil {
		return 0, err
	}
	return len(p), nil
}
