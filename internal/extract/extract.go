// Package extract unwraps captured run output from its wrapper envelope.
//
// Raw output arrives in one of three envelope families, depending on which
// CLI tool captured the run:
//
//   - a single Claude CLI JSON object whose result field holds the
//     assistant text,
//   - an opencode JSONL event stream whose text events hold the assistant
//     text line by line,
//   - a Gemini CLI JSON object, possibly preceded by startup noise, whose
//     response field holds the assistant text.
//
// Unwrap detects the family and returns the assistant-visible text together
// with any denied write-tool contents, which serve as a recovery source when
// the text itself carries no artifact. Locating the artifact inside the
// unwrapped text (fence scans, plain-text heuristics) is domain-specific and
// lives with each rubric.
package extract

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/mrz1836/verdict/internal/constants"
	"github.com/mrz1836/verdict/internal/domain"
)

// Denial is one denied tool invocation recorded in a Claude CLI envelope.
// When the generating model tried to write the artifact to disk instead of
// printing it, the denial's content is often the only copy of the artifact.
type Denial struct {
	// ToolName is the tool the model invoked, e.g. "Write".
	ToolName string `json:"tool_name"`

	// Content is the content argument of the denied invocation. Empty when
	// the invocation carried none or it was not a string.
	Content string `json:"content"`
}

// Envelope is the unwrapped form of one raw output blob.
type Envelope struct {
	// Text is the assistant-visible output recovered from the envelope, or
	// the raw blob itself when no envelope matched.
	Text string `json:"text"`

	// Method tags the envelope family that produced Text.
	Method string `json:"method"`

	// Denials lists the envelope's denied tool invocations in capture order.
	// Only Claude CLI envelopes carry them; opencode write attempts are
	// recovered separately from the event stream.
	Denials []Denial `json:"denials,omitempty"`

	raw string
}

// Unwrap detects the envelope family of a raw output blob and recovers the
// assistant text. The fallback order matches the capture tooling: event
// stream detection first, then the single-object CLI families, then the blob
// itself as plain text.
func Unwrap(raw string) Envelope {
	env := Envelope{Text: raw, Method: domain.MethodPlainText, raw: raw}

	if text, ok := EventStream(raw); ok {
		env.Text = text
		env.Method = domain.MethodEventStream
	}

	if cli := parseCLIJSON(raw); cli != nil {
		env.Denials = cli.denials
		switch {
		case cli.hasResult:
			env.Text = cli.result
			env.Method = domain.MethodCLIJSON
		case cli.hasResponse:
			env.Text = cli.response
			env.Method = domain.MethodCLIJSON
		}
		return env
	}

	// Gemini writes startup noise such as "Loaded cached credentials."
	// before its JSON object, so the whole blob does not parse.
	if text, ok := trailingResponse(raw); ok {
		env.Text = text
		env.Method = domain.MethodCLIJSON
	}
	return env
}

// DenialContent returns the longest denied write content in the envelope.
// Claude Write denials are preferred; opencode tool_use write events are
// consulted only when no Claude denial qualified. Contents at or below the
// minimum length are discarded as fragments.
func (e Envelope) DenialContent() (string, bool) {
	var candidates []string
	for _, d := range e.Denials {
		if d.ToolName != "Write" {
			continue
		}
		if utf8.RuneCountInString(d.Content) > constants.MinContentLength {
			candidates = append(candidates, d.Content)
		}
	}
	if len(candidates) == 0 {
		candidates = streamWriteDenials(e.raw)
	}
	if len(candidates) == 0 {
		return "", false
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if utf8.RuneCountInString(c) > utf8.RuneCountInString(best) {
			best = c
		}
	}
	return best, true
}

// Raw returns the original blob the envelope was unwrapped from.
func (e Envelope) Raw() string { return e.raw }

// cliEnvelope holds the fields of a single-object CLI JSON envelope. Field
// presence is tracked separately from value because Claude and Gemini
// envelopes are distinguished by which field exists, not by its content.
type cliEnvelope struct {
	hasResult   bool
	result      string
	hasResponse bool
	response    string
	denials     []Denial
}

// parseCLIJSON parses a blob that is a single JSON object. It returns nil
// when the blob is not one, which includes event streams and plain text.
func parseCLIJSON(raw string) *cliEnvelope {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil
	}

	env := &cliEnvelope{}
	if r, ok := fields["result"]; ok {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			env.hasResult = true
			env.result = s
		}
	}
	if r, ok := fields["response"]; ok {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			env.hasResponse = true
			env.response = s
		}
	}
	env.denials = parseDenials(fields["permission_denials"])
	return env
}

// parseDenials decodes the permission_denials list of a Claude envelope.
// Entries that are not objects are skipped; entries whose content is missing
// or not a string are kept with empty content so callers see capture order.
func parseDenials(raw json.RawMessage) []Denial {
	if raw == nil {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	var denials []Denial
	for _, item := range items {
		var entry struct {
			ToolName  string `json:"tool_name"`
			ToolInput struct {
				Content json.RawMessage `json:"content"`
			} `json:"tool_input"`
		}
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		d := Denial{ToolName: entry.ToolName}
		if entry.ToolInput.Content != nil {
			var s string
			if err := json.Unmarshal(entry.ToolInput.Content, &s); err == nil {
				d.Content = s
			}
		}
		denials = append(denials, d)
	}
	return denials
}

// trailingResponse recovers a Gemini envelope preceded by non-JSON noise.
// The blob from the first brace must parse as an object carrying a string
// response field.
func trailingResponse(raw string) (string, bool) {
	idx := strings.Index(raw, "{")
	if idx < 0 {
		return "", false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw[idx:]), &fields); err != nil {
		return "", false
	}
	r, ok := fields["response"]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(r, &s); err != nil {
		return "", false
	}
	return s, true
}
