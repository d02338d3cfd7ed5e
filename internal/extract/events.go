package extract

import (
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mrz1836/verdict/internal/constants"
	"github.com/mrz1836/verdict/internal/domain"
)

// StreamEvent is one parsed line of an opencode JSONL event stream.
type StreamEvent struct {
	// Type discriminates the event payload: "text" carries assistant output,
	// "tool_use" carries tool invocations, "step_finish" carries token
	// accounting. Empty when the line's type field was not a string.
	Type string `json:"type"`

	// Part is the raw event payload, decoded on demand per event type.
	Part json.RawMessage `json:"part"`
}

// ParseEventLine parses one line of raw output as a stream event. It returns
// nil when the line is empty, not a JSON object, or lacks the joint type and
// sessionID keys that identify opencode streams.
func ParseEventLine(line string) *StreamEvent {
	evt, fields := parseAnyEvent(line)
	if evt == nil {
		return nil
	}
	if _, ok := fields["sessionID"]; !ok {
		return nil
	}
	if _, ok := fields["type"]; !ok {
		return nil
	}
	return evt
}

// parseAnyEvent parses a JSON object line into an event without requiring
// stream markers. The denial and usage walkers accept bare tool events that
// some capture runs emit without session identifiers.
func parseAnyEvent(line string) (*StreamEvent, map[string]json.RawMessage) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return nil, nil
	}

	evt := &StreamEvent{Part: fields["part"]}
	if t, ok := fields["type"]; ok {
		// A non-string type leaves Type empty; the line still counts as a
		// stream event for detection purposes.
		_ = json.Unmarshal(t, &evt.Type)
	}
	return evt, fields
}

// TextPart returns the text body of a text event. The boolean is false when
// the payload carries no string text field.
func (e *StreamEvent) TextPart() (string, bool) {
	var part struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(e.Part, &part); err != nil || part.Text == nil {
		return "", false
	}
	return *part.Text, true
}

// WriteToolContent returns the content argument of a tool_use event whose
// tool is "write". The boolean is false for other tools and for payloads
// without a string content field.
func (e *StreamEvent) WriteToolContent() (string, bool) {
	var part struct {
		Tool  string `json:"tool"`
		State struct {
			Input struct {
				Content *string `json:"content"`
			} `json:"input"`
		} `json:"state"`
	}
	if err := json.Unmarshal(e.Part, &part); err != nil {
		return "", false
	}
	if part.Tool != "write" || part.State.Input.Content == nil {
		return "", false
	}
	return *part.State.Input.Content, true
}

// StepTokens returns the token accounting of a step_finish event.
func (e *StreamEvent) StepTokens() (domain.TokenUsage, bool) {
	var part struct {
		Cost   float64 `json:"cost"`
		Tokens struct {
			Input  float64 `json:"input"`
			Output float64 `json:"output"`
			Cache  struct {
				Read  float64 `json:"read"`
				Write float64 `json:"write"`
			} `json:"cache"`
		} `json:"tokens"`
	}
	if err := json.Unmarshal(e.Part, &part); err != nil {
		return domain.TokenUsage{}, false
	}
	return domain.TokenUsage{
		InputTokens:      int64(part.Tokens.Input),
		OutputTokens:     int64(part.Tokens.Output),
		CacheReadTokens:  int64(part.Tokens.Cache.Read),
		CacheWriteTokens: int64(part.Tokens.Cache.Write),
		TotalCostUSD:     part.Cost,
	}, true
}

// EventStream scans a raw blob for opencode stream events. The boolean
// reports whether any line carried the stream markers; the text is the
// newline join of all text event bodies, which may be empty even for a
// detected stream when the run produced no assistant text.
func EventStream(raw string) (string, bool) {
	lines, ok := streamLines(raw)
	if !ok {
		return "", false
	}

	var parts []string
	stream := false
	for _, line := range lines {
		evt := ParseEventLine(line)
		if evt == nil {
			continue
		}
		stream = true
		if evt.Type != "text" {
			continue
		}
		if text, ok := evt.TextPart(); ok {
			parts = append(parts, text)
		}
	}
	if !stream {
		return "", false
	}
	return strings.Join(parts, "\n"), true
}

// streamWriteDenials collects the contents of denied write attempts from an
// opencode stream, skipping fragments at or below the minimum length.
func streamWriteDenials(raw string) []string {
	lines, ok := streamLines(raw)
	if !ok {
		return nil
	}

	var candidates []string
	for _, line := range lines {
		evt, _ := parseAnyEvent(line)
		if evt == nil || evt.Type != "tool_use" {
			continue
		}
		content, ok := evt.WriteToolContent()
		if !ok {
			continue
		}
		if utf8.RuneCountInString(content) > constants.MinContentLength {
			candidates = append(candidates, content)
		}
	}
	return candidates
}

// streamLines splits a blob into candidate event lines. Streams are
// multi-line blobs whose first non-space character is an opening brace;
// anything else cannot be JSONL and is not scanned.
func streamLines(raw string) ([]string, bool) {
	if !strings.Contains(raw, "\n") {
		return nil, false
	}
	if !strings.HasPrefix(strings.TrimLeftFunc(raw, unicode.IsSpace), "{") {
		return nil, false
	}
	return strings.Split(strings.TrimSpace(raw), "\n"), true
}
