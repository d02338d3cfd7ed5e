package commitmsg

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/verdict/internal/taskdata"
)

func TestCheckType(t *testing.T) {
	tests := []struct {
		name       string
		msg        string
		wantPass   bool
		wantDetail string
	}{
		{
			name:       "valid type passes",
			msg:        "feat: add parser",
			wantPass:   true,
			wantDetail: "valid type: feat",
		},
		{
			name:       "unknown type lists the allowed set",
			msg:        "wip: experiment",
			wantPass:   false,
			wantDetail: "invalid type: 'wip', must be one of ['build', 'chore', 'ci', 'docs', 'feat', 'fix', 'perf', 'refactor', 'revert', 'style', 'test']",
		},
		{
			name:       "unparsed subject has no type",
			msg:        "Added new stuff",
			wantPass:   false,
			wantDetail: "no type parsed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pass, detail := checkType(parseMessage(tt.msg), taskdata.Task{})

			assert.Equal(t, tt.wantPass, pass)
			assert.Equal(t, tt.wantDetail, detail)
		})
	}
}

func TestCheckSeparator(t *testing.T) {
	tests := []struct {
		name       string
		msg        string
		wantPass   bool
		wantDetail string
	}{
		{
			name:       "colon space passes",
			msg:        "feat: add parser",
			wantPass:   true,
			wantDetail: "ok",
		},
		{
			name:       "unparsed subject has no separator",
			msg:        "Added new stuff",
			wantPass:   false,
			wantDetail: "no separator found",
		},
		{
			name:       "bare colon flagged",
			msg:        "feat:add parser",
			wantPass:   false,
			wantDetail: "separator is ':', expected ': '",
		},
		{
			name:       "tab separator flagged as extra whitespace",
			msg:        "feat:\tadd parser",
			wantPass:   false,
			wantDetail: "separator has extra whitespace: ':\\t', expected ': '",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pass, detail := checkSeparator(parseMessage(tt.msg), taskdata.Task{})

			assert.Equal(t, tt.wantPass, pass)
			assert.Equal(t, tt.wantDetail, detail)
		})
	}
}

func TestCheckImperative(t *testing.T) {
	tests := []struct {
		name       string
		msg        string
		wantPass   bool
		wantDetail string
	}{
		{
			name:       "imperative first word passes",
			msg:        "feat: add cursor pagination",
			wantPass:   true,
			wantDetail: "first word 'add' is ok",
		},
		{
			name:       "past tense fails",
			msg:        "feat: added cursor pagination",
			wantPass:   false,
			wantDetail: "'added' is not imperative mood",
		},
		{
			name:       "gerund fails",
			msg:        "fix: fixing the race",
			wantPass:   false,
			wantDetail: "'fixing' is not imperative mood",
		},
		{
			name:       "third person fails",
			msg:        "fix: fixes the race",
			wantPass:   false,
			wantDetail: "'fixes' is not imperative mood",
		},
		{
			name:       "comparison is case-insensitive",
			msg:        "feat: Added pagination",
			wantPass:   false,
			wantDetail: "'added' is not imperative mood",
		},
		{
			name:       "unparsed subject has no description",
			msg:        "Added new stuff",
			wantPass:   false,
			wantDetail: "empty description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pass, detail := checkImperative(parseMessage(tt.msg), taskdata.Task{})

			assert.Equal(t, tt.wantPass, pass)
			assert.Equal(t, tt.wantDetail, detail)
		})
	}
}

func TestCheckNoPeriod(t *testing.T) {
	tests := []struct {
		name       string
		msg        string
		wantPass   bool
		wantDetail string
	}{
		{name: "no period passes", msg: "feat: add parser", wantPass: true, wantDetail: "ok"},
		{name: "trailing period fails", msg: "feat: add parser.", wantPass: false, wantDetail: "description ends with period"},
		{name: "period inside is fine", msg: "feat: bump v1.2 parser", wantPass: true, wantDetail: "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pass, detail := checkNoPeriod(parseMessage(tt.msg), taskdata.Task{})

			assert.Equal(t, tt.wantPass, pass)
			assert.Equal(t, tt.wantDetail, detail)
		})
	}
}

func TestCheckLowercase(t *testing.T) {
	tests := []struct {
		name       string
		msg        string
		wantPass   bool
		wantDetail string
	}{
		{
			name:       "lowercase start passes",
			msg:        "feat: add parser",
			wantPass:   true,
			wantDetail: "ok",
		},
		{
			name:       "uppercase start fails",
			msg:        "feat: Add parser",
			wantPass:   false,
			wantDetail: "starts with uppercase 'A'",
		},
		{
			name:       "leading gitmoji skipped",
			msg:        "fix: :bug: guard nil config",
			wantPass:   true,
			wantDetail: "ok",
		},
		{
			name:       "uppercase after gitmoji fails",
			msg:        "fix: :bug: Guard nil config",
			wantPass:   false,
			wantDetail: "starts with uppercase 'G'",
		},
		{
			name:       "gitmoji-only description passes",
			msg:        "fix: :bug:",
			wantPass:   true,
			wantDetail: "ok (only gitmoji)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pass, detail := checkLowercase(parseMessage(tt.msg), taskdata.Task{})

			assert.Equal(t, tt.wantPass, pass)
			assert.Equal(t, tt.wantDetail, detail)
		})
	}
}

func TestCheckScopeVocab(t *testing.T) {
	scoped := taskdata.Task{AllowedScopes: []string{"api", "ui"}}

	tests := []struct {
		name       string
		msg        string
		task       taskdata.Task
		wantPass   bool
		wantDetail string
	}{
		{
			name:       "no allowed scopes auto-passes",
			msg:        "feat(api): x",
			task:       taskdata.Task{},
			wantPass:   true,
			wantDetail: "no allowed_scopes defined (auto-pass)",
		},
		{
			name:       "scope in the allowed list",
			msg:        "feat(api): x",
			task:       scoped,
			wantPass:   true,
			wantDetail: "scope 'api' in allowed list",
		},
		{
			name:       "missing scope fails",
			msg:        "feat: x",
			task:       scoped,
			wantPass:   false,
			wantDetail: "no scope present, expected one of ['api', 'ui']",
		},
		{
			name:       "scope outside the list fails",
			msg:        "feat(core): x",
			task:       scoped,
			wantPass:   false,
			wantDetail: "scope 'core' not in allowed_scopes: ['api', 'ui']",
		},
		{
			name:       "empty parens count as a scope",
			msg:        "feat(): x",
			task:       scoped,
			wantPass:   false,
			wantDetail: "scope '' not in allowed_scopes: ['api', 'ui']",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pass, detail := checkScopeVocab(parseMessage(tt.msg), tt.task)

			assert.Equal(t, tt.wantPass, pass)
			assert.Equal(t, tt.wantDetail, detail)
		})
	}
}

func TestCheckGitmoji(t *testing.T) {
	mapped := taskdata.Task{GitmojiMap: map[string]string{"feat": ":sparkles:", "fix": ":bug:"}}

	tests := []struct {
		name       string
		msg        string
		task       taskdata.Task
		wantPass   bool
		wantDetail string
	}{
		{
			name:       "no map auto-passes",
			msg:        "feat: x",
			task:       taskdata.Task{},
			wantPass:   true,
			wantDetail: "no gitmoji_map defined (auto-pass)",
		},
		{
			name:       "unmapped type auto-passes",
			msg:        "docs: x",
			task:       mapped,
			wantPass:   true,
			wantDetail: "no gitmoji mapping for type 'docs' (auto-pass)",
		},
		{
			name:       "matching gitmoji passes",
			msg:        "feat: :sparkles: add parser",
			task:       mapped,
			wantPass:   true,
			wantDetail: "description starts with :sparkles:",
		},
		{
			name:       "description that is only the gitmoji passes",
			msg:        "fix: :bug:",
			task:       mapped,
			wantPass:   true,
			wantDetail: "description is :bug:",
		},
		{
			name:       "wrong gitmoji fails",
			msg:        "feat: :bug: add parser",
			task:       mapped,
			wantPass:   false,
			wantDetail: "expected description to start with ':sparkles: ', got ':bug: add parser'",
		},
		{
			name:       "long description truncated in the detail",
			msg:        "feat: add a very long description that keeps going",
			task:       mapped,
			wantPass:   false,
			wantDetail: "expected description to start with ':sparkles: ', got 'add a very long description th'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pass, detail := checkGitmoji(parseMessage(tt.msg), tt.task)

			assert.Equal(t, tt.wantPass, pass)
			assert.Equal(t, tt.wantDetail, detail)
		})
	}
}

func TestCheckBodyWhyWhat(t *testing.T) {
	tests := []struct {
		name       string
		msg        string
		wantPass   bool
		wantDetail string
	}{
		{
			name:       "both sections present",
			msg:        "feat: x\n\nWhy: offsets time out\nWhat: cursor tokens",
			wantPass:   true,
			wantDetail: "both Why: and What: sections found",
		},
		{
			name:       "headers matched case-insensitively",
			msg:        "feat: x\n\nwhy: a\nWHAT: b",
			wantPass:   true,
			wantDetail: "both Why: and What: sections found",
		},
		{
			name:       "missing what",
			msg:        "feat: x\n\nWhy: a",
			wantPass:   false,
			wantDetail: "missing sections: What:",
		},
		{
			name:       "missing both",
			msg:        "feat: x\n\nJust prose here",
			wantPass:   false,
			wantDetail: "missing sections: Why:, What:",
		},
		{
			name:       "no body at all",
			msg:        "feat: x",
			wantPass:   false,
			wantDetail: "no body present (Why: and What: sections required)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pass, detail := checkBodyWhyWhat(parseMessage(tt.msg), taskdata.Task{})

			assert.Equal(t, tt.wantPass, pass)
			assert.Equal(t, tt.wantDetail, detail)
		})
	}
}

func TestCheckBodyWordCount(t *testing.T) {
	tests := []struct {
		name       string
		msg        string
		task       taskdata.Task
		wantPass   bool
		wantDetail string
	}{
		{
			name:       "no bounds auto-passes",
			msg:        "feat: x",
			task:       taskdata.Task{},
			wantPass:   true,
			wantDetail: "no word count constraints (auto-pass)",
		},
		{
			name:       "below minimum",
			msg:        "feat: x\n\nWhy: short\nWhat: tiny",
			task:       taskdata.Task{BodyMinWords: 10, BodyMaxWords: 60},
			wantPass:   false,
			wantDetail: "body has 4 words, minimum is 10",
		},
		{
			name:       "above maximum",
			msg:        "feat: x\n\none two three four five six seven eight",
			task:       taskdata.Task{BodyMaxWords: 5},
			wantPass:   false,
			wantDetail: "body has 8 words, maximum is 5",
		},
		{
			name:       "within range cites both bounds",
			msg:        "feat: x\n\nWhy: a b\nWhat: c d",
			task:       taskdata.Task{BodyMinWords: 3, BodyMaxWords: 10},
			wantPass:   true,
			wantDetail: "body has 6 words (range: 3-10)",
		},
		{
			name:       "unset minimum rendered as None",
			msg:        "feat: x\n\nWhy: a b\nWhat: c d",
			task:       taskdata.Task{BodyMaxWords: 100},
			wantPass:   true,
			wantDetail: "body has 6 words (range: None-100)",
		},
		{
			name:       "missing body counts zero words",
			msg:        "feat: x",
			task:       taskdata.Task{BodyMinWords: 5},
			wantPass:   false,
			wantDetail: "body has 0 words, minimum is 5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pass, detail := checkBodyWordCount(parseMessage(tt.msg), tt.task)

			assert.Equal(t, tt.wantPass, pass)
			assert.Equal(t, tt.wantDetail, detail)
		})
	}
}

func TestCheckTrailerFormat(t *testing.T) {
	t.Run("no footers pass vacuously", func(t *testing.T) {
		pass, detail := checkTrailerFormat(parseMessage("feat: x"), taskdata.Task{})

		assert.True(t, pass)
		assert.Equal(t, "no footers present", detail)
	})

	t.Run("well formed trailers counted", func(t *testing.T) {
		pass, detail := checkTrailerFormat(parseMessage("feat: x\n\nSigned-off-by: Dana <d@example.com>\nTicket: PAY-7"), taskdata.Task{})

		assert.True(t, pass)
		assert.Equal(t, "all 2 footer(s) in Key: value format", detail)
	})

	t.Run("empty values flagged and joined", func(t *testing.T) {
		pass, detail := checkTrailerFormat(parseMessage("feat: x\n\nFixes:\nCloses:"), taskdata.Task{})

		assert.False(t, pass)
		assert.Equal(t, "invalid trailer(s): empty value for token 'Fixes'; empty value for token 'Closes'", detail)
	})

	t.Run("malformed token rejected", func(t *testing.T) {
		m := commitMessage{footers: []footer{{token: "Ticket#", value: "PAY-7"}}}

		pass, detail := checkTrailerFormat(m, taskdata.Task{})

		assert.False(t, pass)
		assert.Equal(t, "invalid trailer(s): invalid token: 'Ticket#'", detail)
	})

	t.Run("empty token rejected", func(t *testing.T) {
		m := commitMessage{footers: []footer{{token: "", value: "x"}}}

		pass, detail := checkTrailerFormat(m, taskdata.Task{})

		assert.False(t, pass)
		assert.Equal(t, "invalid trailer(s): empty token", detail)
	})
}

func TestCheckSignedOffBy(t *testing.T) {
	signed := taskdata.Task{SignedOffBy: "Dana Ortiz <dana@example.com>"}

	tests := []struct {
		name       string
		msg        string
		task       taskdata.Task
		wantPass   bool
		wantDetail string
	}{
		{
			name:       "not required auto-passes",
			msg:        "feat: x",
			task:       taskdata.Task{},
			wantPass:   true,
			wantDetail: "no signed_off_by required (auto-pass)",
		},
		{
			name:       "matching footer passes",
			msg:        "feat: x\n\nSigned-off-by: Dana Ortiz <dana@example.com>",
			task:       signed,
			wantPass:   true,
			wantDetail: "Signed-off-by matches: Dana Ortiz <dana@example.com>",
		},
		{
			name:       "missing entirely fails",
			msg:        "feat: x",
			task:       signed,
			wantPass:   false,
			wantDetail: "missing Signed-off-by footer, expected 'Dana Ortiz <dana@example.com>'",
		},
		{
			name:       "value mismatch lists what was found",
			msg:        "feat: x\n\nSigned-off-by: Sam Lee <sam@example.com>",
			task:       signed,
			wantPass:   false,
			wantDetail: "Signed-off-by value mismatch: got ['Sam Lee <sam@example.com>'], expected 'Dana Ortiz <dana@example.com>'",
		},
		{
			name:       "sign-off glued to the subject found in the raw text",
			msg:        "feat: x\nSigned-off-by: Dana Ortiz <dana@example.com>",
			task:       signed,
			wantPass:   true,
			wantDetail: "Signed-off-by found in raw message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pass, detail := checkSignedOffBy(parseMessage(tt.msg), tt.task)

			assert.Equal(t, tt.wantPass, pass)
			assert.Equal(t, tt.wantDetail, detail)
		})
	}
}

func TestCheckBreakingFooter(t *testing.T) {
	breaking := taskdata.Task{BreakingChange: true}

	t.Run("not a breaking change", func(t *testing.T) {
		pass, detail := checkBreakingFooter(parseMessage("feat: x"), taskdata.Task{})

		assert.True(t, pass)
		assert.Equal(t, "n/a (not a breaking change)", detail)
	})

	t.Run("footer present and long enough", func(t *testing.T) {
		m := parseMessage("feat!: drop v1\n\nBREAKING CHANGE: the v1 endpoints are removed entirely")

		pass, detail := checkBreakingFooter(m, breaking)

		assert.True(t, pass)
		assert.Equal(t, "BREAKING CHANGE footer present (37 chars)", detail)
	})

	t.Run("footer too short", func(t *testing.T) {
		pass, detail := checkBreakingFooter(parseMessage("feat!: drop v1\n\nBREAKING CHANGE: gone"), breaking)

		assert.False(t, pass)
		assert.Equal(t, "BREAKING CHANGE footer too short: 'gone'", detail)
	})

	t.Run("missing footer", func(t *testing.T) {
		pass, detail := checkBreakingFooter(parseMessage("feat!: drop v1"), breaking)

		assert.False(t, pass)
		assert.Equal(t, "missing BREAKING CHANGE footer", detail)
	})

	t.Run("hyphenated token normalized", func(t *testing.T) {
		m := commitMessage{footers: []footer{{token: "Breaking-Change", value: "row keys changed everywhere"}}}

		pass, detail := checkBreakingFooter(m, breaking)

		assert.True(t, pass)
		assert.Equal(t, "BREAKING CHANGE footer present (27 chars)", detail)
	})
}

func TestCheckTicketRef(t *testing.T) {
	ticketed := taskdata.Task{JiraProject: "PAY", JiraNumber: "311"}

	tests := []struct {
		name       string
		msg        string
		task       taskdata.Task
		wantPass   bool
		wantDetail string
	}{
		{
			name:       "no jira fields auto-passes",
			msg:        "feat: x",
			task:       taskdata.Task{},
			wantPass:   true,
			wantDetail: "no jira_project/jira_number in task (auto-pass)",
		},
		{
			name:       "ticket footer cited",
			msg:        "feat: x\n\nTicket: PAY-311",
			task:       ticketed,
			wantPass:   true,
			wantDetail: "Ticket footer contains PAY-311",
		},
		{
			name:       "ticket glued to the subject found in the raw text",
			msg:        "feat: x\nTicket: PAY-311",
			task:       ticketed,
			wantPass:   true,
			wantDetail: "Ticket ref PAY-311 found in raw message",
		},
		{
			name:       "missing ticket fails",
			msg:        "feat: x",
			task:       ticketed,
			wantPass:   false,
			wantDetail: "missing Ticket: PAY-311 footer",
		},
		{
			name:       "different ticket number fails",
			msg:        "feat: x\n\nTicket: PAY-312",
			task:       ticketed,
			wantPass:   false,
			wantDetail: "missing Ticket: PAY-311 footer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pass, detail := checkTicketRef(parseMessage(tt.msg), tt.task)

			assert.Equal(t, tt.wantPass, pass)
			assert.Equal(t, tt.wantDetail, detail)
		})
	}
}

func TestCheckSubjectLength(t *testing.T) {
	t.Run("at the limit passes", func(t *testing.T) {
		pass, detail := checkSubjectLength(parseMessage("feat: add the cursor pagination endpoints for list"), taskdata.Task{})

		assert.True(t, pass)
		assert.Equal(t, "length=50 <= 50", detail)
	})

	t.Run("over the limit fails", func(t *testing.T) {
		pass, detail := checkSubjectLength(parseMessage("feat: add the cursor pagination endpoints for lists"), taskdata.Task{})

		assert.False(t, pass)
		assert.Equal(t, "length=51 > 50", detail)
	})
}
