package cli

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	verdicterrors "github.com/mrz1836/verdict/internal/errors"
)

func TestIsValidOutputFormat(t *testing.T) {
	assert.True(t, IsValidOutputFormat("text"))
	assert.True(t, IsValidOutputFormat("json"))
	assert.False(t, IsValidOutputFormat("yaml"))
	assert.False(t, IsValidOutputFormat(""))
}

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitSuccess},
		{"generic error", stderrors.New("boom"), ExitError},
		{"invalid output format", verdicterrors.ErrInvalidOutputFormat, ExitInvalidInput},
		{"unknown domain", verdicterrors.Wrapf(verdicterrors.ErrUnknownDomain, "nope"), ExitInvalidInput},
		{"exit code 2 wrapper", verdicterrors.NewExitCode2Error(stderrors.New("bad input")), ExitInvalidInput},
		{"cobra unknown flag", stderrors.New(`unknown flag: --frobnicate`), ExitInvalidInput},
		{"cobra mutually exclusive", stderrors.New("if any flags in the group [verbose quiet] are set none of the others can be"), ExitInvalidInput},
		{"ledger locked", verdicterrors.ErrLedgerLocked, ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeForError(tt.err))
		})
	}
}
