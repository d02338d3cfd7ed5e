package tui

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSpinnerDisabledOnNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "scoring")

	s.Start()
	time.Sleep(2 * SpinnerInterval)
	s.Stop()

	// A buffer is not a terminal, so nothing is ever written.
	assert.Empty(t, buf.String())
}

func TestSpinnerStopTwice(t *testing.T) {
	s := NewSpinner(&bytes.Buffer{}, "scoring")
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinnerSetMessage(t *testing.T) {
	s := NewSpinner(&bytes.Buffer{}, "loading records")
	s.SetMessage("writing ledger")

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, "writing ledger", s.message)
}
