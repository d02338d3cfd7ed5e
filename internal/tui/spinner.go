package tui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// spinnerFrames are the animation frames for the spinner.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"} //nolint:gochecknoglobals // Animation constant

// SpinnerInterval is the update interval for the spinner animation.
const SpinnerInterval = 100 * time.Millisecond

// Spinner shows an animated progress line while a batch is scored. On a
// non-terminal writer every method is a no-op, so commands can start it
// unconditionally.
type Spinner struct {
	w       io.Writer
	styles  *OutputStyles
	message string
	enabled bool

	mu      sync.Mutex
	running bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewSpinner creates a spinner writing to w. Animation only happens when w
// is the process stderr attached to a terminal and colors are not disabled.
func NewSpinner(w io.Writer, message string) *Spinner {
	enabled := false
	if f, ok := w.(*os.File); ok {
		enabled = term.IsTerminal(int(f.Fd())) && HasColorSupport()
	}
	return &Spinner{
		w:       w,
		styles:  NewOutputStyles(),
		message: message,
		enabled: enabled,
	}
}

// Start begins the animation. Starting a running spinner is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled || s.running {
		return
	}
	s.running = true
	s.done = make(chan struct{})
	s.wg.Add(1)
	go s.spin(s.done)
}

// spin runs the animation loop until the done channel closes.
func (s *Spinner) spin(done chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(SpinnerInterval)
	defer ticker.Stop()

	frame := 0
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.mu.Lock()
			msg := s.message
			s.mu.Unlock()
			_, _ = fmt.Fprintf(s.w, "\r\033[K%s %s",
				s.styles.Info.Render(spinnerFrames[frame%len(spinnerFrames)]), msg)
			frame++
		}
	}
}

// SetMessage updates the text shown next to the spinner.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop ends the animation and clears the spinner line. Stopping a stopped
// spinner is a no-op.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()
	_, _ = fmt.Fprint(s.w, "\r\033[K")
}
