package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// spinnerInterval is the frame rate of the progress indicator.
const spinnerInterval = 120 * time.Millisecond

var spinnerFrames = []string{"⠁", "⠃", "⠇", "⠧", "⠷", "⠿", "⠾", "⠼", "⠸", "⠘", "⠈"}

// Spinner is a line-rewriting progress indicator. The message can be swapped
// while the spinner runs, which the run command uses for live item counts.
type Spinner struct {
	mu      sync.Mutex
	message string
	width   int

	out      io.Writer
	ctx      context.Context
	stopOnce sync.Once
	stop     chan struct{}
	stopped  chan struct{}
}

// newSpinnerWithContext creates a spinner that also stops when ctx is
// cancelled. Output goes to stderr so item output on stdout stays clean.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	return &Spinner{
		message: message,
		out:     os.Stderr,
		ctx:     ctx,
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins the animation. Call Stop before writing anything else to
// stderr.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for frame := 0; ; frame++ {
			select {
			case <-s.ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				s.render(spinnerFrames[frame%len(spinnerFrames)])
			}
		}
	}()
}

// SetMessage replaces the message shown next to the spinner.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop halts the animation and clears the line. Safe to call more than once.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.stopped
	s.clearLine()
}

func (s *Spinner) render(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := fmt.Sprintf("%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
	if w := len(s.message) + 2; w > s.width {
		s.width = w
	}
	fmt.Fprintf(s.out, "\r%s", line)
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.width))
}
