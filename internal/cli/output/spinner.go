package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// SpinnerInterval is the frame period.
const SpinnerInterval = 100 * time.Millisecond

// Spinner animates a message while an operation is in flight.
type Spinner struct {
	w       io.Writer
	message string
	frames  []string

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	exited    chan struct{}
}

// NewSpinner creates a spinner writing to w.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:       w,
		message: message,
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
}

// Start starts the animation. Calling it again has no effect.
func (s *Spinner) Start() {
	s.startOnce.Do(func() {
		go s.run()
	})
}

func (s *Spinner) run() {
	defer close(s.exited)

	ticker := time.NewTicker(SpinnerInterval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		fmt.Fprintf(s.w, "\r%s %s", s.frames[i%len(s.frames)], s.message)
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
	}
}

// finish stops the animation and waits for the last frame to be written,
// then prints the closing line.
func (s *Spinner) finish(line string) {
	s.stopOnce.Do(func() {
		close(s.done)
		s.startOnce.Do(func() { close(s.exited) })
		<-s.exited
		fmt.Fprint(s.w, line)
	})
}

// Stop stops the spinner and clears the line.
func (s *Spinner) Stop() {
	s.finish("\r\033[K")
}

// Success stops the spinner with a success message.
func (s *Spinner) Success(message string) {
	s.finish("\r\033[K✓ " + message + "\n")
}

// Fail stops the spinner with a failure message.
func (s *Spinner) Fail(message string) {
	s.finish("\r\033[K✗ " + message + "\n")
}
