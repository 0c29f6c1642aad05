package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a bytes.Buffer against the spinner's render goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testSpinner(ctx context.Context, message string) (*Spinner, *syncBuffer) {
	s := newSpinnerWithContext(ctx, message)
	out := &syncBuffer{}
	s.out = out
	return s, out
}

func TestSpinnerRendersMessage(t *testing.T) {
	s, out := testSpinner(context.Background(), "working")
	s.Start()
	time.Sleep(4 * spinnerInterval)
	s.Stop()

	if !strings.Contains(out.String(), "working") {
		t.Errorf("output %q does not show the message", out.String())
	}
}

func TestSpinnerSetMessage(t *testing.T) {
	s, out := testSpinner(context.Background(), "starting")
	s.Start()
	time.Sleep(2 * spinnerInterval)
	s.SetMessage("3 items")
	time.Sleep(3 * spinnerInterval)
	s.Stop()

	if !strings.Contains(out.String(), "3 items") {
		t.Errorf("output %q does not show the updated message", out.String())
	}
}

func TestSpinnerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s, _ := testSpinner(ctx, "cancel me")
	s.Start()
	cancel()

	select {
	case <-s.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("spinner goroutine did not stop on context cancellation")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s, _ := testSpinner(context.Background(), "stop twice")
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinnerClearsLineOnStop(t *testing.T) {
	s, out := testSpinner(context.Background(), "cleanup")
	s.Start()
	time.Sleep(3 * spinnerInterval)
	s.Stop()

	if !strings.HasSuffix(out.String(), "\r") {
		t.Errorf("output %q does not end with a carriage return after clearing", out.String())
	}
}
