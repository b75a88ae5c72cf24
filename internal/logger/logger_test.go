package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"
)

func reset() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestVerboseToggle(t *testing.T) {
	defer reset()

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose off by default")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose on after SetVerbose(true)")
	}
}

func TestLevels(t *testing.T) {
	defer reset()

	tests := []struct {
		name string
		log  func()
		want string
	}{
		{"debug", func() { Debug("chunked %d passages", 3) }, "[DEBUG] chunked 3 passages\n"},
		{"info", func() { Info("ingest complete") }, "[INFO] ingest complete\n"},
		{"warn", func() { Warn("skipping %s", "bad.pdf") }, "[WARN] skipping bad.pdf\n"},
		{"section", func() { Section("Scan") }, "\n--- Scan ---\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetOutput(&buf)
			SetVerbose(true)

			tt.log()

			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSilentWhenNotVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Debug("hidden")
	Info("hidden")
	Section("hidden")

	if buf.Len() > 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestWarnBypassesVerboseGate(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Warn("lock reclaimed")

	if got := buf.String(); got != "[WARN] lock reclaimed\n" {
		t.Errorf("got %q, want warning without verbose mode", got)
	}
}

func TestConcurrentUse(t *testing.T) {
	defer reset()

	var buf safeBuffer
	SetOutput(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			SetVerbose(true)
			Debug("worker %d", n)
			IsVerbose()
		}(i)
	}
	wg.Wait()
}

// safeBuffer is a goroutine-safe bytes.Buffer for the race test.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}
