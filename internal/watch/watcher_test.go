package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-labs/datacore/internal/core/domain"
)

// countingIngestor records how many runs were triggered.
type countingIngestor struct {
	runs atomic.Int32
}

func (c *countingIngestor) Run(_ context.Context, root string) (*domain.IngestReport, error) {
	c.runs.Add(1)
	return &domain.IngestReport{Root: root}, nil
}

func TestWatcher_InitialIngest(t *testing.T) {
	root := t.TempDir()
	ingestor := &countingIngestor{}
	w := New(ingestor, root, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, ingestor.runs.Load(), int32(1), "an initial pass runs before watching")
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	root := t.TempDir()
	ingestor := &countingIngestor{}
	w := New(ingestor, root, WithDebounce(100*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	// Give the watcher time to register the root.
	time.Sleep(150 * time.Millisecond)

	// A burst of writes within the debounce window.
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "doc.md"), []byte("# Doc\n\nbody"), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		return ingestor.runs.Load() == 2
	}, 2*time.Second, 20*time.Millisecond, "burst collapses into one re-ingest after the initial pass")

	// No further runs without further events.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(2), ingestor.runs.Load())

	cancel()
	<-done
}

func TestWatcher_IgnoresHiddenFiles(t *testing.T) {
	root := t.TempDir()
	ingestor := &countingIngestor{}
	w := New(ingestor, root, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	time.Sleep(150 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden"), []byte("x"), 0644))

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), ingestor.runs.Load(), "hidden file events never trigger a run")

	cancel()
	<-done
}
