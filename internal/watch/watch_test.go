package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/Aman-CERP/typeindex/internal/errors"
)

func startWatcher(t *testing.T, opts Options, locators ...string) (*Watcher, chan error) {
	t.Helper()
	w, err := New(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx, locators) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	select {
	case <-w.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never became ready")
	}
	return w, done
}

func nextBatch(t *testing.T, w *Watcher) []Event {
	t.Helper()
	select {
	case batch, ok := <-w.Events():
		require.True(t, ok, "events channel closed")
		return batch
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for change batch")
		return nil
	}
}

func paths(batch []Event) []string {
	out := make([]string, 0, len(batch))
	for _, e := range batch {
		out = append(out, e.Path)
	}
	return out
}

func TestWatcher_DirectoryChange(t *testing.T) {
	// Given: a watched class directory with a nested package
	root := t.TempDir()
	pkg := filepath.Join(root, "com", "acme")
	require.NoError(t, os.MkdirAll(pkg, 0755))
	w, _ := startWatcher(t, Options{Debounce: 50 * time.Millisecond}, root)

	// When: a class file appears in the nested package
	target := filepath.Join(pkg, "Impl.class")
	require.NoError(t, os.WriteFile(target, []byte{0xCA, 0xFE}, 0644))

	// Then: a batch names the new file
	assert.Contains(t, paths(nextBatch(t, w)), target)
}

func TestWatcher_ArchiveLocator(t *testing.T) {
	// Given: an archive locator beside an unrelated file
	dir := t.TempDir()
	jar := filepath.Join(dir, "app.jar")
	require.NoError(t, os.WriteFile(jar, []byte("PK"), 0644))
	w, _ := startWatcher(t, Options{Debounce: 50 * time.Millisecond}, jar)

	// When: the unrelated file and then the archive change
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(jar, []byte("PK\x03\x04"), 0644))

	// Then: only the archive is reported
	assert.Equal(t, []string{jar}, paths(nextBatch(t, w)))
}

func TestWatcher_Ignore(t *testing.T) {
	root := t.TempDir()
	w, _ := startWatcher(t, Options{
		Debounce: 50 * time.Millisecond,
		Ignore:   func(p string) bool { return strings.HasSuffix(p, ".json") },
	}, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "index.json"), []byte("{}"), 0644))
	kept := filepath.Join(root, "A.class")
	require.NoError(t, os.WriteFile(kept, []byte{0xCA}, 0644))

	assert.Equal(t, []string{kept}, paths(nextBatch(t, w)))
}

func TestWatcher_MissingLocatorReported(t *testing.T) {
	root := t.TempDir()
	missing := filepath.Join(root, "absent.jar")
	w, _ := startWatcher(t, Options{}, root, missing)

	select {
	case err := <-w.Errors():
		assert.ErrorIs(t, err, ierrors.ErrSourceUnavailable)
	case <-time.After(5 * time.Second):
		t.Fatal("expected a source error")
	}
}

func TestWatcher_NothingWatchable(t *testing.T) {
	w, err := New(Options{})
	require.NoError(t, err)

	err = w.Start(context.Background(), []string{filepath.Join(t.TempDir(), "gone")})
	assert.Equal(t, ierrors.ErrCodeInvalidInput, ierrors.GetCode(err))

	_, ok := <-w.Events()
	assert.False(t, ok)
}

func TestWatcher_CancelStops(t *testing.T) {
	w, err := New(Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx, []string{t.TempDir()}) }()
	<-w.Ready()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
	require.NoError(t, w.Stop())
}

func TestOperation_String(t *testing.T) {
	assert.Equal(t, "CREATE", OpCreate.String())
	assert.Equal(t, "MODIFY", OpModify.String())
	assert.Equal(t, "DELETE", OpDelete.String())
	assert.Equal(t, "RENAME", OpRename.String())
	assert.Equal(t, "UNKNOWN", Operation(42).String())
}

func TestOptions_WithDefaults(t *testing.T) {
	o := Options{}.WithDefaults()
	assert.Equal(t, 500*time.Millisecond, o.Debounce)
	assert.Equal(t, 16, o.BufferSize)
	assert.NotNil(t, o.Logger)
}
