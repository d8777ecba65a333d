package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherStartStop(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))

	w, err := New(root)
	require.NoError(t, err)
	w.Start()

	// Generate some churn, including a new directory that must be picked
	// up for watching without blocking anything.
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "new", "deep"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "new", "deep", "b.txt"), []byte("b"), 0o644))
	time.Sleep(100 * time.Millisecond)

	// Stop must not deadlock and must be safe after events were delivered.
	w.Stop()
}

func TestWatcherMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope"))
	// fsnotify reports the missing dir on Add; we surface it.
	require.Error(t, err)
}
