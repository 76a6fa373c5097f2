package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"faultline/pkg/fault"
)

func startTestWatcher(t *testing.T, path string, debounce time.Duration) (*Watcher, chan *Policy) {
	t.Helper()

	reloaded := make(chan *Policy, 8)
	w, err := NewWatcher(path, zap.NewNop(), func(p *Policy) {
		reloaded <- p
	})
	require.NoError(t, err)
	w.debounceTime = debounce

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
	})
	return w, reloaded
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	_, reloaded := startTestWatcher(t, path, 50*time.Millisecond)

	want := &Policy{Journal: JournalConfig{Enabled: true, Path: "/tmp/journal.db"}}
	require.NoError(t, Save(want, path))

	select {
	case got := <-reloaded:
		assert.True(t, got.Journal.Enabled)
		assert.Equal(t, "/tmp/journal.db", got.Journal.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for policy reload")
	}
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	_, reloaded := startTestWatcher(t, path, 50*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("journal:\n  enabled: true\n"), 0o600))

	select {
	case <-reloaded:
		t.Fatal("reload fired for an unrelated file")
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcherKeepsPolicyOnInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	_, reloaded := startTestWatcher(t, path, 50*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("kinds: {NoSuchKind: {mute: true}}\n"), 0o600))

	select {
	case <-reloaded:
		t.Fatal("reload fired for an invalid policy")
	case <-time.After(400 * time.Millisecond):
	}

	require.NoError(t, Save(&Policy{Journal: JournalConfig{Enabled: true}}, path))

	select {
	case got := <-reloaded:
		assert.True(t, got.Journal.Enabled)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for recovery reload")
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	_, reloaded := startTestWatcher(t, path, 250*time.Millisecond)

	for i := 0; i < 3; i++ {
		require.NoError(t, Save(&Policy{Journal: JournalConfig{Enabled: true}}, path))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for debounced reload")
	}

	select {
	case <-reloaded:
		t.Fatal("burst of writes produced more than one reload")
	case <-time.After(600 * time.Millisecond):
	}
}

func TestWatcherRequiresCallback(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "policy.yaml"), zap.NewNop(), nil)
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindPreconditionViolated))
}
