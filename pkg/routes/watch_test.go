package routes

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	table, err := LoadFile(path)
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := Watch(ctx, path, table, logger)
	require.NoError(t, err)
	defer w.Close()

	updated := `
routes:
  - path: /vacations
    module: vacations
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	assert.Eventually(t, func() bool {
		_, ok := table.Lookup("/vacations")
		return ok && len(table.Routes()) == 1
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_KeepsTableOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	table, err := LoadFile(path)
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := Watch(ctx, path, table, logger)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("routes: []"), 0o600))

	assert.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Message == "Failed to reload route table" {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)
	assert.Len(t, table.Routes(), 3)
}

func TestWatcher_StopsOnContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	table, err := LoadFile(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	w, err := Watch(ctx, path, table, nil)
	require.NoError(t, err)

	cancel()
	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
