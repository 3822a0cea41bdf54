package tests

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/objtree/api"
	"github.com/agentic-research/objtree/internal/app"
	"github.com/agentic-research/objtree/internal/command"
	"github.com/agentic-research/objtree/internal/ipc"
	"github.com/agentic-research/objtree/internal/journal"
	"github.com/agentic-research/objtree/internal/nfsmount"
	"github.com/agentic-research/objtree/internal/view"
)

// daemon bundles a running registry the way `objtree serve` wires it:
// a journaled app, the control socket, and an NFS filesystem over the view.
type daemon struct {
	app    *app.App
	socket string
	tfs    *nfsmount.TreeFS
}

func startDaemon(t *testing.T) *daemon {
	t.Helper()
	dir := t.TempDir()

	j, err := journal.Open(filepath.Join(dir, "journal.db"), 100)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	a, err := app.New(app.Options{Logger: log.New(io.Discard), Journal: j})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	socket := filepath.Join(dir, "objtree.sock")
	ln, err := ipc.Listen(socket)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ipc.NewServer(a, log.New(io.Discard)).Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("ipc server did not stop")
		}
	})

	return &daemon{app: a, socket: socket, tfs: nfsmount.NewTreeFS(view.New(a), true)}
}

func (d *daemon) client(t *testing.T) *ipc.Client {
	t.Helper()
	c, err := ipc.Dial(context.Background(), d.socket)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func nextChange(t *testing.T, c *ipc.Client) api.Changed {
	t.Helper()
	select {
	case ch := <-c.Changes():
		return ch
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification")
		return api.Changed{}
	}
}

func TestFileWriteReachesWatcherAndJournal(t *testing.T) {
	d := startDaemon(t)
	watcher := d.client(t)
	ctx := context.Background()

	_, err := watcher.Watch(ctx, "settings", false)
	require.NoError(t, err)

	f, err := d.tfs.OpenFile("/settings/frame_gap", os.O_WRONLY|os.O_TRUNC, 0)
	require.NoError(t, err)
	_, err = f.Write([]byte("12\n"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	ch := nextChange(t, watcher)
	assert.Equal(t, "settings.frame_gap", ch.Path)
	assert.Equal(t, "12", ch.New)

	ctl := d.client(t)
	res, err := ctl.Call(ctx, "get", "settings.frame_gap")
	require.NoError(t, err)
	assert.Equal(t, "12", res.Output)

	res, err = ctl.Call(ctx, "journal", "1", "settings.")
	require.NoError(t, err)
	assert.Equal(t, int(command.Success), res.Status)
	assert.Contains(t, res.Output, `settings.frame_gap: "`+ch.Old+`" -> "12"`)
}

func TestUserAttributeLifecycle(t *testing.T) {
	d := startDaemon(t)
	c := d.client(t)
	ctx := context.Background()

	res, err := c.Call(ctx, "userattribute", "int", "my_count")
	require.NoError(t, err)
	require.Equal(t, int(command.Success), res.Status, res.Output)

	res, err = c.Call(ctx, "set", "my_count", "3")
	require.NoError(t, err)
	require.Equal(t, int(command.Success), res.Status, res.Output)

	// the attribute is a file at the root of the mount
	info, err := d.tfs.Stat("/my_count")
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	res, err = c.Call(ctx, "compare", "my_count", "gt", "2")
	require.NoError(t, err)
	assert.Equal(t, int(command.Success), res.Status, res.Output)

	require.NoError(t, d.tfs.Remove("/my_count"))
	res, err = c.Call(ctx, "get", "my_count")
	require.NoError(t, err)
	assert.NotEqual(t, int(command.Success), res.Status)
}

func TestSeedSurvivesRestart(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.hcl")

	first := startDaemon(t)
	status, out := first.app.Exec([]string{"userattribute", "string", "my_label"})
	require.Equal(t, command.Success, status, out)
	status, out = first.app.Exec([]string{"set", "my_label", "primary"})
	require.Equal(t, command.Success, status, out)
	require.NoError(t, first.app.SaveSeed(seed))

	second := startDaemon(t)
	require.NoError(t, second.app.ApplySeed(seed))
	res, err := second.client(t).Call(context.Background(), "get", "my_label")
	require.NoError(t, err)
	assert.Equal(t, "primary", res.Output)
}
