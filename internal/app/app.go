// Package app assembles the registry, its collaborators and the command
// dispatcher, and serializes every access to them.
package app

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/agentic-research/objtree/internal/clients"
	"github.com/agentic-research/objtree/internal/command"
	"github.com/agentic-research/objtree/internal/config"
	"github.com/agentic-research/objtree/internal/journal"
	"github.com/agentic-research/objtree/internal/object"
	"github.com/agentic-research/objtree/internal/settings"
	"github.com/agentic-research/objtree/internal/theme"
)

// Options configures New. A nil Logger discards output; a nil Journal
// disables change recording.
type Options struct {
	Logger  *log.Logger
	Journal *journal.Journal
}

// App owns one registry. All methods are safe for concurrent use; hooks
// run while the registry lock is held and must not call back into App.
type App struct {
	mu         sync.Mutex
	tree       *object.Tree
	dispatcher *command.Dispatcher
	settings   *settings.Settings
	clients    *clients.Clients
	theme      *theme.Theme
	journal    *journal.Journal
	logger     *log.Logger
	unhook     func()
}

func New(opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	a := &App{
		tree:    object.NewTree(),
		journal: opts.Journal,
		logger:  logger,
	}

	a.theme = theme.New()
	a.theme.OnChange(func() { a.logger.Debug("theme changed, redrawing decorations") })
	if err := a.tree.Mount(a.theme.Node()); err != nil {
		return nil, fmt.Errorf("mount theme: %w", err)
	}
	a.settings = settings.New(effects{logger: logger.WithPrefix("settings")})
	if err := a.tree.Mount(a.settings.Node()); err != nil {
		return nil, fmt.Errorf("mount settings: %w", err)
	}
	if err := a.settings.AddCompatibility(a.tree.ResolveAttribute); err != nil {
		return nil, fmt.Errorf("settings compatibility: %w", err)
	}
	a.clients = clients.New(clientEffects{logger: logger.WithPrefix("clients")})
	if err := a.tree.Mount(a.clients.Node()); err != nil {
		return nil, fmt.Errorf("mount clients: %w", err)
	}

	a.dispatcher = command.New(a.tree, logger)
	if a.journal != nil {
		a.unhook = a.tree.Root().AddSubtreeHook(a.record)
		if err := a.dispatcher.Register("journal", a.journalCmd); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Exec runs one command and returns its status and output.
func (a *App) Exec(args []string) (command.Status, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out bytes.Buffer
	status := a.dispatcher.Call(args, &out)
	return status, out.String()
}

// Do runs fn with exclusive access to the tree.
func (a *App) Do(fn func(*object.Tree) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fn(a.tree)
}

// Watch installs a hook on the node at path. With subtree set, changes
// anywhere below the node are reported too. The returned cancel is safe
// to call from any goroutine.
func (a *App) Watch(path string, subtree bool, fn object.Hook) (cancel func(), err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n, err := a.tree.ResolveNode(path)
	if err != nil {
		return nil, err
	}
	var remove func()
	if subtree {
		remove = n.AddSubtreeHook(fn)
	} else {
		remove = n.AddHook(fn)
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			remove()
			a.logger.Debug("watch removed", "path", path, "remaining", n.HookCount())
		})
	}, nil
}

// ApplySeed loads the seed file at path into the tree.
func (a *App) ApplySeed(path string) error {
	s, err := config.LoadSeed(path)
	if err != nil {
		return err
	}
	return a.Do(s.Apply)
}

// SaveSeed writes the user attributes to the seed file at path.
func (a *App) SaveSeed(path string) error {
	return a.Do(func(t *object.Tree) error { return config.SaveSeed(path, t) })
}

// Close detaches the journal hook. The journal itself belongs to the
// caller.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.unhook != nil {
		a.unhook()
		a.unhook = nil
	}
	return nil
}

func (a *App) record(c object.Change) {
	if err := a.journal.Record(c); err != nil {
		a.logger.Warn("journal write failed", "path", c.Path, "err", err)
	}
}

func (a *App) journalCmd(_ *command.Dispatcher, args []string, out io.Writer) command.Status {
	n := 10
	if len(args) > 1 {
		v, err := strconv.Atoi(args[1])
		if err != nil || v < 0 {
			_, _ = fmt.Fprintf(out, "%s: invalid count %q\n", args[0], args[1])
			return command.InvalidArgument
		}
		n = v
	}
	prefix := ""
	if len(args) > 2 {
		prefix = args[2]
	}
	entries, err := a.journal.Recent(n, prefix)
	if err != nil {
		_, _ = fmt.Fprintln(out, err.Error())
		return command.UnknownError
	}
	for _, e := range entries {
		_, _ = fmt.Fprintf(out, "%d %s %s: %q -> %q\n",
			e.Seq, e.Time.Format(time.RFC3339), e.Path, e.Old, e.New)
	}
	return command.Success
}

// effects stands in for the window manager reacting to settings.
type effects struct {
	logger *log.Logger
}

func (e effects) Relayout()           { e.logger.Debug("relayout requested") }
func (e effects) FrameColorsChanged() { e.logger.Debug("frame colors changed") }
func (e effects) MonitorsLockChanged(locked bool) {
	e.logger.Info("monitors lock changed", "locked", locked)
}
func (e effects) WMNameChanged(name string) { e.logger.Info("wmname changed", "wmname", name) }

// clientEffects stands in for the window manager reacting to clients.
type clientEffects struct {
	logger *log.Logger
}

func (e clientEffects) Relayout(tag string) { e.logger.Debug("relayout requested", "tag", tag) }
func (e clientEffects) FullscreenChanged(winid string, on bool) {
	e.logger.Debug("ewmh state changed", "winid", winid, "fullscreen", on)
}
func (e clientEffects) KeyMaskChanged(winid string) {
	e.logger.Debug("keymask changed", "winid", winid)
}
