package command

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/objtree/internal/object"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	tree := object.NewTree()

	settings := object.NewNode("settings")
	settings.MustAddAttributes(
		object.NewInt("gap", 5).WithValidator(func(v object.Value) error {
			if v.(object.IntValue) < 0 {
				return errors.New("gap must be non-negative")
			}
			return nil
		}),
		object.NewUint("count", 3).Writeable(),
		object.NewBool("focus_follows_mouse", false).Writeable(),
		object.NewString("wmname", "LG3D").Writeable(),
		object.NewColor("border_color", "#ff0000").Writeable(),
		object.NewString("version", "1.0"),
		object.NewComputedInt("answer", func() int64 { return 42 }),
	)
	require.NoError(t, settings.AddAction("shout", "", func(args []string, out io.Writer) error {
		if len(args) == 0 {
			return errors.New("nothing to shout")
		}
		_, err := io.WriteString(out, strings.ToUpper(strings.Join(args, " ")))
		return err
	}))
	require.NoError(t, tree.Mount(settings))

	return New(tree, log.New(io.Discard))
}

func run(d *Dispatcher, args ...string) (Status, string) {
	var out strings.Builder
	status := d.Call(args, &out)
	return status, out.String()
}

func TestGetSet(t *testing.T) {
	d := newTestDispatcher(t)

	status, out := run(d, "get", "settings.gap")
	assert.Equal(t, Success, status)
	assert.Equal(t, "5", out)

	status, _ = run(d, "set", "settings.gap", "7")
	assert.Equal(t, Success, status)
	_, out = run(d, "get", "settings.gap")
	assert.Equal(t, "7", out)

	status, out = run(d, "set", "settings.gap", "abc")
	assert.Equal(t, InvalidArgument, status)
	assert.Contains(t, out, `"abc"`)
	_, out = run(d, "get", "settings.gap")
	assert.Equal(t, "7", out)

	status, out = run(d, "set", "settings.gap", "-1")
	assert.Equal(t, InvalidArgument, status)
	assert.Equal(t, "Can not write attribute \"gap\": gap must be non-negative\n", out)

	status, out = run(d, "set", "settings.version", "2.0")
	assert.Equal(t, Forbidden, status)
	assert.Equal(t, "Can not write read-only attribute \"version\"\n", out)

	status, _ = run(d, "set", "settings.gap")
	assert.Equal(t, NeedMoreArgs, status)

	status, out = run(d, "get", "settings.nope")
	assert.Equal(t, InvalidArgument, status)
	assert.Equal(t, "Unknown attribute \"nope\" in object \"settings.\".\n", out)
}

func TestAttr(t *testing.T) {
	d := newTestDispatcher(t)

	status, out := run(d, "attr")
	assert.Equal(t, Success, status)
	assert.True(t, strings.HasPrefix(out, "2 children:\n  tmp.\n  settings.\n"), out)

	status, out = run(d, "attr", "settings.wmname")
	assert.Equal(t, Success, status)
	assert.Equal(t, "LG3D", out)

	status, _ = run(d, "attr", "settings.wmname", "herbstluftwm")
	assert.Equal(t, Success, status)
	_, out = run(d, "get", "settings.wmname")
	assert.Equal(t, "herbstluftwm", out)

	status, out = run(d, "attr", "settings")
	assert.Equal(t, Success, status)
	assert.Contains(t, out, " i w gap = 5\n")
	assert.Contains(t, out, " s w wmname = \"herbstluftwm\"\n")
	assert.Contains(t, out, " s - version = \"1.0\"\n")
	assert.Contains(t, out, " i - answer = 42\n")
	assert.Contains(t, out, "1 actions:\n  shout\n")

	status, _ = run(d, "attr", "settings", "x")
	assert.Equal(t, InvalidArgument, status)

	status, _ = run(d, "attr", "bogus.path.x")
	assert.Equal(t, InvalidArgument, status)
}

func TestPrintTree(t *testing.T) {
	d := newTestDispatcher(t)
	status, out := run(d, "print_tree")
	assert.Equal(t, Success, status)
	assert.Equal(t, "root\n├── tmp\n└── settings\n", out)

	status, out = run(d, "print_tree", "settings")
	assert.Equal(t, Success, status)
	assert.Equal(t, "settings\n", out)

	status, _ = run(d, "print_tree", "nope")
	assert.Equal(t, InvalidArgument, status)
}

func TestUserAttributeCommands(t *testing.T) {
	d := newTestDispatcher(t)

	status, _ := run(d, "userattribute", "int", "settings.my_level")
	require.Equal(t, Success, status)
	status, _ = run(d, "set", "settings.my_level", "9")
	assert.Equal(t, Success, status)

	status, _ = run(d, "userattribute", "int", "settings.my_level")
	assert.Equal(t, Forbidden, status)

	status, _ = run(d, "userattribute", "int", "settings.level")
	assert.Equal(t, InvalidArgument, status)

	status, _ = run(d, "userattribute", "float", "settings.my_f")
	assert.Equal(t, InvalidArgument, status)

	status, _ = run(d, "userattribute_remove", "settings.gap")
	assert.Equal(t, Forbidden, status)

	status, _ = run(d, "userattribute_remove", "settings.my_level")
	assert.Equal(t, Success, status)
	status, _ = run(d, "get", "settings.my_level")
	assert.Equal(t, InvalidArgument, status)

	status, _ = run(d, "userattribute", "int")
	assert.Equal(t, NeedMoreArgs, status)
}

func TestSubstitute(t *testing.T) {
	d := newTestDispatcher(t)
	status, out := run(d, "substitute", "X", "settings.gap", "echo", "gap", "is", "X")
	assert.Equal(t, Success, status)
	assert.Equal(t, "gap is 5\n", out)

	status, _ = run(d, "substitute", "X", "settings.nope", "echo", "X")
	assert.Equal(t, InvalidArgument, status)
}

func TestSprintf(t *testing.T) {
	d := newTestDispatcher(t)
	_, _ = run(d, "set", "settings.gap", "7")

	status, out := run(d, "sprintf", "tmp", "gap=%s", "settings.gap", "echo", "tmp")
	assert.Equal(t, Success, status)
	assert.Equal(t, "gap=7\n", out)

	status, out = run(d, "sprintf", "S", "%s/%s 100%%", "settings.gap", "settings.count", "echo", "S")
	assert.Equal(t, Success, status)
	assert.Equal(t, "7/3 100%\n", out)

	status, out = run(d, "sprintf", "S", "%s %s", "settings.gap", "echo")
	assert.Equal(t, NeedMoreArgs, status)
	assert.Contains(t, out, `"echo"`)

	status, out = run(d, "sprintf", "S", "%d", "echo", "S")
	assert.Equal(t, InvalidArgument, status)
	assert.Contains(t, out, "'d'")

	status, _ = run(d, "sprintf", "S", "trailing %", "echo", "S")
	assert.Equal(t, InvalidArgument, status)
}

func TestMktemp(t *testing.T) {
	d := newTestDispatcher(t)

	status, out := run(d, "mktemp", "int", "T", "substitute", "V", "T", "echo", "V")
	assert.Equal(t, Success, status)
	assert.Equal(t, "0\n", out)
	assert.Empty(t, d.Tree().Tmp().Attributes())

	status, out = run(d, "mktemp", "string", "T", "echo", "T")
	assert.Equal(t, Success, status)
	assert.Equal(t, "tmp.my_tmp1\n", out)

	// the inner command fails; the temporary is gone anyway
	status, _ = run(d, "mktemp", "int", "T", "set", "T", "notanumber")
	assert.Equal(t, InvalidArgument, status)
	assert.Empty(t, d.Tree().Tmp().Attributes())

	status, _ = run(d, "mktemp", "float", "T", "echo", "T")
	assert.Equal(t, InvalidArgument, status)
	assert.Empty(t, d.Tree().Tmp().Attributes())
}

func TestCompare(t *testing.T) {
	d := newTestDispatcher(t)
	tests := []struct {
		args []string
		want Status
	}{
		{[]string{"settings.gap", "=", "5"}, Success},
		{[]string{"settings.gap", "!=", "5"}, False},
		{[]string{"settings.gap", "lt", "6"}, Success},
		{[]string{"settings.gap", "le", "5"}, Success},
		{[]string{"settings.gap", "gt", "5"}, False},
		{[]string{"settings.gap", "ge", "-3"}, Success},
		{[]string{"settings.count", "gt", "-1"}, Success},
		{[]string{"settings.answer", "=", "42"}, Success},
		{[]string{"settings.gap", "=", "five"}, InvalidArgument},
		{[]string{"settings.gap", "~", "5"}, InvalidArgument},
		{[]string{"settings.focus_follows_mouse", "=", "off"}, Success},
		{[]string{"settings.focus_follows_mouse", "!=", "toggle"}, Success},
		{[]string{"settings.focus_follows_mouse", "lt", "on"}, InvalidArgument},
		{[]string{"settings.border_color", "=", "#f00"}, Success},
		{[]string{"settings.border_color", "=", "red"}, Success},
		{[]string{"settings.border_color", "!=", "#00ff00"}, Success},
		{[]string{"settings.border_color", "=", "nocolor"}, InvalidArgument},
		{[]string{"settings.wmname", "=", "LG3D"}, Success},
		{[]string{"settings.wmname", "!=", "LG3D"}, False},
		{[]string{"settings.wmname", "gt", "A"}, InvalidArgument},
	}
	for _, tt := range tests {
		status, _ := run(d, append([]string{"compare"}, tt.args...)...)
		assert.Equal(t, tt.want, status, "%v", tt.args)
	}
}

func TestCall(t *testing.T) {
	d := newTestDispatcher(t)
	status, out := run(d, "call", "settings.shout", "hello", "world")
	assert.Equal(t, Success, status)
	assert.Equal(t, "HELLO WORLD", out)

	status, out = run(d, "call", "settings.shout")
	assert.Equal(t, InvalidArgument, status)
	assert.Equal(t, "nothing to shout\n", out)

	status, _ = run(d, "call", "settings.whisper")
	assert.Equal(t, InvalidArgument, status)
}

func TestQuery(t *testing.T) {
	d := newTestDispatcher(t)
	status, out := run(d, "query", "$.settings.gap")
	assert.Equal(t, Success, status)
	assert.Equal(t, "5\n", out)

	status, out = run(d, "query", "$.wmname", "settings")
	assert.Equal(t, Success, status)
	assert.Equal(t, "\"LG3D\"\n", out)

	status, _ = run(d, "query", "$.settings.missing")
	assert.Equal(t, False, status)

	status, _ = run(d, "query", "$[[[")
	assert.Equal(t, InvalidArgument, status)
}

func TestDispatcher(t *testing.T) {
	d := newTestDispatcher(t)

	status, out := run(d, "frobnicate")
	assert.Equal(t, CommandNotFound, status)
	assert.Contains(t, out, "frobnicate")

	assert.Equal(t, NeedMoreArgs, d.Call(nil, io.Discard))

	require.NoError(t, d.Register("boom", func(*Dispatcher, []string, io.Writer) Status { panic("kaboom") }))
	assert.ErrorIs(t, d.Register("boom", nil), object.ErrDuplicateName)
	status, _ = run(d, "boom")
	assert.Equal(t, UnknownError, status)

	status, out = run(d, "list_commands")
	assert.Equal(t, Success, status)
	assert.Contains(t, out, "sprintf\n")
	assert.Contains(t, out, "boom\n")

	assert.Equal(t, Success, d.Call([]string{"true"}, io.Discard))
	assert.Equal(t, False, d.Call([]string{"false"}, io.Discard))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, Success, StatusOf(nil))
	assert.Equal(t, Forbidden, StatusOf(&object.ReadOnlyError{Attribute: "x"}))
	assert.Equal(t, InvalidArgument, StatusOf(object.ErrReservedPrefix))
	assert.Equal(t, Forbidden, StatusOf(object.ErrDuplicateName))
	assert.Equal(t, NeedMoreArgs, StatusOf(ErrTooFewArguments))
	assert.Equal(t, UnknownError, StatusOf(ErrInternal))
	assert.Equal(t, InvalidArgument, StatusOf(errors.New("other")))
	assert.Equal(t, "need-more-args", NeedMoreArgs.String())
}

func TestHelp(t *testing.T) {
	tree := object.NewTree()
	theme := object.NewNode("theme")
	active := object.NewNode("active")
	width := object.NewInt("border_width", 1).Writeable().WithDoc("border width in pixels")
	active.MustAddAttributes(width)
	require.NoError(t, theme.AddChild(active))
	proxy, err := object.NewProxy("border_width", width)
	require.NoError(t, err)
	require.NoError(t, theme.AddAttribute(proxy))
	require.NoError(t, theme.AddAction("reset", "reset: restore every default", func([]string, io.Writer) error { return nil }))
	require.NoError(t, tree.Mount(theme))
	d := New(tree, log.New(io.Discard))

	tests := []struct {
		name string
		path string
		want []string
	}{
		{"attribute", "theme.active.border_width", []string{
			`Attribute "border_width" of object "theme.active"`,
			"Type: int", "Writeable: yes", "Current value: 1", "border width in pixels",
		}},
		{"proxy", "theme.border_width", []string{"Forwards to: theme.active.border_width"}},
		{"action", "theme.reset", []string{`Action "reset" of object "theme"`, "restore every default"}},
		{"object", "theme", []string{`Object "theme"`, "  reset: reset: restore every default"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := run(d, "help", tt.path)
			require.Equal(t, Success, status, out)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}

	status, _ := run(d, "help", "theme.nope.x")
	assert.Equal(t, InvalidArgument, status)
}
