// Package settings registers the global window manager settings.
package settings

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"unicode/utf8"

	"github.com/agentic-research/objtree/internal/command"
	"github.com/agentic-research/objtree/internal/object"
)

// LayoutCount is the number of frame layout algorithms.
const LayoutCount = 4

// Effects is what the rest of the window manager does in reaction to a
// changed setting.
type Effects interface {
	Relayout()
	FrameColorsChanged()
	MonitorsLockChanged(locked bool)
	WMNameChanged(name string)
}

// Settings owns the settings node.
type Settings struct {
	node    *object.Node
	effects Effects
}

func New(effects Effects) *Settings {
	s := &Settings{node: object.NewNode("settings"), effects: effects}

	relayout := s.accept(effects.Relayout)
	frameColors := s.accept(effects.FrameColorsChanged)

	s.node.MustAddAttributes(
		object.NewInt("frame_gap", 5).WithValidator(relayout).
			WithDoc("pixels between neighbouring frames"),
		object.NewInt("frame_padding", 0).WithValidator(relayout),
		object.NewInt("window_gap", 0).WithValidator(relayout),
		object.NewInt("snap_distance", 10).WithValidator(nonNegative),
		object.NewInt("snap_gap", 5).WithValidator(nonNegative),
		object.NewInt("mouse_recenter_gap", 0).WithValidator(nonNegative),
		object.NewColor("frame_border_active_color", "red").WithValidator(frameColors),
		object.NewColor("frame_border_normal_color", "blue").WithValidator(frameColors),
		object.NewColor("frame_border_inner_color", "black").WithValidator(frameColors),
		object.NewColor("frame_bg_normal_color", "black").WithValidator(frameColors),
		object.NewColor("frame_bg_active_color", "black").WithValidator(frameColors),
		object.NewInt("frame_border_width", 2).WithValidator(all(nonNegative, frameColors)),
		object.NewInt("frame_border_inner_width", 0).WithValidator(all(nonNegative, frameColors)),
		object.NewInt("frame_active_opacity", 100).WithValidator(all(percentage, frameColors)),
		object.NewInt("frame_normal_opacity", 60).WithValidator(all(percentage, frameColors)),
		object.NewBool("focus_follows_mouse", false).Writeable(),
		object.NewBool("raise_on_focus", false).Writeable(),
		object.NewBool("gapless_grid", true).WithValidator(relayout),
		object.NewBool("smart_window_surroundings", false).WithValidator(relayout),
		object.NewBool("smart_frame_surroundings", false).WithValidator(relayout),
		object.NewUint("default_frame_layout", 0).WithValidator(layoutIndex).
			WithDoc("index of the layout new frames start with"),
		object.NewInt("monitors_locked", 0).WithValidator(all(nonNegative, s.lockChanged)).
			WithDoc("while positive, monitors are not redrawn"),
		object.NewString("tree_style", "*| +`--.").WithValidator(treeStyle).
			WithDoc("at least 8 characters used to draw trees"),
		object.NewString("wmname", "LG3D").WithValidator(s.wmnameChanged),
	)

	mustAction(s.node, "toggle", "toggle NAME: flip a bool setting", s.toggle)
	mustAction(s.node, "cycle_value", "cycle_value NAME VALUES...: set the value after the current one", s.cycleValue)
	return s
}

func (s *Settings) Node() *object.Node { return s.node }

// compat maps the old flat setting names onto theme attributes: reads
// come from the first path, writes go to both.
var compat = []struct {
	name        string
	read, write string
}{
	{"window_border_width", "theme.tiling.active.border_width", "theme.border_width"},
	{"window_border_inner_width", "theme.tiling.active.inner_width", "theme.inner_width"},
	{"window_border_inner_color", "theme.tiling.active.inner_color", "theme.inner_color"},
	{"window_border_active_color", "theme.tiling.active.border_color", "theme.active.border_color"},
	{"window_border_normal_color", "theme.tiling.normal.border_color", "theme.normal.border_color"},
	{"window_border_urgent_color", "theme.tiling.urgent.border_color", "theme.urgent.border_color"},
}

// AddCompatibility registers the legacy window_border_* settings as
// proxies of theme attributes found through resolve.
func (s *Settings) AddCompatibility(resolve func(path string) (*object.Attribute, error)) error {
	for _, c := range compat {
		read, err := resolve(c.read)
		if err != nil {
			return fmt.Errorf("compat setting %s: %w", c.name, err)
		}
		write, err := resolve(c.write)
		if err != nil {
			return fmt.Errorf("compat setting %s: %w", c.name, err)
		}
		p, err := object.NewProxy(c.name, read, write)
		if err != nil {
			return err
		}
		if err := s.node.AddAttribute(p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Settings) accept(effect func()) object.Validator {
	return func(object.Value) error {
		effect()
		return nil
	}
}

func (s *Settings) lockChanged(v object.Value) error {
	s.effects.MonitorsLockChanged(v.(object.IntValue) > 0)
	return nil
}

func (s *Settings) wmnameChanged(v object.Value) error {
	s.effects.WMNameChanged(v.String())
	return nil
}

func (s *Settings) toggle(args []string, _ io.Writer) error {
	if len(args) < 1 {
		return command.ErrTooFewArguments
	}
	a := s.node.Attribute(args[0])
	if a == nil {
		return &object.AttributeError{Name: args[0], Object: "settings."}
	}
	if a.Kind() != object.KindBool {
		return fmt.Errorf("setting %q is not a bool", args[0])
	}
	return a.Assign("toggle")
}

// cycleValue sets the value following the current one in args, wrapping
// around; when the current value is not listed the first one is taken.
func (s *Settings) cycleValue(args []string, _ io.Writer) error {
	if len(args) < 2 {
		return command.ErrTooFewArguments
	}
	a := s.node.Attribute(args[0])
	if a == nil {
		return &object.AttributeError{Name: args[0], Object: "settings."}
	}
	values := args[1:]
	next := 0
	if i := slices.Index(values, a.String()); i >= 0 {
		next = (i + 1) % len(values)
	}
	return a.Assign(values[next])
}

func all(validators ...object.Validator) object.Validator {
	return func(v object.Value) error {
		for _, fn := range validators {
			if err := fn(v); err != nil {
				return err
			}
		}
		return nil
	}
}

func nonNegative(v object.Value) error {
	if v.(object.IntValue) < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func percentage(v object.Value) error {
	if n := v.(object.IntValue); n < 0 || n > 100 {
		return errors.New("must be between 0 and 100")
	}
	return nil
}

func layoutIndex(v object.Value) error {
	if v.(object.UintValue) >= LayoutCount {
		return fmt.Errorf("layout index must be below %d", LayoutCount)
	}
	return nil
}

func treeStyle(v object.Value) error {
	if utf8.RuneCountInString(v.String()) < 8 {
		return errors.New("tree_style needs at least 8 characters")
	}
	return nil
}

func mustAction(n *object.Node, name, doc string, fn object.ActionFunc) {
	if err := n.AddAction(name, doc, fn); err != nil {
		panic(err)
	}
}
