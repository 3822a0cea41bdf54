// Package view projects the object tree onto a file hierarchy: objects
// are directories, attributes are files holding their value and a
// newline, and the root carries a JSON snapshot of the whole tree.
package view

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/objtree/internal/object"
)

// TreeFile is the virtual snapshot file at the root.
const TreeFile = "_tree.json"

// collisionPrefix marks an attribute whose name is also a child's name.
const collisionPrefix = "@"

// Registry serializes access to the tree.
type Registry interface {
	Do(fn func(*object.Tree) error) error
}

// Entry describes one file or directory.
type Entry struct {
	Name     string
	Dir      bool
	Writable bool
	// Removable is set for user attributes.
	Removable bool
	Size      int64
}

// Mode is the permission set shown for the entry.
func (e Entry) Mode() fs.FileMode {
	switch {
	case e.Dir:
		return fs.ModeDir | 0o555
	case e.Writable:
		return 0o644
	default:
		return 0o444
	}
}

type View struct {
	reg     Registry
	mounted time.Time
}

func New(reg Registry) *View {
	return &View{reg: reg, mounted: time.Now()}
}

// MountTime is when the view was created; directories report it as
// their modification time.
func (v *View) MountTime() time.Time { return v.mounted }

// Stat describes the entry at the slash separated path p.
func (v *View) Stat(p string) (Entry, error) {
	var e Entry
	err := v.reg.Do(func(t *object.Tree) error {
		if isTreeFile(p) {
			data, err := snapshot(t)
			e = Entry{Name: TreeFile, Size: int64(len(data))}
			return err
		}
		r, err := resolve(t, p)
		if err != nil {
			return err
		}
		e = r.entry()
		return nil
	})
	return e, err
}

// List returns the entries of the directory at p: children first, then
// attributes, in registration order.
func (v *View) List(p string) ([]Entry, error) {
	var out []Entry
	err := v.reg.Do(func(t *object.Tree) error {
		r, err := resolve(t, p)
		if err != nil {
			return err
		}
		if r.node == nil {
			return fmt.Errorf("%w: %s is not a directory", fs.ErrInvalid, p)
		}
		if r.node == t.Root() {
			data, err := snapshot(t)
			if err != nil {
				return err
			}
			out = append(out, Entry{Name: TreeFile, Size: int64(len(data))})
		}
		for _, c := range r.node.Children() {
			out = append(out, resolved{node: c, name: c.Name()}.entry())
		}
		for _, a := range r.node.Attributes() {
			out = append(out, resolved{attr: a, name: fileName(r.node, a)}.entry())
		}
		return nil
	})
	return out, err
}

// Read returns the content of the file at p.
func (v *View) Read(p string) ([]byte, error) {
	var data []byte
	err := v.reg.Do(func(t *object.Tree) error {
		if isTreeFile(p) {
			var err error
			data, err = snapshot(t)
			return err
		}
		r, err := resolve(t, p)
		if err != nil {
			return err
		}
		if r.attr == nil {
			return fmt.Errorf("%w: %s is a directory", fs.ErrInvalid, p)
		}
		data = content(r.attr)
		return nil
	})
	return data, err
}

// Write assigns data, minus one trailing newline, to the attribute at p.
func (v *View) Write(p string, data []byte) error {
	return v.reg.Do(func(t *object.Tree) error {
		if isTreeFile(p) {
			return fmt.Errorf("%w: %s is read-only", fs.ErrPermission, TreeFile)
		}
		r, err := resolve(t, p)
		if err != nil {
			return err
		}
		if r.attr == nil {
			return fmt.Errorf("%w: %s is a directory", fs.ErrInvalid, p)
		}
		return osError(r.attr.Assign(strings.TrimSuffix(string(data), "\n")))
	})
}

// Create makes a string user attribute at p. Creating an existing
// attribute succeeds without changing it.
func (v *View) Create(p string) error {
	return v.reg.Do(func(t *object.Tree) error {
		if isTreeFile(p) {
			return nil
		}
		r, err := resolve(t, p)
		if err == nil {
			if r.attr == nil {
				return fmt.Errorf("%w: %s is a directory", fs.ErrExist, p)
			}
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		_, err = t.CreateUserAttribute(object.KindString, objectPath(p))
		return osError(err)
	})
}

// Remove deletes the user attribute at p.
func (v *View) Remove(p string) error {
	return v.reg.Do(func(t *object.Tree) error {
		if isTreeFile(p) {
			return fmt.Errorf("%w: %s is read-only", fs.ErrPermission, TreeFile)
		}
		r, err := resolve(t, p)
		if err != nil {
			return err
		}
		if r.attr == nil {
			return fmt.Errorf("%w: objects cannot be removed", fs.ErrPermission)
		}
		return osError(t.RemoveUserAttribute(r.attr.Path()))
	})
}

type resolved struct {
	name string
	node *object.Node
	attr *object.Attribute
}

func (r resolved) entry() Entry {
	if r.node != nil {
		return Entry{Name: r.name, Dir: true}
	}
	return Entry{
		Name:      r.name,
		Writable:  r.attr.CanWrite(),
		Removable: r.attr.UserDefined(),
		Size:      int64(len(content(r.attr))),
	}
}

func resolve(t *object.Tree, p string) (resolved, error) {
	segs := segments(p)
	node := t.Root()
	if len(segs) == 0 {
		return resolved{name: "/", node: node}, nil
	}
	for _, seg := range segs[:len(segs)-1] {
		if node = node.Child(seg); node == nil {
			return resolved{}, notExist(p)
		}
	}
	last := segs[len(segs)-1]
	if c := node.Child(last); c != nil {
		return resolved{name: last, node: c}, nil
	}
	if a := node.Attribute(last); a != nil {
		return resolved{name: last, attr: a}, nil
	}
	if name, ok := strings.CutPrefix(last, collisionPrefix); ok {
		if a := node.Attribute(name); a != nil && node.Child(name) != nil {
			return resolved{name: last, attr: a}, nil
		}
	}
	return resolved{}, notExist(p)
}

func fileName(n *object.Node, a *object.Attribute) string {
	if n.Child(a.Name()) != nil {
		return collisionPrefix + a.Name()
	}
	return a.Name()
}

func content(a *object.Attribute) []byte {
	return []byte(a.String() + "\n")
}

func snapshot(t *object.Tree) ([]byte, error) {
	s := oj.JSON(object.Snapshot(t.Root()), &oj.Options{Sort: true, Indent: 2})
	return []byte(s + "\n"), nil
}

func segments(p string) []string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func objectPath(p string) string {
	return object.JoinPath(segments(p)...)
}

func isTreeFile(p string) bool {
	segs := segments(p)
	return len(segs) == 1 && segs[0] == TreeFile
}

func notExist(p string) error {
	return fmt.Errorf("%w: %s", fs.ErrNotExist, p)
}

// osError maps registry errors onto io/fs errors.
func osError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, object.ErrPathNotFound), errors.Is(err, object.ErrUnknownAttribute):
		return fmt.Errorf("%w: %v", fs.ErrNotExist, err)
	case errors.Is(err, object.ErrReadOnly), errors.Is(err, object.ErrForbidden),
		errors.Is(err, object.ErrReservedPrefix):
		return fmt.Errorf("%w: %v", fs.ErrPermission, err)
	case errors.Is(err, object.ErrDuplicateName):
		return fmt.Errorf("%w: %v", fs.ErrExist, err)
	default:
		return fmt.Errorf("%w: %v", fs.ErrInvalid, err)
	}
}
