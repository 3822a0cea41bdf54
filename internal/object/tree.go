// Package object implements the typed attribute registry: a tree of nodes
// carrying attributes, actions and change hooks, addressed by dotted paths.
package object

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring"
)

const (
	// UserPrefix starts the name of every user defined attribute.
	UserPrefix = "my_"
	// TmpName is the child of the root holding temporary attributes.
	TmpName = "tmp"
)

// Tree is the registry: a root node plus the scratch node for temporary
// attributes. It is not safe for concurrent use.
type Tree struct {
	root   *Node
	tmp    *Node
	tmpIDs *roaring.Bitmap
}

func NewTree() *Tree {
	root := NewNode("root")
	tmp := NewNode(TmpName)
	if err := root.AddChild(tmp); err != nil {
		panic(err)
	}
	return &Tree{root: root, tmp: tmp, tmpIDs: roaring.New()}
}

func (t *Tree) Root() *Node { return t.root }
func (t *Tree) Tmp() *Node  { return t.tmp }

// Mount links a subsystem's node below the root.
func (t *Tree) Mount(n *Node) error {
	if err := t.root.AddChild(n); err != nil {
		return fmt.Errorf("mount %q: %w", n.Name(), err)
	}
	return nil
}

// CreateUserAttribute creates a writeable attribute of kind k at path.
// Every segment but the last must name an existing node and the last one
// must carry UserPrefix.
func (t *Tree) CreateUserAttribute(k Kind, path string) (*Attribute, error) {
	if k.Computed() {
		return nil, fmt.Errorf("user attributes cannot be of computed type %s", k)
	}
	node, name, err := t.resolveLeaf(path)
	if err != nil {
		return nil, err
	}
	if node.Attribute(name) != nil {
		return nil, fmt.Errorf("%w: an attribute called %q already exists", ErrDuplicateName, name)
	}
	if !strings.HasPrefix(name, UserPrefix) {
		return nil, fmt.Errorf("%w: the name of user attributes has to start with %q but yours is %q",
			ErrReservedPrefix, UserPrefix, name)
	}
	a := NewAttribute(name, Zero(k)).Writeable()
	a.userDefined = true
	if err := node.AddAttribute(a); err != nil {
		return nil, err
	}
	return a, nil
}

// RemoveUserAttribute deletes a user defined attribute. Built-in
// attributes are refused with ErrForbidden.
func (t *Tree) RemoveUserAttribute(path string) error {
	a, err := t.ResolveAttribute(path)
	if err != nil {
		return err
	}
	if !a.userDefined {
		return fmt.Errorf("%w: can only remove user-defined attributes, but %q is not user-defined",
			ErrForbidden, path)
	}
	return a.owner.RemoveAttribute(a.name)
}

// UserAttributes lists every user defined attribute outside the scratch
// node, depth first in listing order.
func (t *Tree) UserAttributes() []*Attribute {
	var out []*Attribute
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == t.tmp {
			return
		}
		for _, a := range n.Attributes() {
			if a.userDefined {
				out = append(out, a)
			}
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(t.root)
	return out
}

// WithTemporary creates a user attribute of kind k below the scratch node,
// passes its path to fn and removes the attribute again however fn
// returns. Nested calls get distinct names; the lowest free number is
// reused.
func (t *Tree) WithTemporary(k Kind, fn func(path string) error) error {
	id := t.nextTmpID()
	name := tmpName(id)
	path := JoinPath(TmpName, name)
	if _, err := t.CreateUserAttribute(k, path); err != nil {
		return err
	}
	t.tmpIDs.Add(id)
	defer func() {
		t.tmpIDs.Remove(id)
		_ = t.tmp.RemoveAttribute(name)
	}()
	return fn(path)
}

func (t *Tree) nextTmpID() uint32 {
	for id := uint32(1); ; id++ {
		if !t.tmpIDs.Contains(id) && t.tmp.Attribute(tmpName(id)) == nil {
			return id
		}
	}
}

func tmpName(id uint32) string {
	return UserPrefix + "tmp" + strconv.FormatUint(uint64(id), 10)
}
