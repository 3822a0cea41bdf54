package object

import "strings"

// Separator delimits path segments.
const Separator = '.'

const sep = string(Separator)

// resolvePrefix walks path from the root as far as children exist. It
// returns the deepest node reached and the unparsed rest of the path. The
// error describes the first segment that names no child.
func (t *Tree) resolvePrefix(path string) (*Node, string, *PathError) {
	node := t.root
	rest := strings.TrimLeft(path, sep)
	for rest != "" {
		seg, tail, _ := strings.Cut(rest, sep)
		child := node.Child(seg)
		if child == nil {
			return node, rest, &PathError{Path: path, Parent: node.displayName(), Segment: seg}
		}
		node = child
		rest = strings.TrimLeft(tail, sep)
	}
	return node, "", nil
}

// ResolveNode returns the node the whole path names. The empty path is
// the root.
func (t *Tree) ResolveNode(path string) (*Node, error) {
	node, _, perr := t.resolvePrefix(path)
	if perr != nil {
		return nil, perr
	}
	return node, nil
}

// ResolveAttribute returns the attribute named by the last segment of
// path on the node named by the segments before it.
func (t *Tree) ResolveAttribute(path string) (*Attribute, error) {
	node, name, err := t.resolveLeaf(path)
	if err != nil {
		return nil, err
	}
	a := node.Attribute(name)
	if a == nil {
		return nil, &AttributeError{Name: name, Object: path[:len(path)-len(name)]}
	}
	return a, nil
}

// ResolveAction is ResolveAttribute for actions.
func (t *Tree) ResolveAction(path string) (*Action, error) {
	node, name, err := t.resolveLeaf(path)
	if err != nil {
		return nil, err
	}
	a := node.Action(name)
	if a == nil {
		return nil, &AttributeError{Name: name, Object: path[:len(path)-len(name)]}
	}
	return a, nil
}

func (t *Tree) resolveLeaf(path string) (*Node, string, error) {
	node, rest, perr := t.resolvePrefix(path)
	if perr != nil && hasSeparator(rest) {
		return nil, "", perr
	}
	return node, rest, nil
}

// JoinPath joins segments with the separator, skipping empty ones.
func JoinPath(segments ...string) string {
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.Trim(s, sep)
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, sep)
}
