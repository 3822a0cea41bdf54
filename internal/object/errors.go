package object

import (
	"errors"
	"fmt"
)

var (
	ErrPathNotFound     = errors.New("path not found")
	ErrUnknownAttribute = errors.New("unknown attribute")
	ErrReadOnly         = errors.New("attribute is read-only")
	ErrParse            = errors.New("cannot parse value")
	ErrRejected         = errors.New("value rejected")
	ErrDuplicateName    = errors.New("name already exists")
	ErrForbidden        = errors.New("operation not permitted")

	// ErrReservedPrefix is returned for user attribute names lacking the
	// user prefix. It matches ErrDuplicateName as well.
	ErrReservedPrefix = fmt.Errorf("%w: reserved prefix", ErrDuplicateName)
)

// PathError reports the first path segment that names no child.
type PathError struct {
	Path    string
	Parent  string // name of the last node that did resolve
	Segment string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("Invalid path %q: No child %q in object %s", e.Path, e.Segment, e.Parent)
}

func (e *PathError) Unwrap() error { return ErrPathNotFound }

// AttributeError reports a missing attribute or action on a resolved node.
type AttributeError struct {
	Name   string
	Object string // path of the node, with trailing separator
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("Unknown attribute %q in object %q.", e.Name, e.Object)
}

func (e *AttributeError) Unwrap() error { return ErrUnknownAttribute }

type ReadOnlyError struct {
	Attribute string
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("Can not write read-only attribute %q", e.Attribute)
}

func (e *ReadOnlyError) Unwrap() error { return ErrReadOnly }

type ParseError struct {
	Kind  Kind
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Can not parse %s from %q: %v", e.Kind, e.Input, e.Err)
	}
	return fmt.Sprintf("Can not parse %s from %q", e.Kind, e.Input)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// RejectedError carries the message of a validator that refused a value.
type RejectedError struct {
	Attribute string
	Message   string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("Can not write attribute %q: %s", e.Attribute, e.Message)
}

func (e *RejectedError) Unwrap() error { return ErrRejected }
