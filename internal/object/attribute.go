package object

import (
	"slices"
	"strings"
)

// Validator inspects a tentatively stored value. A non-nil error rejects
// the write and the previous value is restored.
type Validator func(Value) error

// StringValidator receives the raw text written to a computed attribute.
type StringValidator func(string) error

// AcceptAll is the validator of attributes that take any parseable value.
func AcceptAll(Value) error { return nil }

// Change describes a committed write.
type Change struct {
	Path      string
	Attribute *Attribute
	Old       string
	New       string
}

// Hook observes committed changes.
type Hook func(Change)

type listener struct {
	id uint64
	fn Hook
}

// Attribute is a typed, named slot on a Node. Its storage is either an
// inline value, a getter (computed kinds) or a list of proxy targets.
type Attribute struct {
	name  string
	kind  Kind
	owner *Node
	doc   string

	value   Value
	initial Value
	getter  func() Value

	targets []*Attribute
	detach  []func()

	validate       Validator
	validateString StringValidator

	hookable     bool
	userDefined  bool
	alwaysNotify bool

	listeners []listener
	nextID    uint64
}

// NewAttribute creates a read-only attribute holding v. Call
// WithValidator to make it writeable.
func NewAttribute(name string, v Value) *Attribute {
	return &Attribute{
		name:     name,
		kind:     v.Kind(),
		value:    v,
		initial:  v,
		hookable: true,
	}
}

func NewBool(name string, v bool) *Attribute     { return NewAttribute(name, BoolValue(v)) }
func NewInt(name string, v int64) *Attribute     { return NewAttribute(name, IntValue(v)) }
func NewUint(name string, v uint64) *Attribute   { return NewAttribute(name, UintValue(v)) }
func NewString(name string, v string) *Attribute { return NewAttribute(name, StringValue(v)) }
func NewColor(name string, v string) *Attribute  { return NewAttribute(name, MustColor(v)) }

// NewComputedInt creates an attribute whose value is produced by get.
func NewComputedInt(name string, get func() int64) *Attribute {
	return &Attribute{
		name:     name,
		kind:     KindComputedInt,
		getter:   func() Value { return IntValue(get()) },
		hookable: true,
	}
}

// NewComputedString creates an attribute whose value is produced by get.
func NewComputedString(name string, get func() string) *Attribute {
	return &Attribute{
		name:     name,
		kind:     KindComputedString,
		getter:   func() Value { return StringValue(get()) },
		hookable: true,
	}
}

// WithValidator makes a stored attribute writeable.
func (a *Attribute) WithValidator(v Validator) *Attribute {
	a.validate = v
	return a
}

// WithStringValidator makes a computed attribute writeable.
func (a *Attribute) WithStringValidator(v StringValidator) *Attribute {
	a.validateString = v
	return a
}

// Writeable is shorthand for WithValidator(AcceptAll).
func (a *Attribute) Writeable() *Attribute { return a.WithValidator(AcceptAll) }

// AlwaysNotify makes writes of an equal value run the validator and
// notify observers.
func (a *Attribute) AlwaysNotify() *Attribute {
	a.alwaysNotify = true
	return a
}

// Unhookable keeps node hooks from seeing changes of this attribute.
// Change listeners still run.
func (a *Attribute) Unhookable() *Attribute {
	a.hookable = false
	return a
}

func (a *Attribute) WithDoc(doc string) *Attribute {
	a.doc = doc
	return a
}

func (a *Attribute) Name() string      { return a.name }
func (a *Attribute) Kind() Kind        { return a.kind }
func (a *Attribute) Owner() *Node      { return a.owner }
func (a *Attribute) Doc() string       { return a.doc }
func (a *Attribute) Hookable() bool    { return a.hookable }
func (a *Attribute) UserDefined() bool { return a.userDefined }
func (a *Attribute) IsProxy() bool     { return len(a.targets) > 0 }

// Targets returns a copy of the proxy target list.
func (a *Attribute) Targets() []*Attribute { return slices.Clone(a.targets) }

// CanWrite reports whether Assign can succeed at all.
func (a *Attribute) CanWrite() bool {
	switch {
	case a.IsProxy():
		return a.targets[0].CanWrite()
	case a.kind.Computed():
		return a.validateString != nil
	default:
		return a.validate != nil
	}
}

// Value returns the current value. A proxy reads its first target.
func (a *Attribute) Value() Value {
	switch {
	case a.IsProxy():
		return a.targets[0].Value()
	case a.getter != nil:
		return a.getter()
	default:
		return a.value
	}
}

// String is the serialized form of the current value.
func (a *Attribute) String() string { return a.Value().String() }

func (a *Attribute) Bool() bool {
	v, _ := a.Value().(BoolValue)
	return bool(v)
}

func (a *Attribute) Int() int64 {
	v, _ := a.Value().(IntValue)
	return int64(v)
}

// Path is the full separator joined path of the attribute.
func (a *Attribute) Path() string {
	if a.owner == nil {
		return a.name
	}
	p := a.owner.Path()
	if p == "" {
		return a.name
	}
	return p + string(Separator) + a.name
}

// OnChange registers fn to run after every committed change, before node
// hooks. The returned function removes the registration.
func (a *Attribute) OnChange(fn Hook) (cancel func()) {
	a.nextID++
	id := a.nextID
	a.listeners = append(a.listeners, listener{id: id, fn: fn})
	return func() {
		a.listeners = slices.DeleteFunc(a.listeners, func(l listener) bool { return l.id == id })
	}
}

// Reset writes the initial value back through Assign. Proxies reset
// every target; computed attributes have nothing to reset.
func (a *Attribute) Reset() error {
	switch {
	case a.IsProxy():
		for _, t := range a.targets {
			if err := t.Reset(); err != nil {
				return err
			}
		}
		return nil
	case a.initial == nil:
		return nil
	default:
		return a.Assign(a.initial.String())
	}
}

func (a *Attribute) notify(old, new string) {
	ch := Change{Path: a.Path(), Attribute: a, Old: old, New: new}
	for _, l := range slices.Clone(a.listeners) {
		l.fn(ch)
	}
	if a.hookable && a.owner != nil {
		a.owner.fireHooks(ch)
	}
}

func (a *Attribute) release() {
	for _, cancel := range a.detach {
		cancel()
	}
	a.detach = nil
	a.owner = nil
}

func hasSeparator(s string) bool {
	return strings.ContainsRune(s, Separator)
}
