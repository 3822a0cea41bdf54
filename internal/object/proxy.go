package object

import "fmt"

// NewProxy creates an attribute that stores nothing itself. Reads return
// the first target's value, writes go to every target in order, and a
// change of any target is re-raised as a change of the proxy.
func NewProxy(name string, targets ...*Attribute) (*Attribute, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("proxy %q needs at least one target", name)
	}
	kind := targets[0].Kind()
	for _, t := range targets[1:] {
		if t.Kind() != kind {
			return nil, fmt.Errorf("proxy %q: target %q is %s, want %s", name, t.Path(), t.Kind(), kind)
		}
	}
	p := &Attribute{
		name:     name,
		kind:     kind,
		targets:  targets,
		hookable: true,
	}
	for _, t := range targets {
		p.detach = append(p.detach, t.OnChange(func(c Change) {
			p.notify(c.Old, c.New)
		}))
	}
	return p, nil
}

// MustProxy is NewProxy for targets known to share a kind.
func MustProxy(name string, targets ...*Attribute) *Attribute {
	p, err := NewProxy(name, targets...)
	if err != nil {
		panic(err)
	}
	return p
}
