package object

import "fmt"

// Assign parses s and writes it to the attribute. Parsing, the equality
// check, tentative storage, validation and rollback all happen here;
// observers are only notified for committed changes.
func (a *Attribute) Assign(s string) error {
	if a.IsProxy() {
		return a.assignTargets(s)
	}
	if !a.CanWrite() {
		return &ReadOnlyError{Attribute: a.name}
	}
	if a.kind.Computed() {
		return a.assignComputed(s)
	}

	next, err := Parse(a.kind, s, a.value)
	if err != nil {
		return err
	}
	if next.Equal(a.value) && !a.alwaysNotify {
		return nil
	}

	prev := a.value
	a.value = next
	if err := a.validate(next); err != nil {
		a.value = prev
		return &RejectedError{Attribute: a.name, Message: err.Error()}
	}
	a.notify(prev.String(), next.String())
	return nil
}

func (a *Attribute) assignComputed(s string) error {
	old := a.getter().String()
	if err := a.validateString(s); err != nil {
		return &RejectedError{Attribute: a.name, Message: err.Error()}
	}
	a.notify(old, a.getter().String())
	return nil
}

// assignTargets writes every target in order. There is no transaction
// across targets: a rejection stops the walk and earlier targets keep
// the new value.
func (a *Attribute) assignTargets(s string) error {
	for _, t := range a.targets {
		if err := t.Assign(s); err != nil {
			return err
		}
	}
	return nil
}

// Update stores v on behalf of the subsystem that owns the attribute. It
// skips the writeable check and the validator, so read-only attributes
// can track outside state; observers see the change as usual.
func (a *Attribute) Update(v Value) error {
	if a.IsProxy() || a.kind.Computed() {
		return fmt.Errorf("attribute %q has no storage to update", a.name)
	}
	if v.Kind() != a.kind {
		return fmt.Errorf("attribute %q holds %s, not %s", a.name, a.kind, v.Kind())
	}
	if v.Equal(a.value) {
		return nil
	}
	prev := a.value
	a.value = v
	a.notify(prev.String(), v.String())
	return nil
}
