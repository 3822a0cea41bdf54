package object

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schemeFixture struct {
	tree     *Tree
	tiling   *Attribute
	floating *Attribute
	proxy    *Attribute
}

func newSchemeFixture(t *testing.T, floatingValidator Validator) schemeFixture {
	t.Helper()
	tree := NewTree()
	tiling := NewNode("tiling")
	floating := NewNode("floating")
	scheme := NewNode("scheme")
	tb := NewInt("border_width", 1).Writeable()
	fb := NewInt("border_width", 1).WithValidator(floatingValidator)
	tiling.MustAddAttributes(tb)
	floating.MustAddAttributes(fb)
	proxy := MustProxy("border_width", tb, fb)
	scheme.MustAddAttributes(proxy)
	for _, n := range []*Node{tiling, floating, scheme} {
		require.NoError(t, tree.Mount(n))
	}
	return schemeFixture{tree: tree, tiling: tb, floating: fb, proxy: proxy}
}

func TestProxy_WritesAllTargets(t *testing.T) {
	f := newSchemeFixture(t, AcceptAll)
	var changes []Change
	f.proxy.Owner().AddHook(func(c Change) { changes = append(changes, c) })

	a, err := f.tree.ResolveAttribute("scheme.border_width")
	require.NoError(t, err)
	require.NoError(t, a.Assign("3"))

	assert.Equal(t, "3", f.tiling.String())
	assert.Equal(t, "3", f.floating.String())
	assert.Equal(t, "3", f.proxy.String())
	// one re-raised change per target
	require.Len(t, changes, 2)
	assert.Equal(t, "scheme.border_width", changes[0].Path)
	assert.Equal(t, "1", changes[0].Old)
	assert.Equal(t, "3", changes[0].New)
}

func TestProxy_PartialFailureKeepsEarlierTargets(t *testing.T) {
	f := newSchemeFixture(t, func(Value) error { return errors.New("floating refuses") })

	err := f.proxy.Assign("3")
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "floating refuses", rejected.Message)
	assert.Equal(t, "3", f.tiling.String())
	assert.Equal(t, "1", f.floating.String())
}

func TestProxy_ReadsFirstTarget(t *testing.T) {
	f := newSchemeFixture(t, AcceptAll)
	require.NoError(t, f.floating.Assign("8"))
	assert.Equal(t, "1", f.proxy.String())
	assert.True(t, f.proxy.CanWrite())
	assert.Equal(t, KindInt, f.proxy.Kind())
}

func TestProxy_ReRaisesTargetChanges(t *testing.T) {
	f := newSchemeFixture(t, AcceptAll)
	raised := 0
	f.proxy.OnChange(func(Change) { raised++ })
	require.NoError(t, f.floating.Assign("4"))
	assert.Equal(t, 1, raised)
}

func TestProxy_Nested(t *testing.T) {
	f := newSchemeFixture(t, AcceptAll)
	outer := MustProxy("border_width", f.proxy)
	require.NoError(t, outer.Assign("6"))
	assert.Equal(t, "6", f.tiling.String())
	assert.Equal(t, "6", f.floating.String())
}

func TestProxy_KindMismatch(t *testing.T) {
	_, err := NewProxy("x", NewInt("a", 1), NewString("b", ""))
	assert.Error(t, err)
	_, err = NewProxy("x")
	assert.Error(t, err)
}

func TestProxy_ReadOnlyTarget(t *testing.T) {
	p := MustProxy("p", NewInt("a", 1))
	assert.False(t, p.CanWrite())
	assert.ErrorIs(t, p.Assign("2"), ErrReadOnly)
}

func TestProxy_DetachedOnRemoval(t *testing.T) {
	f := newSchemeFixture(t, AcceptAll)
	raised := 0
	f.proxy.OnChange(func(Change) { raised++ })
	require.NoError(t, f.tree.Root().RemoveChild("scheme"))

	require.NoError(t, f.tiling.Assign("2"))
	assert.Equal(t, 0, raised)
}
