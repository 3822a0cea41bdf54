// Package clients registers one object per managed window below the
// clients node.
package clients

import (
	"fmt"
	"io"
	"strconv"

	"github.com/agentic-research/objtree/internal/command"
	"github.com/agentic-research/objtree/internal/object"
)

// DefaultTag is the tag a client lands on when manage names none.
const DefaultTag = "default"

// Effects is what the window manager does when a client's state changes.
type Effects interface {
	Relayout(tag string)
	FullscreenChanged(winid string, on bool)
	KeyMaskChanged(winid string)
}

// Clients owns the clients node.
type Clients struct {
	node    *object.Node
	effects Effects
	byID    map[string]*Client
}

// Client is one managed window.
type Client struct {
	winid string
	tag   string
	node  *object.Node

	title      *object.Attribute
	urgent     *object.Attribute
	fullscreen *object.Attribute
}

func New(effects Effects) *Clients {
	c := &Clients{
		node:    object.NewNode("clients"),
		effects: effects,
		byID:    make(map[string]*Client),
	}
	c.node.MustAddAttributes(
		object.NewComputedInt("count", func() int64 { return int64(len(c.byID)) }).
			WithDoc("the number of managed clients"),
	)

	mustAction(c.node, "manage", "manage WINID TITLE [PID [TAG]]: start managing a window", c.manageAction)
	mustAction(c.node, "unmanage", "unmanage WINID: forget a window", c.unmanageAction)
	mustAction(c.node, "retitle", "retitle WINID TITLE: record a new window title", c.retitleAction)
	mustAction(c.node, "set_urgent", "set_urgent WINID BOOL: record the urgency hint", c.urgentAction)
	mustAction(c.node, "move", "move WINID TAG: put a client on another tag", c.moveAction)
	return c
}

func (c *Clients) Node() *object.Node { return c.node }

// Client returns the client with the given window id, or nil.
func (c *Clients) Client(winid string) *Client {
	id, err := ParseWindowID(winid)
	if err != nil {
		return nil
	}
	return c.byID[id]
}

// ParseWindowID accepts decimal or 0x-prefixed ids and returns the
// canonical lower case hex spelling used as object name.
func ParseWindowID(s string) (string, error) {
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil || n == 0 {
		return "", &object.ParseError{Kind: object.KindString, Input: s, Err: fmt.Errorf("invalid window id")}
	}
	return fmt.Sprintf("0x%x", n), nil
}

// Manage creates the object of a new client.
func (c *Clients) Manage(winid, title string, pid int64, tag string) (*Client, error) {
	id, err := ParseWindowID(winid)
	if err != nil {
		return nil, err
	}
	if _, ok := c.byID[id]; ok {
		return nil, fmt.Errorf("%w: client %s is already managed", object.ErrDuplicateName, id)
	}
	if tag == "" {
		tag = DefaultTag
	}
	cl := &Client{winid: id, tag: tag, node: object.NewNode(id)}

	cl.title = object.NewString("title", title).Unhookable().
		WithDoc("the window title; changes reach attribute listeners only")
	cl.urgent = object.NewBool("urgent", false).WithDoc("the urgency hint of the window")
	cl.fullscreen = object.NewBool("fullscreen", false).Writeable()
	pseudotile := object.NewBool("pseudotile", false).Writeable().
		WithDoc("keep the floating size inside a tiled frame")
	keymask := object.NewString("keymask", "").Writeable().
		WithDoc("regular expression of keybindings disabled while focused")

	cl.node.MustAddAttributes(
		object.NewString("winid", id),
		cl.title,
		object.NewInt("pid", pid).WithDoc("process id of the window owner, -1 if unknown"),
		object.NewComputedString("tag", func() string { return cl.tag }).
			WithDoc("name of the tag the client is on"),
		cl.urgent,
		cl.fullscreen,
		pseudotile,
		keymask,
		object.NewBool("ewmhrequests", true).Writeable(),
		object.NewBool("ewmhnotify", true).Writeable(),
		object.NewBool("sizehints_floating", true).Writeable(),
		object.NewBool("sizehints_tiling", false).Writeable(),
	)

	relayout := func(object.Change) { c.effects.Relayout(cl.tag) }
	cl.fullscreen.OnChange(relayout)
	pseudotile.OnChange(relayout)
	cl.fullscreen.OnChange(func(object.Change) { c.effects.FullscreenChanged(id, cl.fullscreen.Bool()) })
	keymask.OnChange(func(object.Change) { c.effects.KeyMaskChanged(id) })

	if err := c.node.AddChild(cl.node); err != nil {
		return nil, err
	}
	c.byID[id] = cl
	c.effects.Relayout(tag)
	return cl, nil
}

// Unmanage removes a client's object. Observers of it are dropped.
func (c *Clients) Unmanage(winid string) error {
	cl := c.Client(winid)
	if cl == nil {
		return &object.PathError{Path: winid, Parent: c.node.Name(), Segment: winid}
	}
	if err := c.node.RemoveChild(cl.winid); err != nil {
		return err
	}
	delete(c.byID, cl.winid)
	c.effects.Relayout(cl.tag)
	return nil
}

func (cl *Client) WindowID() string   { return cl.winid }
func (cl *Client) Tag() string        { return cl.tag }
func (cl *Client) Node() *object.Node { return cl.node }

func (c *Clients) lookup(winid string) (*Client, error) {
	cl := c.Client(winid)
	if cl == nil {
		return nil, &object.PathError{Path: winid, Parent: c.node.Name(), Segment: winid}
	}
	return cl, nil
}

func (c *Clients) manageAction(args []string, _ io.Writer) error {
	if len(args) < 2 {
		return command.ErrTooFewArguments
	}
	pid := int64(-1)
	if len(args) >= 3 {
		n, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return &object.ParseError{Kind: object.KindInt, Input: args[2]}
		}
		pid = n
	}
	tag := ""
	if len(args) >= 4 {
		tag = args[3]
	}
	_, err := c.Manage(args[0], args[1], pid, tag)
	return err
}

func (c *Clients) unmanageAction(args []string, _ io.Writer) error {
	if len(args) < 1 {
		return command.ErrTooFewArguments
	}
	return c.Unmanage(args[0])
}

func (c *Clients) retitleAction(args []string, _ io.Writer) error {
	if len(args) < 2 {
		return command.ErrTooFewArguments
	}
	cl, err := c.lookup(args[0])
	if err != nil {
		return err
	}
	return cl.title.Update(object.StringValue(args[1]))
}

func (c *Clients) urgentAction(args []string, _ io.Writer) error {
	if len(args) < 2 {
		return command.ErrTooFewArguments
	}
	cl, err := c.lookup(args[0])
	if err != nil {
		return err
	}
	on, err := object.ParseBool(args[1], cl.urgent.Bool())
	if err != nil {
		return &object.ParseError{Kind: object.KindBool, Input: args[1]}
	}
	return cl.urgent.Update(object.BoolValue(on))
}

func (c *Clients) moveAction(args []string, _ io.Writer) error {
	if len(args) < 2 {
		return command.ErrTooFewArguments
	}
	cl, err := c.lookup(args[0])
	if err != nil {
		return err
	}
	if args[1] == "" || args[1] == cl.tag {
		return nil
	}
	from := cl.tag
	cl.tag = args[1]
	c.effects.Relayout(from)
	c.effects.Relayout(cl.tag)
	return nil
}

func mustAction(n *object.Node, name, doc string, fn object.ActionFunc) {
	if err := n.AddAction(name, doc, fn); err != nil {
		panic(err)
	}
}
