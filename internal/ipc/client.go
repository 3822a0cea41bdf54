package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/agentic-research/objtree/api"
)

// Client talks to a running daemon.
type Client struct {
	conn    *jsonrpc2.Conn
	changes chan api.Changed
}

// Dial connects to the daemon socket at path.
func Dial(ctx context.Context, path string) (*Client, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", path, err)
	}
	c := &Client{changes: make(chan api.Changed, notifyQueue)}
	stream := jsonrpc2.NewBufferedStream(nc, jsonrpc2.VSCodeObjectCodec{})
	c.conn = jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(c.handle))
	return c, nil
}

// Call runs one command on the daemon.
func (c *Client) Call(ctx context.Context, args ...string) (api.CallResult, error) {
	var res api.CallResult
	if err := c.conn.Call(ctx, api.MethodCall, api.CallParams{Args: args}, &res); err != nil {
		return api.CallResult{}, fmt.Errorf("call %v: %w", args, err)
	}
	return res, nil
}

// Watch subscribes to changes on the node at path. Changes arrive on
// Changes until the client is closed.
func (c *Client) Watch(ctx context.Context, path string, subtree bool) (int, error) {
	var res api.WatchResult
	if err := c.conn.Call(ctx, api.MethodWatch, api.WatchParams{Path: path, Subtree: subtree}, &res); err != nil {
		return 0, fmt.Errorf("watch %q: %w", path, err)
	}
	return res.ID, nil
}

// Changes delivers change notifications. Notifications that arrive while
// the channel is full are dropped.
func (c *Client) Changes() <-chan api.Changed { return c.changes }

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} { return c.conn.DisconnectNotify() }

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) handle(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	if req.Method != api.MethodChanged || req.Params == nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: req.Method}
	}
	var ch api.Changed
	if err := json.Unmarshal(*req.Params, &ch); err != nil {
		return nil, err
	}
	select {
	case c.changes <- ch:
	default:
	}
	return nil, nil
}
