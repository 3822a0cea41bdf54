// Package ipc serves the registry over JSON-RPC 2.0 on a unix socket.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/agentic-research/objtree/api"
	"github.com/agentic-research/objtree/internal/app"
	"github.com/agentic-research/objtree/internal/object"
)

// notifyQueue bounds the changes buffered per connection. Changes beyond
// it are dropped so a slow watcher cannot stall the registry.
const notifyQueue = 256

// Server accepts control connections for one App.
type Server struct {
	app    *app.App
	logger *log.Logger

	mu    sync.Mutex
	conns map[*jsonrpc2.Conn]struct{}
}

func NewServer(a *app.App, logger *log.Logger) *Server {
	return &Server{
		app:    a,
		logger: logger,
		conns:  make(map[*jsonrpc2.Conn]struct{}),
	}
}

// Listen opens a unix socket at path. A stale socket left by a dead
// daemon is replaced; a live one is an error.
func Listen(path string) (net.Listener, error) {
	if _, err := os.Stat(path); err == nil {
		if c, err := net.Dial("unix", path); err == nil {
			_ = c.Close()
			return nil, fmt.Errorf("socket %s is already served", path)
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("remove stale socket: %w", err)
		}
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", path, err)
	}
	return ln, nil
}

// Serve accepts connections until ctx is done or ln fails. Open
// connections are closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	defer s.closeAll()

	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.handle(ctx, nc)
	}
}

func (s *Server) handle(ctx context.Context, nc net.Conn) {
	sess := &session{
		server:  s,
		changes: make(chan api.Changed, notifyQueue),
		done:    make(chan struct{}),
	}
	stream := jsonrpc2.NewBufferedStream(nc, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(sess.handle))
	sess.conn = conn

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
	s.logger.Debug("client connected")

	go sess.pump(ctx)
	go func() {
		<-conn.DisconnectNotify()
		sess.close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		s.logger.Debug("client disconnected")
	}()
}

func (s *Server) closeAll() {
	s.mu.Lock()
	conns := make([]*jsonrpc2.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
}

// session is the state of one connection.
type session struct {
	server  *Server
	conn    *jsonrpc2.Conn
	changes chan api.Changed
	done    chan struct{}

	mu      sync.Mutex
	closed  bool
	watches []func()
}

func (ss *session) handle(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	switch req.Method {
	case api.MethodCall:
		var p api.CallParams
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		status, out := ss.server.app.Exec(p.Args)
		return api.CallResult{Status: int(status), Output: out}, nil

	case api.MethodWatch:
		var p api.WatchParams
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		return ss.watch(p)

	default:
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: fmt.Sprintf("method not supported: %s", req.Method)}
	}
}

func (ss *session) watch(p api.WatchParams) (api.WatchResult, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.closed {
		return api.WatchResult{}, &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: "connection closed"}
	}
	id := len(ss.watches) + 1
	cancel, err := ss.server.app.Watch(p.Path, p.Subtree, func(c object.Change) {
		select {
		case ss.changes <- api.Changed{Watch: id, Path: c.Path, Old: c.Old, New: c.New}:
		default:
			ss.server.logger.Warn("dropping change notification", "path", c.Path, "watch", id)
		}
	})
	if err != nil {
		return api.WatchResult{}, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	ss.watches = append(ss.watches, cancel)
	return api.WatchResult{ID: id}, nil
}

// pump forwards queued changes as notifications.
func (ss *session) pump(ctx context.Context) {
	for {
		select {
		case <-ss.done:
			return
		case c := <-ss.changes:
			if err := ss.conn.Notify(ctx, api.MethodChanged, c); err != nil {
				ss.server.logger.Debug("notify failed", "err", err)
				return
			}
		}
	}
}

func (ss *session) close() {
	ss.mu.Lock()
	if ss.closed {
		ss.mu.Unlock()
		return
	}
	ss.closed = true
	watches := ss.watches
	ss.watches = nil
	ss.mu.Unlock()

	for _, cancel := range watches {
		cancel()
	}
	close(ss.done)
}

func decode(req *jsonrpc2.Request, v any) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	return nil
}
