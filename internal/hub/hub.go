package hub

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/tidwall/redcon"
)

// RESP error replies.
const (
	errWrongNumArgs = "ERR wrong number of arguments"
	errNoAuth       = "NOAUTH Authentication required."
	errBadPassword  = "WRONGPASS invalid password"
)

// Hub is an in-memory Redis-protocol key-value and pub/sub server.
type Hub struct {
	addr     string
	password string
	logger   *slog.Logger

	mu   sync.RWMutex
	data map[string][]byte

	ps redcon.PubSub

	ln     net.Listener
	connMu sync.Mutex
	conns  map[redcon.Conn]struct{}

	// subscribers are detached from redcon's server loop, so the hub
	// closes their sockets itself on shutdown
	subscribers map[net.Conn]struct{}
	stopped     bool
}

type client struct {
	authorized bool
	subscribed bool
}

// New creates a hub that will listen on addr. When password is
// non-empty, clients must AUTH before any data command.
func New(addr, password string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		addr:     addr,
		password: password,
		logger:   logger,
		data:     make(map[string][]byte),
		conns:    make(map[redcon.Conn]struct{}),

		subscribers: make(map[net.Conn]struct{}),
	}
}

// Start binds the listener and serves in the background until ctx is
// cancelled. It returns an error only if the address cannot be bound.
func (h *Hub) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("failed to bind hub to %s: %w", h.addr, err)
	}
	h.ln = ln

	go func() {
		err := redcon.Serve(ln, h.handle, h.accept, h.closed)
		if err != nil && ctx.Err() == nil {
			h.logger.Error("hub server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		_ = ln.Close()

		h.connMu.Lock()
		for conn := range h.conns {
			_ = conn.Close()
		}
		for nc := range h.subscribers {
			_ = nc.Close()
		}
		h.subscribers = nil
		h.stopped = true
		h.connMu.Unlock()

		h.logger.Info("hub stopped", "addr", ln.Addr().String())
	}()

	h.logger.Info("hub listening", "addr", ln.Addr().String(), "auth", h.password != "")
	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (h *Hub) Addr() net.Addr {
	if h.ln == nil {
		return nil
	}
	return h.ln.Addr()
}

func (h *Hub) accept(conn redcon.Conn) bool {
	conn.SetContext(&client{authorized: h.password == ""})

	h.connMu.Lock()
	h.conns[conn] = struct{}{}
	h.connMu.Unlock()

	h.logger.Debug("hub client connected", "remote", conn.RemoteAddr())
	return true
}

// closed also fires when SUBSCRIBE detaches a connection, which then
// stays open under the pub/sub loop.
func (h *Hub) closed(conn redcon.Conn, err error) {
	h.connMu.Lock()
	delete(h.conns, conn)
	h.connMu.Unlock()

	if c, _ := conn.Context().(*client); c != nil && c.subscribed {
		return
	}
	if err != nil {
		h.logger.Debug("hub client disconnected", "remote", conn.RemoteAddr(), "error", err)
	}
}

func (h *Hub) handle(conn redcon.Conn, cmd redcon.Command) {
	c, _ := conn.Context().(*client)
	if c == nil {
		c = &client{authorized: h.password == ""}
		conn.SetContext(c)
	}

	name := strings.ToLower(string(cmd.Args[0]))

	switch name {
	case "ping":
		switch len(cmd.Args) {
		case 1:
			conn.WriteString("PONG")
		case 2:
			conn.WriteBulk(cmd.Args[1])
		default:
			conn.WriteError(errWrongNumArgs)
		}
		return

	case "quit":
		conn.WriteString("OK")
		_ = conn.Close()
		return

	case "auth":
		if len(cmd.Args) != 2 {
			conn.WriteError(errWrongNumArgs)
			return
		}
		if h.password != "" && string(cmd.Args[1]) != h.password {
			c.authorized = false
			conn.WriteError(errBadPassword)
			return
		}
		c.authorized = true
		conn.WriteString("OK")
		return
	}

	if !c.authorized {
		conn.WriteError(errNoAuth)
		return
	}

	switch name {
	case "echo":
		if len(cmd.Args) != 2 {
			conn.WriteError(errWrongNumArgs)
			return
		}
		conn.WriteBulk(cmd.Args[1])

	case "select":
		// single keyspace; any database index maps to it
		if len(cmd.Args) != 2 {
			conn.WriteError(errWrongNumArgs)
			return
		}
		conn.WriteString("OK")

	case "get":
		if len(cmd.Args) != 2 {
			conn.WriteError(errWrongNumArgs)
			return
		}
		h.mu.RLock()
		v, ok := h.data[string(cmd.Args[1])]
		h.mu.RUnlock()
		if !ok {
			conn.WriteNull()
			return
		}
		conn.WriteBulk(v)

	case "set":
		if len(cmd.Args) != 3 {
			conn.WriteError(errWrongNumArgs)
			return
		}
		// redcon reuses argument buffers between commands
		value := append([]byte(nil), cmd.Args[2]...)
		h.mu.Lock()
		h.data[string(cmd.Args[1])] = value
		h.mu.Unlock()
		conn.WriteString("OK")

	case "del", "exists":
		if len(cmd.Args) < 2 {
			conn.WriteError(errWrongNumArgs)
			return
		}
		n := 0
		h.mu.Lock()
		for _, k := range cmd.Args[1:] {
			if _, ok := h.data[string(k)]; ok {
				n++
				if name == "del" {
					delete(h.data, string(k))
				}
			}
		}
		h.mu.Unlock()
		conn.WriteInt(n)

	case "publish":
		if len(cmd.Args) != 3 {
			conn.WriteError(errWrongNumArgs)
			return
		}
		conn.WriteInt(h.ps.Publish(string(cmd.Args[1]), string(cmd.Args[2])))

	case "subscribe", "psubscribe":
		if len(cmd.Args) < 2 {
			conn.WriteError(errWrongNumArgs)
			return
		}
		if !c.subscribed {
			c.subscribed = true
			if !h.trackSubscriber(conn.NetConn()) {
				_ = conn.Close()
				return
			}
		}
		for _, ch := range cmd.Args[1:] {
			if name == "psubscribe" {
				h.ps.Psubscribe(conn, string(ch))
			} else {
				h.ps.Subscribe(conn, string(ch))
			}
		}

	default:
		conn.WriteError(fmt.Sprintf("ERR unknown command '%s'", name))
	}
}

// trackSubscriber records nc for closing on shutdown. It reports false
// once the hub has stopped.
func (h *Hub) trackSubscriber(nc net.Conn) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.stopped {
		return false
	}
	h.subscribers[nc] = struct{}{}
	return true
}

// Len returns the number of stored keys.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.data)
}
