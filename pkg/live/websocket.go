package live

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vango-dev/signals/pkg/signals"
)

// Message is sent to WebSocket clients.
type Message struct {
	Signal string          `json:"signal,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
	Seq    uint64          `json:"seq,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Command is sent by WebSocket clients.
type Command struct {
	Op     string          `json:"op"`
	Signal string          `json:"signal"`
	Value  json.RawMessage `json:"value"`
}

// client is one WebSocket connection.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	seq  atomic.Uint64

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// enqueue queues msg without blocking. A full queue closes the client.
func (c *client) enqueue(msg Message) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case <-c.done:
	case c.send <- b:
	default:
		c.close(ErrSlowClient)
	}
}

func (c *client) close(err error) {
	c.closeOnce.Do(func() {
		c.closeErr = err
		close(c.done)
		c.conn.Close()
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	names := r.URL.Query()["signal"]
	for _, name := range names {
		if _, ok := s.reg.Lookup(name); !ok {
			s.writeError(w, &NodeError{Name: name, Op: "watch", Err: ErrNotFound})
			return
		}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(maxBodySize)

	watched := len(names)
	if watched == 0 {
		watched = len(s.reg.Names())
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, s.config.SendBuffer+watched),
		done: make(chan struct{}),
	}
	logger := s.logger.With("client", c.id)

	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()

	go s.writeLoop(c)

	stop, err := s.reg.Watch(names, func(name string, value json.RawMessage) {
		c.enqueue(Message{Signal: name, Value: value, Seq: c.seq.Add(1)})
	})
	if err != nil {
		// A node vanished between the lookup and the watch.
		stop = func() {}
		c.enqueue(Message{Error: err.Error()})
		c.close(err)
	}

	logger.Info("client connected", "signals", names)
	s.readLoop(c, stop)

	s.clientsMu.Lock()
	delete(s.clients, c)
	s.clientsMu.Unlock()

	logger.Info("client disconnected", "reason", c.closeErr)
}

// readLoop handles client commands until the connection closes.
func (s *Server) readLoop(c *client, stop signals.Unsubscribe) {
	defer stop()
	defer c.close(nil)

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "client", c.id, "error", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(msg, &cmd); err != nil {
			c.enqueue(Message{Error: "invalid command: " + err.Error()})
			continue
		}

		switch cmd.Op {
		case "set":
			if err := s.reg.Set(cmd.Signal, cmd.Value); err != nil {
				c.enqueue(Message{Signal: cmd.Signal, Error: err.Error()})
			}
		default:
			c.enqueue(Message{Error: "unknown op " + cmd.Op})
		}
	}
}

// writeLoop drains the client's send queue onto the connection.
func (s *Server) writeLoop(c *client) {
	for {
		select {
		case <-c.done:
			return
		case b := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				c.close(err)
				return
			}
		}
	}
}

// closeClients closes every connected client.
func (s *Server) closeClients() {
	s.clientsMu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.Unlock()

	for _, c := range clients {
		c.close(http.ErrServerClosed)
	}
}
