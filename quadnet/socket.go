package quadnet

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/quadkit/quadhost/errors"
)

// Message is one received websocket frame. Text frames keep their bytes
// as-is and are tagged IsText; binary frames are plain byte buffers.
type Message struct {
	Data   []byte
	IsText bool
}

// Socket is a single persistent websocket connection. Dialing runs in a
// goroutine so the guest call that starts it returns immediately; received
// frames queue in order until the guest polls them out.
type Socket struct {
	log    *zap.Logger
	dialer *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	queue  []Message
	closed bool
}

// NewSocket creates a disconnected socket.
func NewSocket(log *zap.Logger) *Socket {
	if log == nil {
		log = zap.NewNop()
	}
	return &Socket{
		log:    log,
		dialer: websocket.DefaultDialer,
	}
}

// Connect starts dialing url. The call returns before the connection is
// established; the guest observes readiness through IsConnected. A failed
// dial is logged and leaves the socket disconnected.
func (s *Socket) Connect(url string) {
	go func() {
		conn, _, err := s.dialer.Dial(url, nil)
		if err != nil {
			s.log.Error("websocket dial failed",
				zap.String("url", url),
				zap.Error(errors.AsyncFailed(errors.PhaseNet, "ws connect", err)))
			return
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conn = conn
		s.mu.Unlock()

		s.log.Debug("websocket connected", zap.String("url", url))
		s.readLoop(conn)
	}()
}

// readLoop feeds the receive queue until the connection drops.
func (s *Socket) readLoop(conn *websocket.Conn) {
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			wasClosed := s.closed
			if s.conn == conn {
				s.conn = nil
			}
			s.mu.Unlock()
			if !wasClosed {
				s.log.Warn("websocket read failed", zap.Error(err))
			}
			conn.Close()
			return
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		s.mu.Lock()
		s.queue = append(s.queue, Message{
			Data:   data,
			IsText: kind == websocket.TextMessage,
		})
		s.mu.Unlock()
	}
}

// IsConnected reports whether the dial has completed and the connection
// is still up.
func (s *Socket) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Send writes one frame. Sending on a disconnected socket is a logged
// no-op so the guest never observes an error for racing its own connect.
func (s *Socket) Send(data []byte, isText bool) bool {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		s.log.Warn("websocket send while disconnected", zap.Int("len", len(data)))
		return false
	}

	kind := websocket.BinaryMessage
	if isText {
		kind = websocket.TextMessage
	}
	if err := conn.WriteMessage(kind, data); err != nil {
		s.log.Warn("websocket send failed", zap.Error(err))
		return false
	}
	return true
}

// TryRecv pops the oldest queued message. The second return is false when
// the queue is empty.
func (s *Socket) TryRecv() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return Message{}, false
	}
	msg := s.queue[0]
	s.queue = s.queue[1:]
	return msg, true
}

// Queued returns the number of undelivered messages.
func (s *Socket) Queued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Close tears the connection down. Safe to call on a socket that never
// connected, and idempotent.
func (s *Socket) Close() {
	s.mu.Lock()
	s.closed = true
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}
