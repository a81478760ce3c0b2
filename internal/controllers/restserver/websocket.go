package restserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/anomalymap/internal/dashboard"
	"github.com/chrissnell/anomalymap/internal/log"
	"github.com/chrissnell/anomalymap/pkg/responseformat"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsMaxMessage = 1 << 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 64 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSReply answers one event received over the WebSocket
type WSReply struct {
	Event  string `json:"event"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

type wsSession struct {
	id         string
	conn       *websocket.Conn
	handlers   *Handlers
	useMsgPack bool

	writeMu sync.Mutex
}

// ServeWebSocket upgrades the connection and answers each event the client
// sends, in the order received.
func (h *Handlers) ServeWebSocket(w http.ResponseWriter, req *http.Request) {
	useMsgPack := responseformat.WantsMsgPack(req)

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Errorf("websocket upgrade failed: %v", err)
		return
	}

	s := &wsSession{
		id:         uuid.New().String(),
		conn:       conn,
		handlers:   h,
		useMsgPack: useMsgPack,
	}

	m := h.controller.metrics
	m.SessionOpened()
	defer m.SessionClosed()

	s.run()
}

func (s *wsSession) run() {
	logger := s.handlers.controller.logger.With("session", s.id)
	logger.Debug("websocket session opened")
	defer logger.Debug("websocket session closed")

	done := make(chan struct{})
	defer close(done)
	defer s.conn.Close()

	s.conn.SetReadLimit(wsMaxMessage)
	s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	go s.keepalive(done)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warnf("websocket read error: %v", err)
			}
			return
		}

		var ev dashboard.Event
		reply := WSReply{}
		if err := json.Unmarshal(data, &ev); err != nil {
			reply.Error = "invalid event: " + err.Error()
		} else {
			reply.Event = ev.Name
			result, err := s.handlers.controller.dispatcher.Dispatch(ev)
			if err != nil {
				reply.Error = err.Error()
			} else {
				reply.Result = result
			}
		}

		if err := s.send(reply); err != nil {
			logger.Warnf("websocket write error: %v", err)
			return
		}
	}
}

// keepalive pings the client until done is closed or the server shuts down.
func (s *wsSession) keepalive(done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-s.handlers.controller.ctx.Done():
			s.writeMu.Lock()
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(wsWriteWait))
			s.writeMu.Unlock()
			s.conn.Close()
			return
		case <-ticker.C:
			s.writeMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (s *wsSession) send(reply WSReply) error {
	body, err := s.handlers.formatter.Encode(reply, s.useMsgPack)
	if err != nil {
		return err
	}

	msgType := websocket.TextMessage
	if s.useMsgPack {
		msgType = websocket.BinaryMessage
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return s.conn.WriteMessage(msgType, body)
}
