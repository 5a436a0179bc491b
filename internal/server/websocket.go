package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/physics2d/internal/core/observability/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type wsPeer struct {
	conn *websocket.Conn
}

func (p wsPeer) readMessage() ([]byte, error) {
	_, data, err := p.conn.ReadMessage()
	return data, err
}

func (p wsPeer) writeFrame(f Frame, deadline time.Time) error {
	_ = p.conn.SetWriteDeadline(deadline)
	return p.conn.WriteJSON(f)
}

func (p wsPeer) close() error       { return p.conn.Close() }
func (p wsPeer) remoteAddr() string { return p.conn.RemoteAddr().String() }

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.acquireSlot() {
		http.Error(w, ErrTooManyClients.Error(), http.StatusServiceUnavailable)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.releaseSlot()
		s.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	conn.SetReadLimit(s.config.MaxMessageSize)
	s.serve(s.newClient(wsPeer{conn: conn}, "websocket"))
}
