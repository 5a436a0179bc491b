package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/zeusync/physics2d/internal/core/observability/log"
	"github.com/zeusync/physics2d/internal/core/systems/drive"
	"github.com/zeusync/physics2d/internal/core/systems/physics"
)

// ControlMessage is sent by viewers: {"action":"press","key":"left"},
// {"action":"release"} or {"action":"ping"}. Token authenticates the first
// message of a QUIC stream.
type ControlMessage struct {
	Action string `json:"action"`
	Key    string `json:"key,omitempty"`
	Token  string `json:"token,omitempty"`
}

// Frame is everything the server writes to a viewer.
type Frame struct {
	Type     string            `json:"type"`
	Session  string            `json:"session,omitempty"`
	Snapshot *physics.Snapshot `json:"snapshot,omitempty"`
	Throttle float64           `json:"throttle"`
	Error    string            `json:"error,omitempty"`
}

const (
	FrameSnapshot = "snapshot"
	FrameError    = "error"
)

// peer is one viewer connection: a websocket or a QUIC stream.
type peer interface {
	readMessage() ([]byte, error)
	writeFrame(f Frame, deadline time.Time) error
	close() error
	remoteAddr() string
}

type client struct {
	peer      peer
	transport string
	limit     *rateLimit
	errs      chan string
	done      chan struct{}
	closed    sync.Once
}

func (s *Server) newClient(p peer, transport string) *client {
	return &client{
		peer:      p,
		transport: transport,
		limit:     newRateLimit(s.config.ControlRate, time.Second),
		errs:      make(chan string, 4),
		done:      make(chan struct{}),
	}
}

func (c *client) close() {
	c.closed.Do(func() {
		close(c.done)
		_ = c.peer.close()
	})
}

// acquireSlot reserves room for one more viewer.
func (s *Server) acquireSlot() bool {
	for {
		n := s.clientCnt.Load()
		if n >= int64(s.config.MaxClients) {
			return false
		}
		if s.clientCnt.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (s *Server) releaseSlot() { s.clientCnt.Add(-1) }

// serve runs a viewer until either side closes. The caller must hold a slot;
// serve releases it.
func (s *Server) serve(c *client) {
	s.clients.Store(c, struct{}{})
	s.logger.Info("Client connected",
		log.String("transport", c.transport),
		log.String("remote_addr", c.peer.remoteAddr()),
		log.Int64("total_clients", s.clientCnt.Load()))

	defer func() {
		c.close()
		s.clients.Delete(c)
		s.releaseSlot()
		s.logger.Info("Client disconnected",
			log.String("transport", c.transport),
			log.String("remote_addr", c.peer.remoteAddr()),
			log.Int64("total_clients", s.clientCnt.Load()))
	}()

	go s.readLoop(c)
	s.writeLoop(c)
}

// readLoop applies control messages. Bad messages are reported back to the
// viewer without dropping the connection.
func (s *Server) readLoop(c *client) {
	defer c.close()
	for {
		data, err := c.peer.readMessage()
		if err != nil {
			s.logger.Debug("read ended", log.String("transport", c.transport), log.Error(err))
			return
		}
		s.handleControl(c, data)
	}
}

func (s *Server) handleControl(c *client, data []byte) {
	if !c.limit.allow(time.Now()) {
		s.logger.Warn("Rate limit exceeded",
			log.String("remote_addr", c.peer.remoteAddr()),
			log.Int("limit", c.limit.limit))
		s.report(c, ErrRateLimited)
		return
	}
	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.report(c, ErrInvalidMessage)
		return
	}
	if err := s.applyControl(msg); err != nil {
		s.report(c, err)
	}
}

func (s *Server) report(c *client, err error) {
	select {
	case c.errs <- err.Error():
	default:
	}
}

func (s *Server) applyControl(msg ControlMessage) error {
	th := s.source.Throttle()
	switch msg.Action {
	case "press":
		key, err := drive.ParseKey(msg.Key)
		if err != nil {
			return err
		}
		return th.Press(key)
	case "release":
		th.Release()
		return nil
	case "ping":
		return nil
	default:
		return ErrInvalidMessage
	}
}

// writeLoop is the only writer on the connection. A snapshot goes out when
// a new step was published or the throttle changed.
func (s *Server) writeLoop(c *client) {
	ticker := time.NewTicker(s.config.StreamInterval)
	defer ticker.Stop()

	var lastStep, lastThrottle uint64
	first := true
	for {
		var frame Frame
		th := s.source.Throttle()
		select {
		case <-c.done:
			return
		case msg := <-c.errs:
			frame = Frame{Type: FrameError, Error: msg, Throttle: th.Torque()}
		case <-ticker.C:
			snap := s.source.Latest()
			version := th.Version()
			if !first && snap.Step == lastStep && version == lastThrottle {
				continue
			}
			first, lastStep, lastThrottle = false, snap.Step, version
			frame = Frame{
				Type:     FrameSnapshot,
				Session:  s.source.ID(),
				Snapshot: snap,
				Throttle: th.Torque(),
			}
		}

		if err := c.peer.writeFrame(frame, time.Now().Add(s.config.WriteTimeout)); err != nil {
			s.logger.Debug("write failed", log.String("transport", c.transport), log.Error(err))
			return
		}
	}
}
