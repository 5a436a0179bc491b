package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/zeusync/physics2d/internal/core/observability/log"
	"github.com/zeusync/physics2d/internal/core/runner"
	"github.com/zeusync/physics2d/internal/core/systems/drive"
	"github.com/zeusync/physics2d/internal/core/systems/physics"
)

// Source is the simulation the server exposes. *runner.Runner implements it.
type Source interface {
	ID() string
	Latest() *physics.Snapshot
	Report() runner.Report
	Throttle() *drive.Throttle
}

// Server streams world snapshots to viewers and feeds their key presses
// into the throttle, standing in for a renderer and a keyboard.
type Server struct {
	config Config
	source Source
	logger log.Log

	httpServer *http.Server
	clients    sync.Map // map[*client]struct{}
	clientCnt  atomic.Int64
	quicLn     atomic.Pointer[quic.Listener]
	running    atomic.Bool
}

// Config holds server configuration
type Config struct {
	ListenAddr string `yaml:"listenAddr" json:"listenAddr"`
	// Token, when set, must be passed as ?token= to open a control socket.
	Token string `yaml:"token" json:"token"`
	// StreamInterval is the snapshot push period per client.
	StreamInterval time.Duration `yaml:"streamInterval" json:"streamInterval"`
	WriteTimeout   time.Duration `yaml:"writeTimeout" json:"writeTimeout"`
	MaxMessageSize int64         `yaml:"maxMessageSize" json:"maxMessageSize"`
	MaxClients     int           `yaml:"maxClients" json:"maxClients"`
	// ControlRate caps control messages per socket per second, zero disables it.
	ControlRate int `yaml:"controlRate" json:"controlRate"`
	// QUICAddr enables the QUIC listener. CertFile and KeyFile replace the
	// generated self-signed certificate.
	QUICAddr string `yaml:"quicAddr" json:"quicAddr"`
	CertFile string `yaml:"certFile" json:"certFile"`
	KeyFile  string `yaml:"keyFile" json:"keyFile"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() Config {
	return Config{
		ListenAddr:     "127.0.0.1:8080",
		StreamInterval: time.Second / 30,
		WriteTimeout:   5 * time.Second,
		MaxMessageSize: 4096,
		MaxClients:     64,
		ControlRate:    50,
	}
}

func (c Config) validate() error {
	if c.StreamInterval <= 0 || c.WriteTimeout <= 0 || c.MaxMessageSize <= 0 || c.MaxClients <= 0 || c.ControlRate < 0 {
		return ErrInvalidConfig
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		return ErrInvalidConfig
	}
	return nil
}

func NewServer(config Config, source Source, logger log.Log) (*Server, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNop()
	}
	s := &Server{
		config: config,
		source: source,
		logger: logger.With(log.String("component", "server")),
	}
	s.logger.Info("Server created",
		log.String("listen_addr", config.ListenAddr),
		log.Int("max_clients", config.MaxClients))
	return s, nil
}

// Handler routes the websocket and HTTP endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.authorize(http.HandlerFunc(s.handleWebSocket)))
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	mux.HandleFunc("/report", s.handleReport)
	mux.HandleFunc("/stream", s.handleStream)
	return s.logRequests(mux)
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}
	defer s.running.Store(false)

	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		s.logger.Error("Failed to create listener", log.Error(err))
		return err
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.logger.Info("Server listening", log.String("addr", ln.Addr().String()))

	if s.config.QUICAddr != "" {
		qln, err := s.listenQUIC()
		if err != nil {
			_ = ln.Close()
			s.logger.Error("Failed to create QUIC listener", log.Error(err))
			return err
		}
		s.quicLn.Store(qln)
		defer func() {
			s.quicLn.Store(nil)
			_ = qln.Close()
		}()
		s.logger.Info("QUIC listening", log.String("addr", qln.Addr().String()))
		go s.acceptQUIC(ctx, qln)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.WriteTimeout)
	defer cancel()
	s.closeClients()
	if qln := s.quicLn.Load(); qln != nil {
		_ = qln.Close()
	}
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("Server shutdown incomplete", log.Error(err))
		return err
	}
	s.logger.Info("Server stopped")
	return nil
}

// Clients reports the number of connected viewers over every transport.
func (s *Server) Clients() int64 { return s.clientCnt.Load() }

func (s *Server) closeClients() {
	s.clients.Range(func(key, _ any) bool {
		key.(*client).close()
		return true
	})
}
