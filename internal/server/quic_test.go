package server

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/physics2d/internal/core/runner"
	"github.com/zeusync/physics2d/internal/core/systems/scene"
)

type quicViewer struct {
	conn   *quic.Conn
	stream *quic.Stream
	r      *bufio.Reader
}

func runQUICServer(t *testing.T, mutate func(*Config)) (*Server, *runner.Runner, context.CancelFunc, <-chan error) {
	t.Helper()
	sc, err := scene.FourWheel().Build(nil)
	require.NoError(t, err)
	r, err := runner.New(sc.World, nil, runner.Config{Hz: 60, Steps: 10}, nil)
	require.NoError(t, err)

	cfg := DefaultServerConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.QUICAddr = "127.0.0.1:0"
	cfg.StreamInterval = 5 * time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}
	srv, err := NewServer(cfg, r, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	t.Cleanup(cancel)
	require.Eventually(t, func() bool { return srv.QUICAddr() != nil }, 2*time.Second, time.Millisecond)
	return srv, r, cancel, done
}

func rawDialQUIC(t *testing.T, srv *Server) *quic.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, err := quic.DialAddr(ctx, srv.QUICAddr().String(), &tls.Config{
		InsecureSkipVerify: true,
		NextProtos:         []string{QUICProtocol},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.CloseWithError(0, "") })
	return conn
}

func dialQUIC(t *testing.T, srv *Server, hello ControlMessage) *quicViewer {
	t.Helper()
	conn := rawDialQUIC(t, srv)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	stream, err := conn.OpenStreamSync(ctx)
	require.NoError(t, err)
	v := &quicViewer{conn: conn, stream: stream, r: bufio.NewReader(stream)}
	v.send(t, hello)
	return v
}

// closeCode waits for the server to close conn and returns the application
// error code it used.
func closeCode(t *testing.T, conn *quic.Conn) quic.ApplicationErrorCode {
	t.Helper()
	select {
	case <-conn.Context().Done():
	case <-time.After(2 * time.Second):
		t.Fatal("connection was not closed")
	}
	var appErr *quic.ApplicationError
	err := context.Cause(conn.Context())
	require.True(t, errors.As(err, &appErr), "unexpected close error %v", err)
	assert.True(t, appErr.Remote)
	return appErr.ErrorCode
}

func (v *quicViewer) send(t *testing.T, msg ControlMessage) {
	t.Helper()
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	_, err = v.stream.Write(append(b, '\n'))
	require.NoError(t, err)
}

func (v *quicViewer) next() (Frame, error) {
	_ = v.stream.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := v.r.ReadBytes('\n')
	if err != nil {
		return Frame{}, err
	}
	var f Frame
	return f, json.Unmarshal(line, &f)
}

func (v *quicViewer) readFrame(t *testing.T, typ string) Frame {
	t.Helper()
	for {
		f, err := v.next()
		require.NoError(t, err)
		if f.Type == typ {
			return f
		}
	}
}

func TestQUIC_StreamAndControl(t *testing.T) {
	srv, r, _, _ := runQUICServer(t, func(c *Config) { c.Token = "supersecrettoken" })

	v := dialQUIC(t, srv, ControlMessage{Action: "press", Key: "left", Token: "supersecrettoken"})
	f := v.readFrame(t, FrameSnapshot)
	assert.Equal(t, r.ID(), f.Session)
	require.NotNil(t, f.Snapshot)
	assert.Len(t, f.Snapshot.Bodies, 6)
	require.Eventually(t, func() bool { return r.Throttle().Torque() == 5 }, time.Second, time.Millisecond)
	assert.Equal(t, int64(1), srv.Clients())

	v.send(t, ControlMessage{Action: "jump"})
	f = v.readFrame(t, FrameError)
	assert.Equal(t, ErrInvalidMessage.Error(), f.Error)

	v.send(t, ControlMessage{Action: "release"})
	require.Eventually(t, func() bool { return r.Throttle().Torque() == 0 }, time.Second, time.Millisecond)

	require.NoError(t, r.Run(context.Background()))
	for f.Snapshot == nil || f.Snapshot.Step != 10 {
		f = v.readFrame(t, FrameSnapshot)
	}
}

func TestQUIC_RejectsBadToken(t *testing.T) {
	srv, r, _, _ := runQUICServer(t, func(c *Config) { c.Token = "supersecrettoken" })

	v := dialQUIC(t, srv, ControlMessage{Action: "press", Key: "left", Token: "invalid"})
	assert.Equal(t, QUICCodeUnauthorized, closeCode(t, v.conn))
	assert.Equal(t, 0.0, r.Throttle().Torque())
	require.Eventually(t, func() bool { return srv.Clients() == 0 }, time.Second, time.Millisecond)
}

func TestQUIC_MaxClients(t *testing.T) {
	srv, _, _, _ := runQUICServer(t, func(c *Config) { c.MaxClients = 1 })

	first := dialQUIC(t, srv, ControlMessage{Action: "ping"})
	first.readFrame(t, FrameSnapshot)

	second := rawDialQUIC(t, srv)
	assert.Equal(t, QUICCodeBusy, closeCode(t, second))
	assert.Equal(t, int64(1), srv.Clients())
}

func TestQUIC_Shutdown(t *testing.T) {
	srv, _, cancel, done := runQUICServer(t, nil)
	v := dialQUIC(t, srv, ControlMessage{Action: "ping"})
	v.readFrame(t, FrameSnapshot)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Nil(t, srv.QUICAddr())
	select {
	case <-v.conn.Context().Done():
	case <-time.After(2 * time.Second):
		t.Fatal("viewer connection still open")
	}
	require.Eventually(t, func() bool { return srv.Clients() == 0 }, time.Second, time.Millisecond)
}

func TestNewServer_CertPairRequired(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.CertFile = "server.crt"
	_, err := NewServer(cfg, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
