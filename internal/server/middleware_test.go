package server

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimit_Window(t *testing.T) {
	l := newRateLimit(2, time.Second)
	now := time.Unix(100, 0)

	assert.True(t, l.allow(now))
	assert.True(t, l.allow(now.Add(100*time.Millisecond)))
	assert.False(t, l.allow(now.Add(900*time.Millisecond)))
	assert.True(t, l.allow(now.Add(time.Second)), "new window")
}

func TestRateLimit_Disabled(t *testing.T) {
	l := newRateLimit(0, time.Second)
	for i := 0; i < 1000; i++ {
		require.True(t, l.allow(time.Unix(0, 0)))
	}
}

func TestWebSocket_RateLimited(t *testing.T) {
	_, r, ts := newTestServer(t, func(c *Config) { c.ControlRate = 2 })
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, ""), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ControlMessage{Action: "press", Key: "left"}))
	require.NoError(t, conn.WriteJSON(ControlMessage{Action: "press", Key: "right"}))
	require.NoError(t, conn.WriteJSON(ControlMessage{Action: "release"}))

	f := readFrame(t, conn, FrameError)
	assert.Equal(t, ErrRateLimited.Error(), f.Error)
	assert.Equal(t, -5.0, r.Throttle().Torque(), "dropped release must not apply")
}

func TestNewServer_NegativeControlRate(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.ControlRate = -1
	_, err := NewServer(cfg, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
