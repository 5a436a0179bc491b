package server

import (
	"net/http"
	"time"

	"github.com/zeusync/physics2d/internal/core/observability/log"
)

// logRequests logs every request once it has been served. Websocket
// requests are logged when the socket closes.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request served",
			log.String("method", r.Method),
			log.String("path", r.URL.Path),
			log.String("remote_addr", r.RemoteAddr),
			log.String("user_agent", r.UserAgent()),
			log.Duration("duration", time.Since(start)),
		)
	})
}

// rateLimit is a fixed-window counter for one socket's control messages.
// It is only touched by that socket's read loop.
type rateLimit struct {
	limit  int
	window time.Duration
	count  int
	start  time.Time
}

func newRateLimit(limit int, window time.Duration) *rateLimit {
	return &rateLimit{limit: limit, window: window}
}

// allow counts one message and reports whether it fits the window. A
// limit of zero or less allows everything.
func (l *rateLimit) allow(now time.Time) bool {
	if l.limit <= 0 {
		return true
	}
	if now.Sub(l.start) >= l.window {
		l.count = 0
		l.start = now
	}
	if l.count >= l.limit {
		return false
	}
	l.count++
	return true
}
