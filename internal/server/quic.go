package server

import (
	"bufio"
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"math/big"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"

	"github.com/zeusync/physics2d/internal/core/observability/log"
)

// QUICProtocol is the ALPN name viewers must offer.
const QUICProtocol = "physics2d-sim"

// Application error codes the server closes QUIC connections with.
const (
	QUICCodeClosed       quic.ApplicationErrorCode = 0x0
	QUICCodeUnauthorized quic.ApplicationErrorCode = 0x101
	QUICCodeBusy         quic.ApplicationErrorCode = 0x102
	QUICCodeBadHello     quic.ApplicationErrorCode = 0x103
)

// A QUIC viewer opens one bidirectional stream and exchanges newline
// delimited JSON on it: ControlMessage up, Frame down. The first message
// must carry the token when one is configured.
type quicPeer struct {
	conn   *quic.Conn
	stream *quic.Stream
	r      *bufio.Reader
	enc    *json.Encoder
}

func newQUICPeer(conn *quic.Conn, stream *quic.Stream, maxMessage int64) *quicPeer {
	return &quicPeer{
		conn:   conn,
		stream: stream,
		r:      bufio.NewReaderSize(stream, int(maxMessage)+1),
		enc:    json.NewEncoder(stream),
	}
}

func (p *quicPeer) readMessage() ([]byte, error) {
	line, err := p.r.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		return nil, errors.Wrap(ErrInvalidMessage, "message too large")
	}
	if err != nil {
		return nil, err
	}
	return bytes.TrimSpace(line), nil
}

func (p *quicPeer) writeFrame(f Frame, deadline time.Time) error {
	_ = p.stream.SetWriteDeadline(deadline)
	return p.enc.Encode(f)
}

func (p *quicPeer) close() error {
	return p.conn.CloseWithError(QUICCodeClosed, "closed")
}

func (p *quicPeer) remoteAddr() string { return p.conn.RemoteAddr().String() }

// QUICAddr is the bound QUIC address while Run serves one, nil otherwise.
func (s *Server) QUICAddr() net.Addr {
	if ln := s.quicLn.Load(); ln != nil {
		return ln.Addr()
	}
	return nil
}

func (s *Server) listenQUIC() (*quic.Listener, error) {
	tlsConfig, err := s.quicTLSConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create TLS config")
	}
	ln, err := quic.ListenAddr(s.config.QUICAddr, tlsConfig, &quic.Config{
		MaxIdleTimeout:     30 * time.Second,
		KeepAlivePeriod:    15 * time.Second,
		MaxIncomingStreams: 1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to start QUIC listener")
	}
	return ln, nil
}

func (s *Server) quicTLSConfig() (*tls.Config, error) {
	var cert tls.Certificate
	var err error
	if s.config.CertFile != "" {
		cert, err = tls.LoadX509KeyPair(s.config.CertFile, s.config.KeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load TLS certificate")
		}
	} else {
		s.logger.Warn("QUIC uses a self-signed certificate")
		if cert, err = selfSignedCert(); err != nil {
			return nil, err
		}
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{QUICProtocol},
		MinVersion:   tls.VersionTLS13,
	}, nil
}

// selfSignedCert is a throwaway localhost certificate for development.
func selfSignedCert() (tls.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, errors.Wrap(err, "failed to generate key")
	}
	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{Organization: []string{"physics2d"}},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		DNSNames:     []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, errors.Wrap(err, "failed to create certificate")
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}, nil
}

func (s *Server) acceptQUIC(ctx context.Context, ln *quic.Listener) {
	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("QUIC accept stopped", log.Error(err))
			}
			return
		}
		go s.handleQUIC(ctx, conn)
	}
}

func (s *Server) handleQUIC(ctx context.Context, conn *quic.Conn) {
	remote := conn.RemoteAddr().String()
	if !s.acquireSlot() {
		_ = conn.CloseWithError(QUICCodeBusy, ErrTooManyClients.Error())
		return
	}

	hctx, cancel := context.WithTimeout(ctx, s.config.WriteTimeout)
	defer cancel()
	stream, err := conn.AcceptStream(hctx)
	if err != nil {
		s.releaseSlot()
		_ = conn.CloseWithError(QUICCodeBadHello, "no stream")
		s.logger.Debug("QUIC viewer opened no stream", log.String("remote_addr", remote), log.Error(err))
		return
	}

	p := newQUICPeer(conn, stream, s.config.MaxMessageSize)
	_ = stream.SetReadDeadline(time.Now().Add(s.config.WriteTimeout))
	hello, err := p.readMessage()
	_ = stream.SetReadDeadline(time.Time{})
	if err != nil {
		s.releaseSlot()
		_ = conn.CloseWithError(QUICCodeBadHello, ErrInvalidMessage.Error())
		return
	}

	var msg ControlMessage
	if err := json.Unmarshal(hello, &msg); err != nil || !s.tokenValid(msg.Token) {
		s.releaseSlot()
		s.logger.Warn("rejected unauthorized client", log.String("remote_addr", remote))
		_ = conn.CloseWithError(QUICCodeUnauthorized, ErrUnauthorized.Error())
		return
	}
	if ctx.Err() != nil {
		s.releaseSlot()
		_ = conn.CloseWithError(QUICCodeClosed, "shutting down")
		return
	}

	c := s.newClient(p, "quic")
	if msg.Action != "" {
		s.handleControl(c, hello)
	}
	s.serve(c)
}
