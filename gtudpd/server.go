// Package gtudpd provides a UDP server with client access control, per-IP
// rate limiting, timeout protection and a bound on response goroutines.
package gtudpd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const (
	// DefaultMaxConcurrentResponses is the default limit for concurrent response goroutines
	DefaultMaxConcurrentResponses = 500
	// DefaultMaxRequestSize is the default maximum UDP packet size to accept
	DefaultMaxRequestSize = 64
	// DefaultMaxRequestsPerIP is the default number of requests one IP may
	// make per rate limit window
	DefaultMaxRequestsPerIP = 100
	// DefaultRateLimitWindow is the default time window for rate limiting
	DefaultRateLimitWindow = 1 * time.Second
	// DefaultResponseTimeout is the default timeout for response operations
	DefaultResponseTimeout = 1 * time.Second
	// DefaultReadTimeout is the default UDP read timeout to prevent blocking
	DefaultReadTimeout = 10 * time.Millisecond
)

// RequestHandler writes the reply to one request. buf holds the n bytes
// received and is owned by the handler.
type RequestHandler func(conn *net.UDPConn, n int, remoteaddr *net.UDPAddr, buf []byte)

// RequestValidator decides whether a request deserves a reply.
type RequestValidator func(n int, buf []byte, remoteIP net.IP) bool

// Config holds server configuration including port and access control
type Config struct {
	DefaultPort            string
	ConfigDir              string
	MaxConcurrentResponses int
	MaxRequestSize         int
	MaxRequestsPerIP       int
	RateLimitWindow        time.Duration
	ResponseTimeout        time.Duration
	ReadTimeout            time.Duration
}

// Server is a UDP server answering each valid request from a bounded pool
// of goroutines.
type Server struct {
	conn              *net.UDPConn
	handler           RequestHandler
	validator         RequestValidator
	responseSemaphore chan struct{}
	limiters          *cache.Cache
	ctx               context.Context
	cancel            context.CancelFunc
	config            *Config
	log               *logger.L
}

// setConfigDefaults initializes Config fields with default values if they are zero
func setConfigDefaults(config *Config) {
	if config.MaxConcurrentResponses <= 0 {
		config.MaxConcurrentResponses = DefaultMaxConcurrentResponses
	}
	if config.MaxRequestSize <= 0 {
		config.MaxRequestSize = DefaultMaxRequestSize
	}
	if config.MaxRequestsPerIP <= 0 {
		config.MaxRequestsPerIP = DefaultMaxRequestsPerIP
	}
	if config.RateLimitWindow <= 0 {
		config.RateLimitWindow = DefaultRateLimitWindow
	}
	if config.ResponseTimeout <= 0 {
		config.ResponseTimeout = DefaultResponseTimeout
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = DefaultReadTimeout
	}
}

// NewServer binds the configured port and returns a server ready to Start.
func NewServer(config *Config, handler RequestHandler, validator RequestValidator) (*Server, error) {
	setConfigDefaults(config)
	log := logger.New("gtudpd")

	port := config.GetPort()
	servAddr, err := net.ResolveUDPAddr("udp", port)
	if err != nil {
		return nil, err
	}

	servConn, err := net.ListenUDP("udp", servAddr)
	if err != nil {
		if strings.Contains(err.Error(), "permission denied") {
			log.Errorf("bind %s: %s", port, err)
			return nil, fmt.Errorf(
				"permission denied binding to port %s - try running as root or use a port >= 1024", port)
		}
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	// idle limiters expire after two windows, by which time they are full
	// again anyway
	expiry := 2 * config.RateLimitWindow

	server := &Server{
		conn:              servConn,
		handler:           handler,
		validator:         validator,
		responseSemaphore: make(chan struct{}, config.MaxConcurrentResponses),
		limiters:          cache.New(expiry, expiry),
		ctx:               ctx,
		cancel:            cancel,
		config:            config,
		log:               log,
	}

	log.Infof("listening on %s, config directory %q", servConn.LocalAddr(), config.ConfigDir)
	return server, nil
}

// Start processes requests until Stop is called.
func (s *Server) Start() {
	buf := make([]byte, s.config.MaxRequestSize)
	s.handleClientRequests(buf)
}

// Stop shuts the server down and closes its socket.
func (s *Server) Stop() error {
	s.cancel()
	s.log.Info("stopping")
	return s.conn.Close()
}

// Addr returns the server's listening address
func (s *Server) Addr() net.Addr {
	return s.conn.LocalAddr()
}

// limiter returns the token bucket of ip, creating a full one on first
// sight. Every use extends the entry's lifetime.
func (s *Server) limiter(ip string) *rate.Limiter {
	if v, found := s.limiters.Get(ip); found {
		lim := v.(*rate.Limiter)
		s.limiters.SetDefault(ip, lim)
		return lim
	}
	every := s.config.RateLimitWindow / time.Duration(s.config.MaxRequestsPerIP)
	lim := rate.NewLimiter(rate.Every(every), s.config.MaxRequestsPerIP)
	s.limiters.SetDefault(ip, lim)
	return lim
}

// checkRateLimit reports whether ip may make another request now.
func (s *Server) checkRateLimit(ip string) bool {
	return s.limiter(ip).Allow()
}

// processRequest handles validation and response for a single request
func (s *Server) processRequest(n int, remoteaddr *net.UDPAddr, buf []byte) {
	ipStr := remoteaddr.IP.String()
	if !s.checkRateLimit(ipStr) {
		s.log.Debugf("rate limited %s", ipStr)
		return
	}

	if !s.validator(n, buf, remoteaddr.IP) {
		s.log.Debugf("rejected %d bytes from %s", n, remoteaddr)
		return
	}

	select {
	case s.responseSemaphore <- struct{}{}:
		// the read loop reuses buf
		req := make([]byte, n)
		copy(req, buf[:n])
		go s.handleResponse(n, remoteaddr, req)
	default:
		s.log.Warnf("response pool full, dropped request from %s", remoteaddr)
	}
}

// handleResponse processes the response with timeout protection
func (s *Server) handleResponse(n int, remoteaddr *net.UDPAddr, buf []byte) {
	defer func() { <-s.responseSemaphore }()

	ctx, cancel := context.WithTimeout(s.ctx, s.config.ResponseTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.handler(s.conn, n, remoteaddr, buf)
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warnf("response to %s timed out", remoteaddr)
	}
}

// handleReadError reports whether the read loop must end.
func (s *Server) handleReadError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return false
	}
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	s.log.Warnf("read: %s", err)
	return false
}

// handleClientRequests processes incoming client requests
func (s *Server) handleClientRequests(buf []byte) {
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		if err := s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout)); err != nil {
			if s.handleReadError(err) {
				return
			}
			continue
		}

		n, remoteaddr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if s.handleReadError(err) {
				return
			}
			continue
		}

		s.processRequest(n, remoteaddr, buf)
	}
}
