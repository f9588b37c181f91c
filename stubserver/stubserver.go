// Package stubserver is a wire-compatible SmolDB server stub. It exists
// for the test suites and for local development against `smoldb stub`; it
// is not a storage engine. It speaks the exact frame contract documented
// in the protocol package, backed by storage.InmemoryStore.
package stubserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	reuseport "github.com/kavu/go_reuseport"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/smoldb/smoldb-go/storage"
)

type Options struct {
	// Host to listen on
	Host string

	// Port to listen on. 0 picks an ephemeral port; read it back via Addr()
	Port int

	// HTTPPort enables a gin health endpoint when non-zero
	HTTPPort int

	// AccessKey every data operation must present. Empty accepts any key
	AccessKey string

	Store storage.Store

	Log *zap.Logger
}

type Server struct {
	opts  Options
	store storage.Store
	log   *zap.Logger

	cancel   context.CancelFunc
	listener net.Listener
	httpSrv  *http.Server

	mu          sync.Mutex
	activeConns map[net.Conn]struct{}
	closed      bool

	loopWaiter sync.WaitGroup
}

func New(opts Options) *Server {
	if opts.Store == nil {
		opts.Store = storage.NewInmemoryStore()
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	return &Server{
		opts:        opts,
		store:       opts.Store,
		log:         opts.Log.Named("stubserver"),
		activeConns: make(map[net.Conn]struct{}),
	}
}

func (s *Server) Store() storage.Store {
	return s.store
}

// Start begins accepting connections. Non-blocking; Close (or the parent
// context) stops everything.
func (s *Server) Start(parentCtx context.Context) error {
	ctx, cancel := context.WithCancel(parentCtx)
	s.cancel = cancel

	addr := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))

	listener, err := reuseport.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.log.Info("Stub server listening", zap.String("addr", listener.Addr().String()))

	s.loopWaiter.Add(1)
	go func() {
		defer s.loopWaiter.Done()
		s.acceptLoop(ctx)
	}()

	if s.opts.HTTPPort > 0 {
		s.startHTTP()
	}

	return nil
}

// Addr returns the address the TCP listener is bound to.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()

	err := s.listener.Close()

	s.mu.Lock()
	for conn := range s.activeConns {
		err = multierr.Append(err, conn.Close())
		delete(s.activeConns, conn)
	}
	s.mu.Unlock()

	s.loopWaiter.Wait()

	if s.httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = multierr.Append(err, s.httpSrv.Shutdown(shutdownCtx))
	}

	return err
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if errors.Is(err, net.ErrClosed) {
				return
			}

			s.log.Warn("Accept failed", zap.Error(err))
			return
		}

		s.addConn(conn)
		s.loopWaiter.Add(1)

		go func() {
			defer s.loopWaiter.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) startHTTP() {
	gin.DisableConsoleColor()
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(ginzap.Ginzap(s.log, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(s.log, true))

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	s.httpSrv = &http.Server{
		Addr:    net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.HTTPPort)),
		Handler: router,
	}

	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Health endpoint errored", zap.Error(err))
		}
	}()
}

func (s *Server) addConn(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeConns[conn] = struct{}{}
}

func (s *Server) removeConn(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.activeConns, conn)
}
