package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

const (
	readTimeout  = 60 * time.Second
	drainTimeout = 30 * time.Second
	// set in the child started by a SIGUSR2 restart; fd 3 is the inherited listener
	inheritEnv = "WINTERARC_GRACEFUL"
	inheritFd  = 3
)

// GracefulServer serves HTTP until its context ends or SIGINT/SIGTERM arrives, then drains
// in-flight requests. SIGUSR2 hands the listening socket to a fresh copy of the binary.
type GracefulServer struct {
	srv   *http.Server
	drain time.Duration
}

// NewGracefulServer builds a server for handler. onShutdown hooks run when draining starts;
// SSE streams never finish on their own and rely on them to end.
func NewGracefulServer(addr string, handler http.Handler, onShutdown ...func()) *GracefulServer {
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: readTimeout,
		// no WriteTimeout: event streams stay open
	}
	for _, f := range onShutdown {
		srv.RegisterOnShutdown(f)
	}
	return &GracefulServer{srv: srv, drain: drainTimeout}
}

// Listen returns the socket inherited from a restarting parent, or a new TCP listener.
func (g *GracefulServer) Listen() (net.Listener, error) {
	if os.Getenv(inheritEnv) != "" {
		ln, err := net.FileListener(os.NewFile(inheritFd, "listener"))
		if err != nil {
			return nil, fmt.Errorf("inherit listener: %w", err)
		}
		return ln, nil
	}
	addr := g.srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}

// Serve blocks until the server stops. A drained shutdown returns nil.
func (g *GracefulServer) Serve(ctx context.Context, ln net.Listener) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	restart := make(chan os.Signal, 1)
	signal.Notify(restart, syscall.SIGUSR2)
	defer signal.Stop(restart)

	served := make(chan error, 1)
	go func() { served <- g.srv.Serve(ln) }()

	for {
		select {
		case err := <-served:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			Sugar.Infow("stopping http server", "addr", ln.Addr().String())
			return g.shutdown(served)
		case <-restart:
			pid, err := handOver(ln)
			if err != nil {
				Sugar.Errorw("restart failed, still serving", "error", err)
				continue
			}
			Sugar.Infow("restarted, draining old process", "new_pid", pid)
			return g.shutdown(served)
		}
	}
}

func (g *GracefulServer) shutdown(served <-chan error) error {
	ctx, cancel := context.WithTimeout(context.Background(), g.drain)
	defer cancel()
	if err := g.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("drain http server: %w", err)
	}
	if err := <-served; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	Sugar.Info("http server stopped")
	return nil
}

// handOver starts a copy of the running binary that serves on ln.
func handOver(ln net.Listener) (int, error) {
	tcp, ok := ln.(*net.TCPListener)
	if !ok {
		return 0, errors.New("listener is not TCP")
	}
	f, err := tcp.File()
	if err != nil {
		return 0, fmt.Errorf("listener file: %w", err)
	}
	defer f.Close()

	env := make([]string, 0, len(os.Environ())+1)
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, inheritEnv+"=") {
			env = append(env, e)
		}
	}
	env = append(env, inheritEnv+"=1")

	return syscall.ForkExec(os.Args[0], os.Args, &syscall.ProcAttr{
		Env:   env,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), f.Fd()},
	})
}

// GraceServer listens on addr and serves handler until a stop signal.
func GraceServer(addr string, handler http.Handler, onShutdown ...func()) error {
	g := NewGracefulServer(addr, handler, onShutdown...)
	ln, err := g.Listen()
	if err != nil {
		return err
	}
	return g.Serve(context.Background(), ln)
}
