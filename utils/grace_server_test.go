package utils

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGracefulServerDrainsInFlightRequests(t *testing.T) {
	var hooked atomic.Bool
	started := make(chan struct{})
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			close(started)
			<-release
		}
		_, _ = io.WriteString(w, "ok")
	})

	g := NewGracefulServer("127.0.0.1:0", handler, func() { hooked.Store(true) })
	ln, err := g.Listen()
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Serve(ctx, ln) }()

	resp, err := http.Get(base + "/fast")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	slow := make(chan int, 1)
	go func() {
		resp, err := http.Get(base + "/slow")
		if err != nil {
			slow <- -1
			return
		}
		resp.Body.Close()
		slow <- resp.StatusCode
	}()
	<-started

	cancel()
	assert.Eventually(t, hooked.Load, time.Second, 10*time.Millisecond)
	select {
	case <-done:
		t.Fatal("server stopped before the in-flight request finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	assert.Equal(t, http.StatusOK, <-slow)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestGracefulServerReportsListenerFailure(t *testing.T) {
	g := NewGracefulServer("127.0.0.1:0", http.NotFoundHandler())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	assert.Error(t, g.Serve(context.Background(), ln))
}
