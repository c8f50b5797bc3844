// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockServer blocks in ListenAndServe until Shutdown is called.
type mockServer struct {
	serveErr   error
	closed     chan struct{}
	shutdownOK bool
}

func newMockServer() *mockServer {
	return &mockServer{closed: make(chan struct{})}
}

func (m *mockServer) ListenAndServe() error {
	if m.serveErr != nil {
		return m.serveErr
	}
	<-m.closed
	return nil
}

func (m *mockServer) Shutdown(context.Context) error {
	m.shutdownOK = true
	close(m.closed)
	return nil
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	srv := newMockServer()
	svc := NewHTTPService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.True(t, srv.shutdownOK, "shutdown must be invoked")
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop after context cancellation")
	}
}

func TestHTTPServiceStartupFailure(t *testing.T) {
	srv := newMockServer()
	srv.serveErr = errors.New("address already in use")
	svc := NewHTTPService(srv, time.Second)

	err := svc.Serve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address already in use")
}

func TestHTTPServiceString(t *testing.T) {
	assert.Equal(t, "http-server", NewHTTPService(newMockServer(), 0).String())
}
