// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

// Package supervisor wires long-running components into a suture
// supervision tree with structured restart logging.
package supervisor

import (
	"context"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/callwatchio/callwatch/internal/logging"
)

// Tree supervises the long-running services (currently the HTTP
// server). Supervision events are logged through the global zerolog
// stream via the slog adapter.
type Tree struct {
	root *suture.Supervisor
}

// NewTree creates the supervision tree with production restart policy:
// back off after 5 failures decaying over 30 seconds.
func NewTree(shutdownTimeout time.Duration) *Tree {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	// sutureslog's hook API requires a pointer receiver.
	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}

	root := suture.New("callwatch", suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		Timeout:          shutdownTimeout,
	})

	return &Tree{root: root}
}

// Add registers a service with the tree.
func (t *Tree) Add(svc suture.Service) suture.ServiceToken {
	return t.root.Add(svc)
}

// Serve starts the tree and blocks until the context is canceled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}
