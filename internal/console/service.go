// Console wires the REST and websocket surfaces of the command centre onto the core.

package console

import (
	"Studio/internal/auth"
	"Studio/internal/chronicle"
	"Studio/internal/command"
	"Studio/internal/hub"
	"Studio/internal/state"
	"Studio/pkg/log"
	"context"
)

// Inviter mints media join tokens for guests.
type Inviter interface {
	GuestToken(ctx context.Context, identity, name string) (string, error)
}

type Service struct {
	router *command.Router
	store  *state.Store
	log    *chronicle.Log
	hub    *hub.Hub
	gate   auth.Authenticator
	// nil when no media server is configured
	inviter Inviter
	logger  log.Logger
}

func NewService(router *command.Router, store *state.Store, log *chronicle.Log, hub *hub.Hub, gate auth.Authenticator, inviter Inviter, logger log.Logger) *Service {
	return &Service{router: router, store: store, log: log, hub: hub, gate: gate, inviter: inviter, logger: logger}
}
