package console

import (
	"Studio/internal/auth"
	"Studio/internal/chronicle"
	"Studio/internal/command"
	"Studio/internal/hub"
	"Studio/internal/state"
	"Studio/internal/test"
	"Studio/pkg/log"
	"Studio/pkg/validations"
	"context"
	"testing"

	"github.com/gin-gonic/gin"
)

type fixture struct {
	engine *gin.Engine
	svc    *Service
	store  *state.Store
	log    *chronicle.Log
	hub    *hub.Hub
}

type stubInviter struct{}

func (stubInviter) GuestToken(ctx context.Context, identity, name string) (string, error) {
	return "lk-token-" + identity, nil
}

func newFixture(t *testing.T, inviter Inviter) fixture {
	t.Helper()
	validations.RegisterCustomValidations(context.Background(), log.Nop())

	store := state.NewStore(state.DefaultState())
	clog := chronicle.NewLog()
	h := hub.NewHub(command.NewReplay(store, clog), nil, nil, log.Nop())
	router := command.NewRouter(store, clog, h, nil, log.Nop())
	gate := auth.NewGate(test.MockAccessSecret, log.Nop())
	svc := NewService(router, store, clog, h, gate, inviter, log.Nop())

	engine := test.MockRouter()
	ConsoleHandlers(engine, svc, auth.AuthMiddleware(gate, log.Nop()), log.Nop())
	SocketHandlers(engine, svc, log.Nop())
	return fixture{engine: engine, svc: svc, store: store, log: clog, hub: h}
}

var (
	adminToken  = test.RoleToken("ada", "org_admin")
	viewerToken = test.RoleToken("eve", "viewer")
)
