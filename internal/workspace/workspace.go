// Package workspace serves the browser workspace: a prompt bar, the
// transcript and a sandboxed live preview kept in sync over a websocket.
package workspace

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ziadkadry99/pageforge/internal/session"
)

// Workspace wires browser connections to session controllers.
type Workspace struct {
	backend session.Backend
	store   *session.SQLStore
	timeout time.Duration
}

// DefaultRequestTimeout bounds each submission and visualization made from
// a workspace connection.
const DefaultRequestTimeout = 120 * time.Second

// New creates a Workspace. store may be nil, in which case sessions live
// only as long as their connection.
func New(backend session.Backend, store *session.SQLStore) *Workspace {
	return &Workspace{
		backend: backend,
		store:   store,
		timeout: DefaultRequestTimeout,
	}
}

// WithRequestTimeout sets the deadline for each backend call. Websocket
// calls bypass the HTTP timeout middleware, so this is their only bound.
// Zero or less keeps the default.
func (ws *Workspace) WithRequestTimeout(d time.Duration) *Workspace {
	if d > 0 {
		ws.timeout = d
	}
	return ws
}

// callContext derives the context for one backend call.
func (ws *Workspace) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, ws.timeout)
}

// RegisterRoutes mounts the workspace page, its websocket and the session
// endpoints onto the given router.
func (ws *Workspace) RegisterRoutes(r chi.Router) {
	r.Get("/", ws.ServeIndex)
	r.Get("/ws/workspace", ws.handleWebSocket)
	r.Get("/api/sessions", ws.handleListSessions)
	r.Get("/api/sessions/{id}", ws.handleGetSession)
}
