package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/ziadkadry99/pageforge/internal/logging"
	"github.com/ziadkadry99/pageforge/internal/render"
	"github.com/ziadkadry99/pageforge/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientMessage is the incoming websocket message format.
type clientMessage struct {
	Type      string `json:"type"` // submit, visualize, mode, rename or resume
	SessionID string `json:"session_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

// serverMessage is the outgoing websocket message format. Rev increases by
// one with every message sent on a connection.
type serverMessage struct {
	Type      string            `json:"type"` // snapshot, chunk, render, code, diagram or error
	Rev       uint64            `json:"rev"`
	SessionID string            `json:"session_id,omitempty"`
	Content   string            `json:"content,omitempty"`
	Snapshot  *session.Snapshot `json:"snapshot,omitempty"`
}

// connection is one browser tab. It is the renderer and the observer of
// its session controller.
type connection struct {
	ws   *Workspace
	conn *websocket.Conn
	ctx  context.Context

	writeMu sync.Mutex
	rev     uint64

	ctrlMu sync.Mutex
	ctrl   *session.Controller

	// streamed counts the bytes of the in-progress document already sent
	// as chunk messages.
	streamed int
}

func (ws *Workspace) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warnf("workspace: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	c := &connection{ws: ws, conn: conn, ctx: ctx}
	c.ctrl = ws.newController(c, session.Options{})

	var inflight sync.WaitGroup
	defer func() {
		c.controller().Close()
		cancel()
		inflight.Wait()
	}()

	c.sendSnapshot()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Warnf("workspace: websocket read: %v", err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("invalid message format")
			continue
		}

		switch msg.Type {
		case "submit":
			if strings.TrimSpace(msg.Content) == "" {
				c.sendError("content is required")
				continue
			}
			ctrl := c.controller()
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				callCtx, cancel := ws.callContext(ctx)
				defer cancel()
				if err := ctrl.Submit(callCtx, msg.Content); err != nil && !errors.Is(err, session.ErrClosed) {
					c.sendError(err.Error())
				}
			}()
		case "visualize":
			ctrl := c.controller()
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				callCtx, cancel := ws.callContext(ctx)
				defer cancel()
				if err := ctrl.Visualize(callCtx); err != nil {
					if !errors.Is(err, session.ErrClosed) {
						c.sendError("visualization failed: " + err.Error())
					}
					return
				}
				c.send(serverMessage{Type: "diagram", Content: ctrl.Snapshot().Diagram})
			}()
		case "mode":
			mode, err := session.ParseMode(msg.Content)
			if err != nil {
				c.sendError(err.Error())
				continue
			}
			if err := c.controller().SetMode(ctx, mode); err != nil {
				c.sendError(err.Error())
			}
		case "rename":
			if err := c.controller().Rename(ctx, msg.Content); err != nil {
				c.sendError(err.Error())
			}
		case "resume":
			c.resume(msg.SessionID)
		default:
			c.sendError("unknown message type: " + msg.Type)
		}
	}
}

func (ws *Workspace) newController(c *connection, opts session.Options) *session.Controller {
	opts.Renderer = render.Func(c.render)
	opts.Observer = c.observe
	if ws.store != nil {
		opts.Store = ws.store
	}
	return session.New(ws.backend, opts)
}

func (c *connection) controller() *session.Controller {
	c.ctrlMu.Lock()
	defer c.ctrlMu.Unlock()
	return c.ctrl
}

// resume swaps the connection over to a saved session.
func (c *connection) resume(id string) {
	if c.ws.store == nil {
		c.sendError("session storage is not configured")
		return
	}
	if id == "" {
		c.sendError("session_id is required")
		return
	}
	if c.controller().Snapshot().Busy {
		c.sendError(session.ErrBusy.Error())
		return
	}

	restored, err := c.ws.store.Restore(c.ctx, id, c.ws.backend, session.Options{
		Renderer: render.Func(c.render),
		Observer: c.observe,
	})
	if errors.Is(err, session.ErrNotFound) {
		c.sendError("session not found: " + id)
		return
	}
	if err != nil {
		c.sendError(err.Error())
		return
	}

	c.ctrlMu.Lock()
	old := c.ctrl
	c.ctrl = restored
	c.ctrlMu.Unlock()
	old.Close()

	c.sendSnapshot()
	if snap := restored.Snapshot(); snap.Markup != "" {
		if err := c.render(c.ctx, snap.Markup); err != nil {
			logging.Warnf("workspace: rendering restored session: %v", err)
		}
	}
}

// observe turns controller changes into messages. While a document is
// streaming only the new bytes are sent; the document only ever grows
// during a stream, so they are always a suffix of what was sent before.
func (c *connection) observe(snap session.Snapshot) {
	if snap.State == session.StateGenerating && len(snap.Markup) > c.streamed {
		delta := snap.Markup[c.streamed:]
		c.streamed = len(snap.Markup)
		c.send(serverMessage{Type: "chunk", SessionID: snap.ID, Content: delta})
		return
	}
	if snap.State != session.StateGenerating {
		c.streamed = 0
	}
	c.send(serverMessage{Type: "snapshot", SessionID: snap.ID, Snapshot: &snap})
}

// render pushes a finished document to the sandboxed frame and the code
// view.
func (c *connection) render(_ context.Context, markup string) error {
	id := c.controller().ID()
	if err := c.send(serverMessage{Type: "render", SessionID: id, Content: markup}); err != nil {
		return fmt.Errorf("%w: %w", render.ErrRenderFailure, err)
	}
	code, err := render.HighlightHTML(markup)
	if err != nil {
		return fmt.Errorf("%w: %w", render.ErrRenderFailure, err)
	}
	if err := c.send(serverMessage{Type: "code", SessionID: id, Content: code}); err != nil {
		return fmt.Errorf("%w: %w", render.ErrRenderFailure, err)
	}
	return nil
}

func (c *connection) sendSnapshot() {
	snap := c.controller().Snapshot()
	c.send(serverMessage{Type: "snapshot", SessionID: snap.ID, Snapshot: &snap})
}

func (c *connection) sendError(message string) {
	c.send(serverMessage{Type: "error", SessionID: c.controller().ID(), Content: message})
}

func (c *connection) send(msg serverMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.rev++
	msg.Rev = c.rev
	if err := c.conn.WriteJSON(msg); err != nil {
		logging.Debugf("workspace: websocket write: %v", err)
		return err
	}
	return nil
}
