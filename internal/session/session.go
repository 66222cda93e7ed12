// Package session drives one user's page-building conversation: it owns the
// current document, the transcript and the busy flag, and hands finished
// documents to a renderer.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/ziadkadry99/pageforge/internal/llm"
	"github.com/ziadkadry99/pageforge/internal/logging"
	"github.com/ziadkadry99/pageforge/internal/render"
)

var (
	// ErrEmptyInstruction is returned by Submit for a blank instruction.
	ErrEmptyInstruction = errors.New("instruction is empty")
	// ErrBusy is returned while a generation or edit is outstanding.
	ErrBusy = errors.New("a generation is already in progress")
	// ErrClosed is returned once Close has been called, and by a
	// submission that was overtaken by Close.
	ErrClosed = errors.New("session is closed")
	// ErrNoMarkup is returned by Visualize before any document exists.
	ErrNoMarkup = errors.New("there is no markup to visualize")
	// ErrUnknownMode is wrapped by ParseMode for unrecognized view modes.
	ErrUnknownMode = errors.New("unknown view mode")

	errBlankDocument = errors.New("backend returned an empty document")
)

// DefaultProject names sessions that were never renamed.
const DefaultProject = "Untitled Project"

// State is the controller's position in its state machine.
type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateEditing    State = "editing"
)

// Mode selects how the workspace shows the document.
type Mode string

const (
	ModePreview Mode = "preview"
	ModeCode    Mode = "code"
	ModeSplit   Mode = "split"
)

// ParseMode validates a view mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModePreview, ModeCode, ModeSplit:
		return m, nil
	}
	return "", fmt.Errorf("%w %q: must be preview, code or split", ErrUnknownMode, s)
}

// Role identifies who wrote a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry. Messages are never changed once
// appended.
type Message struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Backend produces documents. The in-process *generate.Gateway and the HTTP
// *client.Client both satisfy it.
type Backend interface {
	Create(ctx context.Context, instruction string, sink llm.ChunkFunc) error
	Edit(ctx context.Context, instruction, currentMarkup string) (string, error)
	Visualize(ctx context.Context, markup string) (string, error)
}

// Snapshot is a copy of the controller's state. Rev increases with every
// change.
type Snapshot struct {
	ID         string    `json:"id"`
	Project    string    `json:"project"`
	State      State     `json:"state"`
	Busy       bool      `json:"busy"`
	Mode       Mode      `json:"mode"`
	Markup     string    `json:"markup"`
	Transcript []Message `json:"transcript"`
	Diagram    string    `json:"diagram,omitempty"`
	DiagramErr string    `json:"diagramError,omitempty"`
	Rev        uint64    `json:"rev"`
}

// Options configures a Controller. Every field is optional.
type Options struct {
	ID       string
	Project  string
	Renderer render.Renderer
	Store    Store
	// Observer is called after every change, including each streamed
	// chunk. Calls are serialized. It must not call back into the
	// controller's mutating methods.
	Observer func(Snapshot)
}

// Controller is the state machine behind one session. At most one
// generation or edit is outstanding at a time; the busy flag rejects
// further submissions instead of queueing them.
type Controller struct {
	backend  Backend
	renderer render.Renderer
	store    Store
	observer func(Snapshot)

	mu         sync.Mutex
	id         string
	project    string
	state      State
	busy       bool
	closed     bool
	mode       Mode
	markup     string
	stable     string // last known-good markup, restored on failure
	transcript []Message
	diagram    string
	diagramErr string
	rev        uint64
	gen        uint64

	notifyMu  sync.Mutex
	persistMu sync.Mutex
	saved     int
}

// New returns an idle controller with an empty document.
func New(backend Backend, opts Options) *Controller {
	c := &Controller{
		backend:  backend,
		renderer: opts.Renderer,
		store:    opts.Store,
		observer: opts.Observer,
		id:       opts.ID,
		project:  strings.TrimSpace(opts.Project),
		state:    StateIdle,
		mode:     ModePreview,
	}
	if c.id == "" {
		c.id = uuid.New().String()
	}
	if c.project == "" {
		c.project = DefaultProject
	}
	if c.renderer == nil {
		c.renderer = render.Discard
	}
	return c
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// Submit runs one instruction to completion. With no current document it
// streams a new one; otherwise it edits the current document. The user
// message is appended before the backend is called, and every outcome ends
// back in the idle state with a summary or error message appended.
func (c *Controller) Submit(ctx context.Context, instruction string) error {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return ErrEmptyInstruction
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.gen++
	gen := c.gen
	prior := c.markup
	// Same rule as generate.Request.IsEdit: blank markup is no document.
	edit := strings.TrimSpace(prior) != ""
	c.busy = true
	c.stable = prior
	if edit {
		c.state = StateEditing
	} else {
		c.state = StateGenerating
		c.markup = ""
	}
	c.appendLocked(RoleUser, instruction)
	c.mu.Unlock()

	c.notify()
	c.persist(ctx)

	var (
		result string
		err    error
	)
	if edit {
		result, err = c.backend.Edit(ctx, instruction, prior)
	} else {
		err = c.backend.Create(ctx, instruction, func(chunk string) error {
			c.grow(gen, chunk)
			return nil
		})
		if err == nil {
			c.mu.Lock()
			result = c.markup
			c.mu.Unlock()
		}
	}

	return c.finish(ctx, gen, edit, instruction, result, err)
}

// grow appends one streamed chunk. Chunks from a superseded or closed
// session are dropped.
func (c *Controller) grow(gen uint64, chunk string) {
	if chunk == "" {
		return
	}
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.markup += chunk
	c.rev++
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) finish(ctx context.Context, gen uint64, edit bool, instruction, result string, callErr error) error {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return ErrClosed
	}
	if callErr == nil && strings.TrimSpace(result) == "" {
		callErr = errBlankDocument
	}
	if callErr != nil {
		c.markup = c.stable
		c.appendLocked(RoleAssistant, "Generation failed: "+callErr.Error())
	} else {
		c.markup = result
		c.stable = result
		if edit {
			c.appendLocked(RoleAssistant, "Applied change: "+instruction)
		} else {
			c.appendLocked(RoleAssistant, "Generated code for: "+instruction)
		}
		// A new document makes any earlier diagram stale.
		c.diagram, c.diagramErr = "", ""
	}
	c.busy = false
	c.state = StateIdle
	markup := c.markup
	c.mu.Unlock()

	if callErr == nil {
		if err := c.renderer.Render(ctx, markup); err != nil {
			logging.WithFields(logFields(c.id)).Warnf("render failed: %v", err)
		}
	} else {
		logging.WithFields(logFields(c.id)).Warnf("submission failed: %v", callErr)
	}

	c.notify()
	c.persist(ctx)
	return callErr
}

// Visualize asks the backend for a diagram of the current document. A
// failure is recorded on the session but never touches the markup.
func (c *Controller) Visualize(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	markup := c.markup
	c.mu.Unlock()
	if strings.TrimSpace(markup) == "" {
		return ErrNoMarkup
	}

	diagram, err := c.backend.Visualize(ctx, markup)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		c.diagramErr = err.Error()
	} else {
		c.diagram, c.diagramErr = diagram, ""
	}
	c.rev++
	c.mu.Unlock()

	if err != nil {
		logging.WithFields(logFields(c.id)).Warnf("visualization failed: %v", err)
	}
	c.notify()
	c.persist(ctx)
	return err
}

// SetMode switches the view mode.
func (c *Controller) SetMode(ctx context.Context, mode Mode) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}
	return c.update(ctx, func() { c.mode = mode })
}

// Rename changes the project name. A blank name restores the default.
func (c *Controller) Rename(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultProject
	}
	return c.update(ctx, func() { c.project = name })
}

func (c *Controller) update(ctx context.Context, fn func()) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	fn()
	c.rev++
	c.mu.Unlock()

	c.notify()
	c.persist(ctx)
	return nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close detaches the controller. Chunks and results that arrive later are
// ignored. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		ID:         c.id,
		Project:    c.project,
		State:      c.state,
		Busy:       c.busy,
		Mode:       c.mode,
		Markup:     c.markup,
		Transcript: append([]Message(nil), c.transcript...),
		Diagram:    c.diagram,
		DiagramErr: c.diagramErr,
		Rev:        c.rev,
	}
}

func (c *Controller) appendLocked(role Role, text string) {
	c.transcript = append(c.transcript, Message{Role: role, Text: text, At: time.Now()})
	c.rev++
}

func (c *Controller) notify() {
	if c.observer == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.observer(c.Snapshot())
}

// persist writes the session and any unsaved messages. While a call is in
// flight the last known-good markup is saved, never a partial document.
func (c *Controller) persist(ctx context.Context) {
	if c.store == nil {
		return
	}
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	snap := c.snapshotLocked()
	if c.busy {
		snap.Markup = c.stable
	}
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	if err := c.store.SaveSession(ctx, snap); err != nil {
		logging.WithFields(logFields(c.id)).Errorf("saving session: %v", err)
		return
	}
	for c.saved < len(snap.Transcript) {
		if err := c.store.AppendMessage(ctx, snap.ID, c.saved, snap.Transcript[c.saved]); err != nil {
			logging.WithFields(logFields(c.id)).Errorf("saving message %d: %v", c.saved, err)
			return
		}
		c.saved++
	}
}

func logFields(id string) logrus.Fields {
	return logrus.Fields{"session": id}
}
