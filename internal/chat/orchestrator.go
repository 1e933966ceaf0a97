// Package chat implements the conversation orchestrator: the top-level use
// case that takes a user turn through context assembly, generation, and
// history update.
package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/codeassist-ai/codeassist/internal/conversation"
	"github.com/codeassist-ai/codeassist/internal/event"
	"github.com/codeassist-ai/codeassist/internal/generate"
	"github.com/codeassist-ai/codeassist/internal/logging"
	"github.com/codeassist-ai/codeassist/internal/model"
	"github.com/codeassist-ai/codeassist/internal/prompt"
	"github.com/codeassist-ai/codeassist/internal/session"
	"github.com/codeassist-ai/codeassist/pkg/types"
)

// conversationKey is the session data-bag key holding conversation state.
const conversationKey = "conversation"

// Config holds the orchestrator's conversation tuning.
type Config struct {
	MaxHistory           int
	ContextFiles         int
	ContextCharBudget    int
	ContextRefreshWindow int
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		MaxHistory:           conversation.DefaultMaxHistory,
		ContextFiles:         5,
		ContextCharBudget:    24000,
		ContextRefreshWindow: 3,
	}
}

// Orchestrator wires the session store, model manager, prompt builder, and
// generation coordinator into the handle-message use case.
//
// Error taxonomy at this boundary: session.ErrNotFound (re-create the
// session), model.ErrNotReady (initialize and retry), *model.InitError
// (explicit retry required), *generate.GenerationError (engine failure).
// Callers distinguish them with errors.Is/As.
type Orchestrator struct {
	store       *session.Store
	models      *model.Manager
	builder     prompt.Builder
	coordinator *generate.Coordinator
	bus         *event.Bus
	cfg         Config

	// One lock per session: at most one in-flight generation per session,
	// so history appends never interleave.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an orchestrator. The bus may be nil.
func New(store *session.Store, models *model.Manager, builder prompt.Builder, coordinator *generate.Coordinator, bus *event.Bus, cfg Config) *Orchestrator {
	if cfg.MaxHistory <= 0 {
		cfg = DefaultConfig()
	}
	o := &Orchestrator{
		store:       store,
		models:      models,
		builder:     builder,
		coordinator: coordinator,
		bus:         bus,
		cfg:         cfg,
		locks:       make(map[string]*sync.Mutex),
	}
	if bus != nil {
		// The TTL sweep deletes sessions behind the orchestrator's back;
		// drop their serialization locks too or the lock map grows forever.
		bus.Subscribe(event.SessionExpired, func(e event.Event) {
			o.dropSessionLock(e.SessionID)
		})
	}
	return o
}

// StartSession creates a session carrying fresh conversation state and
// returns its ID.
func (o *Orchestrator) StartSession() string {
	id := o.store.Create()
	o.store.Set(id, conversationKey, conversation.NewState(o.cfg.MaxHistory))
	return id
}

// EndSession deletes a session and its serialization lock. Idempotent.
func (o *Orchestrator) EndSession(sessionID string) {
	o.store.Delete(sessionID)
	o.dropSessionLock(sessionID)
}

func (o *Orchestrator) dropSessionLock(sessionID string) {
	o.mu.Lock()
	delete(o.locks, sessionID)
	o.mu.Unlock()
}

// Conversation returns a snapshot of the session's conversation state,
// refreshing the session's activity. Fails with session.ErrNotFound for
// unknown IDs. The snapshot is taken under the session's lock, so it never
// observes a half-applied turn, and reading it races with nothing.
func (o *Orchestrator) Conversation(sessionID string) (*conversation.State, error) {
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := o.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return o.conversationFor(sessionID, sess).Snapshot(), nil
}

func (o *Orchestrator) conversationFor(sessionID string, sess *types.Session) *conversation.State {
	if conv, ok := sess.Data[conversationKey].(*conversation.State); ok {
		return conv
	}
	conv := conversation.NewState(o.cfg.MaxHistory)
	o.store.Set(sessionID, conversationKey, conv)
	return conv
}

// HandleMessage processes one user turn: attaches the optional new project
// file, appends the user message (with a project-context block when the
// recent history lacks one), generates the assistant reply through the
// coordinator, records it, and returns the full text.
//
// The model readiness check runs before any state mutation: a turn against
// a not-ready model fails with model.ErrNotReady and leaves history and
// the file set untouched. The call holds the session's lock end to end, so
// concurrent turns on one session serialize.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID, userText string, newFile *types.ProjectFile, sink generate.Sink) (string, error) {
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := o.store.Get(sessionID)
	if err != nil {
		return "", err
	}
	conv := o.conversationFor(sessionID, sess)

	handle, err := o.models.Get()
	if err != nil {
		return "", err
	}

	if newFile != nil {
		conv.AddFile(newFile.Filename, newFile.Content, newFile.Description)
		conv.SetPrimary(newFile.Filename)
		o.publish(event.FileAdded, sessionID, newFile.Filename)
	}

	content := userText
	if conv.FileCount() > 0 && conv.NeedsContextRefresh(o.cfg.ContextRefreshWindow) {
		if projectCtx := conv.BuildContext(o.cfg.ContextFiles, o.cfg.ContextCharBudget); projectCtx != "" {
			content = userText + "\n\n" + projectCtx
		}
	}

	conv.AddTurn(types.UserMessage(content))
	conv.UpdateMentions(userText)
	o.publish(event.MessageReceived, sessionID, userText)

	built := o.builder.Build(conv.History())

	logging.Debug().
		Str("session", sessionID).
		Str("preview", Preview(userText)).
		Int("promptChars", len(built)).
		Msg("dispatching generation")

	full, err := o.coordinator.Run(ctx, sessionID, built, handle.Engine, sink)
	if err != nil {
		// The user turn stays in history; the failed generation produced
		// no assistant turn.
		return "", err
	}

	conv.AddTurn(types.AssistantMessage(full))
	conv.UpdateMentions(full)
	o.store.Set(sessionID, conversationKey, conv)

	if sink != nil {
		sink.DisplayMessage(full)
	}
	return full, nil
}

// AddFile attaches a project file to the session outside a message turn
// (e.g. an upload), making it primary.
func (o *Orchestrator) AddFile(sessionID string, file types.ProjectFile) error {
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := o.store.Get(sessionID)
	if err != nil {
		return err
	}
	conv := o.conversationFor(sessionID, sess)
	conv.AddFile(file.Filename, file.Content, file.Description)
	conv.SetPrimary(file.Filename)
	o.publish(event.FileAdded, sessionID, file.Filename)
	return nil
}

// RemoveFile detaches a project file from the session. Reports whether the
// file existed.
func (o *Orchestrator) RemoveFile(sessionID, filename string) (bool, error) {
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := o.store.Get(sessionID)
	if err != nil {
		return false, err
	}
	conv := o.conversationFor(sessionID, sess)
	removed := conv.RemoveFile(filename)
	if removed {
		o.publish(event.FileRemoved, sessionID, filename)
	}
	return removed, nil
}

// RefreshFile replaces the content of an already-attached project file,
// e.g. when a watched file changes on disk. Unknown files are ignored.
func (o *Orchestrator) RefreshFile(sessionID, filename, content string) error {
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := o.store.Get(sessionID)
	if err != nil {
		return err
	}
	conv := o.conversationFor(sessionID, sess)
	files := conv.Files()
	f, ok := files[filename]
	if !ok {
		return nil
	}
	conv.AddFile(filename, content, f.Description)
	return nil
}

func (o *Orchestrator) publish(t event.Type, sessionID string, data any) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(event.Event{Type: t, SessionID: sessionID, Data: data})
}

func (o *Orchestrator) sessionLock(sessionID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()

	lock, ok := o.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[sessionID] = lock
	}
	return lock
}

// Preview returns the first line of text, truncated for logging.
func Preview(text string) string {
	line := text
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if len(line) > 80 {
		line = line[:80]
	}
	return line
}
