// Package engine is the streaming chat session engine: it folds the
// server's incremental events into a stable ordered transcript, enforces
// at most one live stream per process, and layers session directory
// bookkeeping and input queuing on top.
package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hao-ai-lab/research-agent-sub004/internal/logging"
	"github.com/hao-ai-lab/research-agent-sub004/internal/parts"
	"github.com/hao-ai-lab/research-agent-sub004/internal/stream"
	"github.com/hao-ai-lab/research-agent-sub004/internal/types"
)

const (
	DefaultIdleTimeout = 60 * time.Second
	DefaultMode        = "agent"

	resyncTimeout     = 10 * time.Second
	serverStopTimeout = 5 * time.Second
)

// ErrNoActiveSession is returned by Send when no target session id could
// be resolved; no network call is made in that case.
var ErrNoActiveSession = errors.New("no active session")

// SessionStore is the persistence collaborator: it owns the authoritative
// transcript and the session list.
type SessionStore interface {
	Health(ctx context.Context) (bool, error)
	ListSessions(ctx context.Context) ([]types.SessionSummary, error)
	CreateSession(ctx context.Context) (*types.SessionSummary, error)
	GetSession(ctx context.Context, id string) (*types.SessionDetail, error)
	DeleteSession(ctx context.Context, id string) error
	StopSession(ctx context.Context, id string) error
}

// StreamTransport delivers discrete typed events for a session, either
// for a freshly-sent message or resumed from a sequence cursor.
type StreamTransport interface {
	StreamChat(ctx context.Context, sessionID, content, mode string) (<-chan types.StreamEvent, func(), error)
	StreamSession(ctx context.Context, sessionID string, fromSeq int64, runID string) (<-chan types.StreamEvent, func(), error)
}

// Controller owns the lifecycle of at most one live stream. All exported
// methods are safe for concurrent use. Send and Attach block until their
// stream ends; UI code runs them on their own goroutine and reads
// snapshots while they work.
type Controller struct {
	store       SessionStore
	transport   StreamTransport
	log         logging.Logger
	idleTimeout time.Duration

	mu         sync.Mutex
	sessionID  string
	mode       string
	messages   []types.Message
	state      stream.State
	lastError  string
	cancel     context.CancelFunc
	generation int
	queue      []string
	onFinish   func(sessionID string)
	onEffect   func(stream.Effect)
}

func NewController(store SessionStore, transport StreamTransport, log logging.Logger, idleTimeout time.Duration) *Controller {
	if log == nil {
		log = logging.Nop()
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Controller{
		store:       store,
		transport:   transport,
		log:         log,
		idleTimeout: idleTimeout,
		mode:        DefaultMode,
	}
}

// SetFinishHook registers a callback invoked after every stream ends and
// streaming state has been reset, whatever the outcome. The session
// directory uses it to refresh list metadata.
func (c *Controller) SetFinishHook(fn func(sessionID string)) {
	c.mu.Lock()
	c.onFinish = fn
	c.mu.Unlock()
}

// SetEffectHook registers a callback invoked for each applied event's
// effect, outside the state lock. CLI consumers use it to echo deltas.
func (c *Controller) SetEffectHook(fn func(stream.Effect)) {
	c.mu.Lock()
	c.onEffect = fn
	c.mu.Unlock()
}

func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Controller) Mode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller) SetMode(mode string) {
	mode = strings.TrimSpace(mode)
	if mode == "" {
		mode = DefaultMode
	}
	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()
}

// Messages returns a copy of the current transcript.
func (c *Controller) Messages() []types.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.Message(nil), c.messages...)
}

// StreamingState returns a deep copy of the live accumulation.
func (c *Controller) StreamingState() stream.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

func (c *Controller) Streaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Streaming
}

// Err returns the sticky user-visible error, empty when none.
func (c *Controller) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// AdoptSession makes the controller current for a session, replacing the
// transcript. Any in-flight stream for a previous session is cancelled.
func (c *Controller) AdoptSession(id string, messages []types.Message) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.sessionID = id
	c.messages = normalizeMessages(messages)
	c.state.Reset(false)
	c.lastError = ""
	c.mu.Unlock()
}

// ClearSession drops the current session and transcript.
func (c *Controller) ClearSession() {
	c.AdoptSession("", nil)
}

// Send appends the user message optimistically, opens a fresh stream, and
// consumes it to completion. A second Send while a stream is active is a
// silent no-op. The explicit sessionID overrides the current session;
// when both are empty the call fails locally with ErrNoActiveSession.
func (c *Controller) Send(ctx context.Context, sessionID, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	c.mu.Lock()
	if c.state.Streaming {
		c.mu.Unlock()
		return nil
	}
	target := strings.TrimSpace(sessionID)
	if target == "" {
		target = c.sessionID
	}
	if target == "" {
		c.lastError = "no active session"
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	mode := c.mode
	c.sessionID = target
	c.lastError = ""
	c.messages = append(c.messages, types.Message{
		ID:        uuid.NewString(),
		Role:      types.RoleUser,
		Content:   content,
		Timestamp: time.Now().Unix(),
	})
	c.state.Reset(true)
	streamCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	events, stop, err := c.transport.StreamChat(streamCtx, target, content, mode)
	if err != nil {
		cancel()
		return c.failOpen(gen, err)
	}
	return c.consume(streamCtx, cancel, stop, gen, target, events)
}

// Attach resumes consumption of a stream already running on the server,
// seeding the streaming view from the snapshot and continuing after its
// sequence cursor. Completion, error, and cleanup behave exactly as Send.
func (c *Controller) Attach(ctx context.Context, sessionID string, snap *types.ActiveStreamSnapshot) error {
	if snap == nil || snap.Status != types.StreamStatusRunning {
		return nil
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrNoActiveSession
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.sessionID = sessionID
	c.lastError = ""
	c.state.Seed(snap)
	streamCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	events, stop, err := c.transport.StreamSession(streamCtx, sessionID, snap.Sequence, snap.RunID)
	if err != nil {
		cancel()
		return c.failOpen(gen, err)
	}
	return c.consume(streamCtx, cancel, stop, gen, sessionID, events)
}

// Stop cancels local event consumption immediately and asks the server to
// stop generating, best effort. Calling it with no stream active is a
// no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	sessionID := c.sessionID
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	go c.stopServer(sessionID)
}

// consume drains the event channel, applying each event in arrival order.
// The deferred cleanup runs on every exit path, but only while this
// stream is still the current generation: a cancelled stream must not
// reset state seeded by its successor, nor kick the queue into opening a
// second stream alongside it.
func (c *Controller) consume(ctx context.Context, cancel context.CancelFunc, stop func(), gen int, sessionID string, events <-chan types.StreamEvent) error {
	defer func() {
		stop()
		cancel()
		c.mu.Lock()
		current := c.generation == gen
		if current {
			c.state.Reset(false)
			c.cancel = nil
		}
		finish := c.onFinish
		c.mu.Unlock()
		if finish != nil {
			finish(sessionID)
		}
		if current {
			go c.drainQueue()
		}
	}()

	watchdog := time.NewTimer(c.idleTimeout)
	defer watchdog.Stop()

	var streamErr error
	sawContent := false
	done := false
	for !done {
		select {
		case ev, ok := <-events:
			if !ok {
				done = true
				continue
			}
			if !watchdog.Stop() {
				select {
				case <-watchdog.C:
				default:
				}
			}
			watchdog.Reset(c.idleTimeout)

			c.mu.Lock()
			if c.generation != gen {
				// a successor stream owns the state now
				c.mu.Unlock()
				done = true
				continue
			}
			eff := c.state.Apply(ev)
			effectHook := c.onEffect
			c.mu.Unlock()
			if effectHook != nil {
				effectHook(eff)
			}

			if eff.TextDelta != "" || eff.ThinkingDelta != "" || eff.SawTool {
				sawContent = true
			}
			if eff.Err != nil {
				streamErr = eff.Err
				done = true
			} else if eff.Done {
				done = true
			}
		case <-watchdog.C:
			// inactivity cancels exactly as an explicit stop would
			c.log.Warn("stream idle timeout", logging.F("session_id", sessionID))
			cancel()
			go c.stopServer(sessionID)
		case <-ctx.Done():
			done = true
		}
	}

	aborted := ctx.Err() != nil && streamErr == nil
	switch {
	case streamErr != nil:
		c.setError(streamErr.Error())
		// the transcript is not assumed to hold a partial entry unless
		// a re-sync explicitly finds one
		if err := c.resync(sessionID); err != nil {
			c.log.Warn("post-error resync failed", logging.F("session_id", sessionID), logging.F("error", err))
		}
		return streamErr
	case aborted:
		if err := c.resync(sessionID); err != nil {
			c.log.Warn("post-abort resync failed", logging.F("session_id", sessionID), logging.F("error", err))
		}
		return nil
	default:
		if !sawContent {
			return nil
		}
		if err := c.resync(sessionID); err != nil {
			c.setError(err.Error())
			return err
		}
		return nil
	}
}

// resync replaces the in-memory transcript with the server's verbatim;
// locally accumulated parts are discardable scratch state.
func (c *Controller) resync(sessionID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), resyncTimeout)
	defer cancel()
	detail, err := c.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	if c.sessionID == sessionID {
		c.messages = normalizeMessages(detail.Messages)
	}
	c.mu.Unlock()
	return nil
}

func (c *Controller) stopServer(sessionID string) {
	if sessionID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), serverStopTimeout)
	defer cancel()
	if err := c.store.StopSession(ctx, sessionID); err != nil {
		c.log.Warn("server-side stop failed", logging.F("session_id", sessionID), logging.F("error", err))
	}
}

func (c *Controller) failOpen(gen int, err error) error {
	c.mu.Lock()
	if c.generation == gen {
		c.state.Reset(false)
		c.cancel = nil
	}
	c.lastError = err.Error()
	c.mu.Unlock()
	return err
}

func (c *Controller) setError(msg string) {
	c.mu.Lock()
	c.lastError = msg
	c.mu.Unlock()
}

func normalizeMessages(messages []types.Message) []types.Message {
	out := make([]types.Message, 0, len(messages))
	for _, msg := range messages {
		msg.Parts = parts.Normalize(msg.Parts)
		out = append(out, msg)
	}
	return out
}
