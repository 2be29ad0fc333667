package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hao-ai-lab/research-agent-sub004/internal/types"
)

type fakeStore struct {
	mu        sync.Mutex
	unhealthy bool
	sessions  []types.SessionSummary
	details   map[string]*types.SessionDetail
	created   int
	deleted   []string
	stopped   []string
}

func (f *fakeStore) Health(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.unhealthy, nil
}

func (f *fakeStore) ListSessions(ctx context.Context) ([]types.SessionSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.SessionSummary(nil), f.sessions...), nil
}

func (f *fakeStore) CreateSession(ctx context.Context) (*types.SessionSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	session := types.SessionSummary{ID: fmt.Sprintf("new-%d", f.created), Title: "New session"}
	f.sessions = append(f.sessions, session)
	return &session, nil
}

func (f *fakeStore) GetSession(ctx context.Context, id string) (*types.SessionDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if detail, ok := f.details[id]; ok {
		copied := *detail
		return &copied, nil
	}
	return &types.SessionDetail{ID: id}, nil
}

func (f *fakeStore) DeleteSession(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	kept := f.sessions[:0]
	for _, s := range f.sessions {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	f.sessions = kept
	return nil
}

func (f *fakeStore) StopSession(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, id)
	return nil
}

func (f *fakeStore) stoppedSessions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.stopped...)
}

// streamScript drives one fake stream: its events are delivered in order,
// then the channel closes, or stays open until cancel when hold is set.
type streamScript struct {
	events []types.StreamEvent
	hold   bool
}

type chatCall struct {
	sessionID string
	content   string
	mode      string
}

type resumeCall struct {
	sessionID string
	fromSeq   int64
	runID     string
}

type fakeTransport struct {
	mu      sync.Mutex
	scripts []streamScript
	chats   []chatCall
	resumes []resumeCall
	openErr error
}

func idleEvent() types.StreamEvent {
	return types.StreamEvent{Type: types.EventSessionStatus, Status: types.SessionStatusIdle}
}

func textEvent(id, delta string) types.StreamEvent {
	return types.StreamEvent{Type: types.EventPartDelta, PartType: types.StreamPartText, ID: id, Delta: delta}
}

func (f *fakeTransport) nextScript() streamScript {
	if len(f.scripts) == 0 {
		return streamScript{events: []types.StreamEvent{idleEvent()}}
	}
	script := f.scripts[0]
	f.scripts = f.scripts[1:]
	return script
}

func (f *fakeTransport) StreamChat(ctx context.Context, sessionID, content, mode string) (<-chan types.StreamEvent, func(), error) {
	f.mu.Lock()
	if f.openErr != nil {
		err := f.openErr
		f.mu.Unlock()
		return nil, nil, err
	}
	f.chats = append(f.chats, chatCall{sessionID: sessionID, content: content, mode: mode})
	script := f.nextScript()
	f.mu.Unlock()
	return f.run(ctx, script)
}

func (f *fakeTransport) StreamSession(ctx context.Context, sessionID string, fromSeq int64, runID string) (<-chan types.StreamEvent, func(), error) {
	f.mu.Lock()
	f.resumes = append(f.resumes, resumeCall{sessionID: sessionID, fromSeq: fromSeq, runID: runID})
	script := f.nextScript()
	f.mu.Unlock()
	return f.run(ctx, script)
}

func (f *fakeTransport) run(ctx context.Context, script streamScript) (<-chan types.StreamEvent, func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan types.StreamEvent)
	go func() {
		defer close(ch)
		for _, ev := range script.events {
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
		if script.hold {
			<-ctx.Done()
		}
	}()
	return ch, cancel, nil
}

func (f *fakeTransport) chatCalls() []chatCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chatCall(nil), f.chats...)
}

func (f *fakeTransport) resumeCalls() []resumeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]resumeCall(nil), f.resumes...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSendStreamsToCompletion(t *testing.T) {
	store := &fakeStore{details: map[string]*types.SessionDetail{
		"s1": {ID: "s1", Messages: []types.Message{
			{ID: "m1", Role: types.RoleUser, Content: "hello"},
			{ID: "m2", Role: types.RoleAssistant, Content: "Hi there"},
		}},
	}}
	transport := &fakeTransport{scripts: []streamScript{
		{events: []types.StreamEvent{
			textEvent("t1", "Hi"),
			textEvent("t1", " there"),
			idleEvent(),
		}},
	}}
	ctrl := NewController(store, transport, nil, 0)

	if err := ctrl.Send(context.Background(), "s1", "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	calls := transport.chatCalls()
	if len(calls) != 1 || calls[0] != (chatCall{sessionID: "s1", content: "hello", mode: DefaultMode}) {
		t.Fatalf("chat calls = %+v", calls)
	}
	if ctrl.Streaming() {
		t.Fatalf("streaming flag still set after completion")
	}
	if state := ctrl.StreamingState(); len(state.Parts) != 0 {
		t.Fatalf("streaming state not reset: %+v", state.Parts)
	}
	messages := ctrl.Messages()
	if len(messages) != 2 || messages[1].Content != "Hi there" {
		t.Fatalf("transcript not reconciled: %+v", messages)
	}
	if ctrl.Err() != "" {
		t.Fatalf("unexpected error %q", ctrl.Err())
	}
}

func TestSendBlankContentIsNoOp(t *testing.T) {
	transport := &fakeTransport{}
	ctrl := NewController(&fakeStore{}, transport, nil, 0)
	ctrl.AdoptSession("s1", nil)

	if err := ctrl.Send(context.Background(), "", "   "); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(transport.chatCalls()) != 0 {
		t.Fatalf("blank input must not reach the transport")
	}
}

func TestSendWithoutSession(t *testing.T) {
	transport := &fakeTransport{}
	ctrl := NewController(&fakeStore{}, transport, nil, 0)

	err := ctrl.Send(context.Background(), "", "hi")
	if err != ErrNoActiveSession {
		t.Fatalf("err = %v", err)
	}
	if ctrl.Err() == "" {
		t.Fatalf("expected a sticky error message")
	}
	if len(transport.chatCalls()) != 0 {
		t.Fatalf("no network call may be made")
	}
}

func TestSendWhileStreamingIsSilentNoOp(t *testing.T) {
	store := &fakeStore{}
	transport := &fakeTransport{scripts: []streamScript{{hold: true}}}
	ctrl := NewController(store, transport, nil, 0)

	done := make(chan error, 1)
	go func() { done <- ctrl.Send(context.Background(), "s1", "first") }()
	waitFor(t, "stream to start", ctrl.Streaming)

	if err := ctrl.Send(context.Background(), "s1", "second"); err != nil {
		t.Fatalf("overlapping Send must be a silent no-op, got %v", err)
	}
	if calls := transport.chatCalls(); len(calls) != 1 {
		t.Fatalf("chat calls = %+v", calls)
	}

	ctrl.Stop()
	if err := <-done; err != nil {
		t.Fatalf("aborted Send must return nil, got %v", err)
	}
	waitFor(t, "server stop", func() bool { return len(store.stoppedSessions()) == 1 })
}

func TestStopWithoutStreamIsNoOp(t *testing.T) {
	store := &fakeStore{}
	ctrl := NewController(store, &fakeTransport{}, nil, 0)
	ctrl.AdoptSession("s1", nil)

	ctrl.Stop()
	if len(store.stoppedSessions()) != 0 {
		t.Fatalf("stop with no stream must not call the server")
	}
}

func TestWatchdogCancelsIdleStream(t *testing.T) {
	store := &fakeStore{}
	transport := &fakeTransport{scripts: []streamScript{
		{events: []types.StreamEvent{textEvent("t1", "partial")}, hold: true},
	}}
	ctrl := NewController(store, transport, nil, 50*time.Millisecond)

	start := time.Now()
	if err := ctrl.Send(context.Background(), "s1", "hi"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("watchdog did not fire, Send took %v", elapsed)
	}
	if ctrl.Streaming() {
		t.Fatalf("streaming flag still set")
	}
	waitFor(t, "server stop", func() bool { return len(store.stoppedSessions()) >= 1 })
}

func TestStreamErrorIsSticky(t *testing.T) {
	store := &fakeStore{}
	transport := &fakeTransport{scripts: []streamScript{
		{events: []types.StreamEvent{
			textEvent("t1", "par"),
			{Type: types.EventError, Message: "model unavailable"},
		}},
	}}
	ctrl := NewController(store, transport, nil, 0)

	err := ctrl.Send(context.Background(), "s1", "hi")
	if err == nil || err.Error() != "model unavailable" {
		t.Fatalf("err = %v", err)
	}
	if ctrl.Err() != "model unavailable" {
		t.Fatalf("sticky error = %q", ctrl.Err())
	}

	// the next successful send clears it
	if err := ctrl.Send(context.Background(), "s1", "again"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if ctrl.Err() != "" {
		t.Fatalf("error not cleared: %q", ctrl.Err())
	}
}

func TestSendOpenFailure(t *testing.T) {
	transport := &fakeTransport{openErr: fmt.Errorf("connection refused")}
	ctrl := NewController(&fakeStore{}, transport, nil, 0)

	err := ctrl.Send(context.Background(), "s1", "hi")
	if err == nil {
		t.Fatalf("expected open error")
	}
	if ctrl.Streaming() {
		t.Fatalf("streaming flag must be reset on open failure")
	}
	if ctrl.Err() != "connection refused" {
		t.Fatalf("sticky error = %q", ctrl.Err())
	}
}

func TestAttachResumesRunningStream(t *testing.T) {
	store := &fakeStore{details: map[string]*types.SessionDetail{
		"s1": {ID: "s1", Messages: []types.Message{
			{ID: "m1", Role: types.RoleAssistant, Content: "Hi there"},
		}},
	}}
	transport := &fakeTransport{scripts: []streamScript{
		{events: []types.StreamEvent{textEvent("t1", " there"), idleEvent()}},
	}}
	ctrl := NewController(store, transport, nil, 0)

	snap := &types.ActiveStreamSnapshot{
		Status:   types.StreamStatusRunning,
		Sequence: 5,
		RunID:    "run-9",
		Parts:    []types.Part{{SourceID: "t1", Type: types.PartText, Content: "Hi"}},
	}
	if err := ctrl.Attach(context.Background(), "s1", snap); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	resumes := transport.resumeCalls()
	if len(resumes) != 1 || resumes[0] != (resumeCall{sessionID: "s1", fromSeq: 5, runID: "run-9"}) {
		t.Fatalf("resume calls = %+v", resumes)
	}
	messages := ctrl.Messages()
	if len(messages) != 1 || messages[0].Content != "Hi there" {
		t.Fatalf("transcript = %+v", messages)
	}
}

func TestAttachDuringActiveSendKeepsOneStream(t *testing.T) {
	store := &fakeStore{}
	transport := &fakeTransport{scripts: []streamScript{
		{hold: true}, // the send being displaced
		{hold: true}, // the attached successor
	}}
	ctrl := NewController(store, transport, nil, 0)

	sendDone := make(chan error, 1)
	go func() { sendDone <- ctrl.Send(context.Background(), "s1", "first") }()
	waitFor(t, "send stream to start", ctrl.Streaming)
	ctrl.QueueMessage("held back")

	snap := &types.ActiveStreamSnapshot{
		Status:   types.StreamStatusRunning,
		Sequence: 3,
		Parts:    []types.Part{{SourceID: "t1", Type: types.PartText, Content: "Hi"}},
	}
	attachDone := make(chan error, 1)
	go func() { attachDone <- ctrl.Attach(context.Background(), "s2", snap) }()

	// the displaced send finishes first; its cleanup must leave the
	// successor untouched
	if err := <-sendDone; err != nil {
		t.Fatalf("displaced Send: %v", err)
	}
	if !ctrl.Streaming() {
		t.Fatalf("attached stream no longer streaming after stale cleanup")
	}
	if state := ctrl.StreamingState(); state.TextContent != "Hi" {
		t.Fatalf("seeded state clobbered: %+v", state)
	}
	if calls := transport.chatCalls(); len(calls) != 1 {
		t.Fatalf("queue drained alongside a live stream: %+v", calls)
	}
	if queued := ctrl.QueuedMessages(); len(queued) != 1 {
		t.Fatalf("queue = %+v", queued)
	}

	// only the successor's own completion releases the queue
	ctrl.Stop()
	if err := <-attachDone; err != nil {
		t.Fatalf("Attach: %v", err)
	}
	waitFor(t, "queue drain", func() bool { return len(transport.chatCalls()) == 2 })
	calls := transport.chatCalls()
	if calls[1].sessionID != "s2" || calls[1].content != "held back" {
		t.Fatalf("drained call = %+v", calls[1])
	}
}

func TestAttachIgnoresFinishedStream(t *testing.T) {
	transport := &fakeTransport{}
	ctrl := NewController(&fakeStore{}, transport, nil, 0)

	if err := ctrl.Attach(context.Background(), "s1", nil); err != nil {
		t.Fatalf("nil snapshot: %v", err)
	}
	if err := ctrl.Attach(context.Background(), "s1", &types.ActiveStreamSnapshot{Status: "finished"}); err != nil {
		t.Fatalf("finished snapshot: %v", err)
	}
	if len(transport.resumeCalls()) != 0 {
		t.Fatalf("no resume may be opened")
	}
}

func TestAdoptSessionReplacesTranscript(t *testing.T) {
	ctrl := NewController(&fakeStore{}, &fakeTransport{}, nil, 0)
	ctrl.AdoptSession("s1", []types.Message{
		{ID: "m1", Role: types.RoleUser, Content: "old"},
	})
	if ctrl.SessionID() != "s1" || len(ctrl.Messages()) != 1 {
		t.Fatalf("adopt failed: %q %+v", ctrl.SessionID(), ctrl.Messages())
	}

	ctrl.ClearSession()
	if ctrl.SessionID() != "" || len(ctrl.Messages()) != 0 {
		t.Fatalf("clear failed: %q %+v", ctrl.SessionID(), ctrl.Messages())
	}
}

func TestSetModeDefaultsOnBlank(t *testing.T) {
	ctrl := NewController(&fakeStore{}, &fakeTransport{}, nil, 0)
	ctrl.SetMode("plan")
	if ctrl.Mode() != "plan" {
		t.Fatalf("mode = %q", ctrl.Mode())
	}
	ctrl.SetMode("  ")
	if ctrl.Mode() != DefaultMode {
		t.Fatalf("blank mode must reset to default, got %q", ctrl.Mode())
	}
}
