package engine

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/hao-ai-lab/research-agent-sub004/internal/logging"
	"github.com/hao-ai-lab/research-agent-sub004/internal/store"
	"github.com/hao-ai-lab/research-agent-sub004/internal/types"
)

// Directory layers list, selection, and the client-only archive/save
// overlays on top of the controller. The visible list is always the
// server's sessions minus the archived set; archiving never touches
// server state and stays reversible by the surviving server record.
type Directory struct {
	store   SessionStore
	ctrl    *Controller
	overlay store.OverlayStore
	log     logging.Logger

	mu        sync.Mutex
	sessions  []types.SessionSummary
	archived  map[string]struct{}
	saved     map[string]struct{}
	lastError string
	healthy   bool
}

func NewDirectory(sessionStore SessionStore, ctrl *Controller, overlay store.OverlayStore, log logging.Logger) *Directory {
	if log == nil {
		log = logging.Nop()
	}
	d := &Directory{
		store:    sessionStore,
		ctrl:     ctrl,
		overlay:  overlay,
		log:      log,
		archived: map[string]struct{}{},
		saved:    map[string]struct{}{},
	}
	ctrl.SetFinishHook(d.streamFinished)
	return d
}

func (d *Directory) streamFinished(sessionID string) {
	if err := d.Refresh(context.Background()); err != nil {
		d.log.Warn("session list refresh failed", logging.F("error", err))
	}
}

// Load gates everything on a health check, rehydrates the overlays, and
// fetches the session list. A failed health check leaves the directory
// empty with a sticky error; manual reload is the recovery path.
func (d *Directory) Load(ctx context.Context) error {
	ok, err := d.store.Health(ctx)
	if err != nil || !ok {
		if err == nil {
			err = errors.New("backend reported unhealthy")
		}
		d.mu.Lock()
		d.healthy = false
		d.lastError = "cannot reach backend: " + err.Error()
		d.mu.Unlock()
		return err
	}

	overlay, err := d.overlay.Load()
	if err != nil {
		d.log.Warn("overlay load failed", logging.F("error", err))
		overlay = store.Overlay{}
	}

	d.mu.Lock()
	d.healthy = true
	d.lastError = ""
	d.archived = idSet(overlay.Archived)
	d.saved = idSet(overlay.Saved)
	d.mu.Unlock()

	return d.Refresh(ctx)
}

// Refresh re-fetches the session list from the server.
func (d *Directory) Refresh(ctx context.Context) error {
	sessions, err := d.store.ListSessions(ctx)
	if err != nil {
		d.mu.Lock()
		d.lastError = err.Error()
		d.mu.Unlock()
		return err
	}
	d.mu.Lock()
	d.sessions = sessions
	d.lastError = ""
	d.mu.Unlock()
	return nil
}

// Sessions returns the visible list: server sessions minus archived ids.
func (d *Directory) Sessions() []types.SessionSummary {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]types.SessionSummary, 0, len(d.sessions))
	for _, session := range d.sessions {
		if _, hidden := d.archived[session.ID]; hidden {
			continue
		}
		out = append(out, session)
	}
	return out
}

func (d *Directory) Healthy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.healthy
}

func (d *Directory) Err() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastError
}

// Create makes a new server session and adopts it as current.
func (d *Directory) Create(ctx context.Context) (*types.SessionSummary, error) {
	session, err := d.store.CreateSession(ctx)
	if err != nil {
		d.mu.Lock()
		d.lastError = err.Error()
		d.mu.Unlock()
		return nil, err
	}
	d.ctrl.AdoptSession(session.ID, nil)
	if err := d.Refresh(ctx); err != nil {
		d.log.Warn("refresh after create failed", logging.F("error", err))
	}
	return session, nil
}

// Select fetches a session's transcript and adopts it as current. The
// returned snapshot, when its status is running, should be handed to
// Controller.Attach to resume the live stream.
func (d *Directory) Select(ctx context.Context, id string) (*types.ActiveStreamSnapshot, error) {
	detail, err := d.store.GetSession(ctx, id)
	if err != nil {
		d.mu.Lock()
		d.lastError = err.Error()
		d.mu.Unlock()
		return nil, err
	}
	d.ctrl.AdoptSession(id, detail.Messages)
	return detail.ActiveStream, nil
}

// Delete removes the session server-side and scrubs it locally.
func (d *Directory) Delete(ctx context.Context, id string) error {
	if d.ctrl.SessionID() == id {
		d.ctrl.Stop()
		d.ctrl.ClearSession()
	}
	if err := d.store.DeleteSession(ctx, id); err != nil {
		d.mu.Lock()
		d.lastError = err.Error()
		d.mu.Unlock()
		return err
	}
	d.mu.Lock()
	delete(d.archived, id)
	delete(d.saved, id)
	d.persistOverlayLocked()
	d.mu.Unlock()
	return d.Refresh(ctx)
}

// Archive hides a session locally. It is idempotent and drops the saved
// flag; when the session is current it also aborts its stream and clears
// the transcript. The server record is untouched.
func (d *Directory) Archive(id string) {
	d.mu.Lock()
	d.archived[id] = struct{}{}
	delete(d.saved, id)
	d.persistOverlayLocked()
	d.mu.Unlock()

	if d.ctrl.SessionID() == id {
		d.ctrl.Stop()
		d.ctrl.ClearSession()
	}
}

func (d *Directory) Unarchive(id string) {
	d.mu.Lock()
	delete(d.archived, id)
	d.persistOverlayLocked()
	d.mu.Unlock()
}

func (d *Directory) ToggleSaved(id string) {
	d.mu.Lock()
	if _, ok := d.saved[id]; ok {
		delete(d.saved, id)
	} else if _, hidden := d.archived[id]; !hidden {
		d.saved[id] = struct{}{}
	}
	d.persistOverlayLocked()
	d.mu.Unlock()
}

func (d *Directory) IsArchived(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.archived[id]
	return ok
}

func (d *Directory) IsSaved(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.saved[id]
	return ok
}

func (d *Directory) SavedSessionIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return sortedIDs(d.saved)
}

func (d *Directory) ArchivedSessionIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return sortedIDs(d.archived)
}

func (d *Directory) persistOverlayLocked() {
	err := d.overlay.Save(store.Overlay{
		Archived: sortedIDs(d.archived),
		Saved:    sortedIDs(d.saved),
	})
	if err != nil {
		d.log.Warn("overlay save failed", logging.F("error", err))
	}
}

func idSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func sortedIDs(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
