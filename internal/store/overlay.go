// Package store persists the client-only session overlays: archived ids
// hidden from the visible list and saved ids pinned by the user. Both
// survive restarts without a server round trip and never touch server
// state.
package store

import (
	"fmt"
	"strings"
)

type Overlay struct {
	Archived []string `json:"archived"`
	Saved    []string `json:"saved"`
}

// OverlayStore loads and saves the overlay sets. Load treats missing or
// corrupt data as empty; losing an overlay must never break startup.
type OverlayStore interface {
	Load() (Overlay, error)
	Save(Overlay) error
	Close() error
}

const (
	BackendFile  = "file"
	BackendBbolt = "bbolt"
)

func Open(backend, path string) (OverlayStore, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendBbolt:
		return NewBboltOverlayStore(path)
	case BackendFile:
		return NewFileOverlayStore(path), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

func sanitizeIDs(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	seen := map[string]struct{}{}
	for _, id := range raw {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
