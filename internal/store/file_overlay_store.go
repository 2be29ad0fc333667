package store

import "sync"

const overlaySchemaVersion = 1

type overlayFile struct {
	Version  int      `json:"version"`
	Archived []string `json:"archived"`
	Saved    []string `json:"saved"`
}

type FileOverlayStore struct {
	path string
	mu   sync.Mutex
}

func NewFileOverlayStore(path string) *FileOverlayStore {
	return &FileOverlayStore{path: path}
}

func (s *FileOverlayStore) Load() (Overlay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var file overlayFile
	if err := readJSON(s.path, &file); err != nil {
		// missing or corrupt overlay data degrades to empty
		return Overlay{}, nil
	}
	return Overlay{
		Archived: sanitizeIDs(file.Archived),
		Saved:    sanitizeIDs(file.Saved),
	}, nil
}

func (s *FileOverlayStore) Save(overlay Overlay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return writeJSONAtomic(s.path, overlayFile{
		Version:  overlaySchemaVersion,
		Archived: sanitizeIDs(overlay.Archived),
		Saved:    sanitizeIDs(overlay.Saved),
	})
}

func (s *FileOverlayStore) Close() error {
	return nil
}
