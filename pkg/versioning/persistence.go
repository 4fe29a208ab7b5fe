package versioning

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flowkit-dev/flowkit/pkg/models"
)

// historyFile is the on-disk shape of a saved version store.
type historyFile struct {
	Workflows     map[string][]*models.WorkflowVersion `json:"workflows"`
	VersionCount  int                                  `json:"version_count"`
	WorkflowCount int                                  `json:"workflow_count"`
}

// SaveToDisk writes the full in-memory version map to path. The write is
// atomic: a temporary file in the target directory is renamed over the
// target, so a crash mid-write never corrupts a previously valid file.
// Parent directories are created as needed. No per-workflow lock is held
// during the write.
func (s *Store) SaveToDisk(path string) error {
	snapshot := s.snapshot()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing version history: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating history directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary history file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("writing history file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("closing history file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("replacing history file: %w", err)
	}

	s.logger.Debug("version history saved",
		"path", path, "workflows", snapshot.WorkflowCount, "versions", snapshot.VersionCount)

	return nil
}

func (s *Store) snapshot() historyFile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workflows := make(map[string][]*models.WorkflowVersion, len(s.versions))
	versionCount := 0

	for id, history := range s.versions {
		copied := make([]*models.WorkflowVersion, len(history))
		copy(copied, history)
		workflows[id] = copied
		versionCount += len(history)
	}

	return historyFile{
		Workflows:     workflows,
		VersionCount:  versionCount,
		WorkflowCount: len(workflows),
	}
}

// LoadFromDisk reads a history file back into the store. The three failure
// modes carry distinct error kinds: the file missing (ErrHistoryNotFound),
// malformed JSON (ErrHistoryMalformed), and well-formed JSON without the
// required workflows key (ErrHistorySchema).
//
// With merge=true, loaded histories are appended to any in-memory histories
// without discarding entries absent from the file; merge=false replaces the
// in-memory state wholesale.
func (s *Store) LoadFromDisk(path string, merge bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &PersistenceError{Op: "load", Path: path, Kind: ErrHistoryNotFound, Err: err}
		}

		return fmt.Errorf("reading history file %s: %w", path, err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return &PersistenceError{Op: "load", Path: path, Kind: ErrHistoryMalformed, Err: err}
	}

	rawWorkflows, ok := top["workflows"]
	if !ok {
		return &PersistenceError{Op: "load", Path: path, Kind: ErrHistorySchema}
	}

	var workflows map[string][]*models.WorkflowVersion
	if err := json.Unmarshal(rawWorkflows, &workflows); err != nil {
		return &PersistenceError{Op: "load", Path: path, Kind: ErrHistoryMalformed, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !merge {
		s.versions = make(map[string][]*models.WorkflowVersion, len(workflows))
	}

	for id, history := range workflows {
		s.versions[id] = append(s.versions[id], history...)
	}

	return nil
}
