// File: internal/capture/store.go
package capture

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/json-iterator/go"

	"github.com/mzahir/trailcap/api/schemas"
)

// recordFileName is the fixed name of the per-task record file.
const recordFileName = "workflow.json"

// Store persists workflow records under <root>/<taskID>/workflow.json.
// Last write wins; there is no locking across processes.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// RecordPath returns the record file path for a task.
func (s *Store) RecordPath(taskID string) string {
	return filepath.Join(s.root, taskID, recordFileName)
}

// SaveRecord serializes the record to its task directory, creating the
// directory as needed.
func (s *Store) SaveRecord(record *schemas.WorkflowRecord) error {
	path := s.RecordPath(record.TaskID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create task directory: %w", err)
	}

	blob, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow record: %w", err)
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return fmt.Errorf("failed to write workflow record: %w", err)
	}
	return nil
}

// LoadRecord reads a previously saved record.
func (s *Store) LoadRecord(taskID string) (*schemas.WorkflowRecord, error) {
	blob, err := os.ReadFile(s.RecordPath(taskID))
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow record: %w", err)
	}
	var record schemas.WorkflowRecord
	if err := json.Unmarshal(blob, &record); err != nil {
		return nil, fmt.Errorf("failed to decode workflow record: %w", err)
	}
	return &record, nil
}
