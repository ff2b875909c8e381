// Package audit maintains the local audit artifact: an ordered JSON
// array with one record per successfully materialized occurrence.
// Records are appended, never mutated or deleted. The artifact is not
// part of the store transaction; a crash between store commit and audit
// write leaves a task with no audit trace.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Record is one audit entry.
type Record struct {
	ID           string    `json:"id"`
	TaskID       int64     `json:"taskId"`
	TemplateID   string    `json:"templateId"`
	Title        string    `json:"title"`
	ClientName   string    `json:"clientName,omitempty"`
	DueDate      string    `json:"dueDate"`
	CreationDate string    `json:"creationDate"`
	Payload      any       `json:"payload"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewID returns a globally unique record id.
func NewID() string { return uuid.NewString() }

// Recorder reads and appends to the audit artifact at a fixed path.
// Concurrent appends within one run must be serialized by the caller;
// the batch runner processes templates sequentially so this holds.
type Recorder struct {
	path string
}

// NewRecorder creates a recorder for the artifact at path. The artifact
// is created empty on first append if absent.
func NewRecorder(path string) *Recorder {
	return &Recorder{path: path}
}

// Path returns the artifact path.
func (r *Recorder) Path() string { return r.path }

// Read loads the existing ordered collection. A missing artifact reads
// as empty.
func (r *Recorder) Read() ([]Record, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read audit artifact: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse audit artifact %s: %w", r.path, err)
	}
	return records, nil
}

// Append performs the read-modify-write: load the collection, append the
// new entries in order, write the whole collection back. The write is a
// temp-file-then-rename so a crash mid-write cannot truncate the
// artifact.
func (r *Recorder) Append(entries ...Record) error {
	if len(entries) == 0 {
		return nil
	}

	records, err := r.Read()
	if err != nil {
		return err
	}
	records = append(records, entries...)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode audit artifact: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".audit-*.json")
	if err != nil {
		return fmt.Errorf("write audit artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write audit artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write audit artifact: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace audit artifact: %w", err)
	}
	return nil
}
