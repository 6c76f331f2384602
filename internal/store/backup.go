package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrMalformedBackup wraps every reason a backup document is rejected.
var ErrMalformedBackup = errors.New("malformed backup")

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil && len(s) == len(dateLayout)
}

// ValidClock reports whether s is an HH:mm clock time.
func ValidClock(s string) bool {
	_, err := time.Parse(clockLayout, s)
	return err == nil && len(s) == len(clockLayout)
}

// EncodeBackup writes snap as an indented JSON document.
func EncodeBackup(w io.Writer, snap Snapshot) error {
	if snap.Tasks == nil {
		snap.Tasks = []Task{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// backupDoc mirrors Snapshot with pointers so missing keys can be told
// apart from empty ones.
type backupDoc struct {
	Tasks    *[]Task     `json:"tasks"`
	Metadata *backupMeta `json:"metadata"`
}

type backupMeta struct {
	SchemaVersion *int       `json:"schemaVersion"`
	LastModified  *time.Time `json:"lastModified"`
}

// DecodeBackup parses and validates a backup document.
func DecodeBackup(r io.Reader) (Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read backup: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var doc backupDoc
	if err := dec.Decode(&doc); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformedBackup, err)
	}
	if dec.More() {
		return Snapshot{}, fmt.Errorf("%w: trailing data after document", ErrMalformedBackup)
	}

	if doc.Tasks == nil {
		return Snapshot{}, fmt.Errorf("%w: missing tasks", ErrMalformedBackup)
	}
	if doc.Metadata == nil {
		return Snapshot{}, fmt.Errorf("%w: missing metadata", ErrMalformedBackup)
	}
	if doc.Metadata.SchemaVersion == nil {
		return Snapshot{}, fmt.Errorf("%w: missing metadata.schemaVersion", ErrMalformedBackup)
	}
	if doc.Metadata.LastModified == nil {
		return Snapshot{}, fmt.Errorf("%w: missing metadata.lastModified", ErrMalformedBackup)
	}

	snap := Snapshot{
		Tasks: *doc.Tasks,
		Metadata: Metadata{
			SchemaVersion: *doc.Metadata.SchemaVersion,
			LastModified:  *doc.Metadata.LastModified,
		},
	}
	if err := Validate(snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Validate checks a snapshot before it may replace stored state.
func Validate(snap Snapshot) error {
	if snap.Tasks == nil {
		return fmt.Errorf("%w: missing tasks", ErrMalformedBackup)
	}
	if v := snap.Metadata.SchemaVersion; v < 1 || v > SchemaVersion {
		return fmt.Errorf("%w: unsupported schemaVersion %d", ErrMalformedBackup, v)
	}
	if snap.Metadata.LastModified.IsZero() {
		return fmt.Errorf("%w: metadata.lastModified is zero", ErrMalformedBackup)
	}

	seen := make(map[string]bool, len(snap.Tasks))
	for i, t := range snap.Tasks {
		if err := validateTask(t); err != nil {
			return fmt.Errorf("%w: tasks[%d]: %v", ErrMalformedBackup, i, err)
		}
		if seen[t.ID] {
			return fmt.Errorf("%w: tasks[%d]: duplicate id %q", ErrMalformedBackup, i, t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

func validateTask(t Task) error {
	switch {
	case t.ID == "":
		return errors.New("empty id")
	case t.Title == "":
		return errors.New("empty title")
	case !t.Kind.Valid():
		return fmt.Errorf("invalid kind %q", t.Kind)
	case !t.Priority.Valid():
		return fmt.Errorf("invalid priority %q", t.Priority)
	case t.TimeZone == "":
		return errors.New("empty timeZone")
	case t.PomodoroCount < 0:
		return fmt.Errorf("negative pomodoroCount %d", t.PomodoroCount)
	case t.EstimatedMinutes != nil && *t.EstimatedMinutes <= 0:
		return fmt.Errorf("estimatedMinutes must be positive, got %d", *t.EstimatedMinutes)
	case t.CreatedAt.IsZero() || t.UpdatedAt.IsZero():
		return errors.New("missing createdAt or updatedAt")
	case t.Completed != (t.CompletedAt != nil):
		return errors.New("completed and completedAt disagree")
	}
	if _, err := time.LoadLocation(t.TimeZone); err != nil {
		return fmt.Errorf("unknown timeZone %q", t.TimeZone)
	}
	for name, d := range map[string]*string{"dueDate": t.DueDate, "scheduledDate": t.ScheduledDate} {
		if d != nil && !ValidDate(*d) {
			return fmt.Errorf("%s %q is not YYYY-MM-DD", name, *d)
		}
	}
	for name, c := range map[string]*string{"dueTime": t.DueTime, "scheduledTime": t.ScheduledTime} {
		if c != nil && !ValidClock(*c) {
			return fmt.Errorf("%s %q is not HH:mm", name, *c)
		}
	}
	return nil
}
