package store

import "time"

// SchemaVersion is stamped into the metadata record on every write.
const SchemaVersion = 1

// Kind separates school work from everything else.
type Kind string

const (
	KindHomework Kind = "homework"
	KindLife     Kind = "life"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindHomework || k == KindLife
}

// Priority is optional; the empty value means neutral.
type Priority string

const (
	PriorityNone   Priority = ""
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority (including none).
func (p Priority) Valid() bool {
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a single planner item. Dates are local calendar dates (YYYY-MM-DD)
// and times are local clock times (HH:mm), both interpreted in TimeZone.
type Task struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Kind             Kind       `json:"kind"`
	Subject          *string    `json:"subject"`
	Notes            *string    `json:"notes"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	DueDate          *string    `json:"dueDate"`
	DueTime          *string    `json:"dueTime"`
	ScheduledDate    *string    `json:"scheduledDate"`
	ScheduledTime    *string    `json:"scheduledTime"`
	TimeZone         string     `json:"timeZone"`
	EstimatedMinutes *int       `json:"estimatedMinutes"`
	Priority         Priority   `json:"priority,omitempty"`
	PomodoroCount    int        `json:"pomodoroCount"`
	Completed        bool       `json:"completed"`
	CompletedAt      *time.Time `json:"completedAt"`
	Order            int        `json:"order"`
}

// Clone returns a deep copy so snapshots never alias live pointers.
func (t Task) Clone() Task {
	c := t
	c.Subject = cloneString(t.Subject)
	c.Notes = cloneString(t.Notes)
	c.DueDate = cloneString(t.DueDate)
	c.DueTime = cloneString(t.DueTime)
	c.ScheduledDate = cloneString(t.ScheduledDate)
	c.ScheduledTime = cloneString(t.ScheduledTime)
	if t.EstimatedMinutes != nil {
		v := *t.EstimatedMinutes
		c.EstimatedMinutes = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Metadata is the singleton record rewritten on every collection write.
type Metadata struct {
	SchemaVersion int       `json:"schemaVersion"`
	LastModified  time.Time `json:"lastModified"`
}

// Snapshot is the full backup document.
type Snapshot struct {
	Tasks    []Task   `json:"tasks"`
	Metadata Metadata `json:"metadata"`
}
