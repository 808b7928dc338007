// Package domain holds the entity snapshots and sentinel errors shared by
// every layer. Entities are read-only for the duration of one request; the
// search core never mutates them.
package domain

import "time"

// Task priorities as stored. Comparisons are case-insensitive.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Task is a snapshot of one task row.
type Task struct {
	ID          int64
	Title       string
	Description string
	Status      string
	Priority    string
	ProjectID   int64
	AssigneeID  int64 // 0 = unassigned
	CreatorID   int64
	Tags        []string
	CreatedAt   time.Time // zero = unknown
	DueDate     time.Time // zero = no due date
}

// Project is a snapshot of one project row.
type Project struct {
	ID          int64
	Name        string
	Description string
	Status      string
	OwnerID     int64
	CreatedAt   time.Time
}

// Comment is a snapshot of one comment row.
type Comment struct {
	ID        int64
	TaskID    int64
	UserID    int64
	Content   string
	CreatedAt time.Time
}

// File is a snapshot of one file attachment. A file belongs to a task, a
// project, or both; the zero ID marks the absent parent.
type File struct {
	ID         int64
	Filename   string
	FileType   string
	FileSize   int64
	TaskID     int64
	ProjectID  int64
	UploaderID int64
	UploadedAt time.Time
}

// Notification is a persisted notification. Realtime delivery is best
// effort; this row is the system of record.
type Notification struct {
	ID        int64
	UserID    int64
	Content   string
	Type      string
	ObjectID  int64
	Read      bool
	CreatedAt time.Time
}

// User is a snapshot of one user account.
type User struct {
	ID      int64
	Name    string
	Email   string
	IsAdmin bool
	Active  bool
}
