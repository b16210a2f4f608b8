// Package resume implements the durable key-value Resume Store: per spec
// §4.8, a table keyed by (task_id, path) tracking in-flight and completed
// transfers across restarts. Ported from the teacher's SQLiteStore
// (internal/sync/state.go): embedded modernc.org/sqlite driver, WAL mode,
// goose-managed migrations embedded via go:embed.
package resume

// Status is the lifecycle state of one ResumeRecord (spec §3).
type Status string

// Resume record statuses.
const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Record is one (task_id, path) resume entry.
type Record struct {
	TaskID       string
	Path         string
	Status       Status
	LastModified int64 // Unix seconds, source side
	Size         int64
	Checksum     string // optional
	UpdatedAt    int64  // Unix nanoseconds, row bookkeeping
}

// Matches reports whether the record's (last_modified, size) fingerprint
// matches the source's current metadata — the resume-or-restart test from
// spec §4.7.
func (r Record) Matches(lastModified, size int64) bool {
	return r.LastModified == lastModified && r.Size == size
}
