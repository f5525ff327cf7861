package scanner

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is a session's lifecycle state.
type SessionStatus string

const (
	StatusRunning   SessionStatus = "running"
	StatusCompleted SessionStatus = "completed"
	StatusCancelled SessionStatus = "cancelled"
	StatusFailed    SessionStatus = "failed"
)

// Progress is a point-in-time snapshot of a session, safe to hand to HTTP
// handlers while the session is still running.
type Progress struct {
	SessionID       string          `json:"sessionId"`
	Status          SessionStatus   `json:"status"`
	StartedAt       time.Time       `json:"startedAt"`
	FinishedAt      time.Time       `json:"finishedAt,omitempty"`
	FoldersTotal    int             `json:"foldersTotal"`
	FoldersDone     int             `json:"foldersDone"`
	FoldersFailed   int             `json:"foldersFailed,omitempty"`
	FilesDiscovered int64           `json:"filesDiscovered"`
	FilesProcessed  int64           `json:"filesProcessed"`
	Result          ReconcileResult `json:"result"`
	Warnings        []Warning       `json:"warnings,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// session tracks one scan run. Counters the walker and pool touch are
// atomics; everything else is guarded by mu and only written by the session
// goroutine.
type session struct {
	id        string
	startedAt time.Time

	discovered atomic.Int64
	processed  atomic.Int64

	mu            sync.Mutex
	status        SessionStatus
	finishedAt    time.Time
	foldersTotal  int
	foldersDone   int
	foldersFailed int
	result        ReconcileResult
	warnings      []Warning
	err           error
}

func newSession(foldersTotal int) *session {
	return &session{
		id:           uuid.NewString(),
		startedAt:    time.Now(),
		status:       StatusRunning,
		foldersTotal: foldersTotal,
	}
}

// warn records a non-fatal problem. Safe for concurrent use; the walker and
// the reconciler both report through it.
func (s *session) warn(w Warning) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, w)
}

func (s *session) folderDone(res ReconcileResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.foldersDone++
	s.result.add(res)
}

// folderFailed counts a folder whose reconcile batch rolled back. The folder
// is done for this session; nothing of it was committed.
func (s *session) folderFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.foldersDone++
	s.foldersFailed++
}

func (s *session) finish(status SessionStatus, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.finishedAt = time.Now()
	s.err = err
}

func (s *session) progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := Progress{
		SessionID:       s.id,
		Status:          s.status,
		StartedAt:       s.startedAt,
		FinishedAt:      s.finishedAt,
		FoldersTotal:    s.foldersTotal,
		FoldersDone:     s.foldersDone,
		FoldersFailed:   s.foldersFailed,
		FilesDiscovered: s.discovered.Load(),
		FilesProcessed:  s.processed.Load(),
		Result:          s.result,
	}
	if len(s.warnings) > 0 {
		p.Warnings = append([]Warning(nil), s.warnings...)
	}
	if s.err != nil {
		p.Error = s.err.Error()
	}
	return p
}
