package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// JobStatus is the state of a background import.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusGrafting   JobStatus = "grafting"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Job tracks one uploaded file from queue to graft.
type Job struct {
	mu sync.Mutex

	ID       string
	Status   JobStatus
	Filename string

	// Set once the fragment is in the outline.
	Path  string
	Nodes int

	ContentHash string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	data   []byte
	errors []string
}

// NewJob returns a queued job for an uploaded file.
func NewJob(filename string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:        generateULID(),
		Status:    StatusQueued,
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
		data:      data,
	}
}

// JobStore keeps jobs in memory until they have been settled for ttl.
type JobStore struct {
	ttl time.Duration

	mu   sync.RWMutex
	byID map[string]*Job
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{ttl: ttl, byID: map[string]*Job{}}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	s.byID[job.ID] = job
	s.mu.Unlock()
}

// Get returns nil for unknown or evicted IDs.
func (s *JobStore) Get(id string) *Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id]
}

func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Cleanup evicts finished jobs last touched more than ttl before now and
// reports how many went. Queued and running jobs are never evicted.
func (s *JobStore) Cleanup(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, job := range s.byID {
		status, touched := job.state()
		if status.Done() && now.Sub(touched) > s.ttl {
			delete(s.byID, id)
			evicted++
		}
	}
	return evicted
}

// Done reports whether a job in this status will not change again.
func (st JobStatus) Done() bool {
	switch st {
	case StatusCompleted, StatusFailed, StatusDupSkipped:
		return true
	}
	return false
}

func (j *Job) state() (JobStatus, time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status, j.UpdatedAt
}

func (j *Job) SetStatus(status JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.UpdatedAt = time.Now()
}

func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// Complete records where the fragment landed and drops the upload.
func (j *Job) Complete(path string, nodes int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Path = path
	j.Nodes = nodes
	j.Status = StatusCompleted
	j.data = nil
	j.UpdatedAt = time.Now()
}

func (j *Job) setHash(h string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = h
}

// Data returns the uploaded bytes.
func (j *Job) Data() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.data
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Filename    string    `json:"filename"`
	Path        string    `json:"path,omitempty"`
	Nodes       int       `json:"nodes"`
	ContentHash string    `json:"content_hash,omitempty"`
	Errors      []string  `json:"errors"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.errors...)
	return JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Filename:    j.Filename,
		Path:        j.Path,
		Nodes:       j.Nodes,
		ContentHash: j.ContentHash,
		Errors:      errs,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex is the hex SHA-256 of data.
func ContentHashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
