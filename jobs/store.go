// Package jobs queues harvest runs submitted over the API and keeps their
// state until it expires.
package jobs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/use-agent/placeharvest/models"
)

// Job is the state of one submitted run.
type Job struct {
	ID            string
	SearchURL     string
	MaxItems      int
	WebhookURL    string
	WebhookSecret string

	Status    string
	Completed int
	Total     int
	Failed    int
	Records   []models.PlaceRecord
	Error     *models.ErrorDetail

	CreatedAt  time.Time
	FinishedAt time.Time
}

// Finished reports whether the job reached a terminal status.
func (j Job) Finished() bool {
	return j.Status == models.RunCompleted || j.Status == models.RunFailed
}

// StatusResponse converts the job to its API representation.
func (j Job) StatusResponse(withRecords bool) models.RunStatusResponse {
	resp := models.RunStatusResponse{
		ID:        j.ID,
		Status:    j.Status,
		SearchURL: j.SearchURL,
		Completed: j.Completed,
		Total:     j.Total,
		Failed:    j.Failed,
		Error:     j.Error,
	}
	if withRecords {
		resp.Records = j.Records
	}
	return resp
}

func (j *Job) clone() Job {
	c := *j
	c.Records = append([]models.PlaceRecord(nil), j.Records...)
	return c
}

// Store holds jobs in memory. It is safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	ttl  time.Duration
	now  func() time.Time
}

// NewStore creates a Store whose finished jobs expire after ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{jobs: make(map[string]*Job), ttl: ttl, now: time.Now}
}

func (s *Store) put(j *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = j
}

// Get returns a copy of the job with id.
func (s *Store) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return j.clone(), true
}

// Snapshot returns copies of every stored job, oldest first.
func (s *Store) Snapshot() []Job {
	s.mu.RLock()
	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	return out
}

func (s *Store) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}

func (s *Store) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		fn(j)
	}
}

// Evict removes finished jobs older than the TTL and returns how many.
func (s *Store) Evict() int {
	cutoff := s.now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, j := range s.jobs {
		if j.Finished() && j.FinishedAt.Before(cutoff) {
			delete(s.jobs, id)
			n++
		}
	}
	return n
}

// CleanupLoop calls Evict every interval until ctx is done.
func (s *Store) CleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Evict()
		}
	}
}
