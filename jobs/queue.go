package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/use-agent/placeharvest/harvest"
	"github.com/use-agent/placeharvest/models"
)

// RunFunc executes one run. harvest.Runner.Run satisfies it.
type RunFunc func(ctx context.Context, searchURL string, maxItems int, progress harvest.ProgressFunc) ([]models.PlaceRecord, error)

// Queue executes submitted runs one at a time on a single worker.
type Queue struct {
	store   *Store
	run     RunFunc
	pending chan string
	running atomic.Bool

	// OnDone is called with the final job state after every run.
	OnDone func(Job)
}

// NewQueue creates a queue holding at most capacity pending runs.
func NewQueue(store *Store, run RunFunc, capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{store: store, run: run, pending: make(chan string, capacity)}
}

// Submit stores a new queued job for req and schedules it.
func (q *Queue) Submit(req models.RunRequest) (Job, error) {
	j := &Job{
		ID:            "run-" + uuid.NewString(),
		SearchURL:     req.SearchURL,
		MaxItems:      req.MaxItems,
		WebhookURL:    req.WebhookURL,
		WebhookSecret: req.WebhookSecret,
		Status:        models.RunQueued,
		CreatedAt:     q.store.now(),
	}
	q.store.put(j)

	select {
	case q.pending <- j.ID:
		slog.Info("run queued", "job_id", j.ID, "url", j.SearchURL)
		snap, _ := q.store.Get(j.ID)
		return snap, nil
	default:
		q.store.remove(j.ID)
		return Job{}, models.NewHarvestError(models.ErrCodeQueueFull, "run queue is full, try again later", nil)
	}
}

// Stats reports queue occupancy.
func (q *Queue) Stats() models.QueueStats {
	return models.QueueStats{
		Capacity: cap(q.pending),
		Pending:  len(q.pending),
		Running:  q.running.Load(),
	}
}

// Start runs queued jobs until ctx is done. Cancelling ctx interrupts the
// current run, which keeps the records gathered so far. Jobs still pending
// at that point are marked failed.
func (q *Queue) Start(ctx context.Context) {
	defer q.abandonPending(ctx)
	for {
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case id := <-q.pending:
			q.execute(ctx, id)
		}
	}
}

// abandonPending fails every job left in the queue with a TIMEOUT error.
func (q *Queue) abandonPending(ctx context.Context) {
	detail := models.NewHarvestError(models.ErrCodeTimeout, "run cancelled before it started", ctx.Err()).ToDetail()
	for {
		select {
		case id := <-q.pending:
			q.store.update(id, func(j *Job) {
				j.Status = models.RunFailed
				j.Error = detail
				j.FinishedAt = q.store.now()
			})
			final, ok := q.store.Get(id)
			if !ok {
				continue
			}
			slog.Warn("run abandoned at shutdown", "job_id", id)
			if q.OnDone != nil {
				q.OnDone(final)
			}
		default:
			return
		}
	}
}

func (q *Queue) execute(ctx context.Context, id string) {
	j, ok := q.store.Get(id)
	if !ok {
		return
	}

	q.running.Store(true)
	defer q.running.Store(false)

	q.store.update(id, func(j *Job) { j.Status = models.RunProcessing })
	slog.Info("run started", "job_id", id, "url", j.SearchURL, "max_items", j.MaxItems)

	progress := func(index, total int, rec models.PlaceRecord) {
		q.store.update(id, func(j *Job) {
			j.Completed = index
			j.Total = total
			j.Records = append(j.Records, rec)
			if rec.Failed() {
				j.Failed++
			}
		})
	}

	records, err := q.run(ctx, j.SearchURL, j.MaxItems, progress)

	q.store.update(id, func(j *Job) {
		j.Records = records
		j.Completed = len(records)
		if j.Total < len(records) {
			j.Total = len(records)
		}
		j.Failed = 0
		for _, r := range records {
			if r.Failed() {
				j.Failed++
			}
		}
		j.FinishedAt = q.store.now()
		if err != nil {
			j.Status = models.RunFailed
			j.Error = toDetail(err)
		} else {
			j.Status = models.RunCompleted
		}
	})

	final, _ := q.store.Get(id)
	if err != nil {
		slog.Warn("run failed", "job_id", id, "records", len(records), "error", err)
	} else {
		slog.Info("run completed", "job_id", id, "records", len(records), "failed", final.Failed)
	}
	if q.OnDone != nil {
		q.OnDone(final)
	}
}

func toDetail(err error) *models.ErrorDetail {
	var he *models.HarvestError
	if errors.As(err, &he) {
		return he.ToDetail()
	}
	return &models.ErrorDetail{Code: models.ErrCodeInternal, Message: err.Error()}
}
