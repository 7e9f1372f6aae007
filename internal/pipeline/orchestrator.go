// Package pipeline imports uploaded files in the background. Workers parse
// off the caller's lock and hand the finished fragment to a Grafter.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/outline/internal/config"
	"github.com/dgallion1/outline/internal/doctree"
)

var ErrQueueFull = errors.New("import queue is full")

// Grafter places a parsed fragment into the outline and returns the tree
// path of its new top-level node.
type Grafter interface {
	Graft(frag *doctree.DocTree, source string) (string, error)
}

// GrafterFunc adapts a function to Grafter.
type GrafterFunc func(frag *doctree.DocTree, source string) (string, error)

func (f GrafterFunc) Graft(frag *doctree.DocTree, source string) (string, error) {
	return f(frag, source)
}

// Orchestrator owns the job queue and its workers.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	grafter Grafter
	log     *slog.Logger
	cfg     config.Config

	// seen maps content hashes already grafted to their job.
	seenMu sync.Mutex
	seen   map[string]string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewOrchestrator(cfg config.Config, g Grafter, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:    NewJobStore(cfg.JobTTL),
		queue:   make(chan *Job, cfg.MaxQueueSize),
		grafter: g,
		log:     log,
		cfg:     cfg,
		seen:    make(map[string]string),
	}
}

// sweepEvery is how often settled jobs past their TTL are evicted.
const sweepEvery = 5 * time.Minute

// Start runs cfg.WorkerCount workers plus the job sweeper until ctx ends or
// Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, o.cancel = context.WithCancel(ctx)

	o.wg.Add(o.cfg.WorkerCount + 1)
	for i := range o.cfg.WorkerCount {
		w := NewWorker(o, o.log.With("worker", i))
		go o.run(ctx, w)
	}
	go o.sweep(ctx)
}

func (o *Orchestrator) run(ctx context.Context, w *Worker) {
	defer o.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-o.queue:
			w.Process(ctx, job)
		}
	}
}

func (o *Orchestrator) sweep(ctx context.Context) {
	defer o.wg.Done()
	tick := time.NewTicker(sweepEvery)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tick.C:
			if n := o.jobs.Cleanup(now); n > 0 {
				o.log.Debug("evicted import jobs", "count", n)
			}
		}
	}
}

// Stop cancels the workers and waits for them. Jobs still queued stay
// queued.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a job. A full queue fails the job at once.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		o.log.Debug("import queued", "job_id", job.ID, "depth", len(o.queue))
		return nil
	default:
		job.AddError(ErrQueueFull.Error())
		job.SetStatus(StatusFailed)
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// GetJob looks a job up by ID; nil once evicted.
func (o *Orchestrator) GetJob(id string) *Job { return o.jobs.Get(id) }

// QueueDepth is the number of jobs waiting for a worker.
func (o *Orchestrator) QueueDepth() int { return len(o.queue) }

// claim records hash for jobID. It returns the earlier job's ID when the
// same content was already claimed.
func (o *Orchestrator) claim(hash, jobID string) (string, bool) {
	o.seenMu.Lock()
	defer o.seenMu.Unlock()
	if prev, ok := o.seen[hash]; ok {
		return prev, false
	}
	o.seen[hash] = jobID
	return "", true
}

func (o *Orchestrator) release(hash string) {
	o.seenMu.Lock()
	defer o.seenMu.Unlock()
	delete(o.seen, hash)
}
