package plugin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ayusman/mudra/internal/log"
)

var (
	// ErrQueueFull is returned by Submit when every queue slot is taken.
	ErrQueueFull = errors.New("plugin dispatch queue full")
	// ErrDispatcherClosed is returned by Submit after Close.
	ErrDispatcherClosed = errors.New("plugin dispatcher closed")
	// ErrUnsupportedAction is reported when a plugin does not list the action.
	ErrUnsupportedAction = errors.New("action not supported by plugin")
)

// Job is one queued plugin run.
type Job struct {
	Plugin  string
	Request *Request
}

// ResultFunc observes the outcome of a job. resp is nil when err is set.
type ResultFunc func(job Job, resp *Response, err error)

// Dispatcher runs plugin jobs on a fixed pool of workers so gesture ticks
// never wait on a plugin process.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	onResult ResultFunc

	jobs   chan Job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a Dispatcher with a queue of the given size. A
// non-positive size holds a single job. onResult may be nil.
func NewDispatcher(manager *Manager, executor *Executor, queueSize int, onResult ResultFunc) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		manager:  manager,
		executor: executor,
		onResult: onResult,
		jobs:     make(chan Job, queueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches workers. At least one worker is started.
func (d *Dispatcher) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// Submit queues a job without blocking.
func (d *Dispatcher) Submit(job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting jobs, lets queued jobs drain, and waits for the
// workers. ctx bounds the wait; when it expires running plugins are killed.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for job := range d.jobs {
		resp, err := d.run(job)
		switch {
		case err != nil:
			log.Warn("plugin action failed", "plugin", job.Plugin, "action", job.Request.Action, "error", err)
		case !resp.Success:
			log.Warn("plugin reported failure", "plugin", job.Plugin, "action", job.Request.Action, "error", resp.Error)
		default:
			log.Debug("plugin action done", "plugin", job.Plugin, "action", job.Request.Action)
		}
		if d.onResult != nil {
			d.onResult(job, resp, err)
		}
	}
}

func (d *Dispatcher) run(job Job) (*Response, error) {
	p, err := d.manager.Get(job.Plugin)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, job.Plugin)
	}
	if !p.Supports(job.Request.Action) {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedAction, job.Plugin, job.Request.Action)
	}
	return d.executor.Execute(d.ctx, p, job.Request)
}
