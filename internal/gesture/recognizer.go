package gesture

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/pose"
)

// ErrNotRunning is returned when an operation needs a started recognizer.
var ErrNotRunning = errors.New("recognizer not running")

// DefaultFrameInterval is the fast frame tick used when none is configured.
const DefaultFrameInterval = time.Second / 60

// Options configures a Recognizer.
type Options struct {
	// Period is the slow sampling tick. Defaults to 100ms.
	Period time.Duration
	// FrameInterval is the fast frame tick. Defaults to DefaultFrameInterval.
	FrameInterval time.Duration
	// Listener receives every transition.
	Listener Listener
	// Now overrides the clock used to stamp events and measure tick deltas.
	Now func() time.Time
}

// Recognizer drives a Machine from a Sensor. It owns two tasks, the periodic
// sampler and the frame ticker, both run by one goroutine between Start and
// Stop.
type Recognizer struct {
	name    string
	family  Family
	sensor  pose.Sensor
	opts    Options
	machine Machine

	mu     sync.Mutex // guards machine
	runMu  sync.Mutex // guards cancel and done
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRecognizer creates a stopped recognizer.
func NewRecognizer(name string, m Machine, sensor pose.Sensor, opts Options) *Recognizer {
	if opts.Period <= 0 {
		opts.Period = 100 * time.Millisecond
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	r := &Recognizer{
		name:    name,
		family:  m.Family(),
		sensor:  sensor,
		opts:    opts,
		machine: m,
	}
	m.SetListener(r.deliver)
	return r
}

// Name returns the recognizer name.
func (r *Recognizer) Name() string { return r.name }

// Family returns the recognizer family.
func (r *Recognizer) Family() Family { return r.family }

// Start resets the machine to its initial state and launches the tick loop.
// Starting a running recognizer is a no-op.
func (r *Recognizer) Start(ctx context.Context) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	if r.runningLocked() {
		return nil
	}
	r.clearRunLocked()
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	r.machine.Reset()
	r.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.run(runCtx, r.done)
	return nil
}

// Stop cancels the tick loop, waits for it to exit, and forces any active
// gesture to deactivate. No state survives a Stop.
func (r *Recognizer) Stop() {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	if r.cancel == nil {
		return
	}
	r.clearRunLocked()

	r.mu.Lock()
	r.machine.Deactivate(ReasonStopped)
	r.machine.Reset()
	r.mu.Unlock()
}

// Running reports whether the tick loop is active.
func (r *Recognizer) Running() bool {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	return r.runningLocked()
}

// runningLocked is false once the loop has exited, including when the parent
// context was canceled without a Stop.
func (r *Recognizer) runningLocked() bool {
	if r.cancel == nil {
		return false
	}
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

// clearRunLocked cancels the loop, waits for it to exit and forgets it.
func (r *Recognizer) clearRunLocked() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
	r.done = nil
}

// State returns a snapshot of the machine. It never changes behavior.
func (r *Recognizer) State() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.Snapshot()
}

// IsActive reports whether the gesture is currently active.
func (r *Recognizer) IsActive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.IsActive()
}

func (r *Recognizer) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	sampleTicker := time.NewTicker(r.opts.Period)
	defer sampleTicker.Stop()
	frameTicker := time.NewTicker(r.opts.FrameInterval)
	defer frameTicker.Stop()

	lastSample := r.opts.Now()
	lastFrame := lastSample

	// Sample once immediately so the gates see the pose before the first frame.
	r.sample(0)

	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			r.machine.Deactivate(ReasonStopped)
			r.mu.Unlock()
			return
		case <-sampleTicker.C:
			now := r.opts.Now()
			r.sample(now.Sub(lastSample))
			lastSample = now
		case <-frameTicker.C:
			now := r.opts.Now()
			r.frame(now.Sub(lastFrame))
			lastFrame = now
		}
	}
}

func (r *Recognizer) sample(dt time.Duration) {
	s, ok := pose.Read(r.sensor)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.machine.Sample(s, ok, dt)
}

func (r *Recognizer) frame(dt time.Duration) {
	s, ok := pose.Read(r.sensor)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.machine.Frame(s, ok, dt)
}

func (r *Recognizer) deliver(ev Event) {
	ev.Recognizer = r.name
	ev.Family = r.family
	ev.Time = r.opts.Now()
	if r.opts.Listener != nil {
		r.opts.Listener(ev)
	}
}
