// Package app wires stored recognizer definitions to a pose sensor and fans
// recognizer events out to the journal, live subscribers and plugins.
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/store"
)

// ErrNotLoaded is returned for a recognizer that is not loaded, either
// because it does not exist or because it is disabled.
var ErrNotLoaded = errors.New("recognizer not loaded")

// DefaultEventBuffer is the size of the event queue between recognizers and
// the fan-out.
const DefaultEventBuffer = 256

// Lifecycle is implemented by sensors that need to be started and stopped,
// such as capture.LandmarkSensor.
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop() error
}

// Config holds the collaborators of an App.
type Config struct {
	Store *store.Store
	// Sensor feeds every recognizer. If it implements Lifecycle it runs
	// only while detection is enabled.
	Sensor pose.Sensor
	// Dispatcher runs plugin actions. Nil disables actions.
	Dispatcher *plugin.Dispatcher
	// FrameInterval is the fast tick for motion recognizers.
	FrameInterval time.Duration
	// EnabledByDefault applies when no detection setting has been stored.
	EnabledByDefault bool
	// EventBuffer sizes the event queue. Defaults to DefaultEventBuffer.
	EventBuffer int
	// OnEvent is called from the fan-out goroutine for every event.
	OnEvent func(Event)
}

// Event is a recognizer event tagged with the stored recognizer id.
type Event struct {
	RecognizerID string `json:"recognizer_id"`
	gesture.Event
}

// Status summarizes one loaded recognizer.
type Status struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Family  gesture.Family `json:"family"`
	Running bool           `json:"running"`
	Active  bool           `json:"active"`
}

// App owns the recognizer runtimes.
type App struct {
	config Config

	mu          sync.Mutex
	recognizers map[string]*gesture.Recognizer
	enabled     bool
	ctx         context.Context // nil while stopped
	cancel      context.CancelFunc
	sensorOn    bool

	events chan Event
	pumpMu sync.Mutex
	quit   chan struct{}
	pumped chan struct{}
	subs   *subscribers
}

// New creates a stopped App. The detection flag is read from the store.
func New(config Config) *App {
	if config.EventBuffer <= 0 {
		config.EventBuffer = DefaultEventBuffer
	}

	enabled := config.EnabledByDefault
	if config.Store != nil {
		enabled = config.Store.Settings().GetBool(store.SettingDetectionEnabled, enabled)
	}

	return &App{
		config:      config,
		recognizers: make(map[string]*gesture.Recognizer),
		enabled:     enabled,
		events:      make(chan Event, config.EventBuffer),
		subs:        newSubscribers(),
	}
}

// Load builds a recognizer for every enabled stored definition, replacing
// any already loaded. Definitions that fail to build are logged and skipped.
func (a *App) Load() error {
	rows, err := a.config.Store.Recognizers().ListEnabled()
	if err != nil {
		return fmt.Errorf("list recognizers: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for id := range a.recognizers {
		a.removeLocked(id)
	}
	for _, row := range rows {
		r, err := a.build(row)
		if err != nil {
			log.Warn("skipping recognizer", "id", row.ID, "name", row.Name, "error", err)
			continue
		}
		a.recognizers[row.ID] = r
		a.startLocked(r)
	}

	log.Info("recognizers loaded", "count", len(a.recognizers))
	return nil
}

func (a *App) build(row *store.Recognizer) (*gesture.Recognizer, error) {
	def, err := gesture.ParseDefinition(row.Definition)
	if err != nil {
		return nil, err
	}
	m, period, err := def.Build()
	if err != nil {
		return nil, err
	}

	id := row.ID
	return gesture.NewRecognizer(row.Name, m, a.config.Sensor, gesture.Options{
		Period:        period,
		FrameInterval: a.config.FrameInterval,
		Listener: func(ev gesture.Event) {
			a.enqueue(Event{RecognizerID: id, Event: ev})
		},
	}), nil
}

// Start begins event fan-out and, when detection is enabled, the sensor and
// every loaded recognizer. Starting a started App is a no-op.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ctx != nil {
		return nil
	}
	a.ctx, a.cancel = context.WithCancel(ctx)
	a.startPump()

	if a.enabled {
		a.startAllLocked()
	}
	log.Info("detection runtime started", "enabled", a.enabled, "recognizers", len(a.recognizers))
	return nil
}

// Stop halts every recognizer and the sensor, then drains pending events.
func (a *App) Stop() {
	a.mu.Lock()
	if a.ctx == nil {
		a.mu.Unlock()
		return
	}
	a.stopAllLocked()
	a.cancel()
	a.ctx, a.cancel = nil, nil
	a.mu.Unlock()

	a.stopPump()
	log.Info("detection runtime stopped")
}

// SetEnabled persists the global detection flag and starts or stops every
// recognizer accordingly.
func (a *App) SetEnabled(enabled bool) error {
	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetBool(store.SettingDetectionEnabled, enabled); err != nil {
			return fmt.Errorf("save detection setting: %w", err)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.enabled == enabled {
		return nil
	}
	a.enabled = enabled
	if a.ctx != nil {
		if enabled {
			a.startAllLocked()
		} else {
			a.stopAllLocked()
		}
	}
	log.Info("detection toggled", "enabled", enabled)
	return nil
}

// IsEnabled reports the global detection flag.
func (a *App) IsEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// Reload rebuilds one recognizer from the store. A deleted or disabled
// recognizer is unloaded. The old runtime is stopped before the new one
// starts, so an active gesture deactivates with reason stopped.
func (a *App) Reload(id string) error {
	row, err := a.config.Store.Recognizers().GetByID(id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !row.Enabled) {
		a.Remove(id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load recognizer %s: %w", id, err)
	}

	r, err := a.build(row)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.removeLocked(id)
	a.recognizers[id] = r
	a.startLocked(r)
	log.Info("recognizer reloaded", "id", id, "name", row.Name, "family", r.Family())
	return nil
}

// Remove stops and unloads a recognizer. Unknown ids are ignored.
func (a *App) Remove(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.removeLocked(id)
}

func (a *App) removeLocked(id string) {
	r, ok := a.recognizers[id]
	if !ok {
		return
	}
	r.Stop()
	delete(a.recognizers, id)
}

// State returns the debug snapshot of a loaded recognizer.
func (a *App) State(id string) (gesture.Snapshot, error) {
	a.mu.Lock()
	r, ok := a.recognizers[id]
	a.mu.Unlock()
	if !ok {
		return gesture.Snapshot{}, fmt.Errorf("%w: %s", ErrNotLoaded, id)
	}
	return r.State(), nil
}

// Recognizers lists the loaded recognizers sorted by name.
func (a *App) Recognizers() []Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Status, 0, len(a.recognizers))
	for id, r := range a.recognizers {
		out = append(out, Status{
			ID:      id,
			Name:    r.Name(),
			Family:  r.Family(),
			Running: r.Running(),
			Active:  r.IsActive(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Subscribe registers a live event listener with the given channel buffer.
// Slow subscribers miss events rather than block the fan-out. Call the
// returned function to unsubscribe.
func (a *App) Subscribe(buffer int) (<-chan Event, func()) {
	return a.subs.add(buffer)
}

func (a *App) startLocked(r *gesture.Recognizer) {
	if a.ctx == nil || !a.enabled {
		return
	}
	if err := r.Start(a.ctx); err != nil {
		log.Error("recognizer start failed", "name", r.Name(), "error", err)
	}
}

func (a *App) startAllLocked() {
	if lc, ok := a.config.Sensor.(Lifecycle); ok && !a.sensorOn {
		if err := lc.Start(a.ctx); err != nil {
			log.Error("sensor start failed", "error", err)
		} else {
			a.sensorOn = true
		}
	}
	for _, r := range a.recognizers {
		a.startLocked(r)
	}
}

func (a *App) stopAllLocked() {
	for _, r := range a.recognizers {
		r.Stop()
	}
	if lc, ok := a.config.Sensor.(Lifecycle); ok && a.sensorOn {
		if err := lc.Stop(); err != nil {
			log.Warn("sensor stop failed", "error", err)
		}
		a.sensorOn = false
	}
}
