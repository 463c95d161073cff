package app

import (
	"sync"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// enqueue is called from recognizer ticks and never blocks.
func (a *App) enqueue(ev Event) {
	log.Debug("gesture event", "recognizer", ev.Recognizer, "kind", ev.Kind, "reason", ev.Reason)
	select {
	case a.events <- ev:
	default:
		log.Warn("event queue full, dropping event", "recognizer", ev.Recognizer, "kind", ev.Kind)
	}
}

func (a *App) startPump() {
	a.pumpMu.Lock()
	defer a.pumpMu.Unlock()
	if a.quit != nil {
		return
	}
	a.quit = make(chan struct{})
	a.pumped = make(chan struct{})
	go a.pump(a.quit, a.pumped)
}

func (a *App) stopPump() {
	a.pumpMu.Lock()
	defer a.pumpMu.Unlock()
	if a.quit == nil {
		return
	}
	close(a.quit)
	<-a.pumped
	a.quit, a.pumped = nil, nil
}

// pump handles events until quit closes, then drains what is queued.
func (a *App) pump(quit, done chan struct{}) {
	defer close(done)
	for {
		select {
		case ev := <-a.events:
			a.handle(ev)
		case <-quit:
			for {
				select {
				case ev := <-a.events:
					a.handle(ev)
				default:
					return
				}
			}
		}
	}
}

func (a *App) handle(ev Event) {
	if a.config.Store != nil {
		err := a.config.Store.Events().Append(&store.Event{
			RecognizerID: ev.RecognizerID,
			Kind:         string(ev.Kind),
			Reason:       string(ev.Reason),
			OccurredAt:   ev.Time,
		})
		if err != nil {
			log.Warn("journal append failed", "recognizer", ev.Recognizer, "error", err)
		}
	}

	a.subs.publish(ev)

	if ev.Kind == gesture.Activated || ev.Kind == gesture.Deactivated {
		a.dispatch(ev)
	}

	if a.config.OnEvent != nil {
		a.config.OnEvent(ev)
	}
}

func (a *App) dispatch(ev Event) {
	if a.config.Dispatcher == nil || a.config.Store == nil {
		return
	}
	actions, err := a.config.Store.Actions().ListFor(ev.RecognizerID, string(ev.Kind))
	if err != nil {
		log.Warn("action lookup failed", "recognizer", ev.Recognizer, "error", err)
		return
	}

	for _, act := range actions {
		job := plugin.Job{
			Plugin: act.PluginName,
			Request: &plugin.Request{
				Action:  act.ActionName,
				Gesture: ev.Recognizer,
				Event: &plugin.EventInfo{
					Kind:   string(ev.Kind),
					Reason: string(ev.Reason),
					Family: string(ev.Family),
					Time:   ev.Time,
				},
				Config: act.Config,
			},
		}
		if err := a.config.Dispatcher.Submit(job); err != nil {
			log.Warn("plugin action dropped", "plugin", act.PluginName, "action", act.ActionName, "error", err)
		}
	}
}

type subscribers struct {
	mu   sync.RWMutex
	next int
	subs map[int]chan Event
}

func newSubscribers() *subscribers {
	return &subscribers{subs: make(map[int]chan Event)}
}

func (s *subscribers) add(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *subscribers) publish(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
