package event

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Hooks are the guest-facing callbacks the loop drives. All three run on
// the loop goroutine, never concurrently.
type Hooks struct {
	// Deliver forwards one normalized event into the guest's input entry
	// points.
	Deliver func(Event)
	// Frame invokes the guest's per-frame entry point.
	Frame func()
	// Completions delivers queued one-shot notifications (file loads)
	// before the frame runs. Optional.
	Completions func()
}

// Config shapes the loop's scheduling.
type Config struct {
	// FPS is the tick rate for scheduled mode. Zero means 60.
	FPS float64
	// Scale is the device pixel ratio applied to pointer and touch
	// coordinates. Zero means 1.
	Scale float32
	// Manual suppresses automatic frames: a tick only runs the guest
	// frame after RequestUpdate, the way a host configured for
	// blocking-free stepping redraws on demand.
	Manual bool
}

// Loop drives the guest. Scheduled mode ticks on a timer via Run; manual
// stepping goes through Step. Either way each turn drains pending input,
// delivers completions, then runs the frame, so the guest observes state
// changes only between its own frames.
type Loop struct {
	cfg   Config
	hooks Hooks
	log   *zap.Logger

	queue   []Event
	mu      sync.Mutex
	update  atomic.Bool
	frames  atomic.Uint64
	stop    chan struct{}
	stopped sync.Once
}

// NewLoop creates a loop. Manual loops start with one update requested so
// the first Step always renders.
func NewLoop(cfg Config, hooks Hooks, log *zap.Logger) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 60
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	l := &Loop{
		cfg:   cfg,
		hooks: hooks,
		log:   log,
		stop:  make(chan struct{}),
	}
	l.update.Store(true)
	return l
}

// Push queues an event from outside a Source, scaled like any other.
func (l *Loop) Push(ev Event) {
	l.mu.Lock()
	l.queue = append(l.queue, l.scale(ev))
	l.mu.Unlock()
}

// RequestUpdate asks a manual loop to render on its next step.
func (l *Loop) RequestUpdate() {
	l.update.Store(true)
}

// SetManual switches between scheduled and on-demand frames. Guest calls
// land on the loop goroutine, so the flag needs no further guarding.
// Entering manual mode arms one update so the next turn still renders.
func (l *Loop) SetManual(on bool) {
	l.cfg.Manual = on
	if on {
		l.update.Store(true)
	}
}

// Frames reports how many guest frames have run.
func (l *Loop) Frames() uint64 {
	return l.frames.Load()
}

// Stop ends Run. Idempotent; safe from any goroutine.
func (l *Loop) Stop() {
	l.stopped.Do(func() { close(l.stop) })
}

// Stopped reports whether Stop has been called.
func (l *Loop) Stopped() bool {
	select {
	case <-l.stop:
		return true
	default:
		return false
	}
}

// Run ticks at the configured rate until ctx is cancelled or Stop is
// called, pulling events from src as they arrive. Everything guest-facing
// happens on this goroutine.
func (l *Loop) Run(ctx context.Context, src Source) error {
	interval := time.Duration(float64(time.Second) / l.cfg.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var events <-chan Event
	if src != nil {
		events = src.Events()
	}

	l.log.Info("event loop running",
		zap.Float64("fps", l.cfg.FPS),
		zap.Bool("manual", l.cfg.Manual))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stop:
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			l.Push(ev)
		case <-ticker.C:
			l.tick()
		}
	}
}

// Step runs one manual turn: drain src without blocking, deliver, then
// frame if an update was requested. Returns whether a frame ran.
func (l *Loop) Step(src Source) bool {
	if src != nil {
		ch := src.Events()
		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					break
				}
				l.Push(ev)
				continue
			default:
			}
			break
		}
	}
	return l.turn()
}

func (l *Loop) tick() {
	l.turn()
}

func (l *Loop) turn() bool {
	l.mu.Lock()
	batch := l.queue
	l.queue = nil
	l.mu.Unlock()

	if l.hooks.Deliver != nil {
		for _, ev := range batch {
			l.hooks.Deliver(ev)
		}
	}
	if l.hooks.Completions != nil {
		l.hooks.Completions()
	}

	if l.cfg.Manual && !l.update.Swap(false) {
		return false
	}
	if l.hooks.Frame != nil {
		l.hooks.Frame()
		l.frames.Add(1)
	}
	return true
}

// scale applies the device pixel ratio to pointer and touch coordinates.
// Key, focus and resize events pass through untouched.
func (l *Loop) scale(ev Event) Event {
	if l.cfg.Scale == 1 {
		return ev
	}
	switch ev.Type {
	case TypeMouseMove, TypeMouseDown, TypeMouseUp, TypeTouch:
		ev.X *= l.cfg.Scale
		ev.Y *= l.cfg.Scale
	}
	return ev
}
