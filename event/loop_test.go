package event

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

type chanSource struct {
	ch chan Event
}

func (s *chanSource) Events() <-chan Event { return s.ch }

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		name string
		want KeyCode
	}{
		{"KeyA", KeyA},
		{"KeyZ", KeyZ},
		{"Digit0", Key0},
		{"Digit9", Key9},
		{"Numpad5", KeyKP0 + 5},
		{"Space", KeySpace},
		{"ArrowLeft", KeyLeft},
		{"Escape", KeyEscape},
		{"ShiftLeft", KeyLeftShift},
		{"MetaRight", KeyRightSuper},
		{"F1", KeyF1},
		{"F12", KeyF12},
		{"F13", KeyUnknown},
		{"Fn", KeyUnknown},
		{"SomethingElse", KeyUnknown},
	}
	for _, tc := range cases {
		if got := NormalizeKey(tc.name); got != tc.want {
			t.Errorf("NormalizeKey(%q) = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestStep_DeliversEventsBeforeFrame(t *testing.T) {
	var order []string
	l := NewLoop(Config{}, Hooks{
		Deliver: func(ev Event) { order = append(order, "event") },
		Frame:   func() { order = append(order, "frame") },
		Completions: func() {
			order = append(order, "completions")
		},
	}, zap.NewNop())

	l.Push(Event{Type: TypeKeyDown, Key: KeyA})
	l.Push(Event{Type: TypeKeyUp, Key: KeyA})
	l.Step(nil)

	want := []string{"event", "event", "completions", "frame"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestStep_DrainsSource(t *testing.T) {
	src := &chanSource{ch: make(chan Event, 4)}
	src.ch <- Event{Type: TypeMouseDown, Button: MouseLeft}
	src.ch <- Event{Type: TypeMouseUp, Button: MouseLeft}

	var got []Event
	l := NewLoop(Config{}, Hooks{
		Deliver: func(ev Event) { got = append(got, ev) },
	}, zap.NewNop())

	l.Step(src)
	if len(got) != 2 {
		t.Fatalf("delivered %d events, want 2", len(got))
	}
}

func TestScale_PointerAndTouchOnly(t *testing.T) {
	var got []Event
	l := NewLoop(Config{Scale: 2}, Hooks{
		Deliver: func(ev Event) { got = append(got, ev) },
	}, zap.NewNop())

	l.Push(Event{Type: TypeMouseMove, X: 10, Y: 20})
	l.Push(Event{Type: TypeTouch, X: 5, Y: 5, Phase: TouchBegan})
	l.Push(Event{Type: TypeResize, X: 800, Y: 600})
	l.Push(Event{Type: TypeMouseWheel, X: 0, Y: 3})
	l.Step(nil)

	if got[0].X != 20 || got[0].Y != 40 {
		t.Errorf("mouse move not scaled: %+v", got[0])
	}
	if got[1].X != 10 || got[1].Y != 10 {
		t.Errorf("touch not scaled: %+v", got[1])
	}
	if got[2].X != 800 || got[2].Y != 600 {
		t.Errorf("resize should not scale: %+v", got[2])
	}
	if got[3].Y != 3 {
		t.Errorf("wheel delta should not scale: %+v", got[3])
	}
}

func TestManual_FramesOnlyOnRequest(t *testing.T) {
	frames := 0
	l := NewLoop(Config{Manual: true}, Hooks{
		Frame: func() { frames++ },
	}, zap.NewNop())

	// The first step always renders.
	if !l.Step(nil) || frames != 1 {
		t.Fatalf("first step: frames = %d", frames)
	}
	// No request, no frame.
	if l.Step(nil) || frames != 1 {
		t.Fatalf("unrequested step ran a frame: %d", frames)
	}
	l.RequestUpdate()
	if !l.Step(nil) || frames != 2 {
		t.Fatalf("requested step: frames = %d", frames)
	}
	if l.Frames() != 2 {
		t.Errorf("Frames() = %d, want 2", l.Frames())
	}
}

func TestSetManual_SwitchesMidRun(t *testing.T) {
	frames := 0
	l := NewLoop(Config{}, Hooks{
		Frame: func() { frames++ },
	}, zap.NewNop())

	// Scheduled mode frames every step.
	l.Step(nil)
	l.Step(nil)
	if frames != 2 {
		t.Fatalf("scheduled steps: frames = %d", frames)
	}

	// Switching arms one update, then frames wait on requests again.
	l.SetManual(true)
	if !l.Step(nil) || frames != 3 {
		t.Fatalf("step after switch: frames = %d", frames)
	}
	if l.Step(nil) || frames != 3 {
		t.Fatalf("unrequested manual step ran a frame: %d", frames)
	}

	l.SetManual(false)
	if !l.Step(nil) || frames != 4 {
		t.Fatalf("step after switching back: frames = %d", frames)
	}
}

func TestStopped(t *testing.T) {
	l := NewLoop(Config{}, Hooks{}, zap.NewNop())
	if l.Stopped() {
		t.Fatal("fresh loop reports stopped")
	}
	l.Stop()
	l.Stop()
	if !l.Stopped() {
		t.Fatal("stopped loop reports running")
	}
}

func TestRun_TicksAndStops(t *testing.T) {
	l := NewLoop(Config{FPS: 240}, Hooks{Frame: func() {}}, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background(), nil) }()

	deadline := time.Now().Add(5 * time.Second)
	for l.Frames() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if l.Frames() < 3 {
		t.Fatal("loop never ticked")
	}

	l.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRun_CancelledContext(t *testing.T) {
	l := NewLoop(Config{}, Hooks{}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Run(ctx, nil); err != context.Canceled {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
}
