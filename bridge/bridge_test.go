package bridge

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/coreos/go-semver/semver"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	qerrors "github.com/quadkit/quadhost/errors"
	"github.com/quadkit/quadhost/event"
	"github.com/quadkit/quadhost/gl"
	"github.com/quadkit/quadhost/internal/wasmtest"
	"github.com/quadkit/quadhost/plugin"
	"github.com/quadkit/quadhost/registry"
	"github.com/quadkit/quadhost/shader"
)

func newContext(t *testing.T, cfg Config, log *zap.Logger) *Context {
	t.Helper()
	c, err := New(context.Background(), cfg, gl.NewNullBackend(shader.Dialect300), nil, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close(context.Background()) })
	return c
}

func TestLoad_StubsAndNegotiates(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	c := newContext(t, Config{}, zap.New(core))

	// The guest's frame calls an import no plugin provides, and it
	// declares an older audio plugin version than the host's.
	guest := wasmtest.NewModule().
		Import("env", "mystery_call", nil, []api.ValueType{api.ValueTypeI32}).
		ExportMemory(1).
		ExportCallFunc("frame", 0).
		ExportNopFunc("main").
		ExportConstFunc("audio_version", plugin.EncodeVersion(*semver.New("1.0.0"))).
		Build()

	if err := c.Load(context.Background(), guest); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := logs.FilterMessage("plugin version mismatch").Len(); got != 1 {
		t.Fatalf("mismatch warnings = %d, want exactly 1", got)
	}

	// The stub logs once however often the guest hits it.
	c.Step(nil)
	c.Step(nil)
	if got := logs.FilterMessage("missing function, stubbed").Len(); got != 1 {
		t.Fatalf("stub warnings = %d, want exactly 1", got)
	}
	if c.Loop().Frames() != 2 {
		t.Errorf("frames = %d, want 2", c.Loop().Frames())
	}
}

func TestLoad_MissingFrameFails(t *testing.T) {
	c := newContext(t, Config{}, zap.NewNop())

	guest := wasmtest.NewModule().
		ExportMemory(1).
		ExportNopFunc("main").
		Build()

	err := c.Load(context.Background(), guest)
	if err == nil {
		t.Fatal("expected an error for a guest without a frame export")
	}
	var e *qerrors.Error
	if !stderrors.As(err, &e) || e.Kind != qerrors.KindMissingFunction {
		t.Fatalf("error = %v, want missing_function", err)
	}
}

func TestLoad_GarbageModuleFails(t *testing.T) {
	c := newContext(t, Config{}, zap.NewNop())
	if err := c.Load(context.Background(), []byte("not wasm")); err == nil {
		t.Fatal("expected a compile error")
	}
}

func TestRun_QuitsWhenGuestHasNoConfirmationHook(t *testing.T) {
	c := newContext(t, Config{FPS: 240}, zap.NewNop())

	guest := wasmtest.NewModule().
		ExportMemory(1).
		ExportNopFunc("frame").
		Build()
	if err := c.Load(context.Background(), guest); err != nil {
		t.Fatalf("Load: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background(), nil) }()

	c.Push(event.Event{Type: event.TypeQuitRequested})
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("quit request did not stop the loop")
	}
}

func lifecycleFunc(t *testing.T, c *Context, name string) plugin.Func {
	t.Helper()
	table := plugin.NewTable(zap.NewNop())
	if err := c.lifecyclePlugin().Register(table); err != nil {
		t.Fatalf("register: %v", err)
	}
	for _, f := range table.Funcs() {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("no call table entry %s", name)
	return plugin.Func{}
}

func TestLifecycle_WindowState(t *testing.T) {
	c := newContext(t, Config{CanvasWidth: 640, CanvasHeight: 480}, zap.NewNop())
	ctx := context.Background()

	stack := []uint64{0, 0}
	lifecycleFunc(t, c, "sapp_canvas_width").Handler(ctx, nil, stack)
	if stack[0] != 640 {
		t.Errorf("canvas width = %d, want 640", stack[0])
	}

	stack[0], stack[1] = 1024, 768
	lifecycleFunc(t, c, "sapp_set_window_size").Handler(ctx, nil, stack)
	stack[0] = 0
	lifecycleFunc(t, c, "sapp_canvas_width").Handler(ctx, nil, stack)
	if stack[0] != 1024 {
		t.Errorf("canvas width after resize = %d, want 1024", stack[0])
	}

	stack[0] = 1
	lifecycleFunc(t, c, "sapp_set_fullscreen").Handler(ctx, nil, stack)
	stack[0] = 0
	lifecycleFunc(t, c, "sapp_is_fullscreen").Handler(ctx, nil, stack)
	if stack[0] != 1 {
		t.Error("fullscreen flag not recorded")
	}
}

func TestLifecycle_ScheduleUpdateDrivesManualLoop(t *testing.T) {
	c := newContext(t, Config{ManualLoop: true}, zap.NewNop())
	ctx := context.Background()

	// The first step renders, then the loop idles until a request.
	if !c.Step(nil) {
		t.Fatal("first manual step should render")
	}
	if c.Step(nil) {
		t.Fatal("unrequested step should idle")
	}
	lifecycleFunc(t, c, "sapp_schedule_update").Handler(ctx, nil, nil)
	if !c.Step(nil) {
		t.Fatal("scheduled step should render")
	}
}

func TestObjectPlugin_RoundTrip(t *testing.T) {
	c := newContext(t, Config{}, zap.NewNop())
	ctx := context.Background()

	table := plugin.NewTable(zap.NewNop())
	if err := c.objectPlugin().Register(table); err != nil {
		t.Fatalf("register: %v", err)
	}
	funcs := make(map[string]plugin.Func)
	for _, f := range table.Funcs() {
		funcs[f.Name] = f
	}

	// A real guest module provides the memory the handlers read.
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)
	mod, err := r.Instantiate(ctx, wasmtest.NewModule().ExportMemory(1).ExportNopFunc("frame").Build())
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	mod.Memory().Write(0, []byte("hello"))

	stack := []uint64{0, 5, 0, 0}
	funcs["obj_create_string"].Handler(ctx, mod, stack)
	str := stack[0]
	if str == 0 {
		t.Fatal("obj_create_string returned 0")
	}

	stack[0] = str
	funcs["obj_kind"].Handler(ctx, mod, stack)
	if registry.Kind(stack[0]) != registry.KindString {
		t.Errorf("kind = %d, want string", stack[0])
	}

	stack[0] = str
	funcs["obj_string_length"].Handler(ctx, mod, stack)
	if stack[0] != 5 {
		t.Errorf("string length = %d, want 5", stack[0])
	}

	// Copy it back to a different offset and check the bytes.
	stack[0], stack[1], stack[2] = str, 64, 32
	funcs["obj_read_string"].Handler(ctx, mod, stack)
	if stack[0] != 5 {
		t.Fatalf("read length = %d, want 5", stack[0])
	}
	back, _ := mod.Memory().Read(64, 5)
	if string(back) != "hello" {
		t.Errorf("read back %q", back)
	}

	// Records bind fields by name.
	funcs["obj_create_record"].Handler(ctx, mod, stack[:1])
	rec := stack[0]
	mod.Memory().Write(16, []byte("text"))
	stack[0], stack[1], stack[2], stack[3] = rec, 16, 4, str
	funcs["obj_set_field"].Handler(ctx, mod, stack)
	stack[0], stack[1], stack[2] = rec, 16, 4
	funcs["obj_field"].Handler(ctx, mod, stack)
	if stack[0] != str {
		t.Errorf("field lookup = %d, want %d", stack[0], str)
	}

	// Freed handles answer the invalid sentinel.
	stack[0] = str
	funcs["obj_free"].Handler(ctx, mod, stack)
	stack[0] = str
	funcs["obj_kind"].Handler(ctx, mod, stack)
	if int32(uint32(stack[0])) != -1 {
		t.Errorf("kind of freed object = %d, want -1", int32(uint32(stack[0])))
	}
}
