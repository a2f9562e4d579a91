package bridge

import (
	"context"
	"math"

	"github.com/coreos/go-semver/semver"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/quadkit/quadhost/event"
	"github.com/quadkit/quadhost/guestmem"
	"github.com/quadkit/quadhost/plugin"
)

// lifecyclePlugin is the window/application surface: sizing, fullscreen,
// cursor, clipboard, redraw scheduling and the quit round trip. With no
// frontend attached every forwarded call just records the requested state,
// which is all a headless host needs.
func (c *Context) lifecyclePlugin() plugin.Descriptor {
	return plugin.Descriptor{
		Name:    "sapp",
		Version: *semver.New("1.0.0"),
		Register: func(t *plugin.Table) error {
			return c.registerLifecycle(t)
		},
	}
}

func (c *Context) registerLifecycle(t *plugin.Table) error {
	d := t.Definer()

	i32 := plugin.Types(plugin.I32)
	ret := plugin.Types(plugin.I32)

	d.Define("sapp_canvas_width", func(ctx context.Context, mod api.Module, stack []uint64) {
		stack[0] = uint64(uint32(c.width))
	}, nil, ret)

	d.Define("sapp_canvas_height", func(ctx context.Context, mod api.Module, stack []uint64) {
		stack[0] = uint64(uint32(c.height))
	}, nil, ret)

	d.Define("sapp_dpi_scale", func(ctx context.Context, mod api.Module, stack []uint64) {
		stack[0] = uint64(math.Float32bits(c.cfg.DPIScale))
	}, nil, plugin.Types(plugin.F32))

	d.Define("sapp_high_dpi", func(ctx context.Context, mod api.Module, stack []uint64) {
		stack[0] = 0
		if c.cfg.HighDPI {
			stack[0] = 1
		}
	}, nil, ret)

	d.Define("sapp_set_window_size", func(ctx context.Context, mod api.Module, stack []uint64) {
		c.width, c.height = int32(uint32(stack[0])), int32(uint32(stack[1]))
		if c.frontend != nil {
			c.frontend.SetWindowSize(c.width, c.height)
		}
	}, plugin.Types(plugin.I32, plugin.I32), nil)

	d.Define("sapp_is_fullscreen", func(ctx context.Context, mod api.Module, stack []uint64) {
		stack[0] = 0
		if c.fullscreen {
			stack[0] = 1
		}
	}, nil, ret)

	d.Define("sapp_set_fullscreen", func(ctx context.Context, mod api.Module, stack []uint64) {
		c.fullscreen = stack[0] != 0
		if c.frontend != nil {
			c.frontend.SetFullscreen(c.fullscreen)
		}
	}, i32, nil)

	d.Define("sapp_set_cursor_grab", func(ctx context.Context, mod api.Module, stack []uint64) {
		c.cursorGrabbed = stack[0] != 0
		if c.frontend != nil {
			c.frontend.SetCursorGrab(c.cursorGrabbed)
		}
	}, i32, nil)

	d.Define("sapp_set_cursor", func(ctx context.Context, mod api.Module, stack []uint64) {
		mem := guestmem.Wrap(mod.Memory())
		name, err := guestmem.String(mem, uint32(stack[0]), uint32(stack[1]))
		if err != nil {
			c.log.Warn("bad sapp_set_cursor name", zap.Error(err))
			return
		}
		c.cursor = name
		if c.frontend != nil {
			c.frontend.SetCursor(name)
		}
	}, plugin.Types(plugin.I32, plugin.I32), nil)

	d.Define("sapp_clipboard_get", func(ctx context.Context, mod api.Module, stack []uint64) {
		text := c.clipboard
		if c.frontend != nil {
			text = c.frontend.ClipboardGet()
		}
		stack[0] = uint64(c.objects.NewString(text))
	}, nil, ret)

	d.Define("sapp_clipboard_set", func(ctx context.Context, mod api.Module, stack []uint64) {
		mem := guestmem.Wrap(mod.Memory())
		text, err := guestmem.String(mem, uint32(stack[0]), uint32(stack[1]))
		if err != nil {
			c.log.Warn("bad sapp_clipboard_set text", zap.Error(err))
			return
		}
		c.clipboard = text
		if c.frontend != nil {
			c.frontend.ClipboardSet(text)
		}
	}, plugin.Types(plugin.I32, plugin.I32), nil)

	d.Define("sapp_schedule_update", func(ctx context.Context, mod api.Module, stack []uint64) {
		c.loop.RequestUpdate()
	}, nil, nil)

	d.Define("sapp_set_manual_loop", func(ctx context.Context, mod api.Module, stack []uint64) {
		c.loop.SetManual(stack[0] != 0)
	}, i32, nil)

	// Quit round trip: request queues a quit_requested callback so the
	// guest can object or save; order stops the loop unconditionally.

	d.Define("sapp_request_quit", func(ctx context.Context, mod api.Module, stack []uint64) {
		c.loop.Push(event.Event{Type: event.TypeQuitRequested})
	}, nil, nil)

	d.Define("sapp_order_quit", func(ctx context.Context, mod api.Module, stack []uint64) {
		c.loop.Stop()
	}, nil, nil)

	return d.Err()
}
