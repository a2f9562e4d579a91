package bridge

import (
	"math"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/quadkit/quadhost/event"
	"github.com/quadkit/quadhost/fetch"
)

// guestExports caches the guest's entry points after instantiation. Only
// frame is required; everything else is optional and simply skipped when
// the guest does not export it.
type guestExports struct {
	main  api.Function
	frame api.Function

	resize     api.Function
	mouseMove  api.Function
	mouseDown  api.Function
	mouseUp    api.Function
	mouseWheel api.Function
	keyDown    api.Function
	keyUp      api.Function
	charEvent  api.Function
	touch      api.Function
	focus      api.Function

	clipboardPaste    api.Function
	filesDroppedStart api.Function
	fileDropped       api.Function
	fileLoaded        api.Function
	quitRequested     api.Function
}

func cacheExports(mod api.Module) guestExports {
	return guestExports{
		main:  mod.ExportedFunction("main"),
		frame: mod.ExportedFunction("frame"),

		resize:     mod.ExportedFunction("resize"),
		mouseMove:  mod.ExportedFunction("mouse_move"),
		mouseDown:  mod.ExportedFunction("mouse_down"),
		mouseUp:    mod.ExportedFunction("mouse_up"),
		mouseWheel: mod.ExportedFunction("mouse_wheel"),
		keyDown:    mod.ExportedFunction("key_down"),
		keyUp:      mod.ExportedFunction("key_up"),
		charEvent:  mod.ExportedFunction("char_event"),
		touch:      mod.ExportedFunction("touch"),
		focus:      mod.ExportedFunction("focus"),

		clipboardPaste:    mod.ExportedFunction("clipboard_paste"),
		filesDroppedStart: mod.ExportedFunction("files_dropped_start"),
		fileDropped:       mod.ExportedFunction("file_dropped"),
		fileLoaded:        mod.ExportedFunction(fetch.NotifyExport),
		quitRequested:     mod.ExportedFunction("quit_requested"),
	}
}

// call invokes an optional guest export. A trap is logged and swallowed;
// the loop must keep running whatever the guest does.
func (c *Context) call(fn api.Function, name string, args ...uint64) {
	if fn == nil {
		return
	}
	if _, err := fn.Call(c.runCtx, args...); err != nil {
		c.log.Error("guest call failed", zap.String("export", name), zap.Error(err))
	}
}

func f32bits(v float32) uint64 {
	return uint64(math.Float32bits(v))
}

// deliver dispatches one normalized event into the guest.
func (c *Context) deliver(ev event.Event) {
	switch ev.Type {
	case event.TypeResize:
		c.width, c.height = int32(ev.X), int32(ev.Y)
		c.call(c.exports.resize, "resize", f32bits(ev.X), f32bits(ev.Y))
	case event.TypeMouseMove:
		c.call(c.exports.mouseMove, "mouse_move", f32bits(ev.X), f32bits(ev.Y))
	case event.TypeMouseDown:
		c.call(c.exports.mouseDown, "mouse_down", f32bits(ev.X), f32bits(ev.Y), uint64(uint32(ev.Button)))
	case event.TypeMouseUp:
		c.call(c.exports.mouseUp, "mouse_up", f32bits(ev.X), f32bits(ev.Y), uint64(uint32(ev.Button)))
	case event.TypeMouseWheel:
		c.call(c.exports.mouseWheel, "mouse_wheel", f32bits(ev.X), f32bits(ev.Y))
	case event.TypeKeyDown:
		repeat := uint64(0)
		if ev.Repeat {
			repeat = 1
		}
		c.call(c.exports.keyDown, "key_down", uint64(ev.Key), uint64(ev.Mods), repeat)
	case event.TypeKeyUp:
		c.call(c.exports.keyUp, "key_up", uint64(ev.Key), uint64(ev.Mods))
	case event.TypeChar:
		c.call(c.exports.charEvent, "char_event", uint64(uint32(ev.Char)), uint64(ev.Mods))
	case event.TypeTouch:
		c.call(c.exports.touch, "touch", uint64(ev.Phase), ev.TouchID, f32bits(ev.X), f32bits(ev.Y))
	case event.TypeFocus:
		focused := uint64(0)
		if ev.Focused {
			focused = 1
		}
		c.call(c.exports.focus, "focus", focused)
	case event.TypeClipboardPaste:
		h := c.objects.NewString(ev.Text)
		c.call(c.exports.clipboardPaste, "clipboard_paste", uint64(h))
	case event.TypeFileDrop:
		c.call(c.exports.filesDroppedStart, "files_dropped_start")
		for _, data := range ev.Files {
			id := c.loader.Add(data)
			c.call(c.exports.fileDropped, "file_dropped", uint64(id))
		}
	case event.TypeQuitRequested:
		if c.exports.quitRequested == nil {
			// No confirmation hook in the guest: quit immediately.
			c.loop.Stop()
			return
		}
		c.call(c.exports.quitRequested, "quit_requested")
	}
}

// completions drains queued file-load results into the guest.
func (c *Context) completions() {
	c.loader.Drain(func(id fetch.FileID) {
		c.call(c.exports.fileLoaded, fetch.NotifyExport, uint64(id))
	})
}

func (c *Context) frame() {
	c.call(c.exports.frame, "frame")
}
