package bridge

// Config shapes a bridge context. Zero values pick the defaults noted on
// each field.
type Config struct {
	// CanvasWidth and CanvasHeight are the initial surface size in
	// logical pixels. Defaults 800x600.
	CanvasWidth  int32
	CanvasHeight int32

	// DPIScale is the device pixel ratio. Default 1.
	DPIScale float32

	// HighDPI reports whether the guest should render at device
	// resolution.
	HighDPI bool

	// FPS is the frame tick rate. Default 60.
	FPS float64

	// ManualLoop suppresses automatic frames; the guest renders only
	// after a schedule-update request.
	ManualLoop bool

	// SampleRate is the audio engine rate in Hz. Default 44100.
	SampleRate int

	// AssetRoot is the directory or URL prefix file loads resolve
	// against.
	AssetRoot string
}

func (c Config) withDefaults() Config {
	if c.CanvasWidth <= 0 {
		c.CanvasWidth = 800
	}
	if c.CanvasHeight <= 0 {
		c.CanvasHeight = 600
	}
	if c.DPIScale <= 0 {
		c.DPIScale = 1
	}
	if c.FPS <= 0 {
		c.FPS = 60
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 44100
	}
	return c
}

// Frontend is the surface the lifecycle calls forward to when the host
// has one. A nil Frontend leaves every call a recorded no-op, which is
// the headless behavior.
type Frontend interface {
	SetWindowSize(width, height int32)
	SetFullscreen(enabled bool)
	SetCursorGrab(grabbed bool)
	SetCursor(name string)
	ClipboardGet() string
	ClipboardSet(text string)
}
