package event

// Type tags an Event.
type Type uint8

const (
	TypeResize Type = iota
	TypeMouseMove
	TypeMouseDown
	TypeMouseUp
	TypeMouseWheel
	TypeKeyDown
	TypeKeyUp
	TypeChar
	TypeTouch
	TypeFocus
	TypeClipboardPaste
	TypeFileDrop
	TypeQuitRequested
)

// Event is the normalized input record delivered to the guest. Which
// fields are meaningful depends on Type; everything else is zero.
type Event struct {
	Type Type

	// Pointer, wheel and touch coordinates in device pixels, and resize
	// dimensions.
	X, Y float32

	Key    KeyCode
	Mods   uint32
	Repeat bool

	Char rune

	Button int32

	TouchID uint64
	Phase   TouchPhase

	Focused bool

	// Clipboard paste text.
	Text string

	// Dropped file payloads, one slice per file, delivered through the
	// fetch bridge before the guest is notified.
	Files [][]byte
}

// Source feeds host events into the loop. Implementations deliver on the
// channel from their own goroutine; the loop drains it between frames.
type Source interface {
	Events() <-chan Event
}
