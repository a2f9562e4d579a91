package event

// KeyCode is the normalized key scheme shared with the guest. Values
// follow the conventional layout-independent numbering: printable keys
// sit at their uppercase ASCII value, function and editing keys in the
// 256+ range.
type KeyCode uint32

const (
	KeyUnknown KeyCode = 0

	KeySpace      KeyCode = 32
	KeyApostrophe KeyCode = 39
	KeyComma      KeyCode = 44
	KeyMinus      KeyCode = 45
	KeyPeriod     KeyCode = 46
	KeySlash      KeyCode = 47

	Key0 KeyCode = 48
	Key9 KeyCode = 57

	KeySemicolon KeyCode = 59
	KeyEqual     KeyCode = 61

	KeyA KeyCode = 65
	KeyZ KeyCode = 90

	KeyLeftBracket  KeyCode = 91
	KeyBackslash    KeyCode = 92
	KeyRightBracket KeyCode = 93
	KeyGraveAccent  KeyCode = 96

	KeyEscape    KeyCode = 256
	KeyEnter     KeyCode = 257
	KeyTab       KeyCode = 258
	KeyBackspace KeyCode = 259
	KeyInsert    KeyCode = 260
	KeyDelete    KeyCode = 261
	KeyRight     KeyCode = 262
	KeyLeft      KeyCode = 263
	KeyDown      KeyCode = 264
	KeyUp        KeyCode = 265
	KeyPageUp    KeyCode = 266
	KeyPageDown  KeyCode = 267
	KeyHome      KeyCode = 268
	KeyEnd       KeyCode = 269

	KeyCapsLock    KeyCode = 280
	KeyScrollLock  KeyCode = 281
	KeyNumLock     KeyCode = 282
	KeyPrintScreen KeyCode = 283
	KeyPause       KeyCode = 284

	KeyF1  KeyCode = 290
	KeyF12 KeyCode = 301

	KeyKP0        KeyCode = 320
	KeyKP9        KeyCode = 329
	KeyKPDecimal  KeyCode = 330
	KeyKPDivide   KeyCode = 331
	KeyKPMultiply KeyCode = 332
	KeyKPSubtract KeyCode = 333
	KeyKPAdd      KeyCode = 334
	KeyKPEnter    KeyCode = 335
	KeyKPEqual    KeyCode = 336

	KeyLeftShift    KeyCode = 340
	KeyLeftControl  KeyCode = 341
	KeyLeftAlt      KeyCode = 342
	KeyLeftSuper    KeyCode = 343
	KeyRightShift   KeyCode = 344
	KeyRightControl KeyCode = 345
	KeyRightAlt     KeyCode = 346
	KeyRightSuper   KeyCode = 347
	KeyMenu         KeyCode = 348
)

// Modifier mask bits, combinable.
const (
	ModShift uint32 = 1 << 0
	ModCtrl  uint32 = 1 << 1
	ModAlt   uint32 = 1 << 2
	ModLogo  uint32 = 1 << 3
)

// Mouse buttons.
const (
	MouseLeft   int32 = 0
	MouseMiddle int32 = 1
	MouseRight  int32 = 2
)

// TouchPhase tags one step of a touch's lifetime.
type TouchPhase uint32

const (
	TouchBegan TouchPhase = iota
	TouchMoved
	TouchEnded
	TouchCancelled
)

// namedKeys maps host key names (the layout-independent physical names,
// "KeyA", "Digit1", "ArrowLeft" and so on) to normalized codes. Letters,
// digits, keypad digits and function keys are handled arithmetically in
// NormalizeKey; this table carries the rest.
var namedKeys = map[string]KeyCode{
	"Space":        KeySpace,
	"Quote":        KeyApostrophe,
	"Comma":        KeyComma,
	"Minus":        KeyMinus,
	"Period":       KeyPeriod,
	"Slash":        KeySlash,
	"Semicolon":    KeySemicolon,
	"Equal":        KeyEqual,
	"BracketLeft":  KeyLeftBracket,
	"Backslash":    KeyBackslash,
	"BracketRight": KeyRightBracket,
	"Backquote":    KeyGraveAccent,

	"Escape":    KeyEscape,
	"Enter":     KeyEnter,
	"Tab":       KeyTab,
	"Backspace": KeyBackspace,
	"Insert":    KeyInsert,
	"Delete":    KeyDelete,

	"ArrowRight": KeyRight,
	"ArrowLeft":  KeyLeft,
	"ArrowDown":  KeyDown,
	"ArrowUp":    KeyUp,
	"PageUp":     KeyPageUp,
	"PageDown":   KeyPageDown,
	"Home":       KeyHome,
	"End":        KeyEnd,

	"CapsLock":    KeyCapsLock,
	"ScrollLock":  KeyScrollLock,
	"NumLock":     KeyNumLock,
	"PrintScreen": KeyPrintScreen,
	"Pause":       KeyPause,

	"NumpadDecimal":  KeyKPDecimal,
	"NumpadDivide":   KeyKPDivide,
	"NumpadMultiply": KeyKPMultiply,
	"NumpadSubtract": KeyKPSubtract,
	"NumpadAdd":      KeyKPAdd,
	"NumpadEnter":    KeyKPEnter,
	"NumpadEqual":    KeyKPEqual,

	"ShiftLeft":    KeyLeftShift,
	"ControlLeft":  KeyLeftControl,
	"AltLeft":      KeyLeftAlt,
	"MetaLeft":     KeyLeftSuper,
	"ShiftRight":   KeyRightShift,
	"ControlRight": KeyRightControl,
	"AltRight":     KeyRightAlt,
	"MetaRight":    KeyRightSuper,
	"ContextMenu":  KeyMenu,
}

// NormalizeKey maps a host key name to the normalized scheme. Unrecognized
// names map to KeyUnknown; the guest decides whether to care.
func NormalizeKey(name string) KeyCode {
	if code, ok := namedKeys[name]; ok {
		return code
	}
	switch {
	case len(name) == 4 && name[:3] == "Key" && name[3] >= 'A' && name[3] <= 'Z':
		return KeyA + KeyCode(name[3]-'A')
	case len(name) == 6 && name[:5] == "Digit" && name[5] >= '0' && name[5] <= '9':
		return Key0 + KeyCode(name[5]-'0')
	case len(name) == 7 && name[:6] == "Numpad" && name[6] >= '0' && name[6] <= '9':
		return KeyKP0 + KeyCode(name[6]-'0')
	}
	if len(name) >= 2 && len(name) <= 3 && name[0] == 'F' {
		n := 0
		for _, c := range name[1:] {
			if c < '0' || c > '9' {
				return KeyUnknown
			}
			n = n*10 + int(c-'0')
		}
		if n >= 1 && n <= 12 {
			return KeyF1 + KeyCode(n-1)
		}
	}
	return KeyUnknown
}
