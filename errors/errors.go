package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in bridge processing the error occurred
type Phase string

const (
	PhaseProbe   Phase = "probe"   // capability detection
	PhaseLoad    Phase = "load"    // guest module loading
	PhaseLink    Phase = "link"    // call table assembly
	PhaseRuntime Phase = "runtime" // guest-driven bridge calls
	PhaseDecode  Phase = "decode"  // guest memory marshalling
	PhaseNet     Phase = "net"     // socket and request bridges
	PhaseAudio   Phase = "audio"   // audio engine
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidHandle      Kind = "invalid_handle"
	KindMissingCapability  Kind = "missing_capability"
	KindRequiredCapability Kind = "required_capability"
	KindAsyncFailure       Kind = "async_failure"
	KindVersionMismatch    Kind = "version_mismatch"
	KindMissingFunction    Kind = "missing_function"
	KindInvalidData        Kind = "invalid_data"
	KindOutOfBounds        Kind = "out_of_bounds"
	KindNotFound           Kind = "not_found"
	KindUnsupported        Kind = "unsupported"
	KindRegistration       Kind = "registration"
	KindInstantiation      Kind = "instantiation"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Plugin string
	Detail string
	Handle uint32
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Plugin != "" {
		b.WriteString(" in ")
		b.WriteString(e.Plugin)
	}

	if e.Handle != 0 {
		fmt.Fprintf(&b, " (handle %d)", e.Handle)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Plugin sets the plugin name the error originated in
func (b *Builder) Plugin(name string) *Builder {
	b.err.Plugin = name
	return b
}

// Handle sets the offending handle id
func (b *Builder) Handle(id uint32) *Builder {
	b.err.Handle = id
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidHandle creates an invalid-handle error
func InvalidHandle(phase Phase, what string, id uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidHandle,
		Handle: id,
		Detail: "no live " + what + " for handle",
	}
}

// MissingCapability creates a missing optional capability error
func MissingCapability(name string) *Error {
	return &Error{
		Phase:  PhaseProbe,
		Kind:   KindMissingCapability,
		Detail: name,
	}
}

// RequiredCapability creates a fatal missing-required-capability error
func RequiredCapability(name string) *Error {
	return &Error{
		Phase:  PhaseProbe,
		Kind:   KindRequiredCapability,
		Detail: name + " is required for rendering",
	}
}

// AsyncFailed wraps an asynchronous host operation failure
func AsyncFailed(phase Phase, op string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAsyncFailure,
		Detail: op,
		Cause:  cause,
	}
}

// OutOfBounds creates a guest memory bounds error
func OutOfBounds(phase Phase, offset, length uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("offset=%d length=%d", offset, length),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: what,
	}
}

// Registration creates a plugin registration error
func Registration(plugin, detail string) *Error {
	return &Error{
		Phase:  PhaseLink,
		Kind:   KindRegistration,
		Plugin: plugin,
		Detail: detail,
	}
}

// Instantiation wraps a guest instantiation failure
func Instantiation(cause error) *Error {
	return &Error{
		Phase: PhaseLoad,
		Kind:  KindInstantiation,
		Cause: cause,
	}
}

// Wrap creates an error with a cause and detail message
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Cause:  cause,
		Detail: detail,
	}
}
