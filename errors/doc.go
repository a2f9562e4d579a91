// Package errors provides structured error types for the quadhost bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). Use the Builder for structured construction:
//
//	err := errors.New(errors.PhaseLink, errors.KindMissingFunction).
//		Plugin("audio").
//		Detail("guest imports %q", name).
//		Build()
//
// Or the convenience constructors for common patterns:
//
//	err := errors.InvalidHandle(errors.PhaseRuntime, "texture", id)
//	err := errors.RequiredCapability("depth texture")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
