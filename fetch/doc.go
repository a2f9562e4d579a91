// Package fetch loads files for the guest asynchronously.
//
// Start issues a filesystem read, or an HTTP GET when the path carries a
// URL scheme, on a host goroutine and returns a file id immediately.
// Completions queue until the loop driver drains them and notifies the
// guest with a direct one-shot call per file; unlike audio and network
// results there is no ordering hazard against frame logic, so a callback
// costs nothing and saves the guest a frame of polling latency. The guest
// then sizes the buffer and copies it out exactly once, after which the
// host side is released.
//
// A failed load still completes; the guest observes it as a negative
// size. Add injects bytes the host already holds, which is how dropped
// files reach the guest through the same surface.
package fetch
