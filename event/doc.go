// Package event normalizes host input and drives the guest's frame loop.
//
// Host-specific key names, mouse buttons and touch phases collapse into
// one stable numeric scheme before anything reaches the guest, and
// pointer coordinates are scaled by the device pixel ratio so the guest
// only ever sees physical pixels. The Loop owns the tick scheduler;
// every guest call (input delivery, file-load notification, the frame
// entry point) happens on the loop goroutine, one turn at a time, so
// guest calls never overlap.
package event
