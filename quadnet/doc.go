// Package quadnet bridges host networking to the guest as poll-based
// resources.
//
// Two surfaces are exposed. Socket holds one persistent websocket
// connection; frames received by the reader goroutine queue in a FIFO
// that the guest drains with TryRecv, so the guest decides exactly when
// new messages become visible relative to its own frame logic. Client
// issues one-shot HTTP requests keyed by a small integer id; a completed
// response is held until the first successful poll and released on
// consumption.
//
// Failures never cross the call boundary. A failed dial, read or request
// is logged with a correlation id and surfaced as a disconnected socket
// or a resolved-but-empty response.
package quadnet
