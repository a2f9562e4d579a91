// Package guestmem provides marshalling helpers over guest linear memory.
//
// The bridge treats guest memory only as a flat byte buffer it reads and
// writes at given offsets. This package turns (pointer, length) pairs into
// typed Go views, round-trips UTF-8 strings (including surrogate-pair
// handling for hosts that exchange UTF-16 code units), and wraps the guest's
// exported allocator for host-to-guest buffer delivery.
package guestmem
