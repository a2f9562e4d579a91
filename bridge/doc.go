// Package bridge assembles the host side of the guest ABI into one
// explicit context object.
//
// A Context owns the wazero runtime, the handle and object tables, the
// graphics layer, the audio engine, the network and file bridges, the
// plugin registry and the event loop. Nothing here is a package global;
// every component receives what it needs at construction, and tearing
// the context down releases everything it built.
//
// Loading a guest walks a fixed sequence: merge every
// plugin's call table, scan the binary's imports, synthesize logging
// stubs for imports no plugin satisfies, instantiate the host module and
// the guest, negotiate plugin versions, run plugin inits, then call the
// guest's entry point. After that the loop drives frames until the guest
// or the host orders a quit.
package bridge
