// Package quadhost is a host bridge that lets a compiled, sandboxed guest
// module drive the host's graphics, audio and network facilities through a
// fixed call table of plain numeric handles.
//
// The guest is a core WebAssembly module executed with wazero. It never
// blocks and never sees a host pointer: host-resident objects are referenced
// by small integer handles, asynchronous host operations are observed through
// per-frame polling, and every failure inside the bridge degrades to a logged
// diagnostic plus a sentinel result.
//
// # Architecture Overview
//
//	quadhost/            Root package with Memory and Allocator interfaces
//	├── bridge/          Bridge context: guest loading, stubs, lifecycle
//	├── registry/        Handle table and tagged object table
//	├── gl/              Graphics capability normalization and call table
//	├── shader/          Shader dialect transpiler
//	├── audio/           Stereo mixing engine with pooled playbacks
//	├── quadnet/         WebSocket and HTTP request bridges
//	├── fetch/           Async file loading with one-shot completion
//	├── plugin/          Call table assembly and version negotiation
//	├── event/           Input normalization and the per-frame loop
//	├── guestmem/        Guest memory marshalling helpers
//	└── errors/          Structured error types
//
// # Quick Start
//
//	b, err := bridge.New(bridge.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close(ctx)
//
//	if err := b.Load(ctx, wasmBytes); err != nil {
//	    log.Fatal(err)
//	}
//	b.Run(ctx, source)
package quadhost
