// Package gl normalizes the host graphics context into one stable function
// surface for the rest of the bridge.
//
// A Backend is the raw host context. At construction the Layer probes it for
// a fixed set of optional capabilities (vertex arrays, instanced drawing,
// timer queries, multiple draw buffers) with an explicit per-capability
// probe, never exception-style control flow. Present capabilities are
// forwarded; absent optional ones degrade to logged-once no-ops; an absent
// required capability (depth textures) is fatal before the guest is ever
// instantiated.
//
// The Layer also owns the per-program uniform cache and runs the shader
// transpiler when the backend requires a newer dialect than the guest
// authored against. The guest addresses every GPU object through integer
// handles from the registry; raw backend objects never cross the boundary.
package gl
