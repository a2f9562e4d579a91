package gl

// Capability names one probeable feature of a backend.
type Capability string

const (
	CapVertexArray  Capability = "vertex_array_object"
	CapInstanced    Capability = "instanced_arrays"
	CapTimerQuery   Capability = "disjoint_timer_query"
	CapDrawBuffers  Capability = "draw_buffers"
	CapDepthTexture Capability = "depth_texture"
)

// Report records per-capability probe results.
type Report struct {
	VertexArray  bool
	Instanced    bool
	TimerQuery   bool
	DrawBuffers  bool
	DepthTexture bool
}

// Has returns the probe result for one capability.
func (r Report) Has(c Capability) bool {
	switch c {
	case CapVertexArray:
		return r.VertexArray
	case CapInstanced:
		return r.Instanced
	case CapTimerQuery:
		return r.TimerQuery
	case CapDrawBuffers:
		return r.DrawBuffers
	case CapDepthTexture:
		return r.DepthTexture
	}
	return false
}

// MissingOptional lists absent optional capabilities, for the one-shot
// warning at layer construction.
func (r Report) MissingOptional() []Capability {
	var out []Capability
	if !r.VertexArray {
		out = append(out, CapVertexArray)
	}
	if !r.Instanced {
		out = append(out, CapInstanced)
	}
	if !r.TimerQuery {
		out = append(out, CapTimerQuery)
	}
	if !r.DrawBuffers {
		out = append(out, CapDrawBuffers)
	}
	return out
}

// Probe checks the backend for each known capability. Detection is an
// explicit success/failure record per capability; nothing here panics or
// recovers.
func Probe(b Backend) Report {
	var r Report
	_, r.VertexArray = b.(VertexArrayBackend)
	_, r.Instanced = b.(InstancedBackend)
	_, r.TimerQuery = b.(TimerQueryBackend)
	_, r.DrawBuffers = b.(DrawBuffersBackend)
	r.DepthTexture = b.Caps().DepthTexture
	return r
}
