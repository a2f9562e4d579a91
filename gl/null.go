package gl

import (
	"regexp"
	"strconv"

	"github.com/quadkit/quadhost/shader"
)

// NullBackend is a headless backend that accepts every call and advertises
// every capability. It backs tests and windowless hosts; draw submissions
// are counted and otherwise discarded.
type NullBackend struct {
	// DrawCalls counts draw submissions, instanced included.
	DrawCalls int

	dialect shader.Dialect
}

// NewNullBackend creates a headless backend compiling the given dialect.
func NewNullBackend(dialect shader.Dialect) *NullBackend {
	return &NullBackend{dialect: dialect}
}

var (
	_ Backend            = (*NullBackend)(nil)
	_ VertexArrayBackend = (*NullBackend)(nil)
	_ InstancedBackend   = (*NullBackend)(nil)
	_ TimerQueryBackend  = (*NullBackend)(nil)
	_ DrawBuffersBackend = (*NullBackend)(nil)
)

// nullObject gives each created resource a distinct non-nil identity.
type nullObject struct{ _ byte }

func newNullObject() *nullObject { return &nullObject{} }

type nullShader struct {
	src      string
	compiled bool
}

type nullProgram struct {
	shaders []*nullShader
	linked  bool
}

type nullLocation struct {
	name string
}

func (n *NullBackend) Dialect() shader.Dialect { return n.dialect }
func (n *NullBackend) Caps() Caps              { return Caps{DepthTexture: true} }

func (n *NullBackend) CreateTexture() any                  { return newNullObject() }
func (n *NullBackend) DeleteTexture(any)                   {}
func (n *NullBackend) BindTexture(uint32, any)             {}
func (n *NullBackend) ActiveTexture(uint32)                {}
func (n *NullBackend) TexParameteri(uint32, uint32, int32) {}
func (n *NullBackend) TexImage2D(uint32, int32, int32, int32, int32, uint32, uint32, []byte) {
}

func (n *NullBackend) CreateBuffer() any                   { return newNullObject() }
func (n *NullBackend) DeleteBuffer(any)                    {}
func (n *NullBackend) BindBuffer(uint32, any)              {}
func (n *NullBackend) BufferData(uint32, []byte, uint32)   {}
func (n *NullBackend) BufferSubData(uint32, int32, []byte) {}

func (n *NullBackend) CreateFramebuffer() any      { return newNullObject() }
func (n *NullBackend) DeleteFramebuffer(any)       {}
func (n *NullBackend) BindFramebuffer(uint32, any) {}
func (n *NullBackend) FramebufferTexture2D(uint32, uint32, uint32, any, int32) {
}

func (n *NullBackend) CreateShader(uint32) any { return &nullShader{} }

func (n *NullBackend) ShaderSource(sh any, src string) {
	sh.(*nullShader).src = src
}

func (n *NullBackend) CompileShader(sh any) {
	sh.(*nullShader).compiled = true
}

func (n *NullBackend) ShaderCompileStatus(sh any) bool { return sh.(*nullShader).compiled }
func (n *NullBackend) ShaderInfoLog(any) string        { return "" }
func (n *NullBackend) DeleteShader(any)                {}

func (n *NullBackend) CreateProgram() any { return &nullProgram{} }

func (n *NullBackend) AttachShader(prog, sh any) {
	p := prog.(*nullProgram)
	p.shaders = append(p.shaders, sh.(*nullShader))
}

func (n *NullBackend) LinkProgram(prog any) {
	prog.(*nullProgram).linked = true
}

func (n *NullBackend) ProgramLinkStatus(prog any) bool { return prog.(*nullProgram).linked }
func (n *NullBackend) ProgramInfoLog(any) string       { return "" }
func (n *NullBackend) UseProgram(any)                  {}
func (n *NullBackend) DeleteProgram(any)               {}

var uniformDeclRe = regexp.MustCompile(`(?m)^\s*uniform\s+\w+\s+(\w+)\s*(?:\[\s*(\d+)\s*\])?\s*;`)

// ActiveUniforms reports uniforms declared in the attached sources, the way
// a real context reports them after a link: array uniforms carry a "[0]"
// suffix and their declared element count.
func (n *NullBackend) ActiveUniforms(prog any) []UniformInfo {
	p := prog.(*nullProgram)
	seen := make(map[string]bool)
	var out []UniformInfo
	for _, sh := range p.shaders {
		for _, m := range uniformDeclRe.FindAllStringSubmatch(sh.src, -1) {
			name, size := m[1], 1
			if m[2] != "" {
				size, _ = strconv.Atoi(m[2])
				name += "[0]"
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, UniformInfo{Name: name, Size: size})
		}
	}
	return out
}

func (n *NullBackend) UniformLocation(_ any, name string) any {
	return &nullLocation{name: name}
}

func (n *NullBackend) AttribLocation(any, string) int32 { return 0 }

func (n *NullBackend) Uniform1i(any, int32)                     {}
func (n *NullBackend) Uniform1f(any, float32)                   {}
func (n *NullBackend) Uniform2f(any, float32, float32)          {}
func (n *NullBackend) Uniform3f(any, float32, float32, float32) {}
func (n *NullBackend) Uniform4f(any, float32, float32, float32, float32) {
}
func (n *NullBackend) UniformMatrix4fv(any, []float32) {}

func (n *NullBackend) EnableVertexAttribArray(uint32) {}
func (n *NullBackend) VertexAttribPointer(uint32, int32, uint32, bool, int32, int32) {
}

func (n *NullBackend) Viewport(int32, int32, int32, int32) {}
func (n *NullBackend) Scissor(int32, int32, int32, int32)  {}
func (n *NullBackend) Enable(uint32)                       {}
func (n *NullBackend) Disable(uint32)                      {}
func (n *NullBackend) BlendFunc(uint32, uint32)            {}
func (n *NullBackend) BlendEquation(uint32)                {}
func (n *NullBackend) DepthFunc(uint32)                    {}
func (n *NullBackend) DepthMask(bool)                      {}
func (n *NullBackend) ColorMask(bool, bool, bool, bool)    {}
func (n *NullBackend) ClearColor(float32, float32, float32, float32) {
}
func (n *NullBackend) ClearDepth(float32) {}
func (n *NullBackend) Clear(uint32)       {}
func (n *NullBackend) CullFace(uint32)    {}
func (n *NullBackend) FrontFace(uint32)   {}

func (n *NullBackend) DrawArrays(uint32, int32, int32) { n.DrawCalls++ }
func (n *NullBackend) DrawElements(uint32, int32, uint32, int32) {
	n.DrawCalls++
}

func (n *NullBackend) CreateVertexArray() any { return newNullObject() }
func (n *NullBackend) BindVertexArray(any)    {}
func (n *NullBackend) DeleteVertexArray(any)  {}

func (n *NullBackend) DrawArraysInstanced(uint32, int32, int32, int32) {
	n.DrawCalls++
}
func (n *NullBackend) DrawElementsInstanced(uint32, int32, uint32, int32, int32) {
	n.DrawCalls++
}
func (n *NullBackend) VertexAttribDivisor(uint32, uint32) {}

func (n *NullBackend) CreateQuery() any              { return newNullObject() }
func (n *NullBackend) BeginQuery(uint32, any)        {}
func (n *NullBackend) EndQuery(uint32)               {}
func (n *NullBackend) DeleteQuery(any)               {}
func (n *NullBackend) QueryResultAvailable(any) bool { return true }
func (n *NullBackend) QueryResult(any) uint64        { return 0 }

func (n *NullBackend) DrawBuffers([]uint32) {}
