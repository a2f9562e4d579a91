package gl

import (
	"github.com/quadkit/quadhost/shader"
)

// Shader type and target constants, shared with the guest ABI numerically.
const (
	FragmentShader uint32 = 0x8B30
	VertexShader   uint32 = 0x8B31
)

// Caps reports capabilities a backend cannot express through optional
// interfaces.
type Caps struct {
	// DepthTexture reports depth-texture attachment support. The bridge
	// cannot render correctly without it; absence is fatal.
	DepthTexture bool
}

// UniformInfo describes one active uniform reported after a program link.
// Array uniforms report the declared element count in Size and a name
// without the "[0]" suffix.
type UniformInfo struct {
	Name string
	Size int
}

// Backend is the raw host graphics context. Object-typed parameters and
// results are opaque backend values; the Layer stores them in the handle
// registry and the guest sees only integers.
//
// Optional capabilities live on the side interfaces below; a backend that
// does not implement one simply lacks the capability.
type Backend interface {
	// Dialect reports the shader dialect this context compiles.
	Dialect() shader.Dialect
	Caps() Caps

	CreateTexture() any
	DeleteTexture(tex any)
	BindTexture(target uint32, tex any)
	TexImage2D(target uint32, level int32, internalFormat int32, width, height int32, format, typ uint32, pixels []byte)
	TexParameteri(target, pname uint32, param int32)
	ActiveTexture(unit uint32)

	CreateBuffer() any
	DeleteBuffer(buf any)
	BindBuffer(target uint32, buf any)
	BufferData(target uint32, data []byte, usage uint32)
	BufferSubData(target uint32, offset int32, data []byte)

	CreateFramebuffer() any
	DeleteFramebuffer(fb any)
	BindFramebuffer(target uint32, fb any)
	FramebufferTexture2D(target, attachment, texTarget uint32, tex any, level int32)

	CreateShader(shaderType uint32) any
	ShaderSource(sh any, src string)
	CompileShader(sh any)
	ShaderCompileStatus(sh any) bool
	ShaderInfoLog(sh any) string
	DeleteShader(sh any)

	CreateProgram() any
	AttachShader(prog, sh any)
	LinkProgram(prog any)
	ProgramLinkStatus(prog any) bool
	ProgramInfoLog(prog any) string
	UseProgram(prog any)
	DeleteProgram(prog any)
	ActiveUniforms(prog any) []UniformInfo
	UniformLocation(prog any, name string) any
	AttribLocation(prog any, name string) int32

	Uniform1i(loc any, v int32)
	Uniform1f(loc any, v float32)
	Uniform2f(loc any, x, y float32)
	Uniform3f(loc any, x, y, z float32)
	Uniform4f(loc any, x, y, z, w float32)
	UniformMatrix4fv(loc any, values []float32)

	EnableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int32, attribType uint32, normalized bool, stride, offset int32)

	Viewport(x, y, w, h int32)
	Scissor(x, y, w, h int32)
	Enable(capability uint32)
	Disable(capability uint32)
	BlendFunc(src, dst uint32)
	BlendEquation(mode uint32)
	DepthFunc(fn uint32)
	DepthMask(enabled bool)
	ColorMask(r, g, b, a bool)
	ClearColor(r, g, b, a float32)
	ClearDepth(d float32)
	Clear(mask uint32)
	CullFace(mode uint32)
	FrontFace(mode uint32)

	DrawArrays(mode uint32, first, count int32)
	DrawElements(mode uint32, count int32, elementType uint32, offset int32)
}

// VertexArrayBackend is the optional vertex-array-object capability.
type VertexArrayBackend interface {
	CreateVertexArray() any
	BindVertexArray(vao any)
	DeleteVertexArray(vao any)
}

// InstancedBackend is the optional instanced-drawing capability.
type InstancedBackend interface {
	DrawArraysInstanced(mode uint32, first, count, instances int32)
	DrawElementsInstanced(mode uint32, count int32, elementType uint32, offset, instances int32)
	VertexAttribDivisor(index, divisor uint32)
}

// TimerQueryBackend is the optional disjoint-timer-query capability.
type TimerQueryBackend interface {
	CreateQuery() any
	BeginQuery(target uint32, q any)
	EndQuery(target uint32)
	DeleteQuery(q any)
	QueryResultAvailable(q any) bool
	QueryResult(q any) uint64
}

// DrawBuffersBackend is the optional multiple-draw-buffers capability.
type DrawBuffersBackend interface {
	DrawBuffers(attachments []uint32)
}
