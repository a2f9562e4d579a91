package gl

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/quadkit/quadhost/errors"
	"github.com/quadkit/quadhost/registry"
	"github.com/quadkit/quadhost/shader"
)

// shaderObj pairs a backend shader with its pipeline stage so the compile
// path knows which transpile rules apply.
type shaderObj struct {
	obj   any
	stage shader.Stage
}

type uniformEntry struct {
	size int
	base registry.Handle
}

// programInfo is the per-program uniform cache: name -> (arraySize, base
// location handle). Built once at link time; lookups are O(1).
type programInfo struct {
	obj      any
	uniforms map[string]uniformEntry
}

// Layer is the capability normalization layer. Every graphics call from the
// guest lands here; the Layer resolves handles, forwards to the backend or
// to a polyfill, and downgrades every failure to a logged diagnostic.
type Layer struct {
	backend Backend
	report  Report
	handles *registry.Table
	log     *zap.Logger

	programs map[registry.Handle]*programInfo

	// Present optional capabilities, nil when absent.
	vao  VertexArrayBackend
	inst InstancedBackend
	tq   TimerQueryBackend
	db   DrawBuffersBackend
}

// New probes the backend and builds the normalization layer. An absent
// required capability returns a fatal error: rendering cannot proceed and
// the guest must not be instantiated. Absent optional capabilities are
// logged once here and silently disabled afterwards.
func New(b Backend, handles *registry.Table, log *zap.Logger) (*Layer, error) {
	if log == nil {
		log = zap.NewNop()
	}

	report := Probe(b)
	if !report.DepthTexture {
		return nil, errors.RequiredCapability(string(CapDepthTexture))
	}
	for _, c := range report.MissingOptional() {
		log.Warn("graphics capability unavailable, calls will no-op",
			zap.String("capability", string(c)))
	}

	l := &Layer{
		backend:  b,
		report:   report,
		handles:  handles,
		log:      log,
		programs: make(map[registry.Handle]*programInfo),
	}
	l.vao, _ = b.(VertexArrayBackend)
	l.inst, _ = b.(InstancedBackend)
	l.tq, _ = b.(TimerQueryBackend)
	l.db, _ = b.(DrawBuffersBackend)
	return l, nil
}

// Backend exposes the raw context for stateless forwarding calls.
func (l *Layer) Backend() Backend { return l.backend }

// Report returns the capability probe results.
func (l *Layer) Report() Report { return l.report }

// lookup resolves a handle or logs the invalid-handle diagnostic.
func (l *Layer) lookup(h registry.Handle, what string) (any, bool) {
	if h == 0 {
		return nil, false
	}
	v, ok := l.handles.Lookup(h)
	if !ok || v == nil {
		l.log.Warn("invalid graphics handle",
			zap.String("object", what),
			zap.Uint32("id", uint32(h)))
		return nil, false
	}
	return v, true
}

// shader narrows a looked-up object to a shader. All object classes share
// one handle table, so a handle of the wrong class resolves; that is still
// an invalid handle here, logged and failed, never a crash.
func (l *Layer) shader(h registry.Handle) (*shaderObj, bool) {
	obj, ok := l.lookup(h, "shader")
	if !ok {
		return nil, false
	}
	sh, ok := obj.(*shaderObj)
	if !ok {
		l.log.Warn("invalid graphics handle",
			zap.String("object", "shader"),
			zap.Uint32("id", uint32(h)))
		return nil, false
	}
	return sh, true
}

// program narrows a looked-up object to a program, like shader above.
func (l *Layer) program(h registry.Handle) (*programInfo, bool) {
	obj, ok := l.lookup(h, "program")
	if !ok {
		return nil, false
	}
	info, ok := obj.(*programInfo)
	if !ok {
		l.log.Warn("invalid graphics handle",
			zap.String("object", "program"),
			zap.Uint32("id", uint32(h)))
		return nil, false
	}
	return info, true
}

// Textures

func (l *Layer) NewTexture() registry.Handle {
	return l.handles.Allocate(l.backend.CreateTexture())
}

func (l *Layer) DeleteTexture(h registry.Handle) {
	if obj, ok := l.lookup(h, "texture"); ok {
		l.backend.DeleteTexture(obj)
		l.handles.Free(h)
	}
}

func (l *Layer) BindTexture(target uint32, h registry.Handle) {
	if h == 0 {
		l.backend.BindTexture(target, nil)
		return
	}
	if obj, ok := l.lookup(h, "texture"); ok {
		l.backend.BindTexture(target, obj)
	}
}

func (l *Layer) TexImage2D(target uint32, level, internalFormat, width, height int32, format, typ uint32, pixels []byte) {
	l.backend.TexImage2D(target, level, internalFormat, width, height, format, typ, pixels)
}

// Buffers

func (l *Layer) NewBuffer() registry.Handle {
	return l.handles.Allocate(l.backend.CreateBuffer())
}

func (l *Layer) DeleteBuffer(h registry.Handle) {
	if obj, ok := l.lookup(h, "buffer"); ok {
		l.backend.DeleteBuffer(obj)
		l.handles.Free(h)
	}
}

func (l *Layer) BindBuffer(target uint32, h registry.Handle) {
	if h == 0 {
		l.backend.BindBuffer(target, nil)
		return
	}
	if obj, ok := l.lookup(h, "buffer"); ok {
		l.backend.BindBuffer(target, obj)
	}
}

// Framebuffers

func (l *Layer) NewFramebuffer() registry.Handle {
	return l.handles.Allocate(l.backend.CreateFramebuffer())
}

func (l *Layer) DeleteFramebuffer(h registry.Handle) {
	if obj, ok := l.lookup(h, "framebuffer"); ok {
		l.backend.DeleteFramebuffer(obj)
		l.handles.Free(h)
	}
}

func (l *Layer) BindFramebuffer(target uint32, h registry.Handle) {
	if h == 0 {
		l.backend.BindFramebuffer(target, nil)
		return
	}
	if obj, ok := l.lookup(h, "framebuffer"); ok {
		l.backend.BindFramebuffer(target, obj)
	}
}

func (l *Layer) FramebufferTexture2D(target, attachment, texTarget uint32, tex registry.Handle, level int32) {
	if obj, ok := l.lookup(tex, "texture"); ok {
		l.backend.FramebufferTexture2D(target, attachment, texTarget, obj, level)
	}
}

// Shaders and programs

func (l *Layer) NewShader(shaderType uint32) registry.Handle {
	stage := shader.StageVertex
	if shaderType == FragmentShader {
		stage = shader.StageFragment
	}
	return l.handles.Allocate(&shaderObj{
		obj:   l.backend.CreateShader(shaderType),
		stage: stage,
	})
}

// ShaderSource uploads guest shader text, transpiling it first when the
// backend speaks a newer dialect than the guest authored against.
func (l *Layer) ShaderSource(h registry.Handle, src string) {
	sh, ok := l.shader(h)
	if !ok {
		return
	}
	l.backend.ShaderSource(sh.obj, shader.Transpile(src, sh.stage, l.backend.Dialect()))
}

// CompileShader compiles and, on failure, logs the host diagnostic with the
// shader's handle. Compile failures never cross back into the guest.
func (l *Layer) CompileShader(h registry.Handle) {
	sh, ok := l.shader(h)
	if !ok {
		return
	}
	l.backend.CompileShader(sh.obj)
	if !l.backend.ShaderCompileStatus(sh.obj) {
		l.log.Error("shader compile failed",
			zap.Uint32("shader", uint32(h)),
			zap.String("log", l.backend.ShaderInfoLog(sh.obj)))
	}
}

func (l *Layer) ShaderCompileStatus(h registry.Handle) bool {
	sh, ok := l.shader(h)
	if !ok {
		return false
	}
	return l.backend.ShaderCompileStatus(sh.obj)
}

func (l *Layer) ShaderInfoLog(h registry.Handle) string {
	sh, ok := l.shader(h)
	if !ok {
		return ""
	}
	return l.backend.ShaderInfoLog(sh.obj)
}

func (l *Layer) DeleteShader(h registry.Handle) {
	if sh, ok := l.shader(h); ok {
		l.backend.DeleteShader(sh.obj)
		l.handles.Free(h)
	}
}

func (l *Layer) NewProgram() registry.Handle {
	info := &programInfo{obj: l.backend.CreateProgram()}
	h := l.handles.Allocate(info)
	l.programs[h] = info
	return h
}

func (l *Layer) AttachShader(prog, sh registry.Handle) {
	p, ok := l.program(prog)
	if !ok {
		return
	}
	s, ok := l.shader(sh)
	if !ok {
		return
	}
	l.backend.AttachShader(p.obj, s.obj)
}

// LinkProgram links and unconditionally rebuilds the program's uniform
// cache; stale entries from an earlier link are replaced wholesale. Link
// failures log the host diagnostic with the program's handle.
func (l *Layer) LinkProgram(h registry.Handle) {
	info, ok := l.program(h)
	if !ok {
		return
	}
	l.backend.LinkProgram(info.obj)
	if !l.backend.ProgramLinkStatus(info.obj) {
		l.log.Error("program link failed",
			zap.Uint32("program", uint32(h)),
			zap.String("log", l.backend.ProgramInfoLog(info.obj)))
	}
	l.rebuildUniforms(info)
}

// rebuildUniforms allocates one location handle per array element so that
// "name[i]" resolves to base+i without further backend round trips.
func (l *Layer) rebuildUniforms(info *programInfo) {
	info.uniforms = make(map[string]uniformEntry)
	for _, u := range l.backend.ActiveUniforms(info.obj) {
		name := strings.TrimSuffix(u.Name, "[0]")
		size := u.Size
		if size < 1 {
			size = 1
		}

		var base registry.Handle
		for i := 0; i < size; i++ {
			elem := name
			if size > 1 || strings.HasSuffix(u.Name, "[0]") {
				elem = name + "[" + strconv.Itoa(i) + "]"
			}
			h := l.handles.Allocate(l.backend.UniformLocation(info.obj, elem))
			if i == 0 {
				base = h
			}
		}
		info.uniforms[name] = uniformEntry{size: size, base: base}
	}
}

// UniformLocation resolves a uniform name, with an optional "[index]"
// suffix, against the link-time cache. Unknown names and out-of-range
// indices return -1.
func (l *Layer) UniformLocation(prog registry.Handle, name string) int32 {
	info, ok := l.program(prog)
	if !ok {
		return -1
	}

	index := 0
	base := name
	if i := strings.IndexByte(name, '['); i >= 0 && strings.HasSuffix(name, "]") {
		n, err := strconv.Atoi(name[i+1 : len(name)-1])
		if err != nil {
			return -1
		}
		base = name[:i]
		index = n
	}

	entry, ok := info.uniforms[base]
	if !ok || index < 0 || index >= entry.size {
		return -1
	}
	return int32(uint32(entry.base) + uint32(index))
}

func (l *Layer) AttribLocation(prog registry.Handle, name string) int32 {
	info, ok := l.program(prog)
	if !ok {
		return -1
	}
	return l.backend.AttribLocation(info.obj, name)
}

func (l *Layer) ProgramLinkStatus(h registry.Handle) bool {
	info, ok := l.program(h)
	if !ok {
		return false
	}
	return l.backend.ProgramLinkStatus(info.obj)
}

func (l *Layer) ProgramInfoLog(h registry.Handle) string {
	info, ok := l.program(h)
	if !ok {
		return ""
	}
	return l.backend.ProgramInfoLog(info.obj)
}

func (l *Layer) UseProgram(h registry.Handle) {
	if h == 0 {
		l.backend.UseProgram(nil)
		return
	}
	if info, ok := l.program(h); ok {
		l.backend.UseProgram(info.obj)
	}
}

func (l *Layer) DeleteProgram(h registry.Handle) {
	if info, ok := l.program(h); ok {
		l.backend.DeleteProgram(info.obj)
		l.handles.Free(h)
		delete(l.programs, h)
	}
}

// Uniform upload by cached location handle.

func (l *Layer) location(h registry.Handle) (any, bool) {
	return l.lookup(h, "uniform location")
}

func (l *Layer) Uniform1i(loc registry.Handle, v int32) {
	if o, ok := l.location(loc); ok {
		l.backend.Uniform1i(o, v)
	}
}

func (l *Layer) Uniform1f(loc registry.Handle, v float32) {
	if o, ok := l.location(loc); ok {
		l.backend.Uniform1f(o, v)
	}
}

func (l *Layer) Uniform2f(loc registry.Handle, x, y float32) {
	if o, ok := l.location(loc); ok {
		l.backend.Uniform2f(o, x, y)
	}
}

func (l *Layer) Uniform3f(loc registry.Handle, x, y, z float32) {
	if o, ok := l.location(loc); ok {
		l.backend.Uniform3f(o, x, y, z)
	}
}

func (l *Layer) Uniform4f(loc registry.Handle, x, y, z, w float32) {
	if o, ok := l.location(loc); ok {
		l.backend.Uniform4f(o, x, y, z, w)
	}
}

func (l *Layer) UniformMatrix4fv(loc registry.Handle, values []float32) {
	if o, ok := l.location(loc); ok {
		l.backend.UniformMatrix4fv(o, values)
	}
}

// Vertex array objects (optional capability)

func (l *Layer) NewVertexArray() registry.Handle {
	if l.vao == nil {
		return 0
	}
	return l.handles.Allocate(l.vao.CreateVertexArray())
}

func (l *Layer) BindVertexArray(h registry.Handle) {
	if l.vao == nil {
		return
	}
	if h == 0 {
		l.vao.BindVertexArray(nil)
		return
	}
	if obj, ok := l.lookup(h, "vertex array"); ok {
		l.vao.BindVertexArray(obj)
	}
}

func (l *Layer) DeleteVertexArray(h registry.Handle) {
	if l.vao == nil {
		return
	}
	if obj, ok := l.lookup(h, "vertex array"); ok {
		l.vao.DeleteVertexArray(obj)
		l.handles.Free(h)
	}
}

// Instanced drawing (optional capability)

func (l *Layer) DrawArraysInstanced(mode uint32, first, count, instances int32) {
	if l.inst == nil {
		return
	}
	l.inst.DrawArraysInstanced(mode, first, count, instances)
}

func (l *Layer) DrawElementsInstanced(mode uint32, count int32, elementType uint32, offset, instances int32) {
	if l.inst == nil {
		return
	}
	l.inst.DrawElementsInstanced(mode, count, elementType, offset, instances)
}

func (l *Layer) VertexAttribDivisor(index, divisor uint32) {
	if l.inst == nil {
		return
	}
	l.inst.VertexAttribDivisor(index, divisor)
}

// Timer queries (optional capability)

func (l *Layer) NewQuery() registry.Handle {
	if l.tq == nil {
		return 0
	}
	return l.handles.Allocate(l.tq.CreateQuery())
}

func (l *Layer) BeginQuery(target uint32, h registry.Handle) {
	if l.tq == nil {
		return
	}
	if obj, ok := l.lookup(h, "query"); ok {
		l.tq.BeginQuery(target, obj)
	}
}

func (l *Layer) EndQuery(target uint32) {
	if l.tq == nil {
		return
	}
	l.tq.EndQuery(target)
}

func (l *Layer) DeleteQuery(h registry.Handle) {
	if l.tq == nil {
		return
	}
	if obj, ok := l.lookup(h, "query"); ok {
		l.tq.DeleteQuery(obj)
		l.handles.Free(h)
	}
}

func (l *Layer) QueryResultAvailable(h registry.Handle) bool {
	if l.tq == nil {
		return false
	}
	obj, ok := l.lookup(h, "query")
	if !ok {
		return false
	}
	return l.tq.QueryResultAvailable(obj)
}

func (l *Layer) QueryResult(h registry.Handle) uint64 {
	if l.tq == nil {
		return 0
	}
	obj, ok := l.lookup(h, "query")
	if !ok {
		return 0
	}
	return l.tq.QueryResult(obj)
}

// DrawBuffers (optional capability)

func (l *Layer) DrawBuffers(attachments []uint32) {
	if l.db == nil {
		return
	}
	l.db.DrawBuffers(attachments)
}
