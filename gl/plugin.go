package gl

import (
	"context"
	"math"

	"github.com/coreos/go-semver/semver"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/quadkit/quadhost/guestmem"
	"github.com/quadkit/quadhost/plugin"
	"github.com/quadkit/quadhost/registry"
)

// Plugin exposes the normalization layer as the guest's graphics call
// table. Every entry takes plain numbers; byte and string payloads arrive
// as (pointer, length) views over guest memory, and diagnostics follow
// the size-then-copy convention so the guest can allocate exactly.
func Plugin(l *Layer, log *zap.Logger) plugin.Descriptor {
	return plugin.Descriptor{
		Name:    "gl",
		Version: *semver.New("1.0.0"),
		Register: func(t *plugin.Table) error {
			return register(t, l, log)
		},
	}
}

// negOne is -1 as an i32 on the wasm stack.
const negOne = uint64(0xFFFF_FFFF)

func f32(v uint64) float32 {
	return math.Float32frombits(uint32(v))
}

func i32(v uint64) int32 {
	return int32(uint32(v))
}

func register(t *plugin.Table, l *Layer, log *zap.Logger) error {
	d := t.Definer()

	n1 := plugin.Types(plugin.I32)
	n2 := plugin.Types(plugin.I32, plugin.I32)
	n3 := plugin.Types(plugin.I32, plugin.I32, plugin.I32)
	n4 := plugin.Types(plugin.I32, plugin.I32, plugin.I32, plugin.I32)
	n5 := plugin.Types(plugin.I32, plugin.I32, plugin.I32, plugin.I32, plugin.I32)
	ret := plugin.Types(plugin.I32)

	// Textures

	d.Define("gl_create_texture", func(ctx context.Context, mod api.Module, stack []uint64) {
		stack[0] = uint64(l.NewTexture())
	}, nil, ret)

	d.Define("gl_delete_texture", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.DeleteTexture(registry.Handle(stack[0]))
	}, n1, nil)

	d.Define("gl_bind_texture", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.BindTexture(uint32(stack[0]), registry.Handle(stack[1]))
	}, n2, nil)

	d.Define("gl_tex_image_2d", func(ctx context.Context, mod api.Module, stack []uint64) {
		var pixels []byte
		if stack[8] != 0 {
			mem := guestmem.Wrap(mod.Memory())
			var err error
			pixels, err = guestmem.Bytes(mem, uint32(stack[7]), uint32(stack[8]))
			if err != nil {
				log.Warn("bad gl_tex_image_2d pixels", zap.Error(err))
				return
			}
		}
		l.TexImage2D(uint32(stack[0]), i32(stack[1]), i32(stack[2]), i32(stack[3]), i32(stack[4]),
			uint32(stack[5]), uint32(stack[6]), pixels)
	}, plugin.Types(plugin.I32, plugin.I32, plugin.I32, plugin.I32, plugin.I32, plugin.I32, plugin.I32, plugin.I32, plugin.I32), nil)

	d.Define("gl_tex_parameteri", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Backend().TexParameteri(uint32(stack[0]), uint32(stack[1]), i32(stack[2]))
	}, n3, nil)

	d.Define("gl_active_texture", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Backend().ActiveTexture(uint32(stack[0]))
	}, n1, nil)

	// Buffers

	d.Define("gl_create_buffer", func(ctx context.Context, mod api.Module, stack []uint64) {
		stack[0] = uint64(l.NewBuffer())
	}, nil, ret)

	d.Define("gl_delete_buffer", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.DeleteBuffer(registry.Handle(stack[0]))
	}, n1, nil)

	d.Define("gl_bind_buffer", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.BindBuffer(uint32(stack[0]), registry.Handle(stack[1]))
	}, n2, nil)

	d.Define("gl_buffer_data", func(ctx context.Context, mod api.Module, stack []uint64) {
		mem := guestmem.Wrap(mod.Memory())
		data, err := guestmem.Bytes(mem, uint32(stack[1]), uint32(stack[2]))
		if err != nil {
			log.Warn("bad gl_buffer_data payload", zap.Error(err))
			return
		}
		l.Backend().BufferData(uint32(stack[0]), data, uint32(stack[3]))
	}, n4, nil)

	d.Define("gl_buffer_sub_data", func(ctx context.Context, mod api.Module, stack []uint64) {
		mem := guestmem.Wrap(mod.Memory())
		data, err := guestmem.Bytes(mem, uint32(stack[2]), uint32(stack[3]))
		if err != nil {
			log.Warn("bad gl_buffer_sub_data payload", zap.Error(err))
			return
		}
		l.Backend().BufferSubData(uint32(stack[0]), i32(stack[1]), data)
	}, n4, nil)

	// Framebuffers

	d.Define("gl_create_framebuffer", func(ctx context.Context, mod api.Module, stack []uint64) {
		stack[0] = uint64(l.NewFramebuffer())
	}, nil, ret)

	d.Define("gl_delete_framebuffer", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.DeleteFramebuffer(registry.Handle(stack[0]))
	}, n1, nil)

	d.Define("gl_bind_framebuffer", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.BindFramebuffer(uint32(stack[0]), registry.Handle(stack[1]))
	}, n2, nil)

	d.Define("gl_framebuffer_texture_2d", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.FramebufferTexture2D(uint32(stack[0]), uint32(stack[1]), uint32(stack[2]),
			registry.Handle(stack[3]), i32(stack[4]))
	}, n5, nil)

	// Shaders

	d.Define("gl_create_shader", func(ctx context.Context, mod api.Module, stack []uint64) {
		stack[0] = uint64(l.NewShader(uint32(stack[0])))
	}, n1, ret)

	d.Define("gl_shader_source", func(ctx context.Context, mod api.Module, stack []uint64) {
		mem := guestmem.Wrap(mod.Memory())
		src, err := guestmem.String(mem, uint32(stack[1]), uint32(stack[2]))
		if err != nil {
			log.Warn("bad gl_shader_source text", zap.Error(err))
			return
		}
		l.ShaderSource(registry.Handle(stack[0]), src)
	}, n3, nil)

	d.Define("gl_compile_shader", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.CompileShader(registry.Handle(stack[0]))
	}, n1, nil)

	d.Define("gl_shader_compile_status", func(ctx context.Context, mod api.Module, stack []uint64) {
		h := registry.Handle(stack[0])
		stack[0] = 0
		if l.ShaderCompileStatus(h) {
			stack[0] = 1
		}
	}, n1, ret)

	d.Define("gl_shader_info_log_size", func(ctx context.Context, mod api.Module, stack []uint64) {
		stack[0] = uint64(uint32(len(l.ShaderInfoLog(registry.Handle(stack[0])))))
	}, n1, ret)

	d.Define("gl_shader_info_log", func(ctx context.Context, mod api.Module, stack []uint64) {
		writeLog(mod, stack, l.ShaderInfoLog(registry.Handle(stack[0])), log)
	}, n3, ret)

	d.Define("gl_delete_shader", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.DeleteShader(registry.Handle(stack[0]))
	}, n1, nil)

	// Programs

	d.Define("gl_create_program", func(ctx context.Context, mod api.Module, stack []uint64) {
		stack[0] = uint64(l.NewProgram())
	}, nil, ret)

	d.Define("gl_attach_shader", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.AttachShader(registry.Handle(stack[0]), registry.Handle(stack[1]))
	}, n2, nil)

	d.Define("gl_link_program", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.LinkProgram(registry.Handle(stack[0]))
	}, n1, nil)

	d.Define("gl_program_link_status", func(ctx context.Context, mod api.Module, stack []uint64) {
		h := registry.Handle(stack[0])
		stack[0] = 0
		if l.ProgramLinkStatus(h) {
			stack[0] = 1
		}
	}, n1, ret)

	d.Define("gl_program_info_log_size", func(ctx context.Context, mod api.Module, stack []uint64) {
		stack[0] = uint64(uint32(len(l.ProgramInfoLog(registry.Handle(stack[0])))))
	}, n1, ret)

	d.Define("gl_program_info_log", func(ctx context.Context, mod api.Module, stack []uint64) {
		writeLog(mod, stack, l.ProgramInfoLog(registry.Handle(stack[0])), log)
	}, n3, ret)

	d.Define("gl_use_program", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.UseProgram(registry.Handle(stack[0]))
	}, n1, nil)

	d.Define("gl_delete_program", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.DeleteProgram(registry.Handle(stack[0]))
	}, n1, nil)

	d.Define("gl_uniform_location", func(ctx context.Context, mod api.Module, stack []uint64) {
		mem := guestmem.Wrap(mod.Memory())
		name, err := guestmem.String(mem, uint32(stack[1]), uint32(stack[2]))
		if err != nil {
			log.Warn("bad gl_uniform_location name", zap.Error(err))
			stack[0] = negOne
			return
		}
		stack[0] = uint64(uint32(l.UniformLocation(registry.Handle(stack[0]), name)))
	}, n3, ret)

	d.Define("gl_attrib_location", func(ctx context.Context, mod api.Module, stack []uint64) {
		mem := guestmem.Wrap(mod.Memory())
		name, err := guestmem.String(mem, uint32(stack[1]), uint32(stack[2]))
		if err != nil {
			log.Warn("bad gl_attrib_location name", zap.Error(err))
			stack[0] = negOne
			return
		}
		stack[0] = uint64(uint32(l.AttribLocation(registry.Handle(stack[0]), name)))
	}, n3, ret)

	// Uniform upload

	d.Define("gl_uniform1i", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Uniform1i(registry.Handle(stack[0]), i32(stack[1]))
	}, n2, nil)

	d.Define("gl_uniform1f", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Uniform1f(registry.Handle(stack[0]), f32(stack[1]))
	}, plugin.Types(plugin.I32, plugin.F32), nil)

	d.Define("gl_uniform2f", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Uniform2f(registry.Handle(stack[0]), f32(stack[1]), f32(stack[2]))
	}, plugin.Types(plugin.I32, plugin.F32, plugin.F32), nil)

	d.Define("gl_uniform3f", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Uniform3f(registry.Handle(stack[0]), f32(stack[1]), f32(stack[2]), f32(stack[3]))
	}, plugin.Types(plugin.I32, plugin.F32, plugin.F32, plugin.F32), nil)

	d.Define("gl_uniform4f", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Uniform4f(registry.Handle(stack[0]), f32(stack[1]), f32(stack[2]), f32(stack[3]), f32(stack[4]))
	}, plugin.Types(plugin.I32, plugin.F32, plugin.F32, plugin.F32, plugin.F32), nil)

	d.Define("gl_uniform_matrix4fv", func(ctx context.Context, mod api.Module, stack []uint64) {
		mem := guestmem.Wrap(mod.Memory())
		values, err := guestmem.Float32s(mem, uint32(stack[1]), 16)
		if err != nil {
			log.Warn("bad gl_uniform_matrix4fv data", zap.Error(err))
			return
		}
		l.UniformMatrix4fv(registry.Handle(stack[0]), values)
	}, n2, nil)

	// Vertex attributes

	d.Define("gl_enable_vertex_attrib_array", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Backend().EnableVertexAttribArray(uint32(stack[0]))
	}, n1, nil)

	d.Define("gl_vertex_attrib_pointer", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Backend().VertexAttribPointer(uint32(stack[0]), i32(stack[1]), uint32(stack[2]),
			stack[3] != 0, i32(stack[4]), i32(stack[5]))
	}, plugin.Types(plugin.I32, plugin.I32, plugin.I32, plugin.I32, plugin.I32, plugin.I32), nil)

	d.Define("gl_vertex_attrib_divisor", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.VertexAttribDivisor(uint32(stack[0]), uint32(stack[1]))
	}, n2, nil)

	// Fixed-function state

	d.Define("gl_viewport", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Backend().Viewport(i32(stack[0]), i32(stack[1]), i32(stack[2]), i32(stack[3]))
	}, n4, nil)

	d.Define("gl_scissor", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Backend().Scissor(i32(stack[0]), i32(stack[1]), i32(stack[2]), i32(stack[3]))
	}, n4, nil)

	d.Define("gl_enable", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Backend().Enable(uint32(stack[0]))
	}, n1, nil)

	d.Define("gl_disable", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Backend().Disable(uint32(stack[0]))
	}, n1, nil)

	d.Define("gl_blend_func", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Backend().BlendFunc(uint32(stack[0]), uint32(stack[1]))
	}, n2, nil)

	d.Define("gl_blend_equation", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Backend().BlendEquation(uint32(stack[0]))
	}, n1, nil)

	d.Define("gl_depth_func", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Backend().DepthFunc(uint32(stack[0]))
	}, n1, nil)

	d.Define("gl_depth_mask", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Backend().DepthMask(stack[0] != 0)
	}, n1, nil)

	d.Define("gl_color_mask", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Backend().ColorMask(stack[0] != 0, stack[1] != 0, stack[2] != 0, stack[3] != 0)
	}, n4, nil)

	d.Define("gl_clear_color", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Backend().ClearColor(f32(stack[0]), f32(stack[1]), f32(stack[2]), f32(stack[3]))
	}, plugin.Types(plugin.F32, plugin.F32, plugin.F32, plugin.F32), nil)

	d.Define("gl_clear_depth", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Backend().ClearDepth(f32(stack[0]))
	}, plugin.Types(plugin.F32), nil)

	d.Define("gl_clear", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Backend().Clear(uint32(stack[0]))
	}, n1, nil)

	d.Define("gl_cull_face", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Backend().CullFace(uint32(stack[0]))
	}, n1, nil)

	d.Define("gl_front_face", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Backend().FrontFace(uint32(stack[0]))
	}, n1, nil)

	// Draw submission

	d.Define("gl_draw_arrays", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Backend().DrawArrays(uint32(stack[0]), i32(stack[1]), i32(stack[2]))
	}, n3, nil)

	d.Define("gl_draw_elements", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.Backend().DrawElements(uint32(stack[0]), i32(stack[1]), uint32(stack[2]), i32(stack[3]))
	}, n4, nil)

	d.Define("gl_draw_arrays_instanced", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.DrawArraysInstanced(uint32(stack[0]), i32(stack[1]), i32(stack[2]), i32(stack[3]))
	}, n4, nil)

	d.Define("gl_draw_elements_instanced", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.DrawElementsInstanced(uint32(stack[0]), i32(stack[1]), uint32(stack[2]), i32(stack[3]), i32(stack[4]))
	}, n5, nil)

	// Vertex array objects

	d.Define("gl_create_vertex_array", func(ctx context.Context, mod api.Module, stack []uint64) {
		stack[0] = uint64(l.NewVertexArray())
	}, nil, ret)

	d.Define("gl_bind_vertex_array", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.BindVertexArray(registry.Handle(stack[0]))
	}, n1, nil)

	d.Define("gl_delete_vertex_array", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.DeleteVertexArray(registry.Handle(stack[0]))
	}, n1, nil)

	// Timer queries

	d.Define("gl_create_query", func(ctx context.Context, mod api.Module, stack []uint64) {
		stack[0] = uint64(l.NewQuery())
	}, nil, ret)

	d.Define("gl_begin_query", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.BeginQuery(uint32(stack[0]), registry.Handle(stack[1]))
	}, n2, nil)

	d.Define("gl_end_query", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.EndQuery(uint32(stack[0]))
	}, n1, nil)

	d.Define("gl_delete_query", func(ctx context.Context, mod api.Module, stack []uint64) {
		l.DeleteQuery(registry.Handle(stack[0]))
	}, n1, nil)

	d.Define("gl_query_result_available", func(ctx context.Context, mod api.Module, stack []uint64) {
		h := registry.Handle(stack[0])
		stack[0] = 0
		if l.QueryResultAvailable(h) {
			stack[0] = 1
		}
	}, n1, ret)

	d.Define("gl_query_result", func(ctx context.Context, mod api.Module, stack []uint64) {
		stack[0] = l.QueryResult(registry.Handle(stack[0]))
	}, n1, plugin.Types(plugin.I64))

	// Multiple draw buffers

	d.Define("gl_draw_buffers", func(ctx context.Context, mod api.Module, stack []uint64) {
		mem := guestmem.Wrap(mod.Memory())
		attachments, err := guestmem.Uint32s(mem, uint32(stack[0]), uint32(stack[1]))
		if err != nil {
			log.Warn("bad gl_draw_buffers list", zap.Error(err))
			return
		}
		l.DrawBuffers(attachments)
	}, n2, nil)

	return d.Err()
}

// writeLog copies an info log into guest memory, truncated to the guest's
// buffer, and returns the written length through the stack.
func writeLog(mod api.Module, stack []uint64, text string, log *zap.Logger) {
	mem := guestmem.Wrap(mod.Memory())
	n, err := guestmem.WriteString(mem, uint32(stack[1]), text, uint32(stack[2]))
	if err != nil {
		log.Warn("info log copy failed", zap.Error(err))
		stack[0] = 0
		return
	}
	stack[0] = uint64(n)
}
