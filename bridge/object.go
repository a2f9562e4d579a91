package bridge

import (
	"context"

	"github.com/coreos/go-semver/semver"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/quadkit/quadhost/guestmem"
	"github.com/quadkit/quadhost/plugin"
	"github.com/quadkit/quadhost/registry"
)

// objectPlugin exposes the tagged-variant object table. Field access is
// an explicit (handle, name bytes) call pair; there is no reflection and
// no dotted-path traversal on the host side.
func (c *Context) objectPlugin() plugin.Descriptor {
	return plugin.Descriptor{
		Name:    "obj",
		Version: *semver.New("1.0.0"),
		Register: func(t *plugin.Table) error {
			return c.registerObjects(t)
		},
	}
}

func (c *Context) registerObjects(t *plugin.Table) error {
	d := t.Definer()

	objects := c.objects
	n1 := plugin.Types(plugin.I32)
	n2 := plugin.Types(plugin.I32, plugin.I32)
	n3 := plugin.Types(plugin.I32, plugin.I32, plugin.I32)
	ret := plugin.Types(plugin.I32)
	// -1 as an i32 on the wasm stack.
	const neg = uint64(0xFFFF_FFFF)

	d.Define("obj_create_string", func(ctx context.Context, mod api.Module, stack []uint64) {
		mem := guestmem.Wrap(mod.Memory())
		s, err := guestmem.String(mem, uint32(stack[0]), uint32(stack[1]))
		if err != nil {
			c.log.Warn("bad obj_create_string bytes", zap.Error(err))
			stack[0] = 0
			return
		}
		stack[0] = uint64(objects.NewString(s))
	}, n2, ret)

	d.Define("obj_create_buffer", func(ctx context.Context, mod api.Module, stack []uint64) {
		mem := guestmem.Wrap(mod.Memory())
		data, err := guestmem.Bytes(mem, uint32(stack[0]), uint32(stack[1]))
		if err != nil {
			c.log.Warn("bad obj_create_buffer bytes", zap.Error(err))
			stack[0] = 0
			return
		}
		owned := make([]byte, len(data))
		copy(owned, data)
		stack[0] = uint64(objects.NewBuffer(owned))
	}, n2, ret)

	d.Define("obj_create_record", func(ctx context.Context, mod api.Module, stack []uint64) {
		stack[0] = uint64(objects.NewRecord())
	}, nil, ret)

	d.Define("obj_kind", func(ctx context.Context, mod api.Module, stack []uint64) {
		obj := objects.Get(registry.Handle(stack[0]))
		if obj == nil {
			stack[0] = neg
			return
		}
		stack[0] = uint64(obj.Kind)
	}, n1, ret)

	d.Define("obj_string_length", func(ctx context.Context, mod api.Module, stack []uint64) {
		s, ok := objects.String(registry.Handle(stack[0]))
		if !ok {
			stack[0] = neg
			return
		}
		stack[0] = uint64(uint32(len(s)))
	}, n1, ret)

	d.Define("obj_read_string", func(ctx context.Context, mod api.Module, stack []uint64) {
		s, ok := objects.String(registry.Handle(stack[0]))
		if !ok {
			stack[0] = neg
			return
		}
		mem := guestmem.Wrap(mod.Memory())
		n, err := guestmem.WriteString(mem, uint32(stack[1]), s, uint32(stack[2]))
		if err != nil {
			c.log.Warn("obj_read_string copy failed", zap.Error(err))
			stack[0] = neg
			return
		}
		stack[0] = uint64(n)
	}, n3, ret)

	d.Define("obj_buffer_length", func(ctx context.Context, mod api.Module, stack []uint64) {
		buf, ok := objects.Buffer(registry.Handle(stack[0]))
		if !ok {
			stack[0] = neg
			return
		}
		stack[0] = uint64(uint32(len(buf)))
	}, n1, ret)

	d.Define("obj_read_buffer", func(ctx context.Context, mod api.Module, stack []uint64) {
		buf, ok := objects.Buffer(registry.Handle(stack[0]))
		if !ok {
			stack[0] = neg
			return
		}
		if max := uint32(stack[2]); uint32(len(buf)) > max {
			buf = buf[:max]
		}
		mem := guestmem.Wrap(mod.Memory())
		if err := mem.Write(uint32(stack[1]), buf); err != nil {
			c.log.Warn("obj_read_buffer copy failed", zap.Error(err))
			stack[0] = neg
			return
		}
		stack[0] = uint64(uint32(len(buf)))
	}, n3, ret)

	d.Define("obj_field", func(ctx context.Context, mod api.Module, stack []uint64) {
		mem := guestmem.Wrap(mod.Memory())
		name, err := guestmem.String(mem, uint32(stack[1]), uint32(stack[2]))
		if err != nil {
			c.log.Warn("bad obj_field name", zap.Error(err))
			stack[0] = 0
			return
		}
		stack[0] = uint64(objects.Field(registry.Handle(stack[0]), name))
	}, n3, ret)

	d.Define("obj_set_field", func(ctx context.Context, mod api.Module, stack []uint64) {
		mem := guestmem.Wrap(mod.Memory())
		name, err := guestmem.String(mem, uint32(stack[1]), uint32(stack[2]))
		if err != nil {
			c.log.Warn("bad obj_set_field name", zap.Error(err))
			return
		}
		objects.SetField(registry.Handle(stack[0]), name, registry.Handle(stack[3]))
	}, plugin.Types(plugin.I32, plugin.I32, plugin.I32, plugin.I32), nil)

	d.Define("obj_free", func(ctx context.Context, mod api.Module, stack []uint64) {
		objects.Free(registry.Handle(stack[0]))
	}, n1, nil)

	return d.Err()
}
