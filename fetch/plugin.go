package fetch

import (
	"context"

	"github.com/coreos/go-semver/semver"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/quadkit/quadhost/guestmem"
	"github.com/quadkit/quadhost/plugin"
)

// NotifyExport is the guest function invoked once per completed load.
const NotifyExport = "file_loaded"

// negOne is -1 as an i32 on the wasm stack.
const negOne = uint64(0xFFFF_FFFF)

// Plugin exposes the loader to the guest.
func Plugin(l *Loader, log *zap.Logger) plugin.Descriptor {
	return plugin.Descriptor{
		Name:    "fs",
		Version: *semver.New("1.0.0"),
		Register: func(t *plugin.Table) error {
			return register(t, l, log)
		},
	}
}

func register(t *plugin.Table, l *Loader, log *zap.Logger) error {
	d := t.Definer()

	d.Define("fs_load_file", func(ctx context.Context, mod api.Module, stack []uint64) {
		mem := guestmem.Wrap(mod.Memory())
		path, err := guestmem.String(mem, uint32(stack[0]), uint32(stack[1]))
		if err != nil {
			log.Warn("bad fs_load_file path", zap.Error(err))
			stack[0] = 0
			return
		}
		stack[0] = uint64(l.Start(path))
	}, plugin.Types(plugin.I32, plugin.I32), plugin.Types(plugin.I32))

	d.Define("fs_file_size", func(ctx context.Context, mod api.Module, stack []uint64) {
		stack[0] = uint64(uint32(l.Size(FileID(stack[0]))))
	}, plugin.Types(plugin.I32), plugin.Types(plugin.I32))

	d.Define("fs_take_buffer", func(ctx context.Context, mod api.Module, stack []uint64) {
		id := FileID(stack[0])
		ptr := uint32(stack[1])
		length := uint32(stack[2])

		size := l.Size(id)
		if size < 0 {
			stack[0] = negOne
			return
		}
		if uint32(size) < length {
			length = uint32(size)
		}
		// Resolve the destination before consuming: a bad pointer must
		// leave the bytes parked, not lose them. The view is the live
		// guest memory, so Take copies straight into it.
		mem := guestmem.Wrap(mod.Memory())
		dst, err := guestmem.Bytes(mem, ptr, length)
		if err != nil {
			log.Warn("fs_take_buffer write failed", zap.Error(err))
			stack[0] = negOne
			return
		}
		stack[0] = uint64(uint32(l.Take(id, dst)))
	}, plugin.Types(plugin.I32, plugin.I32, plugin.I32), plugin.Types(plugin.I32))

	return d.Err()
}
