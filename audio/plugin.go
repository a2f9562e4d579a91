package audio

import (
	"context"
	"math"

	"github.com/coreos/go-semver/semver"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/quadkit/quadhost/guestmem"
	"github.com/quadkit/quadhost/plugin"
)

// Plugin exposes the engine as the "audio" call table group.
func Plugin(e *Engine, log *zap.Logger) plugin.Descriptor {
	if log == nil {
		log = zap.NewNop()
	}
	return plugin.Descriptor{
		Name:    "audio",
		Version: *semver.New("2.0.0"),
		Register: func(t *plugin.Table) error {
			return register(t, e, log)
		},
	}
}

func f32(v uint64) float32 {
	return math.Float32frombits(uint32(v))
}

func register(t *plugin.Table, e *Engine, log *zap.Logger) error {
	d := t.Definer()

	d.Define("audio_init",
		func(ctx context.Context, mod api.Module, stack []uint64) {},
		nil, nil)

	d.Define("audio_add_buffer",
		func(ctx context.Context, mod api.Module, stack []uint64) {
			mem := guestmem.Wrap(mod.Memory())
			data, err := guestmem.Bytes(mem, uint32(stack[0]), uint32(stack[1]))
			if err != nil {
				log.Warn("audio_add_buffer out of bounds", zap.Error(err))
				stack[0] = 0
				return
			}
			stack[0] = uint64(e.AddBuffer(data))
		},
		plugin.Types(plugin.I32, plugin.I32), plugin.Types(plugin.I32))

	d.Define("audio_source_is_loaded",
		func(ctx context.Context, mod api.Module, stack []uint64) {
			if e.IsLoaded(uint32(stack[0])) {
				stack[0] = 1
			} else {
				stack[0] = 0
			}
		},
		plugin.Types(plugin.I32), plugin.Types(plugin.I32))

	d.Define("audio_play_buffer",
		func(ctx context.Context, mod api.Module, stack []uint64) {
			stack[0] = uint64(e.Play(
				uint32(stack[0]),
				f32(stack[1]), f32(stack[2]), f32(stack[3]),
				stack[4] != 0,
			))
		},
		plugin.Types(plugin.I32, plugin.F32, plugin.F32, plugin.F32, plugin.I32),
		plugin.Types(plugin.I32))

	d.Define("audio_source_set_volume",
		func(ctx context.Context, mod api.Module, stack []uint64) {
			e.SetSoundVolume(uint32(stack[0]), f32(stack[1]), f32(stack[2]))
		},
		plugin.Types(plugin.I32, plugin.F32, plugin.F32), nil)

	d.Define("audio_playback_set_volume",
		func(ctx context.Context, mod api.Module, stack []uint64) {
			e.SetPlaybackVolume(uint32(stack[0]), f32(stack[1]), f32(stack[2]))
		},
		plugin.Types(plugin.I32, plugin.F32, plugin.F32), nil)

	d.Define("audio_source_stop",
		func(ctx context.Context, mod api.Module, stack []uint64) {
			e.StopSound(uint32(stack[0]))
		},
		plugin.Types(plugin.I32), nil)

	d.Define("audio_playback_stop",
		func(ctx context.Context, mod api.Module, stack []uint64) {
			e.StopPlayback(uint32(stack[0]))
		},
		plugin.Types(plugin.I32), nil)

	d.Define("audio_delete_buffer",
		func(ctx context.Context, mod api.Module, stack []uint64) {
			e.Delete(uint32(stack[0]))
		},
		plugin.Types(plugin.I32), nil)

	return d.Err()
}
