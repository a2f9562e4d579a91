package audio

import (
	"math"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testRate = 48000

// constPCM builds a buffer of constant-valued frames at the engine rate, so
// rendered output equals the applied gain.
func constPCM(frames int, value float32) *PCM {
	data := make([]float32, frames)
	for i := range data {
		data[i] = value
	}
	return &PCM{Left: data, Right: data, SampleRate: testRate}
}

// syncEngine returns an engine whose decoder resolves instantly, plus a
// loaded sound key.
func syncEngine(t *testing.T, frames int) (*Engine, uint32) {
	t.Helper()
	e := NewEngine(testRate, func([]byte) (*PCM, error) {
		return constPCM(frames, 1.0), nil
	}, nil)
	key := e.AddBuffer(nil)
	waitLoaded(t, e, key)
	return e, key
}

func waitLoaded(t *testing.T, e *Engine, key uint32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !e.IsLoaded(key) {
		if time.Now().After(deadline) {
			t.Fatal("decode never completed")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestAddBuffer_PollUntilDecoded(t *testing.T) {
	release := make(chan struct{})
	e := NewEngine(testRate, func([]byte) (*PCM, error) {
		<-release
		return constPCM(16, 1.0), nil
	}, nil)

	key := e.AddBuffer([]byte{1, 2, 3})
	if key != 1 {
		t.Fatalf("first sound key = %d, want 1", key)
	}
	if e.IsLoaded(key) {
		t.Fatal("loaded before decode completed")
	}

	close(release)
	waitLoaded(t, e, key)
}

func TestAddBuffer_DecodeErrorIsLoggedNotThrown(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	done := make(chan struct{})
	e := NewEngine(testRate, func([]byte) (*PCM, error) {
		defer close(done)
		return nil, decodeWAVError()
	}, zap.New(core))

	key := e.AddBuffer(nil)
	<-done
	time.Sleep(10 * time.Millisecond)

	if e.IsLoaded(key) {
		t.Fatal("failed decode reported loaded")
	}
	if logs.FilterMessage("audio decode failed").Len() != 1 {
		t.Fatal("decode failure not logged")
	}

	// Playing the failed sound degrades to a no-op.
	if pb := e.Play(key, 1, 1, 1, false); pb != 0 {
		t.Fatalf("play of failed sound returned %d", pb)
	}
}

// decodeWAVError produces a representative decode failure.
func decodeWAVError() error {
	_, err := DecodeWAV([]byte("not audio"))
	return err
}

func TestPlay_VolumeAppliedInstantlyAtStart(t *testing.T) {
	e, key := syncEngine(t, testRate)
	if pb := e.Play(key, 0.5, 0.25, 1.0, false); pb == 0 {
		t.Fatal("play failed")
	}

	out := make([]float32, 8)
	e.Render(out)
	if out[0] != 0.5 || out[1] != 0.25 {
		t.Fatalf("first frame = (%v, %v), want (0.5, 0.25)", out[0], out[1])
	}
}

func TestSetVolume_RampsNotSteps(t *testing.T) {
	e, key := syncEngine(t, testRate*2)
	pb := e.Play(key, 1.0, 1.0, 1.0, false)

	// Settle, then change volume; the change must glide.
	out := make([]float32, 64)
	e.Render(out)

	e.SetPlaybackVolume(pb, 0.2, 0.2)

	// Halfway through the ramp every sample is strictly between the old
	// and new volume.
	mid := make([]float32, 2*200)
	e.Render(mid)
	for i, v := range mid {
		if v <= 0.2 || v >= 1.0 {
			t.Fatalf("sample %d = %v, want strictly between 0.2 and 1.0", i, v)
		}
	}

	// The ramp ends within 1/120 s of output: 400 frames at 48 kHz.
	rest := make([]float32, 2*400)
	e.Render(rest)
	if got := rest[len(rest)-2]; got != 0.2 {
		t.Fatalf("post-ramp sample = %v, want 0.2", got)
	}
}

func TestPool_RecyclesSlots(t *testing.T) {
	e, key := syncEngine(t, 100)

	out := make([]float32, 2*256) // longer than the sound
	for i := 0; i < 5; i++ {
		if pb := e.Play(key, 1, 1, 1, false); pb == 0 {
			t.Fatalf("play %d failed", i)
		}
		e.Render(out) // runs the playback to its natural end
		if e.LivePlaybacks() != 0 {
			t.Fatalf("playback %d still live after natural end", i)
		}
	}

	// All five plays flowed through one recycled slot.
	if e.PoolSize() != 1 {
		t.Fatalf("pool grew to %d slots, want 1", e.PoolSize())
	}

	// Overlapping playbacks still grow the pool as needed.
	e.Play(key, 1, 1, 1, false)
	e.Play(key, 1, 1, 1, false)
	if e.PoolSize() != 2 || e.LivePlaybacks() != 2 {
		t.Fatalf("pool = %d live = %d, want 2/2", e.PoolSize(), e.LivePlaybacks())
	}
}

func TestStop_Idempotent(t *testing.T) {
	e, key := syncEngine(t, testRate)
	pb := e.Play(key, 1, 1, 1, true)

	e.StopPlayback(pb)
	if e.LivePlaybacks() != 0 {
		t.Fatal("playback live after stop")
	}
	// Double stop is a no-op, never an error.
	e.StopPlayback(pb)
	e.StopSound(key)
}

func TestStopSound_StopsAllPlaybacks(t *testing.T) {
	e, key := syncEngine(t, testRate)
	e.Play(key, 1, 1, 1, true)
	e.Play(key, 1, 1, 1, true)

	e.StopSound(key)
	if e.LivePlaybacks() != 0 {
		t.Fatalf("%d playbacks live after StopSound", e.LivePlaybacks())
	}
}

func TestLoop_WrapsInsteadOfEnding(t *testing.T) {
	e, key := syncEngine(t, 100)
	e.Play(key, 1, 1, 1, true)

	out := make([]float32, 2*512)
	e.Render(out)
	if e.LivePlaybacks() != 1 {
		t.Fatal("looping playback ended")
	}
	if v := out[len(out)-2]; v != 1.0 {
		t.Fatalf("looped sample = %v, want 1.0", v)
	}
}

func TestPlay_InvalidSpeedIsLoggedNoOp(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := NewEngine(testRate, func([]byte) (*PCM, error) {
		return constPCM(16, 1.0), nil
	}, zap.New(core))
	key := e.AddBuffer(nil)
	waitLoaded(t, e, key)

	bad := []float32{0, -1, float32(math.NaN()), float32(math.Inf(1))}
	for _, speed := range bad {
		if pk := e.Play(key, 1, 1, speed, true); pk != 0 {
			t.Fatalf("Play(speed=%v) = %d, want 0", speed, pk)
		}
	}
	if got := logs.FilterMessage("play with invalid speed").Len(); got != len(bad) {
		t.Fatalf("warnings = %d, want %d", got, len(bad))
	}

	// The refused plays left nothing to render.
	out := make([]float32, 64)
	e.Render(out)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("sample %d = %v, want silence", i, v)
		}
	}
}

func TestRender_EmptySoundFreesSlot(t *testing.T) {
	e, key := syncEngine(t, 0)
	if pk := e.Play(key, 1, 1, 1, true); pk == 0 {
		t.Fatal("play of empty sound refused")
	}

	out := make([]float32, 64)
	e.Render(out)
	if n := e.LivePlaybacks(); n != 0 {
		t.Fatalf("live playbacks after rendering empty sound = %d", n)
	}
	for i, v := range out {
		if v != 0 {
			t.Fatalf("sample %d = %v, want silence", i, v)
		}
	}
}

func TestDelete_RemovesSoundAndPlaybacks(t *testing.T) {
	e, key := syncEngine(t, testRate)
	e.Play(key, 1, 1, 1, true)

	e.Delete(key)
	if e.IsLoaded(key) {
		t.Fatal("deleted sound still loaded")
	}
	if e.LivePlaybacks() != 0 {
		t.Fatal("playback survived delete")
	}
}

func TestRead_ProducesFrames(t *testing.T) {
	e, key := syncEngine(t, testRate)
	e.Play(key, 1, 1, 1, false)

	buf := make([]byte, 64)
	n, err := e.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != 64 {
		t.Fatalf("Read = %d bytes, want 64", n)
	}
}
