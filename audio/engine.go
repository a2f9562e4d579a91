package audio

import (
	"encoding/binary"
	"io"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/quadkit/quadhost/errors"
)

// rampDuration is the fraction of a second a volume change glides over.
const rampDuration = 1.0 / 120

// PCM is decoded audio: one float32 slice per channel in [-1, 1]. Mono
// sources set Right to the same slice as Left.
type PCM struct {
	Left       []float32
	Right      []float32
	SampleRate int
}

// Decoder turns encoded bytes into PCM. Decoding runs on its own goroutine;
// the guest observes completion only through IsLoaded.
type Decoder func(data []byte) (*PCM, error)

// gain is one channel's volume with linear ramping. current glides toward
// target one step per rendered sample.
type gain struct {
	current   float32
	target    float32
	step      float32
	remaining int
}

func (g *gain) set(target float32, rampSamples int) {
	g.target = target
	if rampSamples <= 0 {
		g.current = target
		g.remaining = 0
		return
	}
	g.step = (target - g.current) / float32(rampSamples)
	g.remaining = rampSamples
}

func (g *gain) next() float32 {
	if g.remaining > 0 {
		g.current += g.step
		g.remaining--
		if g.remaining == 0 {
			g.current = g.target
		}
	}
	return g.current
}

// sound owns one decoded buffer. pcm stays nil while the decode is in
// flight; failed marks a decode error, which leaves IsLoaded false forever.
type sound struct {
	pcm    *PCM
	failed bool
}

// playback is one reusable mixing slot. soundKey == 0 marks a free slot
// eligible for reuse by the next Play call.
type playback struct {
	soundKey    uint32
	playbackKey uint32
	pos         float64
	speed       float32
	loop        bool
	left        gain
	right       gain
}

// Engine mixes pooled playbacks into interleaved stereo float32 frames.
type Engine struct {
	sounds       map[uint32]*sound
	pool         []*playback
	decoder      Decoder
	log          *zap.Logger
	sampleRate   int
	nextSound    uint32
	nextPlayback uint32
	mu           sync.Mutex
}

// NewEngine creates an engine rendering at sampleRate. A nil decoder uses
// the WAV decoder.
func NewEngine(sampleRate int, decoder Decoder, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if decoder == nil {
		decoder = DecodeWAV
	}
	return &Engine{
		sounds:       make(map[uint32]*sound),
		decoder:      decoder,
		log:          log,
		sampleRate:   sampleRate,
		nextSound:    1,
		nextPlayback: 1,
	}
}

func (e *Engine) rampSamples() int {
	return int(float64(e.sampleRate) * rampDuration)
}

// AddBuffer allocates a sound key and starts an asynchronous decode. The
// returned key is live immediately; the slot fills in when the decode
// completes.
func (e *Engine) AddBuffer(data []byte) uint32 {
	e.mu.Lock()
	key := e.nextSound
	e.nextSound++
	e.sounds[key] = &sound{}
	e.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)

	go func() {
		pcm, err := e.decoder(buf)

		e.mu.Lock()
		defer e.mu.Unlock()
		s, ok := e.sounds[key]
		if !ok {
			// Deleted before the decode finished.
			return
		}
		if err != nil {
			s.failed = true
			e.log.Error("audio decode failed",
				zap.Uint32("sound", key),
				zap.Error(errors.AsyncFailed(errors.PhaseAudio, "decode", err)))
			return
		}
		s.pcm = pcm
	}()

	return key
}

// IsLoaded polls decode completion.
func (e *Engine) IsLoaded(key uint32) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sounds[key]
	return ok && s.pcm != nil
}

// Play starts a sound through a recycled playback slot, or grows the pool
// by one slot when none is free. Playing an unloaded or unknown sound is a
// logged no-op returning 0.
func (e *Engine) Play(soundKey uint32, volL, volR, speed float32, loop bool) uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sounds[soundKey]
	if !ok || s.pcm == nil {
		e.log.Warn("play of unloaded sound", zap.Uint32("sound", soundKey))
		return 0
	}
	// A non-positive or non-finite speed would walk the sample cursor
	// out of the buffer.
	if !(speed > 0) || math.IsInf(float64(speed), 1) {
		e.log.Warn("play with invalid speed",
			zap.Uint32("sound", soundKey),
			zap.Float32("speed", speed))
		return 0
	}

	// Scan the current pool snapshot for a free slot.
	var slot *playback
	for _, p := range e.pool {
		if p.soundKey == 0 {
			slot = p
			break
		}
	}
	if slot == nil {
		slot = &playback{}
		e.pool = append(e.pool, slot)
	}

	key := e.nextPlayback
	e.nextPlayback++

	*slot = playback{
		soundKey:    soundKey,
		playbackKey: key,
		speed:       speed,
		loop:        loop,
	}
	// Initial volume applies instantly; only changes ramp.
	slot.left.set(volL, 0)
	slot.right.set(volR, 0)
	return key
}

// SetSoundVolume ramps the volume of every live playback of a sound.
func (e *Engine) SetSoundVolume(soundKey uint32, volL, volR float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ramp := e.rampSamples()
	found := false
	for _, p := range e.pool {
		if p.soundKey == soundKey {
			p.left.set(volL, ramp)
			p.right.set(volR, ramp)
			found = true
		}
	}
	if !found {
		e.log.Warn("volume change for silent sound", zap.Uint32("sound", soundKey))
	}
}

// SetPlaybackVolume ramps the volume of one playback.
func (e *Engine) SetPlaybackVolume(playbackKey uint32, volL, volR float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ramp := e.rampSamples()
	for _, p := range e.pool {
		if p.soundKey != 0 && p.playbackKey == playbackKey {
			p.left.set(volL, ramp)
			p.right.set(volR, ramp)
			return
		}
	}
	e.log.Warn("volume change for dead playback", zap.Uint32("playback", playbackKey))
}

// StopSound stops every live playback of a sound. Stopping an already-silent
// sound is a logged no-op.
func (e *Engine) StopSound(soundKey uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	stopped := false
	for _, p := range e.pool {
		if p.soundKey == soundKey {
			e.freeSlot(p)
			stopped = true
		}
	}
	if !stopped {
		e.log.Debug("stop of silent sound", zap.Uint32("sound", soundKey))
	}
}

// StopPlayback stops one playback. A double stop is a logged no-op, never
// an error.
func (e *Engine) StopPlayback(playbackKey uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range e.pool {
		if p.soundKey != 0 && p.playbackKey == playbackKey {
			e.freeSlot(p)
			return
		}
	}
	e.log.Debug("stop of dead playback", zap.Uint32("playback", playbackKey))
}

// Delete removes a sound and stops its playbacks. An in-flight decode for
// the key is discarded when it lands.
func (e *Engine) Delete(soundKey uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range e.pool {
		if p.soundKey == soundKey {
			e.freeSlot(p)
		}
	}
	delete(e.sounds, soundKey)
}

// freeSlot detaches a playback and marks its slot free. Callers hold mu.
func (e *Engine) freeSlot(p *playback) {
	*p = playback{}
}

// PoolSize returns the total number of slots, free ones included.
func (e *Engine) PoolSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pool)
}

// LivePlaybacks returns the number of occupied slots.
func (e *Engine) LivePlaybacks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, p := range e.pool {
		if p.soundKey != 0 {
			n++
		}
	}
	return n
}

// Render mixes frames into dst, an interleaved stereo buffer whose length
// must be even. Playbacks that reach their natural end free their slots.
func (e *Engine) Render(dst []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range dst {
		dst[i] = 0
	}

	for _, p := range e.pool {
		if p.soundKey == 0 {
			continue
		}
		s, ok := e.sounds[p.soundKey]
		if !ok || s.pcm == nil {
			e.freeSlot(p)
			continue
		}
		pcm := s.pcm
		n := len(pcm.Left)
		if n == 0 {
			// A zero-length data chunk decodes to this; nothing to
			// render, looping or not.
			e.freeSlot(p)
			continue
		}
		step := float64(p.speed) * float64(pcm.SampleRate) / float64(e.sampleRate)

		for f := 0; f+1 < len(dst); f += 2 {
			if p.pos >= float64(n) {
				if !p.loop {
					e.freeSlot(p)
					break
				}
				p.pos = math.Mod(p.pos, float64(n))
			}
			idx := int(p.pos)
			dst[f] += pcm.Left[idx] * p.left.next()
			dst[f+1] += pcm.Right[idx] * p.right.next()
			p.pos += step
		}
	}
}

// Read implements io.Reader, producing little-endian float32 frames for a
// pull-based sink. Reads shorter than one frame return io.ErrShortBuffer.
func (e *Engine) Read(buf []byte) (int, error) {
	frames := len(buf) / 8
	if frames == 0 {
		return 0, io.ErrShortBuffer
	}
	scratch := make([]float32, frames*2)
	e.Render(scratch)
	for i, v := range scratch {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return frames * 8, nil
}
