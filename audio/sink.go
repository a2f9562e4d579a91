package audio

import (
	"io"

	"github.com/ebitengine/oto/v3"
)

// Sink pulls rendered frames and makes them audible. Headless hosts run
// without one.
type Sink interface {
	Start(r io.Reader) error
	Close() error
}

// OtoSink plays the engine's output through the platform audio device.
type OtoSink struct {
	ctx    *oto.Context
	player *oto.Player
}

// NewOtoSink opens the platform audio device for interleaved stereo
// float32 output at sampleRate.
func NewOtoSink(sampleRate int) (*OtoSink, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, err
	}
	<-ready
	return &OtoSink{ctx: ctx}, nil
}

// Start begins pulling frames from r.
func (s *OtoSink) Start(r io.Reader) error {
	s.player = s.ctx.NewPlayer(r)
	s.player.Play()
	return nil
}

// Close stops playback. Safe to call before Start.
func (s *OtoSink) Close() error {
	if s.player == nil {
		return nil
	}
	return s.player.Close()
}
