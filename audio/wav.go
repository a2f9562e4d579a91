package audio

import (
	"encoding/binary"

	"github.com/quadkit/quadhost/errors"
)

// DecodeWAV decodes 16-bit PCM RIFF/WAVE data. It is the default decoder;
// hosts with richer format needs install their own Decoder.
func DecodeWAV(data []byte) (*PCM, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, errors.New(errors.PhaseAudio, errors.KindInvalidData).
			Detail("not a RIFF/WAVE stream").Build()
	}

	var (
		channels   int
		sampleRate int
		bits       int
		format     int
		samples    []byte
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			break
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, errors.New(errors.PhaseAudio, errors.KindInvalidData).
					Detail("truncated fmt chunk").Build()
			}
			format = int(binary.LittleEndian.Uint16(data[body:]))
			channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			bits = int(binary.LittleEndian.Uint16(data[body+14:]))
		case "data":
			samples = data[body : body+size]
		}
		// Chunks are word-aligned.
		pos = body + size + (size & 1)
	}

	if format != 1 || bits != 16 {
		return nil, errors.New(errors.PhaseAudio, errors.KindUnsupported).
			Detail("only 16-bit PCM supported, got format %d bits %d", format, bits).Build()
	}
	if channels < 1 || channels > 2 || sampleRate == 0 || samples == nil {
		return nil, errors.New(errors.PhaseAudio, errors.KindInvalidData).
			Detail("missing fmt or data chunk").Build()
	}

	frameCount := len(samples) / (2 * channels)
	left := make([]float32, frameCount)
	right := left
	if channels == 2 {
		right = make([]float32, frameCount)
	}
	for i := 0; i < frameCount; i++ {
		off := i * 2 * channels
		left[i] = float32(int16(binary.LittleEndian.Uint16(samples[off:]))) / 32768
		if channels == 2 {
			right[i] = float32(int16(binary.LittleEndian.Uint16(samples[off+2:]))) / 32768
		}
	}

	return &PCM{Left: left, Right: right, SampleRate: sampleRate}, nil
}
