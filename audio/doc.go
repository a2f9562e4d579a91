// Package audio is the audio sub-bridge: asynchronous buffer decoding
// observed by polling, and a stereo mixing engine with a pool of reusable
// playback slots.
//
// AddBuffer starts a decode and immediately returns a key; the guest polls
// IsLoaded once per frame until the decode lands. Play recycles a free
// playback slot, wiring the decoded source through per-channel gains into
// the mix. Volume changes ramp linearly over about 1/120 s of output rather
// than stepping, to avoid audible clicks. A playback that reaches its
// natural end frees its slot for reuse.
//
// The engine renders interleaved stereo float32 frames through io.Reader;
// a Sink (the oto-backed one in this package, or anything else that pulls
// the reader) turns that into audible output. Tests render directly.
package audio
