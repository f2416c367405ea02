// SPDX-License-Identifier: EPL-2.0

// Package engine binds the player to an audio output library.
//
// A Backend enumerates output devices and opens a Stream on one of them.
// Streams pull PCM: the backend calls the FillFunc from its own audio
// thread whenever the device needs another buffer, and the callee must
// write exactly len(out) interleaved float32 samples without blocking.
//
// Backends are selected by name:
//
//	b, err := engine.Open("malgo", engine.WithLogger(logger))
//	s, err := b.Open(engine.DefaultDevice, engine.DefaultFormat, fill)
//	err = s.Start()
//
// malgo (miniaudio), portaudio and oto need cgo. Without it they are
// registered as stubs failing with ErrBackendUnavailable, and the default
// backend falls back to null, which renders on a ticker and can capture the
// output to a WAV file.
package engine
