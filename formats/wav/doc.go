// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and encodes WAV files on top of github.com/go-audio/wav.
//
// # Decoding
//
// Integer PCM at 8, 16, 24 and 32 bits is supported, with any channel count
// and sample rate:
//
//	file, _ := os.Open("audio.wav")
//	source, err := wav.Decoder{}.Decode(file)
//
// The returned audio.Source yields float32 samples in [-1.0, 1.0] and knows
// its length in frames. Inputs that are not an io.ReadSeeker are buffered in
// memory first.
//
// # Encoding
//
// WriteWAV16 writes a whole 16-bit file in one call to any io.Writer:
//
//	err := wav.WriteWAV16(file, 48000, 2, samples)
//
// Writer streams float32 frames into an io.WriteSeeker and patches the
// header on Close:
//
//	w, _ := wav.NewWriter(file, 48000, 2)
//	_ = w.WriteFloat32(buf)
//	_ = w.Close()
//
// # Errors
//
//   - ErrNotWavFile: no RIFF/WAVE header
//   - ErrUnsupportedEncoding: not integer PCM (IEEE float, ADPCM, ...)
//   - ErrUnsupportedBitDepth: not 8, 16, 24 or 32 bits
//   - ErrUnsupportedWavLayout: no data chunk could be found
package wav
