// SPDX-License-Identifier: EPL-2.0

// Package aiff provides AIFF (Audio Interchange File Format) decoding.
//
// This package uses github.com/go-audio/aiff to decode AIFF files, the
// uncompressed format common on macOS.
//
// # Supported Formats
//
//   - AIFF and uncompressed AIFC
//   - PCM 8, 16, 24 and 32-bit
//   - Mono and multi-channel
//   - Any sample rate
//
// # Decoding AIFF Files
//
//	file, _ := os.Open("audio.aif")
//	source, err := aiff.Decoder{}.Decode(file)
//	if err != nil {
//	    // Handle error
//	}
//
//	// Read samples as float32 in range [-1.0, 1.0]
//	buf := make([]float32, 4096)
//	n, err := source.ReadSamples(buf)
//
// go-audio needs an io.ReadSeeker; other readers are buffered in memory.
//
// # Errors
//
//   - ErrNotAiffFile: the input has no valid FORM/AIFF header
//   - ErrUnsupportedBitDepth: sample size other than 8, 16, 24 or 32
//   - ErrUnsupportedAiffLayout: the COMM chunk is unusable
package aiff
