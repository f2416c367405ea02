// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III files into an audio.Source using
// github.com/hajimehoshi/go-mp3.
//
//	src, err := mp3.Decoder{}.Decode(f)
//	if err != nil {
//		return err
//	}
//	defer src.Close()
//
// go-mp3 always yields 16-bit stereo, duplicating mono files, at the file's
// sample rate. Samples are converted to float32 in [-1, 1]; an odd trailing
// byte from a short read is carried into the next call.
//
// Frames is known only for seekable input, where go-mp3 scans the stream up
// front. Sniff accepts an ID3v2 tag or a bare frame sync word.
package mp3
