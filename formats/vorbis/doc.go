// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis files into an audio.Source using
// github.com/jfreymuth/oggvorbis.
//
// The decoder is registered under "vorbis" for the .ogg and .oga extensions
// and sniffs the "OggS" page signature, so a player registry picks it even
// when the file is misnamed:
//
//	reg := audio.NewRegistry()
//	reg.Register("vorbis", vorbis.Decoder{}, "ogg", "oga")
//	name, src, err := reg.Open(f, f.Name())
//
// Channel count and sample rate are those of the stream. Frames reports -1
// unless the input implements io.Seeker.
package vorbis
