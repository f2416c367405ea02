// SPDX-License-Identifier: EPL-2.0

// Package audio provides the PCM primitives the player is built from.
//
//   - Source interface for decoded audio
//   - Resampler for sample rate conversion
//   - ChannelMixer for channel layout conversion
//   - Registry for decoder lookup by content and file extension
//   - Collect for draining a source into memory
//
// # Source Interface
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Decoders and processors all implement Source, so they chain. Sources that
// know their length also implement Lengther.
//
// # Resampling
//
//	resampler := audio.NewResampler(source, 48000)
//	n, err := resampler.ReadSamples(buf)
//
// Cubic interpolation is used in both directions; a one-pole low-pass runs
// on the input when downsampling. Resample skips the wrapper when the rate
// already matches.
//
// # Channel Mixing
//
//	stereo, err := audio.NewChannelMixer(source, 2)
//
// Mono is duplicated, stereo averaged down, and wider layouts folded
// channel by channel. See ChannelMixer for the exact rule.
//
// # Format Registry
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{}, "wav", "wave")
//	format, src, err := registry.Open(file, file.Name())
//
// Open sniffs the first SniffLen bytes against every decoder that
// implements Sniffer, in registration order, and falls back to the file
// extension.
//
// # Sample Format
//
// Samples are float32 in [-1.0, 1.0], interleaved by frame.
//
// # Error Handling
//
// ReadSamples returns io.EOF when no more data is available, possibly
// together with the final samples:
//
//	for {
//	    n, err := source.ReadSamples(buf)
//	    process(buf[:n])
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	}
package audio
