// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
)

// Collect drains src into one interleaved slice. A clean end of stream is
// not reported as an error. When src knows its length the result is
// allocated once.
func Collect(src Source, bufSize int) ([]float32, error) {
	channels := src.Channels()
	if channels < 1 {
		return nil, ErrInvalidChannels
	}
	bufSize = max(bufSize-bufSize%channels, channels)

	estimated := channels * src.SampleRate() * 2 // ~2 seconds
	if frames := FramesOf(src); frames > 0 {
		estimated = int(frames) * channels
	}

	out := make([]float32, 0, estimated)
	buf := make([]float32, bufSize)
	empty := 0

	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			empty = 0
			out = append(out, buf[:n]...)
		}

		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("collect: %w", err)
		}

		if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				return nil, fmt.Errorf("collect: %w", io.ErrNoProgress)
			}
		}
	}
}
