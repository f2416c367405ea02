// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// ChannelMixer converts the channel layout of a source.
//
// Output channel c is the average of every input channel i with i%out == c.
// When no input channel maps onto c (upmixing), input channel c%in is
// copied. So mono is duplicated, stereo is averaged to mono, and
// 5.1 folds even channels left and odd channels right.
type ChannelMixer struct {
	src Source
	in  int
	out int
	tmp []float32
}

func NewChannelMixer(src Source, channels int) (*ChannelMixer, error) {
	if channels < 1 || src.Channels() < 1 {
		return nil, ErrInvalidChannels
	}

	return &ChannelMixer{
		src: src,
		in:  src.Channels(),
		out: channels,
		tmp: make([]float32, 4096),
	}, nil
}

// NewMonoMixer averages every channel of src into one.
func NewMonoMixer(src Source) (*ChannelMixer, error) {
	return NewChannelMixer(src, 1)
}

// Remix returns src unchanged when it already has the requested layout.
func Remix(src Source, channels int) (Source, error) {
	if src.Channels() == channels {
		return src, nil
	}
	return NewChannelMixer(src, channels)
}

func (m *ChannelMixer) SampleRate() int { return m.src.SampleRate() }
func (m *ChannelMixer) Channels() int   { return m.out }
func (m *ChannelMixer) BufSize() int    { return m.src.BufSize() }
func (m *ChannelMixer) Frames() int64   { return FramesOf(m.src) }

func (m *ChannelMixer) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("channel mixer: %w", err)
	}
	return nil
}

// ReadSamples fills dst with whole output frames and returns the number of
// samples written.
func (m *ChannelMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst)%m.out != 0 {
		return 0, ErrInvalidDstSize
	}
	if len(dst) == 0 {
		return 0, nil
	}
	if m.in == m.out {
		return m.src.ReadSamples(dst)
	}

	needed := len(dst) / m.out * m.in
	if cap(m.tmp) < needed {
		m.tmp = make([]float32, max(needed, 8192))
	}
	m.tmp = m.tmp[:needed]

	n, err := m.src.ReadSamples(m.tmp)
	frames := n / m.in
	if frames == 0 {
		return 0, err
	}

	switch {
	case m.in == 1:
		for f := range frames {
			v := m.tmp[f]
			base := f * m.out
			for c := range m.out {
				dst[base+c] = v
			}
		}
	case m.in == 2 && m.out == 1:
		for f := range frames {
			idx := f << 1
			dst[f] = (m.tmp[idx] + m.tmp[idx+1]) * 0.5
		}
	default:
		m.fold(dst, frames)
	}

	return frames * m.out, err
}

func (m *ChannelMixer) fold(dst []float32, frames int) {
	for f := range frames {
		frame := m.tmp[f*m.in : (f+1)*m.in]
		out := dst[f*m.out : (f+1)*m.out]

		for c := range out {
			var sum float32
			count := 0
			for i := c; i < m.in; i += m.out {
				sum += frame[i]
				count++
			}
			if count == 0 {
				out[c] = frame[c%m.in]
				continue
			}
			out[c] = sum / float32(count)
		}
	}
}
