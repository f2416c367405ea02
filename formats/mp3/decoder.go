// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/mixplayer/audio"
	"github.com/ik5/mixplayer/utils"
)

// go-mp3 always yields 16-bit little-endian stereo
const (
	channels      = 2
	bytesPerFrame = channels * 2
)

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
	Length() int64
}

type source struct {
	dec        mp3Reader
	sampleRate int
	buf        []byte
	rest       [bytesPerFrame]byte // partial frame carried to the next read
	restLen    int
	eof        bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return cap(s.buf) / 2 } // return sample capacity, not bytes

// Frames is derived from the decoded byte length, which go-mp3 only knows
// when the input can seek.
func (s *source) Frames() int64 {
	n := s.dec.Length()
	if n < 0 {
		return -1
	}
	return n / bytesPerFrame
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if s.eof {
		return 0, io.EOF
	}
	want := len(dst) - len(dst)%channels
	if want == 0 {
		return 0, nil
	}

	bytesNeeded := want * 2
	if cap(s.buf) < bytesNeeded {
		s.buf = make([]byte, bytesNeeded)
	}
	s.buf = s.buf[:bytesNeeded]

	filled := copy(s.buf, s.rest[:s.restLen])
	n, err := s.dec.Read(s.buf[filled:])
	filled += n
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("mp3: %w", err)
	}

	usable := filled - filled%bytesPerFrame
	s.restLen = copy(s.rest[:], s.buf[usable:filled])

	samples := usable / 2
	for i := range samples {
		dst[i] = utils.Int16ToFloat32(int16(binary.LittleEndian.Uint16(s.buf[2*i:])))
	}

	if err == io.EOF {
		s.eof = true
		return samples, io.EOF
	}
	return samples, nil
}

type Decoder struct{}

// Sniff matches an ID3v2 tag or an MPEG audio frame sync word.
func (Decoder) Sniff(header []byte) bool {
	if audio.HasMagic(header, 0, "ID3") {
		return true
	}
	if len(header) < 2 {
		return false
	}
	// 11 sync bits and a non-reserved layer, which rules out ADTS AAC
	return header[0] == 0xFF && header[1]&0xE0 == 0xE0 && header[1]&0x06 != 0
}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		buf:        make([]byte, 8192),
	}, nil
}
