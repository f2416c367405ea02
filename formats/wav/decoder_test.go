// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
)

// createWAVFile builds a canonical 44-byte header WAV around raw PCM bytes.
func createWAVFile(sampleRate, channels, bitsPerSample, formatTag int, data []byte) []byte {
	buf := new(bytes.Buffer)
	blockAlign := channels * bitsPerSample / 8

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(formatTag))
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)

	return buf.Bytes()
}

func encode16(t *testing.T, sampleRate, channels int, samples []int16) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	if err := WriteWAV16(buf, sampleRate, channels, samples); err != nil {
		t.Fatalf("WriteWAV16() error = %v", err)
	}
	return buf.Bytes()
}

func readAll(t *testing.T, r io.Reader) ([]float32, int, int, int64) {
	t.Helper()

	src, err := Decoder{}.Decode(r)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	defer src.Close()

	var out []float32
	buf := make([]float32, 6)
	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}

	return out, src.SampleRate(), src.Channels(), src.(*source).Frames()
}

func TestDecoder_PCM16(t *testing.T) {
	t.Parallel()

	samples := []int16{0, 16384, -16384, 32767, -32768, 100, 200}
	out, rate, channels, frames := readAll(t, bytes.NewReader(encode16(t, 8000, 1, samples)))

	if rate != 8000 || channels != 1 {
		t.Errorf("format = %d Hz %d ch, want 8000 Hz 1 ch", rate, channels)
	}
	if frames != int64(len(samples)) {
		t.Errorf("Frames() = %d, want %d", frames, len(samples))
	}
	if len(out) != len(samples) {
		t.Fatalf("read %d samples, want %d", len(out), len(samples))
	}
	for i, s := range samples {
		if want := float32(s) / 32768; out[i] != want {
			t.Errorf("sample %d = %v, want %v", i, out[i], want)
		}
	}
}

func TestDecoder_Stereo(t *testing.T) {
	t.Parallel()

	samples := []int16{100, 200, 300, 400, 500, 600, 700, 800}
	out, rate, channels, frames := readAll(t, bytes.NewReader(encode16(t, 44100, 2, samples)))

	if rate != 44100 || channels != 2 {
		t.Errorf("format = %d Hz %d ch, want 44100 Hz 2 ch", rate, channels)
	}
	if frames != 4 {
		t.Errorf("Frames() = %d, want 4", frames)
	}
	if len(out) != 8 {
		t.Errorf("read %d samples, want 8", len(out))
	}
}

func TestDecoder_BitDepths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		bits int
		data []byte
		want []float32
	}{
		{
			name: "8-bit unsigned",
			bits: 8,
			data: []byte{0, 128, 192},
			want: []float32{-1, 0, 0.5},
		},
		{
			name: "24-bit",
			bits: 24,
			data: []byte{0x00, 0x00, 0x40, 0x00, 0x00, 0xC0},
			want: []float32{0.5, -0.5},
		},
		{
			name: "32-bit",
			bits: 32,
			data: []byte{0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x00},
			want: []float32{0.5, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			wavData := createWAVFile(22050, 1, tt.bits, formatPCM, tt.data)
			out, _, _, frames := readAll(t, bytes.NewReader(wavData))

			if frames != int64(len(tt.want)) {
				t.Errorf("Frames() = %d, want %d", frames, len(tt.want))
			}
			if len(out) != len(tt.want) {
				t.Fatalf("read %v, want %v", out, tt.want)
			}
			for i := range out {
				if math.Abs(float64(out[i]-tt.want[i])) > 1e-6 {
					t.Errorf("sample %d = %v, want %v", i, out[i], tt.want[i])
				}
			}
		})
	}
}

func TestDecoder_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{name: "not riff", data: []byte("NOT A WAV FILE DATA"), want: ErrNotWavFile},
		{name: "empty", data: nil, want: ErrNotWavFile},
		{name: "aiff container", data: []byte("FORM\x00\x00\x00\x00AIFFCOMM"), want: ErrNotWavFile},
		{name: "ieee float", data: createWAVFile(8000, 1, 32, 3, make([]byte, 8)), want: ErrUnsupportedEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decoder{}.Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecoder_NonSeekableReader(t *testing.T) {
	t.Parallel()

	wavData := encode16(t, 16000, 1, []int16{1, 2, 3})
	out, rate, _, _ := readAll(t, io.MultiReader(bytes.NewReader(wavData)))

	if rate != 16000 || len(out) != 3 {
		t.Errorf("got %d samples at %d Hz, want 3 at 16000", len(out), rate)
	}
}

func TestDecoder_EmptyData(t *testing.T) {
	t.Parallel()

	out, _, _, frames := readAll(t, bytes.NewReader(encode16(t, 8000, 2, nil)))
	if frames != 0 || len(out) != 0 {
		t.Errorf("got %d frames, %d samples, want none", frames, len(out))
	}
}

func TestDecoder_Sniff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   bool
	}{
		{header: "RIFF\x24\x00\x00\x00WAVE", want: true},
		{header: "RIFF\x24\x00\x00\x00AVI ", want: false},
		{header: "RIFF", want: false},
		{header: "ID3\x04", want: false},
	}

	for _, tt := range tests {
		if got := (Decoder{}).Sniff([]byte(tt.header)); got != tt.want {
			t.Errorf("Sniff(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

func BenchmarkDecoder_ReadSamples(b *testing.B) {
	samples := make([]int16, 48000*2)
	buf := new(bytes.Buffer)
	_ = WriteWAV16(buf, 48000, 2, samples)
	wavData := buf.Bytes()
	dst := make([]float32, 4096)

	b.ReportAllocs()
	for range b.N {
		src, err := Decoder{}.Decode(bytes.NewReader(wavData))
		if err != nil {
			b.Fatal(err)
		}
		for {
			if _, err := src.ReadSamples(dst); err != nil {
				break
			}
		}
	}
}
