// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ik5/mixplayer/formats/wav"
)

func openNull(t *testing.T, opts ...Option) Backend {
	t.Helper()

	b, err := Open(NullName, append([]Option{WithPeriod(time.Millisecond)}, opts...)...)
	if err != nil {
		t.Fatalf("Open(null) error = %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNull_Devices(t *testing.T) {
	t.Parallel()

	b := openNull(t)
	if b.Name() != NullName {
		t.Errorf("Name() = %q, want %q", b.Name(), NullName)
	}

	devices, err := b.Devices()
	if err != nil {
		t.Fatal(err)
	}
	if len(devices) != 1 || devices[0].Index != 0 || !devices[0].Default {
		t.Errorf("Devices() = %+v, want one default device", devices)
	}
}

func TestNull_OpenUnknownDevice(t *testing.T) {
	t.Parallel()

	b := openNull(t)
	_, err := b.Open(Device{Index: 1}, DefaultFormat, func([]float32) {})
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Open(1) error = %v, want ErrDeviceNotFound", err)
	}
}

func TestNull_StreamFills(t *testing.T) {
	t.Parallel()

	b := openNull(t)
	var calls atomic.Int64
	var size atomic.Int64

	s, err := b.Open(DefaultDevice, DefaultFormat, func(out []float32) {
		size.Store(int64(len(out)))
		calls.Add(1)
	})
	if err != nil {
		t.Fatal(err)
	}

	if calls.Load() != 0 {
		t.Error("fill called before Start")
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	waitFor(t, func() bool { return calls.Load() >= 3 })
	if got := size.Load(); got != int64(DefaultFormat.Samples()) {
		t.Errorf("fill buffer = %d samples, want %d", got, DefaultFormat.Samples())
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	after := calls.Load()
	time.Sleep(10 * time.Millisecond)
	if calls.Load() != after {
		t.Error("fill called after Close returned")
	}

	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := s.Start(); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("Start() after Close error = %v, want ErrStreamClosed", err)
	}
}

func TestNull_BackendCloseStopsStreams(t *testing.T) {
	t.Parallel()

	b := openNull(t)
	var calls atomic.Int64
	s, err := b.Open(DefaultDevice, DefaultFormat, func([]float32) { calls.Add(1) })
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return calls.Load() > 0 })

	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	after := calls.Load()
	time.Sleep(10 * time.Millisecond)
	if calls.Load() != after {
		t.Error("stream still rendering after backend Close")
	}

	if _, err := b.Devices(); !errors.Is(err, ErrBackendClosed) {
		t.Errorf("Devices() error = %v, want ErrBackendClosed", err)
	}
	if _, err := b.Open(DefaultDevice, DefaultFormat, func([]float32) {}); !errors.Is(err, ErrBackendClosed) {
		t.Errorf("Open() error = %v, want ErrBackendClosed", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestNull_Capture(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	b, err := Open(NullName, WithPeriod(time.Millisecond), WithCapture(f))
	if err != nil {
		t.Fatal(err)
	}

	format := Format{SampleRate: 8000, Channels: 2, BufferFrames: 16}
	var calls atomic.Int64
	s, err := b.Open(DefaultDevice, format, func(out []float32) {
		for i := range out {
			out[i] = 0.5
		}
		calls.Add(1)
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return calls.Load() >= 4 })

	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	in, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()

	src, err := wav.Decoder{}.Decode(in)
	if err != nil {
		t.Fatalf("decoding capture: %v", err)
	}
	if src.SampleRate() != 8000 || src.Channels() != 2 {
		t.Errorf("capture format = %d Hz %d ch, want 8000 Hz 2 ch", src.SampleRate(), src.Channels())
	}

	buf := make([]float32, 64)
	n, _ := src.ReadSamples(buf)
	if n != 64 {
		t.Fatalf("read %d samples from capture, want 64", n)
	}
	for i, v := range buf {
		if v < 0.49 || v > 0.51 {
			t.Fatalf("captured sample %d = %v, want ~0.5", i, v)
		}
	}
}
