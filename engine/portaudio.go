// SPDX-License-Identifier: EPL-2.0

//go:build cgo

package engine

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
)

// PortAudioName selects the PortAudio backend.
const PortAudioName = "portaudio"

func init() {
	register(PortAudioName, newPortAudio)
}

type portAudioBackend struct {
	log *log.Logger

	mtx    sync.Mutex
	closed bool
}

func newPortAudio(o *options) (Backend, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &portAudioBackend{log: o.logger}, nil
}

func (b *portAudioBackend) Name() string { return PortAudioName }

// outputs lists devices with at least one output channel, in host order.
func (b *portAudioBackend) outputs() ([]*portaudio.DeviceInfo, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if b.closed {
		return nil, ErrBackendClosed
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	outputs := make([]*portaudio.DeviceInfo, 0, len(devices))
	for _, dev := range devices {
		if dev.MaxOutputChannels > 0 {
			outputs = append(outputs, dev)
		}
	}
	return outputs, nil
}

func (b *portAudioBackend) Devices() ([]Device, error) {
	outputs, err := b.outputs()
	if err != nil {
		return nil, err
	}

	defaultOutput, err := portaudio.DefaultOutputDevice()
	if err != nil {
		// no default is not fatal for listing
		defaultOutput = nil
	}

	devices := make([]Device, len(outputs))
	for i, dev := range outputs {
		devices[i] = Device{
			Index:   i,
			Name:    dev.Name,
			Default: sameDevice(dev, defaultOutput),
		}
	}
	return devices, nil
}

// sameDevice matches portaudio's cached device pointers, falling back to name
// and host API since device names repeat across host APIs.
func sameDevice(a, b *portaudio.DeviceInfo) bool {
	switch {
	case a == nil || b == nil:
		return false
	case a == b:
		return true
	case a.HostApi == nil || b.HostApi == nil:
		return false
	}
	return a.Name == b.Name && a.HostApi.Name == b.HostApi.Name
}

func (b *portAudioBackend) Open(dev Device, f Format, fill FillFunc) (Stream, error) {
	var info *portaudio.DeviceInfo
	switch {
	case dev.Index < 0:
		def, err := portaudio.DefaultOutputDevice()
		if err != nil {
			return nil, fmt.Errorf("failed to get default output device: %w", err)
		}
		info = def
	default:
		outputs, err := b.outputs()
		if err != nil {
			return nil, err
		}
		if dev.Index >= len(outputs) {
			return nil, fmt.Errorf("%w: index %d", ErrDeviceNotFound, dev.Index)
		}
		info = outputs[dev.Index]
	}

	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: f.Channels,
			Latency:  info.DefaultLowOutputLatency,
		},
		SampleRate:      float64(f.SampleRate),
		FramesPerBuffer: f.BufferFrames,
	}

	stream, err := portaudio.OpenStream(params, func(out []float32) {
		fill(out)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open stream on %q: %w", info.Name, err)
	}

	b.log.Debug("device opened", "device", info.Name, "latency", info.DefaultLowOutputLatency)
	return &portAudioStream{stream: stream}, nil
}

func (b *portAudioBackend) Close() error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

type portAudioStream struct {
	stream *portaudio.Stream

	mtx     sync.Mutex
	started bool
	closed  bool
}

func (s *portAudioStream) Start() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.closed {
		return ErrStreamClosed
	}
	if s.started {
		return nil
	}
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("failed to start stream: %w", err)
	}
	s.started = true
	return nil
}

func (s *portAudioStream) Close() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.started {
		if err := s.stream.Stop(); err != nil {
			_ = s.stream.Close()
			return fmt.Errorf("failed to stop stream: %w", err)
		}
	}
	if err := s.stream.Close(); err != nil {
		return fmt.Errorf("failed to close stream: %w", err)
	}
	return nil
}
