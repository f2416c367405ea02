// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// SniffLen is the number of leading bytes handed to Sniffer implementations.
const SniffLen = 12

type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames). When n == 0 with err == io.EOF, the stream is finished.
	ReadSamples(dst []float32) (n int, err error)

	BufSize() int

	// Close releases any resources.
	Close() error
}

// Lengther is implemented by sources that know their length up front.
// Frames returns -1 when the length is unknown.
type Lengther interface {
	Frames() int64
}

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Sniffer is implemented by decoders that recognise their container from
// the first SniffLen bytes of a stream.
type Sniffer interface {
	Sniff(header []byte) bool
}

// FramesOf reports the length of src in frames, or -1.
func FramesOf(src Source) int64 {
	if l, ok := src.(Lengther); ok {
		return l.Frames()
	}
	return -1
}

// Registry for decoders by format key (e.g., "wav", "mp3", "vorbis"), with
// file extensions mapped onto those keys.
type Registry struct {
	codecs map[string]Decoder
	exts   map[string]string
	order  []string

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Decoder),
		exts:   make(map[string]string),
		mtx:    &sync.Mutex{},
	}
}

// Register adds d under format. Extensions are matched case-insensitively,
// with or without the leading dot. Registering a format again replaces the
// decoder but keeps its sniffing priority.
func (r *Registry) Register(format string, d Decoder, exts ...string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, ok := r.codecs[format]; !ok {
		r.order = append(r.order, format)
	}
	r.codecs[format] = d

	for _, ext := range exts {
		r.exts[normalizeExt(ext)] = format
	}
}

func (r *Registry) Get(format string) (Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.codecs[format]
	return d, ok
}

// Formats lists registered format keys in registration order.
func (r *Registry) Formats() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	return slices.Clone(r.order)
}

// ForExtension looks up the decoder registered for the extension of name.
func (r *Registry) ForExtension(name string) (string, Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	format, ok := r.exts[normalizeExt(filepath.Ext(name))]
	if !ok {
		return "", nil, false
	}
	d, ok := r.codecs[format]
	return format, d, ok
}

// Detect picks a decoder for a stream, trying content sniffing before the
// extension of name.
func (r *Registry) Detect(header []byte, name string) (string, Decoder, error) {
	r.mtx.Lock()
	for _, format := range r.order {
		d := r.codecs[format]
		if s, ok := d.(Sniffer); ok && s.Sniff(header) {
			r.mtx.Unlock()
			return format, d, nil
		}
	}
	r.mtx.Unlock()

	if format, d, ok := r.ForExtension(name); ok {
		return format, d, nil
	}

	return "", nil, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Base(name))
}

// Open detects the format of rs and decodes it. rs is rewound to its
// start before decoding.
func (r *Registry) Open(rs io.ReadSeeker, name string) (string, Source, error) {
	header := make([]byte, SniffLen)
	n, err := io.ReadFull(rs, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, fmt.Errorf("reading header: %w", err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return "", nil, fmt.Errorf("rewinding: %w", err)
	}

	format, d, err := r.Detect(header[:n], name)
	if err != nil {
		return "", nil, err
	}

	src, err := d.Decode(rs)
	if err != nil {
		return format, nil, fmt.Errorf("decoding %s: %w", format, err)
	}
	return format, src, nil
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// HasMagic reports whether header carries magic at offset.
func HasMagic(header []byte, offset int, magic string) bool {
	if len(header) < offset+len(magic) {
		return false
	}
	return bytes.Equal(header[offset:offset+len(magic)], []byte(magic))
}
