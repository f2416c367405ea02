// SPDX-License-Identifier: EPL-2.0

package mixplayer

import (
	"github.com/ik5/mixplayer/audio"
	"github.com/ik5/mixplayer/formats/aiff"
	"github.com/ik5/mixplayer/formats/mp3"
	"github.com/ik5/mixplayer/formats/vorbis"
	"github.com/ik5/mixplayer/formats/wav"
)

// NewRegistry returns a registry with every bundled decoder. MP3 is
// registered last since its frame sync sniff is the weakest.
func NewRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{}, "wav", "wave")
	r.Register("aiff", aiff.Decoder{}, "aif", "aiff", "aifc")
	r.Register("vorbis", vorbis.Decoder{}, "ogg", "oga")
	r.Register("mp3", mp3.Decoder{}, "mp3")
	return r
}
