// SPDX-License-Identifier: EPL-2.0

package mixplayer

// State of the current track.
type State int

const (
	Unloaded State = iota
	Playing
	Paused
	// Ended means the track played to its end and is still loaded.
	Ended
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	}
	return "unknown"
}
