// SPDX-License-Identifier: EPL-2.0

package control

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ik5/mixplayer"
	"github.com/ik5/mixplayer/engine"
)

// Player is the part of *mixplayer.Player a session drives.
type Player interface {
	Load(path string) error
	Play() error
	Resume() error
	Pause() error
	Rewind() error
	Seek(d time.Duration) error
	SetFadeIn(d time.Duration) error
	Position() time.Duration
	Duration() time.Duration
	Volume() float64
	SetVolume(v float64) error
	IsPlaying() bool
	State() mixplayer.State
	Devices() ([]engine.Device, error)
	SelectDevice(index int) error
}

// volumeScale is the integer volume range accepted as "VOLUME n/128".
const volumeScale = 128

// Session interprets command lines for one client. It is not safe for
// concurrent use.
type Session struct {
	player Player
	events *Events
	out    io.Writer
	done   bool
}

// NewSession creates a session on p. SUBSCRIBE registers out with events;
// a nil events answers it with UNSUPPORTED.
func NewSession(p Player, events *Events, out io.Writer) *Session {
	return &Session{player: p, events: events, out: out}
}

// Done reports whether the client sent QUIT.
func (s *Session) Done() bool { return s.done }

// Close drops the event subscription of this session, if it holds it.
func (s *Session) Close() {
	if s.events != nil {
		s.events.Unsubscribe(s.out)
	}
}

// Exec runs one command line and returns the reply without a line ending.
// Blank lines get an empty reply.
func (s *Session) Exec(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}

	verb, rest, _ := strings.Cut(line, " ")
	verb = strings.ToUpper(verb)
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch verb {
	case "PING":
		return s.noArgs(verb, args, func() string { return "OK PONG" })
	case "QUIT":
		return s.noArgs(verb, args, func() string {
			s.done = true
			return "OK BYE"
		})

	case "LOAD":
		if rest == "" {
			return errReply(CodeInvalidArgument, "LOAD needs a path")
		}
		return reply(s.player.Load(rest))
	case "PLAY", "RESUME":
		return s.noArgs(verb, args, func() string { return reply(s.player.Resume()) })
	case "PAUSE":
		return s.noArgs(verb, args, func() string { return reply(s.player.Pause()) })
	case "REWIND":
		return s.noArgs(verb, args, func() string { return reply(s.player.Rewind()) })
	case "SEEK":
		return s.seek(args)
	case "FADE":
		return s.fade(args)

	case "POSITION":
		return s.noArgs(verb, args, func() string { return "OK " + seconds(s.player.Position()) })
	case "DURATION":
		return s.noArgs(verb, args, func() string { return "OK " + seconds(s.player.Duration()) })
	case "VOLUME":
		return s.volume(args)
	case "PLAYING":
		return s.noArgs(verb, args, func() string { return "OK " + strconv.FormatBool(s.player.IsPlaying()) })
	case "STATE":
		return s.noArgs(verb, args, func() string { return "OK " + s.player.State().String() })

	case "DEVICES":
		return s.noArgs(verb, args, s.devices)
	case "DEVICE":
		return s.device(args)

	case "SUBSCRIBE", "UNSUBSCRIBE":
		return s.noArgs(verb, args, func() string {
			if s.events == nil {
				return errReply(CodeUnsupported, "events are not available")
			}
			if verb == "SUBSCRIBE" {
				s.events.Subscribe(s.out)
			} else {
				s.events.Unsubscribe(s.out)
			}
			return "OK"
		})
	}

	return errReply(CodeUnknownCommand, verb)
}

func (s *Session) noArgs(verb string, args []string, fn func() string) string {
	if len(args) != 0 {
		return errReply(CodeInvalidArgument, verb+" takes no arguments")
	}
	return fn()
}

func (s *Session) seek(args []string) string {
	if len(args) != 1 {
		return errReply(CodeInvalidArgument, "SEEK needs seconds")
	}

	sec, err := strconv.ParseFloat(args[0], 64)
	if err != nil || math.IsNaN(sec) || math.IsInf(sec, 0) {
		return errReply(CodeInvalidArgument, fmt.Sprintf("bad seconds %q", args[0]))
	}
	return reply(s.player.Seek(durationOf(sec)))
}

// durationOf converts sec to a Duration, saturating at the ends of its range.
func durationOf(sec float64) time.Duration {
	ns := sec * float64(time.Second)
	switch {
	case ns >= math.MaxInt64:
		return math.MaxInt64
	case ns <= math.MinInt64:
		return math.MinInt64
	}
	return time.Duration(ns)
}

func (s *Session) fade(args []string) string {
	if len(args) != 1 {
		return errReply(CodeInvalidArgument, "FADE needs milliseconds")
	}

	ms, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil || ms < 0 {
		return errReply(CodeInvalidArgument, fmt.Sprintf("bad milliseconds %q", args[0]))
	}
	return reply(s.player.SetFadeIn(time.Duration(ms) * time.Millisecond))
}

func (s *Session) volume(args []string) string {
	switch len(args) {
	case 0:
		return "OK " + strconv.FormatFloat(s.player.Volume(), 'f', -1, 64)
	case 1:
	default:
		return errReply(CodeInvalidArgument, "VOLUME takes at most one value")
	}

	v, err := parseVolume(args[0])
	if err != nil {
		return errReply(CodeInvalidArgument, err.Error())
	}
	if err := s.player.SetVolume(v); err != nil {
		return reply(err)
	}
	return "OK " + strconv.FormatFloat(s.player.Volume(), 'f', -1, 64)
}

// parseVolume accepts a linear gain or n/128.
func parseVolume(arg string) (float64, error) {
	num, den, scaled := strings.Cut(arg, "/")
	if !scaled {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return 0, fmt.Errorf("bad volume %q", arg)
		}
		return v, nil
	}

	if den != strconv.Itoa(volumeScale) {
		return 0, fmt.Errorf("volume scale must be %d, got %q", volumeScale, den)
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 0 || n > volumeScale {
		return 0, fmt.Errorf("bad volume %q", arg)
	}
	return float64(n) / volumeScale, nil
}

func (s *Session) devices() string {
	devices, err := s.player.Devices()
	if err != nil {
		return reply(err)
	}

	names := make([]string, len(devices))
	for i, d := range devices {
		names[i] = d.Name
	}

	b, err := json.Marshal(names)
	if err != nil {
		return errReply(CodeInternal, err.Error())
	}
	return "OK " + string(b)
}

func (s *Session) device(args []string) string {
	if len(args) != 1 {
		return errReply(CodeInvalidArgument, "DEVICE needs an index")
	}

	index, err := strconv.Atoi(args[0])
	if err != nil {
		return errReply(CodeInvalidArgument, fmt.Sprintf("bad index %q", args[0]))
	}
	return reply(s.player.SelectDevice(index))
}

func reply(err error) string {
	if err != nil {
		return errReply(codeOf(err), err.Error())
	}
	return "OK"
}

func errReply(code Code, msg string) string {
	// replies are single lines
	msg = strings.Join(strings.Fields(msg), " ")
	return fmt.Sprintf("ERR %s %s", code, msg)
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
