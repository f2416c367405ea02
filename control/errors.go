// SPDX-License-Identifier: EPL-2.0

package control

import (
	"errors"
	"fmt"

	"github.com/ik5/mixplayer"
)

// Code classifies an ERR reply.
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeUnknownCommand  Code = "UNKNOWN_COMMAND"
	CodeLoad            Code = "LOAD"
	CodeDeviceRange     Code = "DEVICE_RANGE"
	CodeEngine          Code = "ENGINE"
	CodeNoTrack         Code = "NO_TRACK"
	CodeClosed          Code = "CLOSED"
	CodeUnsupported     Code = "UNSUPPORTED"
	CodeInternal        Code = "INTERNAL"
)

// ErrNotConnected is returned by a Client after Close.
var ErrNotConnected = errors.New("control: not connected")

// ReplyError is an ERR reply received by a Client.
type ReplyError struct {
	Code    Code
	Message string
}

func (e *ReplyError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("control: %s", e.Code)
	}
	return fmt.Sprintf("control: %s: %s", e.Code, e.Message)
}

// codeOf maps player errors to reply codes. The device range check comes
// first since it also matches ErrInvalidArgument.
func codeOf(err error) Code {
	switch {
	case errors.Is(err, mixplayer.ErrDeviceIndexOutOfRange):
		return CodeDeviceRange
	case errors.Is(err, mixplayer.ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, mixplayer.ErrLoad):
		return CodeLoad
	case errors.Is(err, mixplayer.ErrEngineInit):
		return CodeEngine
	case errors.Is(err, mixplayer.ErrNoTrack):
		return CodeNoTrack
	case errors.Is(err, mixplayer.ErrClosed):
		return CodeClosed
	}
	return CodeInternal
}
