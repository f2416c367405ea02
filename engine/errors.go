// SPDX-License-Identifier: EPL-2.0

package engine

import "errors"

var (
	ErrBackendUnavailable = errors.New("audio backend not available in this build")
	ErrUnknownBackend     = errors.New("unknown audio backend")
	ErrBackendClosed      = errors.New("audio backend closed")
	ErrStreamClosed       = errors.New("audio stream closed")
	ErrDeviceNotFound     = errors.New("audio device not found")
	ErrFormatMismatch     = errors.New("audio format differs from the running context")
)
