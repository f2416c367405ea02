// SPDX-License-Identifier: EPL-2.0

//go:build cgo

package engine

// DefaultName is the backend Open falls back to for an empty name.
const DefaultName = MalgoName
