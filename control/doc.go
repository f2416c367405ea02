// SPDX-License-Identifier: EPL-2.0

// Package control exposes a player through a line protocol.
//
// Each request is one line: a case-insensitive verb followed by its
// arguments. Each request gets exactly one reply line:
//
//	OK
//	OK <value>
//	ERR <CODE> <message>
//
// A session that sent SUBSCRIBE also receives "EVENT END" lines whenever a
// track finishes. Only the latest subscriber receives them.
//
// Session interprets lines for any Player. Server serves sessions on a Unix
// socket and drains the player's end notifications. Client is the matching
// connection for scripts and the command line.
package control
