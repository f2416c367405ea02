// SPDX-License-Identifier: EPL-2.0

// Package mixplayer plays one decoded track at a time on an audio output
// device and reports when the track finishes.
//
// # Playback
//
// A Player owns a single output stream opened through an engine backend.
// Load decodes a whole file into memory and converts it to the output
// format (48 kHz stereo by default) before playback starts:
//
//	p, err := mixplayer.Open("") // default backend
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//
//	p.SetFadeIn(500 * time.Millisecond)
//	if err := p.Load("intro.ogg"); err != nil {
//		return err
//	}
//
// WAV, AIFF, Ogg Vorbis and MP3 are recognised from their content first
// and from the file extension second. Use WithRegistry to change the set.
//
// # End notifications
//
// The backend renders audio on its own thread. When a track plays out, that
// thread only queues a notification; the listener registered with OnEnd
// runs later on the goroutine that drains the queue:
//
//	p.OnEnd(func() { fmt.Println("done") })
//
//	// in a game or UI loop
//	p.DispatchEvents()
//
//	// or on a goroutine of its own
//	go p.Run(ctx)
//
//	// or block until the next end
//	p.Wait(ctx)
//
// The queue holds DefaultInboxSize notifications. Further ones are dropped
// until the host drains it.
//
// # Devices
//
// Devices lists the outputs of the backend and SelectDevice moves the
// stream to another one. If the new device fails to open the player goes
// back to the previous device.
package mixplayer
