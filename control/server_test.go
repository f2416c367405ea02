// SPDX-License-Identifier: EPL-2.0

package control

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ik5/mixplayer"
)

func startServer(t *testing.T, p Host, opts ...ServerOption) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mixplayer.sock")
	ln, err := Listen(path)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	srv := NewServer(p, log.New(io.Discard), opts...)
	go func() { errc <- srv.Serve(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errc:
			if err != nil {
				t.Errorf("Serve() = %v, want nil", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Serve did not return")
		}
	})
	return path
}

func dial(t *testing.T, path string) *Client {
	t.Helper()

	c, err := Dial(path)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func readLine(t *testing.T, c *Client) string {
	t.Helper()

	type result struct {
		line string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := c.ReadLine()
		done <- result{line, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("ReadLine() error = %v", r.err)
		}
		return r.line
	case <-time.After(5 * time.Second):
		t.Fatal("no line from server")
	}
	return ""
}

func TestServer_Commands(t *testing.T) {
	t.Parallel()

	p, _ := newTestPlayer(t)
	c := dial(t, startServer(t, p))

	if v, err := c.Do("PING"); err != nil || v != "PONG" {
		t.Errorf("Do(PING) = %q, %v", v, err)
	}
	if v, err := c.Do("VOLUME 64/128"); err != nil || v != "0.5" {
		t.Errorf("Do(VOLUME) = %q, %v", v, err)
	}

	_, err := c.Do("BOGUS")
	var replyErr *ReplyError
	if !errors.As(err, &replyErr) || replyErr.Code != CodeUnknownCommand {
		t.Errorf("Do(BOGUS) error = %v, want UNKNOWN_COMMAND", err)
	}

	if v, err := c.Do("QUIT"); err != nil || v != "BYE" {
		t.Errorf("Do(QUIT) = %q, %v", v, err)
	}
	if _, err := c.Do("PING"); err == nil {
		t.Error("Do() after QUIT succeeded")
	}
}

func TestServer_EndEvent(t *testing.T) {
	t.Parallel()

	p, b := newTestPlayer(t)
	path := startServer(t, p)

	listener := dial(t, path)
	if _, err := listener.Do("SUBSCRIBE"); err != nil {
		t.Fatalf("Do(SUBSCRIBE) error = %v", err)
	}

	// A second client drives playback.
	driver := dial(t, path)
	if _, err := driver.Do("LOAD " + writeTrack(t)); err != nil {
		t.Fatalf("Do(LOAD) error = %v", err)
	}

	b.Current().Pump(6)

	if line := readLine(t, listener); line != EventEnd {
		t.Errorf("listener got %q, want %q", line, EventEnd)
	}
	if v, err := driver.Do("STATE"); err != nil || v != "ended" {
		t.Errorf("Do(STATE) = %q, %v", v, err)
	}
}

func TestServer_EventDuringRequest(t *testing.T) {
	t.Parallel()

	p, b := newTestPlayer(t)
	c := dial(t, startServer(t, p))

	events := make(chan string, 4)
	c.OnEvent = func(line string) { events <- line }

	if _, err := c.Do("SUBSCRIBE"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Do("LOAD " + writeTrack(t)); err != nil {
		t.Fatal(err)
	}
	b.Current().Pump(6)

	// The event lands before or after this reply; either way Do skips it.
	deadline := time.Now().Add(5 * time.Second)
	for len(events) == 0 {
		if _, err := c.Do("PING"); err != nil {
			t.Fatalf("Do(PING) error = %v", err)
		}
		if time.Now().After(deadline) {
			t.Fatal("event never delivered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if line := <-events; line != EventEnd {
		t.Errorf("OnEvent got %q", line)
	}
}

func TestServer_CommandRate(t *testing.T) {
	t.Parallel()

	p, _ := newTestPlayer(t)
	c := dial(t, startServer(t, p, WithCommandRate(20, 1)))

	started := time.Now()
	for range 3 {
		if _, err := c.Do("PING"); err != nil {
			t.Fatalf("Do(PING) error = %v", err)
		}
	}

	// One command passes at once, the next two wait 50 ms each.
	if elapsed := time.Since(started); elapsed < 80*time.Millisecond {
		t.Errorf("three commands took %v, want the limit to delay them", elapsed)
	}
}

func TestServer_ClosedPlayer(t *testing.T) {
	t.Parallel()

	p, _ := newTestPlayer(t)
	_ = p.Close()

	ln, err := Listen(filepath.Join(t.TempDir(), "closed.sock"))
	if err != nil {
		t.Fatal(err)
	}

	err = NewServer(p, log.New(io.Discard)).Serve(context.Background(), ln)
	if !errors.Is(err, mixplayer.ErrClosed) {
		t.Errorf("Serve() = %v, want ErrClosed", err)
	}
}

func TestParseReply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line    string
		value   string
		code    Code
		message string
	}{
		{"OK", "", "", ""},
		{"OK 0.500", "0.500", "", ""},
		{"ERR LOAD no such file", "", CodeLoad, "no such file"},
		{"ERR CLOSED", "", CodeClosed, ""},
	}

	for _, tt := range tests {
		v, err := ParseReply(tt.line)
		if tt.code == "" {
			if err != nil || v != tt.value {
				t.Errorf("ParseReply(%q) = %q, %v", tt.line, v, err)
			}
			continue
		}

		var replyErr *ReplyError
		if !errors.As(err, &replyErr) || replyErr.Code != tt.code || replyErr.Message != tt.message {
			t.Errorf("ParseReply(%q) error = %v, want %s %q", tt.line, err, tt.code, tt.message)
		}
	}

	if _, err := ParseReply("HELLO"); err == nil {
		t.Error("ParseReply accepted a malformed reply")
	}
}
