// SPDX-License-Identifier: EPL-2.0

package control

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
)

// Client is a connection to a Server.
type Client struct {
	// OnEvent receives EVENT lines read while waiting for a reply. Nil
	// discards them.
	OnEvent func(line string)

	mtx  sync.Mutex
	conn net.Conn
	sc   *bufio.Scanner
}

// Dial connects to the Unix socket at path.
func Dial(path string) (*Client, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", path, err)
	}
	return &Client{conn: conn, sc: bufio.NewScanner(conn)}, nil
}

// Do sends one command and returns the value of its reply. An ERR reply is
// returned as a *ReplyError.
func (c *Client) Do(line string) (string, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.conn == nil {
		return "", ErrNotConnected
	}
	if _, err := fmt.Fprintf(c.conn, "%s\n", strings.TrimSpace(line)); err != nil {
		return "", fmt.Errorf("sending command: %w", err)
	}

	for {
		resp, err := c.readLine()
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(resp, "EVENT ") {
			if c.OnEvent != nil {
				c.OnEvent(resp)
			}
			continue
		}
		return ParseReply(resp)
	}
}

// ReadLine returns the next line from the server, such as an event.
func (c *Client) ReadLine() (string, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.conn == nil {
		return "", ErrNotConnected
	}
	return c.readLine()
}

func (c *Client) readLine() (string, error) {
	if !c.sc.Scan() {
		if err := c.sc.Err(); err != nil {
			return "", fmt.Errorf("reading reply: %w", err)
		}
		return "", fmt.Errorf("reading reply: %w", net.ErrClosed)
	}
	return c.sc.Text(), nil
}

// Close closes the connection. Closing twice is a no-op.
func (c *Client) Close() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// ParseReply splits a reply line into its value or a *ReplyError.
func ParseReply(line string) (string, error) {
	switch {
	case line == "OK":
		return "", nil
	case strings.HasPrefix(line, "OK "):
		return strings.TrimPrefix(line, "OK "), nil
	case strings.HasPrefix(line, "ERR "):
		code, msg, _ := strings.Cut(strings.TrimPrefix(line, "ERR "), " ")
		return "", &ReplyError{Code: Code(code), Message: msg}
	}
	return "", fmt.Errorf("control: malformed reply %q", line)
}
