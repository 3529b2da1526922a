// Package clockclient implements the TCP line-protocol client for the
// external simulated-clock service described in spec.md §6 (component
// C8). Grounded on zwl/utils.py's ClockConnection: connect, read the
// greeting, send "get 1\r\n", parse the reply.
package clockclient

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// State is the clock's run state.
type State int

const (
	Stopped State = 0
	Running State = 1
)

// Reading is the (state, time) pair the core actually consumes from
// the clock source — spec.md §6: "The core uses only (state, time)."
type Reading struct {
	State State
	Time  time.Time
}

// ConnectionError reports a clock-protocol failure, carrying the
// numeric code the service sent (errors are reported with codes >= 500,
// per spec.md §6) when one was available.
type ConnectionError struct {
	Code int
	Msg  string
}

func (e *ConnectionError) Error() string {
	if e.Code == 0 {
		return e.Msg
	}
	return fmt.Sprintf("clock server error %d: %s", e.Code, e.Msg)
}

// Client holds an open connection to a clock server.
type Client struct {
	conn net.Conn
	r    *bufio.Reader
}

// Dial connects to addr (host:port) and reads the server's greeting
// line ("100 ...\n"), failing with *ConnectionError if the greeting's
// code is not 100.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial clock server %s: %w", addr, err)
	}
	c := &Client{conn: conn, r: bufio.NewReader(conn)}

	line, err := c.readLine(ctx)
	if err != nil {
		conn.Close()
		return nil, err
	}
	code, _, err := splitCodeAndRest(line)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if code != 100 {
		conn.Close()
		return nil, &ConnectionError{Code: code, Msg: line}
	}
	return c, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

// Get issues "get 1\r\n" and parses the "200 <line> <unix-seconds>
// <scale> <state>\n" reply.
func (c *Client) Get(ctx context.Context) (Reading, error) {
	if dl, ok := ctx.Deadline(); ok {
		c.conn.SetWriteDeadline(dl)
	}
	if _, err := c.conn.Write([]byte("get 1\r\n")); err != nil {
		return Reading{}, fmt.Errorf("write to clock server: %w", err)
	}

	line, err := c.readLine(ctx)
	if err != nil {
		return Reading{}, err
	}
	code, rest, err := splitCodeAndRest(line)
	if err != nil {
		return Reading{}, err
	}
	if code >= 500 {
		return Reading{}, &ConnectionError{Code: code, Msg: rest}
	}
	if code != 200 {
		return Reading{}, &ConnectionError{Code: code, Msg: fmt.Sprintf("unexpected response: %s", line)}
	}

	fields := strings.Fields(rest)
	if len(fields) != 4 {
		return Reading{}, &ConnectionError{Msg: fmt.Sprintf("malformed 200 reply: %q", line)}
	}
	unixSeconds, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Reading{}, &ConnectionError{Msg: fmt.Sprintf("malformed unix-seconds field %q: %v", fields[1], err)}
	}
	stateVal, err := strconv.Atoi(fields[3])
	if err != nil || (stateVal != 0 && stateVal != 1) {
		return Reading{}, &ConnectionError{Msg: fmt.Sprintf("malformed state field %q", fields[3])}
	}
	return Reading{State: State(stateVal), Time: time.Unix(unixSeconds, 0).UTC()}, nil
}

func (c *Client) readLine(ctx context.Context) (string, error) {
	if dl, ok := ctx.Deadline(); ok {
		c.conn.SetReadDeadline(dl)
	}
	line, err := c.r.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read from clock server: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func splitCodeAndRest(line string) (int, string, error) {
	parts := strings.SplitN(line, " ", 2)
	code, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", &ConnectionError{Msg: fmt.Sprintf("malformed clock server line %q", line)}
	}
	rest := ""
	if len(parts) == 2 {
		rest = parts[1]
	}
	return code, rest, nil
}
