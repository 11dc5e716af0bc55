package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultPort   = 6667
	channelDepth  = 100
	dialTimeout   = 10 * time.Second
	writeTimeout  = 5 * time.Second
	submitTimeout = 5 * time.Second
)

var (
	errSessionClosed     = errors.New("session closed")
	errOutboundSaturated = errors.New("outbound queue saturated")
)

// SessionInfo holds the immutable connection parameters for one server.
type SessionInfo struct {
	Addr string
	Port int
	Nick string
	User string
	Real string
}

// Name identifies the session among concurrently active ones.
func (si SessionInfo) Name() string { return si.Addr }

func (si SessionInfo) hostport() string {
	return net.JoinHostPort(si.Addr, strconv.Itoa(si.Port))
}

// parseServerAddr accepts "host" or "host:port", defaulting to 6667.
func parseServerAddr(s string) (string, int) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return s, defaultPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return host, defaultPort
	}
	return host, port
}

// Event is what a session emits on its event channel.
type Event interface{ sessionEvent() }

// MessageEvent carries one decoded server message.
type MessageEvent struct{ Msg ServerMessage }

// MalformedEvent carries a line that matched a known command but failed its
// parameter layout. Surfaced, never swallowed.
type MalformedEvent struct {
	Line string
	Err  error
}

// ClosedEvent is the single terminal notification of a session. Err is nil
// for a clean end-of-stream, non-nil for a connect, read, or write failure.
type ClosedEvent struct{ Err error }

func (MessageEvent) sessionEvent()   {}
func (MalformedEvent) sessionEvent() {}
func (ClosedEvent) sessionEvent()    {}

// SessionStream is the consumer side of a running session: every raw inbound
// line on Debug, every decoded event on Events. The session closes Debug
// first, then emits exactly one ClosedEvent and closes Events.
type SessionStream struct {
	Serv   string
	Debug  <-chan string
	Events <-chan Event
}

// Client is the cloneable handle for submitting outbound commands to a
// running session. CurNick is a local-echo cache only: it is updated when
// the user issues NICK, never corrected by inbound NICK events.
type Client struct {
	Name          string
	CurNick       string
	cmds          chan<- string
	done          <-chan struct{}
	submitTimeout time.Duration
}

// submit pushes a wire-encoded line onto the bounded outbound queue. A full
// queue blocks up to submitTimeout and then reports saturation instead of
// dropping or aborting.
func (c *Client) submit(line string) error {
	select {
	case <-c.done:
		return errSessionClosed
	default:
	}
	select {
	case c.cmds <- line:
		return nil
	case <-c.done:
		return errSessionClosed
	case <-time.After(c.submitTimeout):
		return errOutboundSaturated
	}
}

func (c *Client) Quit(msg string) error {
	line, err := encodeQuit(msg)
	if err != nil {
		return err
	}
	return c.submit(line)
}

func (c *Client) Join(channel string) error {
	line, err := encodeJoin(channel)
	if err != nil {
		return err
	}
	return c.submit(line)
}

func (c *Client) Nick(nick string) error {
	line, err := encodeNick(nick)
	if err != nil {
		return err
	}
	if err := c.submit(line); err != nil {
		return err
	}
	c.CurNick = nick
	return nil
}

func (c *Client) Privmsg(target, msg string) error {
	line, err := encodePrivmsg(target, msg)
	if err != nil {
		return err
	}
	return c.submit(line)
}

type sessionState int

const (
	stateConnecting sessionState = iota
	stateHandshaking
	stateActive
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateHandshaking:
		return "handshaking"
	case stateActive:
		return "active"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type session struct {
	info   SessionInfo
	cmds   <-chan string
	debug  chan<- string
	events chan<- Event
	done   chan struct{}
	log    *eventLogger

	writeMu sync.Mutex
	conn    net.Conn
	state   sessionState
}

// Connect creates the handle for a new per-server session and starts its
// task. The session dials, performs the NICK/USER handshake fire-and-forget,
// then multiplexes inbound lines and outbound commands until the transport
// ends. There is no reconnection: a fresh Connect is required.
func Connect(info SessionInfo, log *eventLogger) (*Client, *SessionStream) {
	cmds := make(chan string, channelDepth)
	debug := make(chan string, channelDepth)
	events := make(chan Event, channelDepth)
	done := make(chan struct{})

	s := &session{
		info:   info,
		cmds:   cmds,
		debug:  debug,
		events: events,
		done:   done,
		log:    log,
	}
	go s.run(nil)

	client := &Client{Name: info.Name(), CurNick: info.Nick, cmds: cmds, done: done, submitTimeout: submitTimeout}
	stream := &SessionStream{Serv: info.Name(), Debug: debug, Events: events}
	return client, stream
}

func (s *session) setState(st sessionState) {
	s.state = st
	s.log.Append("session", "session.state", map[string]any{
		"server": s.info.Name(),
		"state":  st.String(),
	})
}

// run drives the session to Closed. A pre-established conn (tests) skips the
// dial.
func (s *session) run(conn net.Conn) {
	s.setState(stateConnecting)
	if conn == nil {
		c, err := net.DialTimeout("tcp", s.info.hostport(), dialTimeout)
		if err != nil {
			s.close(fmt.Errorf("connect %s: %w", s.info.hostport(), err))
			return
		}
		conn = c
	}
	s.conn = conn
	defer conn.Close()

	s.setState(stateHandshaking)
	if err := s.handshake(); err != nil {
		s.close(err)
		return
	}

	s.setState(stateActive)
	g, ctx := errgroup.WithContext(context.Background())
	g.Go(s.readLoop)
	g.Go(func() error { return s.writeLoop(ctx) })
	g.Go(func() error {
		// Unblock a stuck read when the other side of the group fails.
		<-ctx.Done()
		conn.Close()
		return nil
	})
	s.close(g.Wait())
}

func (s *session) handshake() error {
	nick, err := encodeNick(s.info.Nick)
	if err != nil {
		return err
	}
	user, err := encodeUser(s.info.User, s.info.Real)
	if err != nil {
		return err
	}
	if err := s.writeLine(nick); err != nil {
		return err
	}
	return s.writeLine(user)
}

// readLoop consumes inbound lines. PING is answered in the same turn and
// bypasses the codec; every other line is forwarded raw on the debug channel
// and decoded onto the event channel, both before the next line is read.
// Returns io.EOF on clean end-of-stream.
func (s *session) readLoop() error {
	sc := bufio.NewScanner(s.conn)
	sc.Buffer(make([]byte, 0, 4096), 1<<16)
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			continue
		}
		if line == "PING" || strings.HasPrefix(line, "PING ") {
			token := ""
			if len(line) > len("PING ") {
				token = line[len("PING "):]
			}
			if err := s.writeLine(encodePong(token)); err != nil {
				return err
			}
			s.debug <- line
			continue
		}
		s.log.Append("session", "session.line", map[string]any{
			"server": s.info.Name(),
			"line":   line,
		})
		s.debug <- line
		if msg, err := Decode(line); err != nil {
			s.events <- MalformedEvent{Line: line, Err: err}
		} else {
			s.events <- MessageEvent{Msg: msg}
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

// writeLoop drains the outbound queue in submission order.
func (s *session) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-s.cmds:
			if err := s.writeLine(cmd); err != nil {
				return err
			}
		}
	}
}

func (s *session) writeLine(line string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := io.WriteString(s.conn, line)
	return err
}

// close emits the single terminal notification and seals every channel.
// Clean end-of-stream (io.EOF) and transport failure take the same path so
// consumers always see exactly one ClosedEvent.
func (s *session) close(err error) {
	if errors.Is(err, io.EOF) {
		err = nil
	}
	s.setState(stateClosed)
	s.log.Append("session", "session.closed", map[string]any{
		"server": s.info.Name(),
		"error":  errString(err),
	})
	close(s.debug)
	s.events <- ClosedEvent{Err: err}
	close(s.events)
	close(s.done)
}
