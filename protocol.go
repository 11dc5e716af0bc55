package main

import (
	"fmt"
	"strings"

	"github.com/ergochat/irc-go/ircmsg"
)

// Prefix is the optional origin annotation on a server line: either a bare
// server name or a nick!user@host triple.
type Prefix interface{ prefix() }

type ServerPrefix string

type UserPrefix struct {
	Nick string
	User string
	Host string
}

func (ServerPrefix) prefix() {}
func (UserPrefix) prefix()   {}

func parsePrefix(raw string) Prefix {
	if strings.ContainsRune(raw, '!') && strings.ContainsRune(raw, '@') {
		if nuh, err := ircmsg.ParseNUH(raw); err == nil {
			return UserPrefix{Nick: nuh.Name, User: nuh.User, Host: nuh.Host}
		}
	}
	return ServerPrefix(raw)
}

type targetKind int

const (
	TargetChan targetKind = iota
	TargetUser
	TargetServ
)

// MsgTarget is the resolved destination of a PRIVMSG or NOTICE. A
// destination token starting with '#' is a channel, anything else a user.
type MsgTarget struct {
	Kind targetKind
	Name string
}

func targetFor(dest string) MsgTarget {
	if strings.HasPrefix(dest, "#") {
		return MsgTarget{Kind: TargetChan, Name: dest}
	}
	return MsgTarget{Kind: TargetUser, Name: dest}
}

// ServCmd is the decoded form of one server-originated command or numeric
// reply. The set is closed; anything outside it decodes to Unknown, which is
// never dropped on the floor by the dispatcher.
type ServCmd interface{ servCmd() }

type Join struct{ Chan string }

type Part struct {
	Chan string
	Msg  string
}

type PrivMsg struct {
	Target MsgTarget
	Msg    string
}

type Notice struct {
	Target MsgTarget
	Msg    string
}

type Nick struct{ NewNick string }

type Quit struct{ Msg string }

type ErrorMsg struct{ Msg string }

type Welcome struct{ Msg string }       // 001
type YourHost struct{ Msg string }      // 002
type Created struct{ Msg string }       // 003
type ISupport struct{ Msg string }      // 005
type LuserClient struct{ Msg string }   // 251
type LuserOp struct{ Msg string }       // 252
type LuserUnknown struct{ Msg string }  // 253
type LuserChannels struct{ Msg string } // 254
type LuserMe struct{ Msg string }       // 255
type LocalUsers struct{ Msg string }    // 265
type GlobalUsers struct{ Msg string }   // 266
type Motd struct{ Msg string }          // 372
type MotdStart struct{ Msg string }     // 375
type MotdEnd struct{ Msg string }       // 376
type DisplayedHost struct{ Msg string } // 396

// MyInfo is numeric 004. The server name at position 1 is dropped; positions
// 2-5 carry the interesting fields.
type MyInfo struct {
	Version     string
	UModes      string
	CModes      string
	CModesParam string
}

// NameReply is numeric 353. Nicks keep their status-prefix glyph (@, +, ...).
type NameReply struct {
	Sym   string
	Chan  string
	Nicks []string
}

type EndOfNames struct{ Msg string } // 366

type Unknown struct {
	Cmd    string
	Params []string
}

func (Join) servCmd()          {}
func (Part) servCmd()          {}
func (PrivMsg) servCmd()       {}
func (Notice) servCmd()        {}
func (Nick) servCmd()          {}
func (Quit) servCmd()          {}
func (ErrorMsg) servCmd()      {}
func (Welcome) servCmd()       {}
func (YourHost) servCmd()      {}
func (Created) servCmd()       {}
func (MyInfo) servCmd()        {}
func (ISupport) servCmd()      {}
func (LuserClient) servCmd()   {}
func (LuserOp) servCmd()       {}
func (LuserUnknown) servCmd()  {}
func (LuserChannels) servCmd() {}
func (LuserMe) servCmd()       {}
func (LocalUsers) servCmd()    {}
func (GlobalUsers) servCmd()   {}
func (NameReply) servCmd()     {}
func (EndOfNames) servCmd()    {}
func (Motd) servCmd()          {}
func (MotdStart) servCmd()     {}
func (MotdEnd) servCmd()       {}
func (DisplayedHost) servCmd() {}
func (Unknown) servCmd()       {}

// ServerMessage is one decoded server line: an optional prefix plus the
// command-specific payload.
type ServerMessage struct {
	Prefix  Prefix
	Command ServCmd
}

// malformedError reports a line that matched a known command but lacked a
// required parameter. Recoverable: the session degrades it to a diagnostic
// rather than fabricating fields or dying.
type malformedError struct {
	Command string
	Params  []string
}

func (e *malformedError) Error() string {
	return fmt.Sprintf("malformed %s message: %d params %q", e.Command, len(e.Params), e.Params)
}

// Decode turns one raw server line into a ServerMessage. Tokenization
// (prefix/command/params with trailing handling) is done by ircmsg, so a
// trailing parameter keeps its embedded whitespace intact; the per-command
// field layout is applied here.
func Decode(line string) (ServerMessage, error) {
	raw, err := ircmsg.ParseLine(line)
	if err != nil {
		return ServerMessage{}, fmt.Errorf("unparseable line: %w", err)
	}
	var prefix Prefix
	if raw.Source != "" {
		prefix = parsePrefix(raw.Source)
	}
	cmd, err := decodeCommand(raw.Command, raw.Params)
	if err != nil {
		return ServerMessage{}, err
	}
	return ServerMessage{Prefix: prefix, Command: cmd}, nil
}

func decodeCommand(cmd string, params []string) (ServCmd, error) {
	need := func(n int) error {
		if len(params) < n {
			return &malformedError{Command: cmd, Params: params}
		}
		return nil
	}
	// Numeric replies address the client in params[0]; the displayable text
	// is everything after it.
	tail := func() string { return strings.Join(params[1:], " ") }

	switch cmd {
	case "JOIN":
		if err := need(1); err != nil {
			return nil, err
		}
		return Join{Chan: params[0]}, nil
	case "PART":
		if err := need(1); err != nil {
			return nil, err
		}
		if len(params) == 1 {
			return Part{Chan: params[0]}, nil
		}
		return Part{Chan: params[0], Msg: params[len(params)-1]}, nil
	case "PRIVMSG":
		if err := need(2); err != nil {
			return nil, err
		}
		return PrivMsg{Target: targetFor(params[0]), Msg: params[1]}, nil
	case "NOTICE":
		if err := need(2); err != nil {
			return nil, err
		}
		return Notice{Target: targetFor(params[0]), Msg: params[1]}, nil
	case "NICK":
		if err := need(1); err != nil {
			return nil, err
		}
		return Nick{NewNick: params[0]}, nil
	case "QUIT":
		var msg string
		if len(params) > 0 {
			msg = params[len(params)-1]
		}
		return Quit{Msg: msg}, nil
	case "ERROR":
		if err := need(1); err != nil {
			return nil, err
		}
		return ErrorMsg{Msg: params[len(params)-1]}, nil
	case "001":
		if err := need(2); err != nil {
			return nil, err
		}
		return Welcome{Msg: tail()}, nil
	case "002":
		if err := need(2); err != nil {
			return nil, err
		}
		return YourHost{Msg: tail()}, nil
	case "003":
		if err := need(2); err != nil {
			return nil, err
		}
		return Created{Msg: tail()}, nil
	case "004":
		if err := need(6); err != nil {
			return nil, err
		}
		return MyInfo{
			Version:     params[2],
			UModes:      params[3],
			CModes:      params[4],
			CModesParam: params[5],
		}, nil
	case "005":
		if err := need(2); err != nil {
			return nil, err
		}
		return ISupport{Msg: tail()}, nil
	case "251":
		if err := need(2); err != nil {
			return nil, err
		}
		return LuserClient{Msg: tail()}, nil
	case "252":
		if err := need(2); err != nil {
			return nil, err
		}
		return LuserOp{Msg: tail()}, nil
	case "253":
		if err := need(2); err != nil {
			return nil, err
		}
		return LuserUnknown{Msg: tail()}, nil
	case "254":
		if err := need(2); err != nil {
			return nil, err
		}
		return LuserChannels{Msg: tail()}, nil
	case "255":
		if err := need(2); err != nil {
			return nil, err
		}
		return LuserMe{Msg: tail()}, nil
	case "265":
		if err := need(2); err != nil {
			return nil, err
		}
		return LocalUsers{Msg: tail()}, nil
	case "266":
		if err := need(2); err != nil {
			return nil, err
		}
		return GlobalUsers{Msg: tail()}, nil
	case "353":
		if err := need(4); err != nil {
			return nil, err
		}
		return NameReply{
			Sym:   params[1],
			Chan:  params[2],
			Nicks: strings.Fields(params[3]),
		}, nil
	case "366":
		if err := need(3); err != nil {
			return nil, err
		}
		return EndOfNames{Msg: params[1] + " " + params[2]}, nil
	case "372":
		if err := need(2); err != nil {
			return nil, err
		}
		return Motd{Msg: tail()}, nil
	case "375":
		if err := need(2); err != nil {
			return nil, err
		}
		return MotdStart{Msg: tail()}, nil
	case "376":
		if err := need(2); err != nil {
			return nil, err
		}
		return MotdEnd{Msg: tail()}, nil
	case "396":
		if err := need(2); err != nil {
			return nil, err
		}
		return DisplayedHost{Msg: tail()}, nil
	default:
		return Unknown{Cmd: cmd, Params: params}, nil
	}
}

// Encoders for the client-originated command subset. Assembly goes through
// ircmsg so the CRLF terminator and trailing-parameter marker always land in
// the right place.

func encodeLine(forceTrailing bool, command string, params ...string) (string, error) {
	msg := ircmsg.MakeMessage(nil, "", command, params...)
	if forceTrailing {
		msg.ForceTrailing()
	}
	return msg.Line()
}

func encodeNick(nick string) (string, error) {
	return encodeLine(false, "NICK", nick)
}

func encodeUser(user, realname string) (string, error) {
	return encodeLine(true, "USER", user, "0", "*", realname)
}

func encodeJoin(channel string) (string, error) {
	return encodeLine(false, "JOIN", channel)
}

func encodePrivmsg(target, msg string) (string, error) {
	return encodeLine(true, "PRIVMSG", target, msg)
}

func encodeQuit(msg string) (string, error) {
	return encodeLine(true, "QUIT", msg)
}

// encodePong echoes the token following "PING " verbatim, including any
// leading colon; it never goes through the codec.
func encodePong(token string) string {
	return "PONG " + token + "\r\n"
}
