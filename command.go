package main

import (
	"errors"
	"strings"
)

// Cmd is one committed input line, interpreted. A line not starting with '/'
// is always CmdMsg; an unrecognized slash command is CmdUnsupported, never an
// error, so it stays visible to the user.
type Cmd interface{ inputCmd() }

type CmdConnect struct{ Addr string }
type CmdJoin struct{ Chan string }
type CmdQuit struct{ Msg string }
type CmdNick struct{ Nick string }
type CmdMsg struct{ Text string }
type CmdUnsupported struct {
	Cmd  string
	Rest string
}

func (CmdConnect) inputCmd()     {}
func (CmdJoin) inputCmd()        {}
func (CmdQuit) inputCmd()        {}
func (CmdNick) inputCmd()        {}
func (CmdMsg) inputCmd()         {}
func (CmdUnsupported) inputCmd() {}

var (
	errNoServerAddress = errors.New("No server address provided")
	errNoChannelName   = errors.New("No channel name provided")
)

func makeCmd(cmd, rest string) (Cmd, error) {
	switch cmd {
	case "/connect":
		if rest == "" {
			return nil, errNoServerAddress
		}
		return CmdConnect{Addr: rest}, nil
	case "/join":
		if rest == "" {
			return nil, errNoChannelName
		}
		return CmdJoin{Chan: rest}, nil
	case "/quit":
		return CmdQuit{Msg: rest}, nil
	case "/nick":
		return CmdNick{Nick: rest}, nil
	default:
		return CmdUnsupported{Cmd: cmd, Rest: rest}, nil
	}
}

func parseInput(input string) (Cmd, error) {
	if !strings.HasPrefix(input, "/") {
		return CmdMsg{Text: input}, nil
	}
	if ix := strings.IndexByte(input, ' '); ix >= 0 {
		return makeCmd(input[:ix], strings.TrimSpace(input[ix+1:]))
	}
	return makeCmd(input, "")
}
