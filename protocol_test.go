package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrefix(t *testing.T) {
	t.Run("user prefix splits on first bang then first at", func(t *testing.T) {
		p := parsePrefix("MrNickname!~MrUser@host.example")
		require.IsType(t, UserPrefix{}, p)
		up := p.(UserPrefix)
		assert.Equal(t, "MrNickname", up.Nick)
		assert.Equal(t, "~MrUser", up.User)
		assert.Equal(t, "host.example", up.Host)
	})

	t.Run("anything else is a server prefix", func(t *testing.T) {
		p := parsePrefix("*.example.net")
		require.IsType(t, ServerPrefix(""), p)
		assert.Equal(t, ServerPrefix("*.example.net"), p)
	})
}

func TestTargetFor(t *testing.T) {
	assert.Equal(t, MsgTarget{Kind: TargetChan, Name: "#go"}, targetFor("#go"))
	assert.Equal(t, MsgTarget{Kind: TargetUser, Name: "ada"}, targetFor("ada"))
}

func TestDecode(t *testing.T) {
	t.Run("privmsg to channel", func(t *testing.T) {
		msg, err := Decode(":a!u@h PRIVMSG #chan :hello world")
		require.NoError(t, err)
		require.IsType(t, UserPrefix{}, msg.Prefix)
		up := msg.Prefix.(UserPrefix)
		assert.Equal(t, "a", up.Nick)
		assert.Equal(t, "u", up.User)
		assert.Equal(t, "h", up.Host)
		require.IsType(t, PrivMsg{}, msg.Command)
		pm := msg.Command.(PrivMsg)
		assert.Equal(t, MsgTarget{Kind: TargetChan, Name: "#chan"}, pm.Target)
		assert.Equal(t, "hello world", pm.Msg)
	})

	t.Run("name reply keeps status glyphs on nicks", func(t *testing.T) {
		msg, err := Decode(":*.example.net 353 nick = #bobcat :@nick other1 other2")
		require.NoError(t, err)
		assert.Equal(t, ServerPrefix("*.example.net"), msg.Prefix)
		require.IsType(t, NameReply{}, msg.Command)
		nr := msg.Command.(NameReply)
		assert.Equal(t, "=", nr.Sym)
		assert.Equal(t, "#bobcat", nr.Chan)
		assert.Equal(t, []string{"@nick", "other1", "other2"}, nr.Nicks)
	})

	t.Run("part with trailing channel only", func(t *testing.T) {
		msg, err := Decode(":a!u@h PART :#bobcat")
		require.NoError(t, err)
		require.IsType(t, Part{}, msg.Command)
		p := msg.Command.(Part)
		assert.Equal(t, "#bobcat", p.Chan)
		assert.Equal(t, "", p.Msg)
	})

	t.Run("part with leave message", func(t *testing.T) {
		msg, err := Decode(":a!u@h PART #bobcat :bye")
		require.NoError(t, err)
		p := msg.Command.(Part)
		assert.Equal(t, "#bobcat", p.Chan)
		assert.Equal(t, "bye", p.Msg)
	})

	t.Run("trailing parameter keeps embedded spacing", func(t *testing.T) {
		msg, err := Decode(":srv 372 nick :-  two  spaces  kept")
		require.NoError(t, err)
		m := msg.Command.(Motd)
		assert.Equal(t, "-  two  spaces  kept", m.Msg)
	})

	t.Run("myinfo pulls fixed positions", func(t *testing.T) {
		msg, err := Decode(":srv 004 nick srv ircd-1.0 iowx beI bkloveqjfI")
		require.NoError(t, err)
		mi := msg.Command.(MyInfo)
		assert.Equal(t, "ircd-1.0", mi.Version)
		assert.Equal(t, "iowx", mi.UModes)
		assert.Equal(t, "beI", mi.CModes)
		assert.Equal(t, "bkloveqjfI", mi.CModesParam)
	})

	t.Run("end of names concatenates channel and text", func(t *testing.T) {
		msg, err := Decode(":srv 366 nick #bobcat :End of /NAMES list")
		require.NoError(t, err)
		eon := msg.Command.(EndOfNames)
		assert.Equal(t, "#bobcat End of /NAMES list", eon.Msg)
	})

	t.Run("no prefix", func(t *testing.T) {
		msg, err := Decode("NOTICE * :*** Looking up your hostname...")
		require.NoError(t, err)
		assert.Nil(t, msg.Prefix)
		n := msg.Command.(Notice)
		assert.Equal(t, "*** Looking up your hostname...", n.Msg)
	})

	t.Run("unrecognized command maps to Unknown with raw params", func(t *testing.T) {
		msg, err := Decode(":srv WALLOPS :server going down")
		require.NoError(t, err)
		require.IsType(t, Unknown{}, msg.Command)
		u := msg.Command.(Unknown)
		assert.Equal(t, "WALLOPS", u.Cmd)
		assert.Equal(t, []string{"server going down"}, u.Params)
	})

	t.Run("known command missing parameters is malformed", func(t *testing.T) {
		_, err := Decode(":srv 004 nick")
		require.Error(t, err)

		_, err = Decode(":a!u@h PRIVMSG")
		require.Error(t, err)

		_, err = Decode(":srv 353 nick =")
		require.Error(t, err)
	})
}

func TestEncode(t *testing.T) {
	cases := []struct {
		name string
		got  func() (string, error)
		want string
	}{
		{"nick", func() (string, error) { return encodeNick("ada") }, "NICK ada\r\n"},
		{"user", func() (string, error) { return encodeUser("ada", "Ada L") }, "USER ada 0 * :Ada L\r\n"},
		{"join", func() (string, error) { return encodeJoin("#go") }, "JOIN #go\r\n"},
		{"privmsg", func() (string, error) { return encodePrivmsg("#go", "hello world") }, "PRIVMSG #go :hello world\r\n"},
		{"quit", func() (string, error) { return encodeQuit("bye now") }, "QUIT :bye now\r\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			line, err := tc.got()
			require.NoError(t, err)
			assert.Equal(t, tc.want, line)
		})
	}

	t.Run("pong echoes token verbatim", func(t *testing.T) {
		assert.Equal(t, "PONG :token123\r\n", encodePong(":token123"))
		assert.Equal(t, "PONG bare\r\n", encodePong("bare"))
	})
}
