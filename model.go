package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type tabKind int

const (
	tabDebug tabKind = iota
	tabServ
	tabChan
	tabQuery
)

func (k tabKind) String() string {
	switch k {
	case tabDebug:
		return "debug"
	case tabServ:
		return "server"
	case tabChan:
		return "channel"
	case tabQuery:
		return "query"
	default:
		return "unknown"
	}
}

// tabID identifies one conversation context. Identity is structural: two
// tabs are the same conversation iff their tabIDs compare equal.
type tabID struct {
	kind tabKind
	serv string
	name string // channel or query nick; empty for debug and server tabs
}

func debugTabID() tabID                  { return tabID{kind: tabDebug} }
func servTabID(serv string) tabID        { return tabID{kind: tabServ, serv: serv} }
func chanTabID(serv, ch string) tabID    { return tabID{kind: tabChan, serv: serv, name: ch} }
func queryTabID(serv, nick string) tabID { return tabID{kind: tabQuery, serv: serv, name: nick} }

func (t tabID) String() string {
	switch t.kind {
	case tabDebug:
		return "__debug__"
	case tabServ:
		return t.serv
	default:
		return t.name
	}
}

// tab is one conversation context: an input buffer plus its line history.
type tab struct {
	id    tabID
	input string
	lines []string
}

type appConfig struct {
	stateDir  string
	nick      string
	user      string
	real      string
	autoQuery bool
}

// appModel owns the conversation model. All mutation happens inside Update,
// so sessions never touch tabs directly; they only send messages.
type appModel struct {
	cfg appConfig
	th  theme

	width  int
	height int

	tabs   []tab
	curTab int

	clients []*Client
	streams map[string]*SessionStream

	events *eventLogger
}

func newAppModel(cfg appConfig) appModel {
	return appModel{
		cfg:     cfg,
		th:      defaultTheme(),
		tabs:    []tab{{id: debugTabID()}},
		curTab:  0,
		streams: map[string]*SessionStream{},
		events:  newEventLogger(cfg.stateDir),
	}
}

func (m appModel) Init() tea.Cmd {
	return nil
}

// Messages from session streams into the update loop.

type sessionLineMsg struct {
	serv string
	line string
}

type sessionEventMsg struct {
	serv string
	ev   Event
}

// listenSession waits for the next item from either of a session's streams.
// Fair select: neither the debug stream nor the event stream has priority.
// Re-armed by Update after each delivery.
func listenSession(st *SessionStream) tea.Cmd {
	return func() tea.Msg {
		select {
		case line, ok := <-st.Debug:
			if ok {
				return sessionLineMsg{serv: st.Serv, line: line}
			}
			// Debug stream sealed; only events remain.
			if ev, ok := <-st.Events; ok {
				return sessionEventMsg{serv: st.Serv, ev: ev}
			}
			return sessionEventMsg{serv: st.Serv, ev: ClosedEvent{}}
		case ev, ok := <-st.Events:
			if ok {
				return sessionEventMsg{serv: st.Serv, ev: ev}
			}
			if line, ok := <-st.Debug; ok {
				return sessionLineMsg{serv: st.Serv, line: line}
			}
			return sessionEventMsg{serv: st.Serv, ev: ClosedEvent{}}
		}
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch t := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = t.Width
		m.height = t.Height
		return m, nil

	case sessionLineMsg:
		m.dbg(t.line)
		return m, m.relisten(t.serv)

	case sessionEventMsg:
		switch ev := t.ev.(type) {
		case ClosedEvent:
			m.finishSession(t.serv, ev.Err)
			return m, nil
		case MalformedEvent:
			m.dbg(m.th.Danger.Render(fmt.Sprintf("[%s] malformed line %q: %v", t.serv, ev.Line, ev.Err)))
			return m, m.relisten(t.serv)
		case MessageEvent:
			m.handleServerMessage(t.serv, ev.Msg)
			return m, m.relisten(t.serv)
		default:
			m.dbg(fmt.Sprintf("[%s] unhandled session event %#v", t.serv, t.ev))
			return m, m.relisten(t.serv)
		}

	case tea.KeyMsg:
		switch t.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyTab:
			m.nextTab()
			return m, nil
		case tea.KeyBackspace:
			m.popInput()
			return m, nil
		case tea.KeyEnter:
			return m.commitInput()
		case tea.KeySpace:
			m.pushInput(' ')
			return m, nil
		case tea.KeyRunes:
			for _, r := range t.Runes {
				m.pushInput(r)
			}
			return m, nil
		default:
			return m, nil
		}

	default:
		return m, nil
	}
}

func (m *appModel) relisten(serv string) tea.Cmd {
	st := m.streams[serv]
	if st == nil {
		return nil
	}
	return listenSession(st)
}

// finishSession handles the single terminal notification of a session:
// drain any raw lines still buffered on the sealed debug stream, then drop
// the stream and its handle so a later /connect can start a fresh session.
func (m *appModel) finishSession(serv string, err error) {
	if st := m.streams[serv]; st != nil {
		for line := range st.Debug {
			m.dbg(line)
		}
		delete(m.streams, serv)
	}
	for i, c := range m.clients {
		if c.Name == serv {
			m.clients = append(m.clients[:i], m.clients[i+1:]...)
			break
		}
	}
	if err != nil {
		m.dbg(m.th.Danger.Render(fmt.Sprintf("%s: disconnected: %v", serv, err)))
	} else {
		m.dbg(m.th.Danger.Render(fmt.Sprintf("%s: disconnected", serv)))
	}
}

// handleServerMessage routes one decoded event into the conversation model.
func (m *appModel) handleServerMessage(serv string, msg ServerMessage) {
	switch cmd := msg.Command.(type) {
	case PrivMsg:
		switch p := msg.Prefix.(type) {
		case UserPrefix:
			m.addChatMsg(serv, cmd.Target, p.Nick, fmt.Sprintf("<%s> %s", p.Nick, cmd.Msg))
		case ServerPrefix:
			m.addServMsg(serv, fmt.Sprintf("[%s] %s", string(p), cmd.Msg))
		default:
			m.dbg(fmt.Sprintf("[%s] PRIVMSG with no prefix %q", serv, cmd.Msg))
		}
	case Notice:
		m.addServMsg(serv, cmd.Msg)
	case Join:
		if p, ok := msg.Prefix.(UserPrefix); ok {
			m.addMsg(serv, MsgTarget{Kind: TargetChan, Name: cmd.Chan},
				fmt.Sprintf("%s (%s@%s) joined %s", p.Nick, p.User, p.Host, cmd.Chan))
		}
	case Part:
		if p, ok := msg.Prefix.(UserPrefix); ok {
			line := fmt.Sprintf("%s (%s@%s) left %s", p.Nick, p.User, p.Host, cmd.Chan)
			if cmd.Msg != "" {
				line += fmt.Sprintf(" (%s)", cmd.Msg)
			}
			m.addMsg(serv, MsgTarget{Kind: TargetChan, Name: cmd.Chan}, line)
		}
	case Nick:
		// Without per-channel membership tracking the rename can only be
		// announced on the server tab.
		if p, ok := msg.Prefix.(UserPrefix); ok {
			m.addServMsg(serv, fmt.Sprintf("%s is now known as %s", p.Nick, cmd.NewNick))
		}
	case ErrorMsg:
		// Termination is driven by the transport, not by ERROR itself.
		m.addServMsg(serv, cmd.Msg)
	case Welcome:
		m.addServMsg(serv, cmd.Msg)
	case YourHost:
		m.addServMsg(serv, cmd.Msg)
	case Created:
		m.addServMsg(serv, cmd.Msg)
	case MyInfo:
		m.addServMsg(serv, fmt.Sprintf("%s %s %s %s", cmd.Version, cmd.UModes, cmd.CModes, cmd.CModesParam))
	case ISupport:
		m.addServMsg(serv, cmd.Msg)
	case LuserClient:
		m.addServMsg(serv, cmd.Msg)
	case LuserOp:
		m.addServMsg(serv, cmd.Msg)
	case LuserUnknown:
		m.addServMsg(serv, cmd.Msg)
	case LuserChannels:
		m.addServMsg(serv, cmd.Msg)
	case LuserMe:
		m.addServMsg(serv, cmd.Msg)
	case LocalUsers:
		m.addServMsg(serv, cmd.Msg)
	case GlobalUsers:
		m.addServMsg(serv, cmd.Msg)
	case NameReply:
		m.addServMsg(serv, fmt.Sprintf("%s %s %s", cmd.Sym, cmd.Chan, strings.Join(cmd.Nicks, " ")))
	case EndOfNames:
		m.addServMsg(serv, cmd.Msg)
	case MotdStart:
		m.addServMsg(serv, cmd.Msg)
	case Motd:
		m.addServMsg(serv, cmd.Msg)
	case MotdEnd:
		m.addServMsg(serv, cmd.Msg)
	case DisplayedHost:
		m.addServMsg(serv, cmd.Msg)
	default:
		// Unknown and anything without a handling rule stays visible.
		m.dbg(fmt.Sprintf("[%s] unhandled command %#v", serv, msg.Command))
	}
}

// Conversation model operations.

func (m *appModel) dbg(line string) {
	m.tabs[0].lines = append(m.tabs[0].lines, line)
}

func tabIDForTarget(serv string, target MsgTarget) tabID {
	switch target.Kind {
	case TargetChan:
		return chanTabID(serv, target.Name)
	case TargetUser:
		return queryTabID(serv, target.Name)
	default:
		return servTabID(serv)
	}
}

// addMsg appends to the tab identified by (session, target). A miss never
// mutates any tab's history; it produces one diagnostic entry instead.
func (m *appModel) addMsg(serv string, target MsgTarget, msg string) {
	id := tabIDForTarget(serv, target)
	if i := m.findTab(id); i >= 0 {
		m.tabs[i].lines = append(m.tabs[i].lines, msg)
		return
	}
	m.dbg(fmt.Sprintf("[%s] no tab %s (%s)", serv, id, msg))
}

// addChatMsg is addMsg plus the optional query-tab auto-creation for
// inbound private messages: with autoQuery on, a PM to us opens a query tab
// keyed by the sender instead of being logged and dropped.
func (m *appModel) addChatMsg(serv string, target MsgTarget, sender, msg string) {
	if target.Kind == TargetUser && m.cfg.autoQuery {
		id := queryTabID(serv, sender)
		if m.findTab(id) < 0 {
			m.addTab(id)
		}
		i := m.findTab(id)
		m.tabs[i].lines = append(m.tabs[i].lines, msg)
		return
	}
	m.addMsg(serv, target, msg)
}

func (m *appModel) addServMsg(serv, msg string) {
	m.addMsg(serv, MsgTarget{Kind: TargetServ, Name: serv}, msg)
}

// addTab appends. Duplicate detection is the caller's responsibility.
func (m *appModel) addTab(id tabID) {
	m.tabs = append(m.tabs, tab{id: id})
}

func (m *appModel) findTab(id tabID) int {
	for i := range m.tabs {
		if m.tabs[i].id == id {
			return i
		}
	}
	return -1
}

// changeTo switches to an existing tab; it never creates one.
func (m *appModel) changeTo(id tabID) {
	if i := m.findTab(id); i >= 0 {
		m.curTab = i
		return
	}
	m.dbg(fmt.Sprintf("no tab to change to: %s", id))
}

func (m *appModel) nextTab() {
	m.curTab = (m.curTab + 1) % len(m.tabs)
}

func (m *appModel) pushInput(r rune) {
	m.tabs[m.curTab].input += string(r)
}

func (m *appModel) popInput() {
	in := m.tabs[m.curTab].input
	if in == "" {
		return
	}
	rs := []rune(in)
	m.tabs[m.curTab].input = string(rs[:len(rs)-1])
}

// takeInput drains the active tab's input buffer. It clears regardless of
// whether the committed line parses.
func (m *appModel) takeInput() string {
	in := m.tabs[m.curTab].input
	m.tabs[m.curTab].input = ""
	return in
}

func (m *appModel) findClient(serv string) *Client {
	for _, c := range m.clients {
		if c.Name == serv {
			return c
		}
	}
	return nil
}

func (m *appModel) clientForCurrentTab() *Client {
	id := m.tabs[m.curTab].id
	if id.kind == tabDebug {
		return nil
	}
	return m.findClient(id.serv)
}

// Committed-input handling.

func (m appModel) commitInput() (tea.Model, tea.Cmd) {
	input := m.takeInput()
	cmd, err := parseInput(input)
	if err != nil {
		m.dbg("Command parse error: " + err.Error())
		m.events.Append("ui", "command.error", map[string]any{"input": input, "error": err.Error()})
		return m, nil
	}

	switch c := cmd.(type) {
	case CmdConnect:
		return m.connectServer(c.Addr)

	case CmdJoin:
		m.joinChannel(c.Chan)

	case CmdQuit:
		if client := m.clientForCurrentTab(); client != nil {
			if err := client.Quit(c.Msg); err != nil {
				m.dbg(fmt.Sprintf("quit: %v", err))
			}
		}

	case CmdNick:
		if client := m.clientForCurrentTab(); client != nil {
			if err := client.Nick(c.Nick); err != nil {
				m.dbg(fmt.Sprintf("nick: %v", err))
			}
		}

	case CmdMsg:
		m.sendMsg(c.Text)

	case CmdUnsupported:
		m.dbg(fmt.Sprintf("Unsupported command: %s %s", c.Cmd, c.Rest))
	}
	return m, nil
}

func (m appModel) connectServer(addr string) (tea.Model, tea.Cmd) {
	host, port := parseServerAddr(addr)
	name := host
	if m.streams[name] != nil {
		m.dbg(fmt.Sprintf("Already connected to %s", name))
		return m, nil
	}

	m.dbg(fmt.Sprintf("Connecting to %s", addr))
	info := SessionInfo{
		Addr: host,
		Port: port,
		Nick: m.cfg.nick,
		User: m.cfg.user,
		Real: m.cfg.real,
	}
	m.dbg(fmt.Sprintf("%+v", info))

	id := servTabID(name)
	if m.findTab(id) < 0 {
		m.addTab(id)
	}
	m.changeTo(id)

	client, stream := Connect(info, m.events)
	m.clients = append(m.clients, client)
	m.streams[name] = stream
	return m, listenSession(stream)
}

// joinChannel issues JOIN for the current server tab and opens the channel
// tab. No other tab kind can name the target session.
func (m *appModel) joinChannel(ch string) {
	id := m.tabs[m.curTab].id
	if id.kind != tabServ {
		m.dbg("/join must be issued from a server tab")
		return
	}
	client := m.findClient(id.serv)
	if client == nil {
		m.dbg(fmt.Sprintf("No client found for server %s", id.serv))
		return
	}
	m.dbg(fmt.Sprintf("Joining %s on %s", ch, id.serv))
	if err := client.Join(ch); err != nil {
		m.dbg(fmt.Sprintf("join: %v", err))
		return
	}
	ct := chanTabID(id.serv, ch)
	if m.findTab(ct) < 0 {
		m.addTab(ct)
	}
	m.changeTo(ct)
}

// sendMsg delivers plain input as PRIVMSG to the current tab's target and
// echoes it locally with the handle's cached nick.
func (m *appModel) sendMsg(text string) {
	id := m.tabs[m.curTab].id
	var target MsgTarget
	switch id.kind {
	case tabChan:
		target = MsgTarget{Kind: TargetChan, Name: id.name}
	case tabQuery:
		target = MsgTarget{Kind: TargetUser, Name: id.name}
	case tabServ:
		m.dbg(fmt.Sprintf("Message sent on server tab: %s", text))
		return
	default:
		m.dbg("Message command on debug tab")
		return
	}

	client := m.findClient(id.serv)
	if client == nil {
		m.dbg(fmt.Sprintf("No client found for server %s", id.serv))
		return
	}
	if err := client.Privmsg(target.Name, text); err != nil {
		m.dbg(fmt.Sprintf("privmsg: %v", err))
		return
	}
	m.addMsg(id.serv, target, fmt.Sprintf("<%s> %s", client.CurNick, text))
}
