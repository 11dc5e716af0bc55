package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	var smoke bool
	var nick, user, real string
	flag.BoolVar(&smoke, "smoke", false, "run deterministic non-interactive smoke simulation")
	flag.StringVar(&nick, "nick", "", "nickname (overrides IRC_NICK)")
	flag.StringVar(&user, "user", "", "username (overrides IRC_USER)")
	flag.StringVar(&real, "real", "", "real name (overrides IRC_REAL)")
	flag.Parse()

	cfg := loadConfig()
	if nick != "" {
		cfg.nick = nick
	}
	if user != "" {
		cfg.user = user
	}
	if real != "" {
		cfg.real = real
	}

	m := newAppModel(cfg)

	if smoke {
		outDir := os.Getenv("TIRC_SMOKE_OUT_DIR")
		if strings.TrimSpace(outDir) == "" {
			outDir = filepath.Join(cfg.stateDir, "verify", fmt.Sprintf("run_%d", time.Now().UnixMilli()))
		}
		_ = os.MkdirAll(outDir, 0o755)
		report := runSmoke(m)
		_ = os.WriteFile(filepath.Join(outDir, "view.txt"), []byte(report.view+"\n"), 0o644)
		_ = os.WriteFile(filepath.Join(outDir, "summary.json"), []byte(report.json+"\n"), 0o644)
		writeSessionSummary(report.final)
		fmt.Println("tirc-smoke-ok")
		return
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if am, ok := finalModel.(appModel); ok {
		for _, c := range am.clients {
			_ = c.Quit("leaving")
		}
		writeSessionSummary(am)
	}
}

func loadConfig() appConfig {
	stateDir := strings.TrimSpace(os.Getenv("TIRC_STATE_DIR"))
	if stateDir == "" {
		stateDir = ".tirc"
	}
	cfg := appConfig{
		stateDir:  stateDir,
		nick:      envOr("IRC_NICK", "tirc"),
		user:      envOr("IRC_USER", "tirc"),
		real:      envOr("IRC_REAL", "tirc user"),
		autoQuery: envBool("TIRC_AUTO_QUERY"),
	}
	return cfg
}

func envOr(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

func envBool(name string) bool {
	v := strings.TrimSpace(os.Getenv(name))
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes") || strings.EqualFold(v, "on")
}

type smokeReport struct {
	view  string
	json  string
	final appModel
}

func typeString(model tea.Model, s string) tea.Model {
	for _, r := range s {
		if r == ' ' {
			model, _ = model.Update(tea.KeyMsg{Type: tea.KeySpace})
			continue
		}
		model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return model
}

// runSmoke drives Update deterministically with scripted keys and synthetic
// server traffic, no network and no terminal. Exercises tab creation, tab
// cycling, message routing, and the interpreter's error path.
func runSmoke(m appModel) smokeReport {
	var model tea.Model = m
	model, _ = model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	// Interpreter error path: /connect with no argument.
	model = typeString(model, "/connect")
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	parseErrLogged := false
	if am, ok := model.(appModel); ok {
		for _, l := range am.tabs[0].lines {
			if strings.Contains(l, "Command parse error") {
				parseErrLogged = true
			}
		}
	}

	// Synthetic session: hand the model tabs and traffic directly.
	serv := "irc.example.org"
	if am, ok := model.(appModel); ok {
		am.addTab(servTabID(serv))
		am.addTab(chanTabID(serv, "#go"))
		model = am
	}

	inject := func(raw string) {
		cmd, err := Decode(raw)
		if err != nil {
			model, _ = model.Update(sessionEventMsg{serv: serv, ev: MalformedEvent{Line: raw, Err: err}})
			return
		}
		model, _ = model.Update(sessionEventMsg{serv: serv, ev: MessageEvent{Msg: cmd}})
	}
	inject(":irc.example.org 001 tirc :Welcome to the network")
	inject(":ada!ada@host JOIN #go")
	inject(":ada!ada@host PRIVMSG #go :hello there")
	inject(":ada!ada@host PART #go :bye")

	serverTabGotWelcome := false
	chanTabGotChat := false
	if am, ok := model.(appModel); ok {
		if i := am.findTab(servTabID(serv)); i >= 0 {
			for _, l := range am.tabs[i].lines {
				if strings.Contains(l, "Welcome to the network") {
					serverTabGotWelcome = true
				}
			}
		}
		if i := am.findTab(chanTabID(serv, "#go")); i >= 0 {
			for _, l := range am.tabs[i].lines {
				if strings.Contains(l, "<ada> hello there") {
					chanTabGotChat = true
				}
			}
		}
	}

	// Cycle through every tab and back.
	tabsBefore := -1
	cycledHome := false
	if am, ok := model.(appModel); ok {
		tabsBefore = len(am.tabs)
	}
	for i := 0; i < tabsBefore; i++ {
		model, _ = model.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
	if am, ok := model.(appModel); ok {
		cycledHome = am.curTab == 0
	}

	am, _ := model.(appModel)
	view := am.View()
	summary := map[string]any{
		"version":             1,
		"ok":                  parseErrLogged && serverTabGotWelcome && chanTabGotChat && cycledHome,
		"tabs":                tabsBefore,
		"parseErrLogged":      parseErrLogged,
		"serverTabGotWelcome": serverTabGotWelcome,
		"chanTabGotChat":      chanTabGotChat,
		"cycledHome":          cycledHome,
	}
	b, _ := json.Marshal(summary)

	return smokeReport{view: view, json: string(b), final: am}
}
