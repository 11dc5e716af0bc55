package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

type tabSummary struct {
	Kind   string `json:"kind"`
	Server string `json:"server,omitempty"`
	Name   string `json:"name,omitempty"`
	Lines  int    `json:"lines"`
}

func writeSessionSummary(m appModel) {
	if m.cfg.stateDir == "" {
		return
	}
	_ = os.MkdirAll(m.cfg.stateDir, 0o755)

	tabs := make([]tabSummary, 0, len(m.tabs))
	for i := range m.tabs {
		id := m.tabs[i].id
		tabs = append(tabs, tabSummary{
			Kind:   id.kind.String(),
			Server: id.serv,
			Name:   id.name,
			Lines:  len(m.tabs[i].lines),
		})
	}

	servers := make([]string, 0, len(m.clients))
	for _, c := range m.clients {
		servers = append(servers, c.Name)
	}

	out := map[string]any{
		"version":    1,
		"updatedAt":  time.Now().UTC().Format(time.RFC3339Nano),
		"nick":       m.cfg.nick,
		"activeTab":  m.tabs[m.curTab].id.String(),
		"tabs":       tabs,
		"servers":    servers,
		"eventsPath": filepath.Join(m.cfg.stateDir, "events.jsonl"),
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(m.cfg.stateDir, "summary.json"), append(b, '\n'), 0o644)
}
