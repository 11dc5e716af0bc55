package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// eventLogger appends observability records to events.jsonl under the state
// dir. The Debug tab is the user-visible diagnostic surface; this file is the
// machine-readable one. A nil logger discards everything.
type eventLogger struct {
	path string
	mu   sync.Mutex
	seq  uint64
}

type eventRecord struct {
	Timestamp string `json:"timestamp"`
	Seq       uint64 `json:"seq"`
	Source    string `json:"source"`
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
}

func newEventLogger(stateDir string) *eventLogger {
	if stateDir == "" {
		return nil
	}
	_ = os.MkdirAll(stateDir, 0o755)
	return &eventLogger{path: filepath.Join(stateDir, "events.jsonl")}
}

func (l *eventLogger) Append(source string, eventType string, payload any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	rec := eventRecord{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Seq:       l.seq,
		Source:    source,
		Type:      eventType,
		Payload:   payload,
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	_, _ = f.Write(append(b, '\n'))
	_ = f.Close()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
