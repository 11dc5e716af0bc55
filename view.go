package main

import (
	"strings"
)

// View renders three regions: the tab bar, the active tab's message pane,
// and the input line. Only the active tab's history is drawn.
func (m appModel) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	height := m.height
	if height <= 0 {
		height = 24
	}

	var b strings.Builder
	b.WriteString(m.renderTabBar(width))
	b.WriteString("\n")
	b.WriteString(m.renderMessages(height - 2))
	b.WriteString(m.renderInput(width))
	return b.String()
}

func (m appModel) renderTabBar(width int) string {
	var parts []string
	for i := range m.tabs {
		name := m.tabs[i].id.String()
		if i == m.curTab {
			parts = append(parts, m.th.ActiveTab.Render("["+name+"]"))
		} else {
			parts = append(parts, m.th.Tab.Render(" "+name+" "))
		}
	}
	bar := strings.Join(parts, " ")
	return m.th.Header.MaxWidth(width).Render(bar)
}

// renderMessages shows the trailing window of the active tab's history, one
// line per row, padded with blank rows so the input line stays at the bottom.
func (m appModel) renderMessages(rows int) string {
	if rows < 1 {
		rows = 1
	}
	lines := m.tabs[m.curTab].lines
	if len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	for i := len(lines); i < rows; i++ {
		b.WriteString("\n")
	}
	return b.String()
}

func (m appModel) renderInput(width int) string {
	return m.th.Input.MaxWidth(width).Render("> " + m.tabs[m.curTab].input)
}
