package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/exedev/conclave/internal/chat"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	userStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	sourceStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dividerText = "---"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	width := m.width
	if width <= 0 {
		width = 80
	}
	height := m.height
	if height <= 0 {
		height = 24
	}

	var b strings.Builder
	b.WriteString(m.headerLine(width))
	b.WriteString("\n")

	// Header, status and input take four rows.
	transcriptRows := height - 4
	if transcriptRows < 1 {
		transcriptRows = 1
	}
	for _, line := range m.transcriptWindow(width, transcriptRows) {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(m.statusLine(width))
	b.WriteString("\n")
	b.WriteString("> " + m.input)
	return b.String()
}

func (m Model) headerLine(width int) string {
	title := fmt.Sprintf("conclave | %s | %s", m.mode, m.active)
	return headerStyle.Render(truncate(title, width))
}

func (m Model) statusLine(width int) string {
	status := m.status
	if m.busy {
		status = fmt.Sprintf("%s (%ds)", status, int(time.Since(m.started).Seconds()))
	}
	line := statusStyle.Render(truncate(status, width))
	if m.lastErr != "" {
		line = errorStyle.Render(truncate("error: "+m.lastErr, width))
	}
	return line
}

// transcriptWindow renders the visible slice of the conversation,
// honoring the scroll offset from the bottom. It reads the model's
// snapshot, never the engine's live session.
func (m Model) transcriptWindow(width, rows int) []string {
	lines := renderTranscript(m.transcript, width)
	if len(lines) > maxTranscriptLines {
		lines = lines[len(lines)-maxTranscriptLines:]
	}

	end := len(lines) - m.scroll
	if end < 0 {
		end = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	start := end - rows
	if start < 0 {
		start = 0
	}
	window := lines[start:end]

	// Pad so the status and input rows stay pinned to the bottom.
	for len(window) < rows {
		window = append([]string{""}, window...)
	}
	return window
}

// renderTranscript formats history for display. Standard turns show as
// You/Assistant pairs; round table turns group every sourced answer
// under the user message, with a divider only between consecutive
// answers, never before the first one.
func renderTranscript(history []chat.Message, width int) []string {
	var lines []string
	prevSourced := false
	for _, msg := range history {
		switch {
		case msg.Role == chat.RoleUser:
			if len(lines) > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, wrapPrefixed(userStyle.Render("You:"), msg.Content, width)...)
			prevSourced = false
		case msg.Source != "":
			if prevSourced {
				lines = append(lines, dividerText)
			}
			lines = append(lines, wrapPrefixed(sourceStyle.Render(msg.Source+":"), msg.Content, width)...)
			prevSourced = true
		default:
			lines = append(lines, wrapPrefixed(sourceStyle.Render("Assistant:"), msg.Content, width)...)
			prevSourced = false
		}
	}
	return lines
}

func wrapPrefixed(prefix, content string, width int) []string {
	out := []string{prefix}
	for _, paragraph := range strings.Split(content, "\n") {
		out = append(out, wrapLine(paragraph, width)...)
	}
	return out
}

// wrapLine breaks text on word boundaries using display width, so wide
// runes do not overflow the terminal.
func wrapLine(text string, width int) []string {
	if width < 10 {
		width = 10
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if runewidth.StringWidth(current)+1+runewidth.StringWidth(word) > width {
			lines = append(lines, current)
			current = word
			continue
		}
		current += " " + word
	}
	return append(lines, current)
}

func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
