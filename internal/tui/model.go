// Package tui implements the interactive chat screen on Bubble Tea.
package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/exedev/conclave/internal/bus"
	"github.com/exedev/conclave/internal/chat"
	"github.com/exedev/conclave/internal/engine"
)

const (
	maxTranscriptLines = 400
	tickInterval       = time.Second
)

// TurnDoneMsg reports the outcome of a submitted turn.
type TurnDoneMsg struct {
	Err error
}

// BusEventMsg wraps an engine event for the status line.
type BusEventMsg struct {
	Event bus.Event
}

// TickMsg drives the elapsed-time display while a turn is running.
type TickMsg struct{}

// Model is the Bubble Tea model for the chat screen.
//
// The engine mutates its session on the tea.Cmd goroutine while a turn
// runs, so View never reads the live session. The transcript and mode
// are copied into the model at construction and again on TurnDoneMsg;
// mid-turn appends only become visible once the turn settles.
type Model struct {
	engine      *engine.Engine
	active      chat.ModelRef
	temperature float64
	events      <-chan bus.Event

	// Session snapshot, owned by the model.
	transcript []chat.Message
	mode       chat.ChatMode

	// Input state
	input   string
	history []string // submitted inputs, for up-arrow recall
	histIdx int

	// Transcript view
	scroll int // offset from the bottom
	width  int
	height int

	// Turn state
	busy     bool
	started  time.Time
	status   string
	lastErr  string
	quitting bool
}

// New builds the chat model. The events channel may be nil when no bus
// is wired; the status line then only reflects turn boundaries.
func New(e *engine.Engine, active chat.ModelRef, temperature float64, events <-chan bus.Event) Model {
	m := Model{
		engine:      e,
		active:      active,
		temperature: temperature,
		events:      events,
		status:      e.Status(),
	}
	m.syncSession()
	return m
}

// syncSession copies the session state the view needs into the model.
// Only called from Update (or New), never while a turn is in flight.
func (m *Model) syncSession() {
	s := m.engine.Session()
	m.mode = s.Mode
	m.transcript = append([]chat.Message(nil), s.History...)
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), waitForEvent(m.events), tea.WindowSize())
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

func waitForEvent(events <-chan bus.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return BusEventMsg{Event: ev}
	}
}

func (m Model) submitCmd(text string) tea.Cmd {
	return func() tea.Msg {
		err := m.engine.Submit(context.Background(), text, m.active, m.temperature)
		return TurnDoneMsg{Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if m.busy {
				return m, nil
			}
			text := strings.TrimSpace(m.input)
			if text == "" {
				return m, nil
			}
			m.input = ""
			m.history = append(m.history, text)
			m.histIdx = len(m.history)
			m.busy = true
			m.started = time.Now()
			m.lastErr = ""
			m.scroll = 0
			return m, m.submitCmd(text)
		case "up":
			if m.histIdx > 0 {
				m.histIdx--
				m.input = m.history[m.histIdx]
			}
		case "down":
			if m.histIdx < len(m.history)-1 {
				m.histIdx++
				m.input = m.history[m.histIdx]
			} else {
				m.histIdx = len(m.history)
				m.input = ""
			}
		case "pgup":
			m.scroll += 5
		case "pgdown":
			if m.scroll > 0 {
				m.scroll -= 5
				if m.scroll < 0 {
					m.scroll = 0
				}
			}
		case "backspace":
			if len(m.input) > 0 {
				runes := []rune(m.input)
				m.input = string(runes[:len(runes)-1])
			}
		default:
			switch msg.Type {
			case tea.KeyRunes:
				m.input += string(msg.Runes)
			case tea.KeySpace:
				m.input += " "
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		return m, tickCmd()

	case TurnDoneMsg:
		m.busy = false
		m.syncSession()
		m.status = m.engine.Status()
		if msg.Err != nil {
			m.lastErr = msg.Err.Error()
		}
		m.scroll = 0

	case BusEventMsg:
		m.applyEvent(msg.Event)
		return m, waitForEvent(m.events)
	}

	return m, nil
}

func (m *Model) applyEvent(ev bus.Event) {
	switch ev.Type {
	case bus.EventTurnStarted:
		m.status = "Processing your request..."
	case bus.EventParticipantDone:
		m.status = ev.Participant + " answered"
	case bus.EventParticipantFail:
		m.status = ev.Participant + " failed"
	case bus.EventChairmanStarted:
		m.status = "Chairman is summarizing..."
	case bus.EventSessionAutosaved:
		m.status = "Session autosaved"
	case bus.EventTurnSettled:
		m.status = "Ready"
	case bus.EventSystemError:
		m.lastErr = ev.Detail
	}
}
