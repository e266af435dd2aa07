// Package engine owns the session state machine: it decides per user
// turn whether to run a standard completion or a round table, applies
// the results to the session log, and triggers best-effort autosave.
package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/exedev/conclave/internal/archive"
	"github.com/exedev/conclave/internal/bus"
	"github.com/exedev/conclave/internal/chat"
	"github.com/exedev/conclave/internal/roundtable"
	"github.com/exedev/conclave/internal/store"
)

// autosaveThreshold is the history length above which a settled turn
// triggers an autosave.
const autosaveThreshold = 4

// Completer runs one completion; *llm.Manager satisfies it.
type Completer interface {
	GetCompletion(ctx context.Context, provider chat.Provider, model string, messages []chat.Message, system string, temperature float64) (string, error)
}

// RoundTable runs one full round; *roundtable.Orchestrator satisfies it.
type RoundTable interface {
	Run(ctx context.Context, cfg chat.RoundTableConfig, history []chat.Message, system string, temperature float64) (*roundtable.Result, error)
}

// Engine drives exactly one session. It is single-writer: callers
// serialize turns against it, one active turn at a time.
type Engine struct {
	session       *chat.ChatSession
	defaultSystem string

	completer Completer
	table     RoundTable
	sessions  *store.SessionStore // nil disables autosave
	turns     *archive.Log        // nil disables the turn journal
	events    *bus.EventBus       // nil disables progress events
	logger    *log.Logger

	status string
}

// Options wires an Engine. Only Completer and Table are required.
type Options struct {
	Session   *chat.ChatSession
	Completer Completer
	Table     RoundTable
	Sessions  *store.SessionStore
	Turns     *archive.Log
	Events    *bus.EventBus
	Logger    *log.Logger
}

func New(opts Options) *Engine {
	session := opts.Session
	if session == nil {
		session = chat.NewSession("")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		session:       session,
		defaultSystem: session.System,
		completer:     opts.Completer,
		table:         opts.Table,
		sessions:      opts.Sessions,
		turns:         opts.Turns,
		events:        opts.Events,
		logger:        logger,
		status:        "Ready",
	}
}

// Session exposes the conversation for rendering. Readers must not
// mutate it.
func (e *Engine) Session() *chat.ChatSession { return e.session }

// Status is the user-facing state of the current turn cycle.
func (e *Engine) Status() string { return e.status }

// Submit runs one user turn. Empty input is a no-op. On failure the
// user message stays in history (the input is never silently lost) and
// no assistant message is appended.
func (e *Engine) Submit(ctx context.Context, text string, active chat.ModelRef, temperature float64) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	e.status = "Processing your request..."
	e.publish(bus.Event{Type: bus.EventTurnStarted})
	if err := e.session.AddMessage(chat.RoleUser, text, ""); err != nil {
		e.status = "Ready"
		return err
	}

	start := time.Now()
	var participants int
	var err error
	switch e.session.Mode {
	case chat.ModeRoundTable:
		participants, err = e.runRoundTable(ctx, temperature)
	default:
		err = e.runStandard(ctx, active, temperature)
	}
	if err != nil {
		e.status = "Ready"
		e.publish(bus.Event{Type: bus.EventSystemError, Detail: err.Error()})
		return err
	}

	e.settle(active, participants, time.Since(start))
	return nil
}

func (e *Engine) runStandard(ctx context.Context, active chat.ModelRef, temperature float64) error {
	resp, err := e.completer.GetCompletion(ctx, active.Provider, active.Model, e.session.History, e.session.System, temperature)
	if err != nil {
		return err
	}
	return e.session.AddMessage(chat.RoleAssistant, resp, "")
}

func (e *Engine) runRoundTable(ctx context.Context, temperature float64) (int, error) {
	res, err := e.table.Run(ctx, e.session.RoundTable, e.session.History, e.session.System, temperature)
	if err != nil {
		return 0, err
	}
	// Participant answers first, in the orchestrator's deterministic
	// order, then the chairman.
	for _, a := range res.Answers {
		if err := e.session.AddMessage(chat.RoleAssistant, a.Text, a.Name); err != nil {
			return 0, err
		}
	}
	if err := e.session.AddMessage(chat.RoleAssistant, res.Summary, res.ChairmanSource); err != nil {
		return 0, err
	}
	return len(res.Answers), nil
}

// settle finishes a successful turn: autosave and journal, both
// best-effort and log-only on failure.
func (e *Engine) settle(active chat.ModelRef, participants int, took time.Duration) {
	if e.sessions != nil && len(e.session.History) > autosaveThreshold {
		if status, err := e.sessions.Autosave(e.session); err != nil {
			e.logger.Printf("autosave failed: %v", err)
		} else {
			e.logger.Printf("%s", status)
			e.publish(bus.Event{Type: bus.EventSessionAutosaved, Detail: status})
		}
	}
	if e.turns != nil {
		turn := archive.Turn{
			Mode:         string(e.session.Mode),
			Provider:     string(active.Provider),
			Model:        active.Model,
			Participants: participants,
			Duration:     took,
			OK:           true,
		}
		if e.session.Mode == chat.ModeRoundTable && e.session.RoundTable.Chairman != nil {
			turn.Provider = string(e.session.RoundTable.Chairman.Provider)
			turn.Model = e.session.RoundTable.Chairman.Model
		}
		if err := e.turns.Record(turn); err != nil {
			e.logger.Printf("turn journal write failed: %v", err)
		}
	}
	e.status = "Ready"
	e.publish(bus.Event{Type: bus.EventTurnSettled})
}

// SwitchMode changes the chat mode. When the session already has
// content and the mode actually changes, history is cleared so
// standard-shaped and round-table-shaped transcripts never mix; the
// system prompt and the roster survive.
func (e *Engine) SwitchMode(mode chat.ChatMode) string {
	if e.session.Mode != mode && e.session.HasContent() {
		e.session.ClearHistory()
		e.session.Mode = mode
		return fmt.Sprintf("Chat history cleared when switching to %s mode.", mode)
	}
	e.session.Mode = mode
	return fmt.Sprintf("Switched to %s mode.", mode)
}

// Clear empties the history and restores the system prompt the engine
// started with. The round table roster is preserved.
func (e *Engine) Clear() {
	e.session.ClearHistory()
	e.session.System = e.defaultSystem
}

// SetSystem replaces the session's system prompt (e.g. after loading a
// saved prompt file).
func (e *Engine) SetSystem(prompt string) {
	if prompt != "" {
		e.session.System = prompt
	}
}

// ReplaceSession swaps in a loaded session (e.g. from disk).
func (e *Engine) ReplaceSession(s *chat.ChatSession) {
	if s != nil {
		e.session = s
	}
}

func (e *Engine) publish(ev bus.Event) {
	if e.events != nil {
		e.events.Publish(ev)
	}
}
