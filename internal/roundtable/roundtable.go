// Package roundtable fans a user turn out to every configured
// participant, joins the results, and asks a chairman model to
// synthesize them into one answer.
package roundtable

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/exedev/conclave/internal/bus"
	"github.com/exedev/conclave/internal/chat"
)

const (
	participantPromptSuffix = "\n\nYou are participating in a round table discussion with other AI models. " +
		"Provide your perspective on the user's query."

	chairmanPromptSuffix = "\n\nYou are the chairman of a round table discussion. " +
		"Review the perspectives from other AI models and provide a comprehensive summary that " +
		"highlights key insights, areas of agreement and disagreement, and your own judgment on the matter."

	chairmanContextHeader = "Here are the responses from the round table participants:\n\n"
	chairmanContextFooter = "Please synthesize these perspectives and provide your final summary as the chairman."
)

// Completer is the slice of the completion engine the orchestrator
// needs. *llm.Manager satisfies it.
type Completer interface {
	GetCompletion(ctx context.Context, provider chat.Provider, model string, messages []chat.Message, system string, temperature float64) (string, error)
}

// Answer is one participant's successful response.
type Answer struct {
	Name string
	Text string
}

// Result is a settled round: the surviving answers in deterministic
// (name-sorted) order plus the chairman's synthesis.
type Result struct {
	Answers        []Answer
	Summary        string
	ChairmanSource string
}

type Orchestrator struct {
	completer Completer
	events    *bus.EventBus
	logger    *log.Logger
}

// New creates an orchestrator. events may be nil when no surface is
// interested in progress checkpoints.
func New(completer Completer, events *bus.EventBus, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{completer: completer, events: events, logger: logger}
}

// Run executes one round. Participants are queried concurrently, one
// goroutine each, and the chairman call only starts once every
// participant has settled. Individual participant failures shrink the
// result set; the round fails only when nobody answered or the
// chairman itself fails.
func (o *Orchestrator) Run(ctx context.Context, cfg chat.RoundTableConfig, history []chat.Message, system string, temperature float64) (*Result, error) {
	if len(cfg.Models) == 0 {
		return nil, fmt.Errorf("no models configured for round table")
	}
	if cfg.Chairman == nil {
		return nil, fmt.Errorf("no chairman model selected for round table")
	}

	answers, failures := o.fanOut(ctx, cfg.Models, history, system, temperature)
	if len(answers) == 0 {
		return nil, fmt.Errorf("all round table models failed: %s", strings.Join(failures, "; "))
	}

	o.publish(bus.Event{Type: bus.EventChairmanStarted, Detail: cfg.Chairman.Model})

	summary, err := o.chairmanSummary(ctx, *cfg.Chairman, history, system, answers, temperature)
	if err != nil {
		return nil, fmt.Errorf("chairman summary: %w", err)
	}

	return &Result{
		Answers:        answers,
		Summary:        summary,
		ChairmanSource: fmt.Sprintf("Chairman (%s)", cfg.Chairman.Model),
	}, nil
}

// fanOut queries every participant concurrently and waits for all of
// them to settle. Answers come back sorted by participant name so
// transcripts are stable run to run, regardless of completion order.
func (o *Orchestrator) fanOut(ctx context.Context, participants map[string]chat.ModelRef, history []chat.Message, system string, temperature float64) ([]Answer, []string) {
	system = system + participantPromptSuffix

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		results  = make(map[string]string, len(participants))
		failures []string
	)

	for name, ref := range participants {
		wg.Add(1)
		go func(name string, ref chat.ModelRef) {
			defer wg.Done()
			text, err := o.completer.GetCompletion(ctx, ref.Provider, ref.Model, history, system, temperature)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				o.logger.Printf("round table participant %s (%s/%s) failed: %v", name, ref.Provider, ref.Model, err)
				failures = append(failures, fmt.Sprintf("%s: %v", name, err))
				o.publish(bus.Event{Type: bus.EventParticipantFail, Participant: name, Detail: err.Error()})
				return
			}
			results[name] = text
			o.publish(bus.Event{Type: bus.EventParticipantDone, Participant: name})
		}(name, ref)
	}
	wg.Wait()

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	answers := make([]Answer, 0, len(names))
	for _, name := range names {
		answers = append(answers, Answer{Name: name, Text: results[name]})
	}
	sort.Strings(failures)
	return answers, failures
}

// chairmanSummary builds the chairman's view of the round: only the
// prior user turns (per-participant noise is deliberately excluded)
// plus one synthetic user message carrying every answer.
func (o *Orchestrator) chairmanSummary(ctx context.Context, chairman chat.ModelRef, history []chat.Message, system string, answers []Answer, temperature float64) (string, error) {
	var msgs []chat.Message
	for _, m := range history {
		if m.Role == chat.RoleUser {
			msgs = append(msgs, m)
		}
	}

	var b strings.Builder
	b.WriteString(chairmanContextHeader)
	for _, a := range answers {
		fmt.Fprintf(&b, "=== %s ===\n%s\n\n", a.Name, a.Text)
	}
	b.WriteString(chairmanContextFooter)
	msgs = append(msgs, chat.Message{Role: chat.RoleUser, Content: b.String()})

	return o.completer.GetCompletion(ctx, chairman.Provider, chairman.Model, msgs, system+chairmanPromptSuffix, temperature)
}

func (o *Orchestrator) publish(ev bus.Event) {
	if o.events != nil {
		o.events.Publish(ev)
	}
}
