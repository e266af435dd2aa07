package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/exedev/conclave/internal/archive"
	"github.com/exedev/conclave/internal/bus"
	"github.com/exedev/conclave/internal/chat"
	"github.com/exedev/conclave/internal/config"
	"github.com/exedev/conclave/internal/engine"
	"github.com/exedev/conclave/internal/llm"
	"github.com/exedev/conclave/internal/roundtable"
	"github.com/exedev/conclave/internal/store"
	"github.com/exedev/conclave/internal/tui"
)

const version = "0.1.0"

func main() {
	logger := log.New(os.Stderr, "", log.LstdFlags)

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		pterm.DisableColor()
	}

	cmd := &cli.Command{
		Name:    "conclave",
		Usage:   "Multi-provider LLM chat with round table discussions",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file with API keys"},
			&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "directory for saved sessions"},
			&cli.StringFlag{Name: "prompts-dir", Value: "prompts", Usage: "directory with system prompt files"},
			&cli.StringFlag{Name: "archive", Value: "conclave.db", Usage: "sqlite turn journal (empty disables)"},
		},
		Commands: []*cli.Command{
			chatCommand(logger),
			askCommand(logger),
			sessionsCommand(),
			historyCommand(),
			configCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func chatCommand(logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Start an interactive chat session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "provider", Value: string(chat.ProviderAnthropic), Usage: "active provider for standard mode"},
			&cli.StringFlag{Name: "model", Usage: "active model (defaults per provider)"},
			&cli.Float64Flag{Name: "temperature", Value: 0.7},
			&cli.BoolFlag{Name: "round-table", Usage: "start in round table mode"},
			&cli.StringSliceFlag{Name: "participant", Usage: "round table participant as name=provider/model (repeatable)"},
			&cli.StringFlag{Name: "chairman", Usage: "round table chairman as provider/model"},
			&cli.StringFlag{Name: "session", Usage: "saved session file to resume"},
			&cli.StringFlag{Name: "system-prompt", Usage: "system prompt file from the prompts directory"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := buildApp(cmd, logger)
			if err != nil {
				return err
			}
			defer app.close()

			active, err := resolveActive(cmd, app.cfg)
			if err != nil {
				return err
			}
			if err := applyChatFlags(cmd, app); err != nil {
				return err
			}

			events := make(chan bus.Event, 64)
			app.events.SubscribeAll(func(ev bus.Event) {
				select {
				case events <- ev:
				default:
				}
			})

			model := tui.New(app.engine, active, cmd.Float64("temperature"), events)
			_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
			return err
		},
	}
}

func askCommand(logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask a single question and print the answer",
		ArgsUsage: "<question>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "provider", Value: string(chat.ProviderAnthropic)},
			&cli.StringFlag{Name: "model"},
			&cli.Float64Flag{Name: "temperature", Value: 0.7},
			&cli.BoolFlag{Name: "round-table", Usage: "fan the question out to a round table"},
			&cli.StringSliceFlag{Name: "participant", Usage: "round table participant as name=provider/model (repeatable)"},
			&cli.StringFlag{Name: "chairman", Usage: "round table chairman as provider/model"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			question := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
			if question == "" {
				return fmt.Errorf("usage: conclave ask <question>")
			}

			app, err := buildApp(cmd, logger)
			if err != nil {
				return err
			}
			defer app.close()

			active, err := resolveActive(cmd, app.cfg)
			if err != nil {
				return err
			}
			if err := applyChatFlags(cmd, app); err != nil {
				return err
			}

			spinner, _ := pterm.DefaultSpinner.Start("Waiting for " + active.String())
			err = app.engine.Submit(ctx, question, active, cmd.Float64("temperature"))
			if spinner != nil {
				spinner.Stop()
			}
			if err != nil {
				return err
			}

			history := app.engine.Session().History
			for _, msg := range history[1:] {
				if msg.Source != "" {
					pterm.DefaultSection.Println(msg.Source)
				}
				fmt.Println(msg.Content)
			}
			return nil
		},
	}
}

func sessionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "List saved sessions, newest first",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			sessions, err := store.NewSessionStore(cmd.String("sessions-dir"))
			if err != nil {
				return err
			}
			names, err := sessions.List()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				pterm.Info.Println("No saved sessions.")
				return nil
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent turns from the archive",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 20},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.String("archive")
			if path == "" {
				return fmt.Errorf("archive is disabled (empty --archive path)")
			}
			journal, err := archive.Open(path)
			if err != nil {
				return err
			}
			defer journal.Close()

			turns, err := journal.Recent(int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			if len(turns) == 0 {
				pterm.Info.Println("No archived turns.")
				return nil
			}

			rows := pterm.TableData{{"When", "Mode", "Model", "Participants", "Took", "OK"}}
			for _, t := range turns {
				rows = append(rows, []string{
					t.At.Local().Format("2006-01-02 15:04:05"),
					t.Mode,
					fmt.Sprintf("%s (%s)", t.Model, t.Provider),
					fmt.Sprintf("%d", t.Participants),
					fmt.Sprintf("%dms", t.Duration.Milliseconds()),
					fmt.Sprintf("%t", t.OK),
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show configured providers and model catalogs",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			loadEnv(cmd)
			cfg := config.LoadFromEnv()

			available := cfg.Available()
			if len(available) == 0 {
				pterm.Warning.Println("No providers configured. Set ANTHROPIC_API_KEY, OPENROUTER_API_KEY or OPENAI_API_KEY.")
				return nil
			}
			for _, p := range chat.Providers() {
				if cfg.Key(p) == "" {
					pterm.Warning.Printfln("%s: no API key", p)
					continue
				}
				pterm.Success.Printfln("%s: configured", p)
				for _, m := range cfg.Models[p] {
					fmt.Printf("  %s\n", m)
				}
			}
			return nil
		},
	}
}

// app bundles the wired collaborators behind the commands.
type app struct {
	cfg      *config.Config
	engine   *engine.Engine
	events   *bus.EventBus
	sessions *store.SessionStore
	prompts  *store.PromptStore
	journal  *archive.Log
	logger   *log.Logger
}

func (a *app) close() {
	if a.journal != nil {
		a.journal.Close()
	}
}

func buildApp(cmd *cli.Command, logger *log.Logger) (*app, error) {
	loadEnv(cmd)
	cfg := config.LoadFromEnv()

	manager := llm.NewManager(llm.Options{
		AnthropicAPIKey:  cfg.AnthropicAPIKey,
		OpenRouterAPIKey: cfg.OpenRouterAPIKey,
		OpenAIAPIKey:     cfg.OpenAIAPIKey,
		MaxTokens:        cfg.MaxTokens,
		Logger:           logger,
	})
	if len(manager.Available()) == 0 {
		return nil, fmt.Errorf("no providers configured: set ANTHROPIC_API_KEY, OPENROUTER_API_KEY or OPENAI_API_KEY")
	}

	events := bus.New(256)
	table := roundtable.New(manager, events, logger)

	sessions, err := store.NewSessionStore(cmd.String("sessions-dir"))
	if err != nil {
		return nil, err
	}
	prompts, err := store.NewPromptStore(cmd.String("prompts-dir"))
	if err != nil {
		return nil, err
	}

	var journal *archive.Log
	if path := cmd.String("archive"); path != "" {
		journal, err = archive.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open archive: %w", err)
		}
	}

	system, err := prompts.LoadDefault()
	if err != nil {
		logger.Printf("default prompt unavailable: %v", err)
	}
	if system == "" {
		system = chat.DefaultSystemPrompt
	}

	eng := engine.New(engine.Options{
		Session:   chat.NewSession(system),
		Completer: manager,
		Table:     table,
		Sessions:  sessions,
		Turns:     journal,
		Events:    events,
		Logger:    logger,
	})

	return &app{
		cfg:      cfg,
		engine:   eng,
		events:   events,
		sessions: sessions,
		prompts:  prompts,
		journal:  journal,
		logger:   logger,
	}, nil
}

func loadEnv(cmd *cli.Command) {
	// Missing env file is fine; the environment may carry the keys.
	if path := cmd.String("env-file"); path != "" {
		_ = godotenv.Load(path)
	}
}

// applyChatFlags moves session, mode and round table flags onto the
// engine's session.
func applyChatFlags(cmd *cli.Command, a *app) error {
	if name := cmd.String("session"); name != "" {
		session, status, err := a.sessions.Load(name)
		if err != nil {
			return err
		}
		if status != "" {
			a.logger.Print(status)
		}
		a.engine.ReplaceSession(session)
	}

	if name := cmd.String("system-prompt"); name != "" {
		prompt, err := a.prompts.Load(name)
		if err != nil {
			return err
		}
		a.engine.SetSystem(prompt)
	}

	session := a.engine.Session()
	for _, spec := range cmd.StringSlice("participant") {
		name, ref, err := parseParticipant(spec)
		if err != nil {
			return err
		}
		if err := session.RoundTable.AddParticipant(name, ref); err != nil {
			return err
		}
	}
	if spec := cmd.String("chairman"); spec != "" {
		ref, err := parseModelRef(spec)
		if err != nil {
			return err
		}
		session.RoundTable.SetChairman(ref)
	}

	if cmd.Bool("round-table") {
		if len(session.RoundTable.Models) == 0 {
			return fmt.Errorf("round table mode needs at least one --participant")
		}
		if session.RoundTable.Chairman == nil {
			return fmt.Errorf("round table mode needs a --chairman")
		}
		a.engine.SwitchMode(chat.ModeRoundTable)
	}
	return nil
}

// resolveActive picks the standard-mode provider and model from flags,
// falling back to the provider's default catalog entry.
func resolveActive(cmd *cli.Command, cfg *config.Config) (chat.ModelRef, error) {
	provider, err := parseProvider(cmd.String("provider"))
	if err != nil {
		return chat.ModelRef{}, err
	}
	model := cmd.String("model")
	if model == "" {
		model = cfg.DefaultModel(provider)
	}
	if model == "" {
		return chat.ModelRef{}, fmt.Errorf("no model known for provider %s, pass --model", provider)
	}
	return chat.ModelRef{Provider: provider, Model: model}, nil
}

func parseProvider(name string) (chat.Provider, error) {
	for _, p := range chat.Providers() {
		if strings.EqualFold(string(p), name) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", name)
}

// parseParticipant splits "name=provider/model".
func parseParticipant(spec string) (string, chat.ModelRef, error) {
	name, rest, ok := strings.Cut(spec, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", chat.ModelRef{}, fmt.Errorf("participant %q: want name=provider/model", spec)
	}
	ref, err := parseModelRef(rest)
	if err != nil {
		return "", chat.ModelRef{}, fmt.Errorf("participant %q: %w", spec, err)
	}
	return name, ref, nil
}

// parseModelRef splits "provider/model"; the model part may itself
// contain slashes (OpenRouter model IDs do).
func parseModelRef(spec string) (chat.ModelRef, error) {
	providerName, model, ok := strings.Cut(spec, "/")
	if !ok || strings.TrimSpace(model) == "" {
		return chat.ModelRef{}, fmt.Errorf("want provider/model, got %q", spec)
	}
	provider, err := parseProvider(strings.TrimSpace(providerName))
	if err != nil {
		return chat.ModelRef{}, err
	}
	return chat.ModelRef{Provider: provider, Model: strings.TrimSpace(model)}, nil
}
