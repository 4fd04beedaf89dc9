package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"searchpipe/config"
	"searchpipe/events"
	"searchpipe/model"
	"searchpipe/pipe"
	"searchpipe/storage"
	"searchpipe/ui"
)

const (
	Version = "v0.01.00"
	License = "Apache-2.0"
)

type options struct {
	configPath  string
	pipeID      string
	query       string
	interactive bool
	save        bool
	initConfig  bool
	list        bool
	record      bool
	session     string
	history     bool
	search      string
	render      bool
	copyAnswer  bool
	jsonEvents  bool
	version     bool
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", config.GetSettingsFilePath(), "settings file")
	flag.StringVar(&o.pipeID, "pipe", "", "pipe to run ("+strings.Join(pipeIDs(), ", ")+")")
	flag.StringVar(&o.query, "q", "", "question to ask (default: remaining arguments, then stdin)")
	flag.BoolVar(&o.interactive, "interactive", false, "edit valves and pick the pipe in a form")
	flag.BoolVar(&o.save, "save", false, "write the valves entered with -interactive back to the settings file")
	flag.BoolVar(&o.initConfig, "init", false, "write a settings template and exit")
	flag.BoolVar(&o.list, "list", false, "list pipes and valves and exit")
	flag.BoolVar(&o.record, "record", false, "record the run in the transcript database")
	flag.StringVar(&o.session, "session", "", "continue a recorded session (implies -record)")
	flag.BoolVar(&o.history, "history", false, "list recent recorded runs and exit")
	flag.StringVar(&o.search, "search", "", "search recorded runs and exit")
	flag.BoolVar(&o.render, "render", false, "render the answer as markdown when it is complete")
	flag.BoolVar(&o.copyAnswer, "copy", false, "copy the answer to the clipboard")
	flag.BoolVar(&o.jsonEvents, "json", false, "print host events as JSON lines instead of text")
	flag.BoolVar(&o.version, "version", false, "print version and exit")
	flag.Parse()

	if o.query == "" {
		o.query = strings.Join(flag.Args(), " ")
	}
	if o.session != "" {
		o.record = true
	}
	return o
}

func pipeIDs() []string {
	var ids []string
	for _, p := range pipe.New().Pipes() {
		ids = append(ids, p.ID)
	}
	return ids
}

func main() {
	os.Exit(run(parseFlags()))
}

func run(o options) int {
	if o.version {
		fmt.Printf("searchpipe %s (%s)\n", Version, License)
		return 0
	}

	dataDir := config.GetDefaultDataDir()
	if err := config.EnsureDir(dataDir); err != nil {
		return fail("Failed to create data directory: %v", err)
	}
	config.InitDebugLog(dataDir)

	if o.initConfig {
		if config.FileExists(o.configPath) {
			return fail("Settings file already exists: %s", o.configPath)
		}
		if err := config.CreateDefaultSettings(o.configPath); err != nil {
			return fail("Failed to write settings: %v", err)
		}
		fmt.Println(ui.SuccessStyle.Render("Wrote " + o.configPath))
		return 0
	}

	engine := pipe.New()

	if o.list {
		printPipesAndValves(engine)
		return 0
	}

	if o.history || o.search != "" {
		return browseTranscripts(dataDir, o.search)
	}

	if o.pipeID != "" {
		if _, ok := engine.Resolve(o.pipeID); !ok {
			return fail("Unknown pipe %q (available: %s)", o.pipeID, strings.Join(pipeIDs(), ", "))
		}
	}

	settings, err := config.Load(o.configPath)
	if err != nil {
		return fail("Failed to load settings: %v", err)
	}

	if o.interactive {
		settings, err = ui.RunForm(settings)
		if errors.Is(err, ui.ErrAborted) {
			return 0
		}
		if err != nil {
			return fail("%v", err)
		}
		if o.save {
			if err := config.SaveSettings(o.configPath, settings); err != nil {
				return fail("Failed to save settings: %v", err)
			}
		}
	}

	pipeID := o.pipeID
	switch {
	case pipeID != "":
	case o.interactive:
		info, err := ui.RunPicker(engine.Pipes())
		if errors.Is(err, ui.ErrAborted) {
			return 0
		}
		if err != nil {
			return fail("%v", err)
		}
		pipeID = info.ID
	default:
		pipeID = pipe.ExaAgent
	}

	query := strings.TrimSpace(o.query)
	if query == "" {
		query = readQuery()
	}
	if query == "" {
		return fail("No question given")
	}

	var store *storage.TranscriptStore
	var history []model.Message
	if o.record {
		store, err = storage.NewTranscriptStore(dataDir)
		if err != nil {
			return fail("Failed to open transcript store: %v", err)
		}
		defer store.Close()

		if o.session != "" {
			history, err = store.History(context.Background(), o.session)
			if err != nil {
				return fail("Failed to load session %s: %v", o.session, err)
			}
		}
	}
	history = append(history, model.UserMessage(query))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var sink events.Sink
	var console *ui.ConsoleSink
	if o.jsonEvents {
		enc := json.NewEncoder(os.Stdout)
		host := events.NewHostSink(func(_ context.Context, e events.Event) error {
			return enc.Encode(e)
		})
		console = ui.NewConsoleSink(io.Discard, ui.ConsoleOptions{})
		sink = events.Multi(host, console)
	} else {
		console = ui.NewConsoleSink(os.Stdout, ui.ConsoleOptions{Render: o.render})
		sink = console
	}

	started := time.Now()
	status := engine.Pipe(ctx, model.InvocationRequest{
		History:  history,
		Variant:  pipeID,
		Settings: settings,
	}, sink)

	if store != nil {
		t := &storage.Transcript{
			SessionID: o.session,
			Pipe:      pipeID,
			Query:     query,
			Answer:    console.Answer(),
			Status:    status,
			Error:     console.Failure(),
			Citations: console.Citations(),
			Duration:  time.Since(started),
		}
		if err := store.Record(context.Background(), t); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to record transcript: %v\n", err)
		} else if !o.jsonEvents {
			fmt.Println(ui.DimStyle.Render("session " + t.SessionID))
		}
	}

	if o.copyAnswer && status == model.StatusDone {
		if err := clipboard.WriteAll(console.Answer()); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to copy answer: %v\n", err)
		}
	}

	if status != model.StatusDone {
		return 1
	}
	return 0
}

func browseTranscripts(dataDir, text string) int {
	store, err := storage.NewTranscriptStore(dataDir)
	if err != nil {
		return fail("Failed to open transcript store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	var list []storage.Transcript
	if text != "" {
		list, err = store.Search(ctx, text)
	} else {
		list, err = store.List(ctx, 20)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render(err.Error()))
		return 1
	}

	for _, t := range list {
		fmt.Printf("%s  %s  %-17s %s\n",
			ui.DimStyle.Render(t.CreatedAt.Format("2006-01-02 15:04")),
			ui.DimStyle.Render(t.SessionID),
			t.Pipe,
			t.Query)
	}
	return 0
}

func readQuery() string {
	fmt.Fprint(os.Stderr, ui.TitleStyle.Render("Question: "))
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}

func printPipesAndValves(engine *pipe.Engine) {
	fmt.Println(ui.TitleStyle.Render("Pipes"))
	for _, p := range engine.Pipes() {
		fmt.Printf("  %-18s %s\n", p.ID, ui.DimStyle.Render(p.Name))
	}

	fmt.Println()
	fmt.Println(ui.TitleStyle.Render("Valves"))
	keys := make([]string, 0, len(config.Registry))
	byKey := make(map[string]config.Valve)
	for _, v := range config.Registry {
		keys = append(keys, v.Key)
		byKey[v.Key] = v
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := byKey[k]
		def := fmt.Sprintf("%v", v.Default)
		if v.Secret {
			def = "(secret)"
		}
		fmt.Printf("  %-24s %-30s %s\n", k, def, ui.DimStyle.Render(v.Description))
	}
}

// fail reports a console error and returns the exit code for it. Callers
// return it from run so deferred cleanup still happens.
func fail(format string, args ...any) int {
	fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render(fmt.Sprintf(format, args...)))
	return 1
}
