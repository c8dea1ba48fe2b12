package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixtape/internal/api"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/stream"
	"github.com/desertthunder/mixtape/internal/workflow"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	client  *api.Client
	streams *stream.Manager
	store   *workflow.Store
	logger  *log.Logger
	output  io.Writer
	db      *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Client  *api.Client
	Streams *stream.Manager
	Store   *workflow.Store
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Client == nil {
		opts.Client = api.NewClient(opts.Config.API.BaseURL, nil)
	}
	if opts.Streams == nil {
		opts.Streams = stream.NewManager(opts.Config.API.BaseURL, opts.Logger, streamOptions(opts.Config))
	}
	if opts.Store == nil {
		opts.Store = workflow.NewStore(workflow.StoreOpts{
			Backend:      opts.Client,
			Streams:      opts.Streams,
			Logger:       opts.Logger,
			PollInterval: pollInterval(opts.Config),
		})
	}

	return &Runner{
		config:  opts.Config,
		client:  opts.Client,
		streams: opts.Streams,
		store:   opts.Store,
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

// streamOptions maps config values onto transport options, leaving zero
// fields for the stream package defaults.
func streamOptions(config *shared.Config) stream.Options {
	return stream.Options{
		PingInterval: time.Duration(config.Stream.PingIntervalSeconds) * time.Second,
		MaxAttempts:  config.Stream.MaxReconnectAttempts,
	}
}

func pollInterval(config *shared.Config) time.Duration {
	return time.Duration(config.Stream.PollIntervalSeconds) * time.Second
}

// SetLogger swaps the runner's logger (used to redirect logs during TUI runs).
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		createCommand, statusCommand, cancelCommand, editCommand, saveCommand, syncCommand,
		searchCommand, exportCommand, authCommand, historyCommand, setupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// database lazily opens the local cache database. Commands that need it fail
// with a setup hint when it has never been initialized.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database (run 'mixtape setup database' first): %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.db = db
	return db, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
