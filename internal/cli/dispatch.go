package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"tasklist/internal/commands"
	"tasklist/internal/config"
	"tasklist/internal/exitcode"
	"tasklist/internal/logging"
	"tasklist/internal/output"
	"tasklist/internal/service"
	"tasklist/internal/tasklist"
)

// prompt is printed before each shell line unless --quiet.
const prompt = "> "

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config, log *zap.Logger) (service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// session holds what one invocation shares across commands. The
// controller is created and loaded on first use.
type session struct {
	cfg *config.Config
	log *zap.Logger
	ctl *tasklist.Controller
}

// Run parses arguments and dispatches to the appropriate command. With no
// command it runs an interactive session reading from in.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("tasklist", flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Global flags
	var configDir, baseURL string
	var quiet, debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.StringVar(&baseURL, "url", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", flagErrorMessage(err))
		return exitcode.UserError
	}

	// Create config
	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: config error: %s\n", err)
		return exitcode.ConfigError
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	log := logging.New(cfg, errOut)
	defer func() { _ = log.Sync() }()

	sess := &session{cfg: cfg, log: log}

	remaining := fs.Args()
	if len(remaining) == 0 {
		return d.shell(ctx, sess, in, out, errOut)
	}
	return d.dispatch(ctx, sess, remaining, out, errOut)
}

// shell loads the list, shows it, then runs one command per input line
// until quit, exit or end of input. Command failures do not end it.
func (d *Dispatcher) shell(ctx context.Context, sess *session, in io.Reader, out, errOut io.Writer) int {
	ctl, code := d.controller(ctx, sess, errOut)
	if ctl == nil {
		return code
	}
	if code == exitcode.Success {
		output.FormatView(out, errOut, ctl.View(), sess.cfg.Quiet)
	}

	scanner := bufio.NewScanner(in)
	for {
		if !sess.cfg.Quiet {
			fmt.Fprint(out, prompt)
		}
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "quit", "exit":
			return exitcode.Success
		}
		code := d.dispatch(ctx, sess, fields, out, errOut)
		sess.log.Debug("shell command", zap.String("command", fields[0]), zap.Int("code", code))
		if ctx.Err() != nil {
			return exitcode.BackendError
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !sess.cfg.Quiet {
		fmt.Fprintln(out)
	}
	return exitcode.Success
}

// dispatch looks up args[0] and runs it with the remaining arguments.
func (d *Dispatcher) dispatch(ctx context.Context, sess *session, args []string, out, errOut io.Writer) int {
	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, sess, cmd, args[1:], out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, sess *session, cmd commands.Command, args []string, out, errOut io.Writer) int {
	// Create flag set with custom error handling
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// Register command-specific flags
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", flagErrorMessage(err))
		return exitcode.UserError
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	var ctl *tasklist.Controller
	if cmd.NeedsTasks() {
		var code int
		ctl, code = d.controller(ctx, sess, errOut)
		if code != exitcode.Success {
			return code
		}
	}

	return cmd.Run(ctx, sess.cfg, ctl, positionalArgs, out, errOut)
}

// controller returns the session's controller, creating and loading it on
// first use. A failed load still yields the controller, in the Failed
// phase, together with BackendError; later calls return it with Success.
func (d *Dispatcher) controller(ctx context.Context, sess *session, errOut io.Writer) (*tasklist.Controller, int) {
	if sess.ctl != nil {
		return sess.ctl, exitcode.Success
	}

	if d.factory == nil {
		fmt.Fprintln(errOut, "error: backend error: no service configured")
		return nil, exitcode.BackendError
	}
	svc, err := d.factory(ctx, sess.cfg, sess.log)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return nil, exitcode.BackendError
	}

	sess.ctl = tasklist.New(svc,
		tasklist.WithLogger(sess.log),
		tasklist.WithOwnerID(sess.cfg.OwnerID),
	)
	if err := sess.ctl.Load(ctx); err != nil {
		output.FormatView(io.Discard, errOut, sess.ctl.View(), sess.cfg.Quiet)
		return sess.ctl, exitcode.BackendError
	}
	return sess.ctl, exitcode.Success
}

// flagErrorMessage rewrites flag package errors into the CLI's wording.
func flagErrorMessage(err error) string {
	errStr := err.Error()

	// Check for missing flag value
	if strings.HasPrefix(errStr, "flag needs an argument:") {
		return errStr
	}

	// Check for unknown flag
	if strings.HasPrefix(errStr, "flag provided but not defined:") {
		flagName := strings.TrimPrefix(errStr, "flag provided but not defined: ")
		return "unknown flag: " + flagName
	}

	return errStr
}
