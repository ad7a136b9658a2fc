package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasklist/internal/config"
	"tasklist/internal/exitcode"
	"tasklist/internal/tasklist"
)

func init() {
	Register(&FilterCmd{})
}

// FilterCmd implements the filter command.
type FilterCmd struct{}

func (c *FilterCmd) Name() string      { return "filter" }
func (c *FilterCmd) Aliases() []string { return nil }
func (c *FilterCmd) Synopsis() string  { return "Set which tasks the list shows" }
func (c *FilterCmd) Usage() string     { return "tasklist filter <all|completed|pending>" }
func (c *FilterCmd) NeedsTasks() bool  { return true }

func (c *FilterCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *FilterCmd) Run(ctx context.Context, cfg *config.Config, ctl *tasklist.Controller, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: filter required")
		return exitcode.UserError
	}

	f, err := tasklist.ParseFilter(strings.Join(args, " "))
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	ctl.SetFilter(f)

	if !cfg.Quiet {
		fmt.Fprintf(out, "filter: %s\n", f)
	}
	return exitcode.Success
}
