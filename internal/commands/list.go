package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasklist/internal/config"
	"tasklist/internal/exitcode"
	"tasklist/internal/output"
	"tasklist/internal/tasklist"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// A filter given here applies to this listing only; see FilterCmd to
// change the session filter.
type ListCmd struct {
	filter string
}

// SetFilter sets the filter flag (for testing).
func (c *ListCmd) SetFilter(f string) {
	c.filter = f
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "tasklist list [--filter <all|completed|pending>]" }
func (c *ListCmd) NeedsTasks() bool  { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.filter, "filter", "", "")
	fs.StringVar(&c.filter, "f", "", "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, ctl *tasklist.Controller, args []string, out, errOut io.Writer) int {
	name := c.filter
	if len(args) > 0 {
		if name != "" {
			fmt.Fprintln(errOut, "error: cannot use both --filter and a filter argument")
			return exitcode.UserError
		}
		name = strings.Join(args, " ")
	}

	s := ctl.Snapshot()
	if name != "" {
		f, err := tasklist.ParseFilter(name)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		s.Filter = f
	}

	view := s.View()
	output.FormatView(out, errOut, view, cfg.Quiet)
	if view.Phase == tasklist.Failed {
		return exitcode.BackendError
	}
	return exitcode.Success
}
