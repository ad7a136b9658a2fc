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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "tasklist help" }
func (c *HelpCmd) NeedsTasks() bool  { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, ctl *tasklist.Controller, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	fmt.Fprintln(out, "\nCommands:")
	for _, cmd := range DefaultRegistry.All() {
		name := cmd.Name()
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			name += " (" + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintf(out, "  %-18s %s\n", name, cmd.Synopsis())
	}
	return exitcode.Success
}

const helpText = `Usage:
  tasklist [global flags]                    Start an interactive session
  tasklist [global flags] list [--filter <all|completed|pending>]
  tasklist [global flags] add <title...>
  tasklist [global flags] toggle <id>
  tasklist [global flags] rm <id>
  tasklist [global flags] filter <all|completed|pending>
  tasklist [global flags] reload
  tasklist help
  tasklist version

Global flags:
  --config <dir>   Override config directory
  --url <url>      Override the remote task collection URL
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr

In a session, type a command without the tasklist prefix. quit or exit ends it.
`
