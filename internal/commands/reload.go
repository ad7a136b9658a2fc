package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasklist/internal/config"
	"tasklist/internal/exitcode"
	"tasklist/internal/output"
	"tasklist/internal/tasklist"
)

func init() {
	Register(&ReloadCmd{})
}

// ReloadCmd implements the reload command. Local changes not stored by
// the remote are lost.
type ReloadCmd struct{}

func (c *ReloadCmd) Name() string      { return "reload" }
func (c *ReloadCmd) Aliases() []string { return nil }
func (c *ReloadCmd) Synopsis() string  { return "Fetch the task list again" }
func (c *ReloadCmd) Usage() string     { return "tasklist reload" }
func (c *ReloadCmd) NeedsTasks() bool  { return true }

func (c *ReloadCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ReloadCmd) Run(ctx context.Context, cfg *config.Config, ctl *tasklist.Controller, args []string, out, errOut io.Writer) int {
	if err := ctl.Load(ctx); err != nil {
		output.FormatError(errOut, ctl.Snapshot().Err)
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "loaded %d tasks\n", len(ctl.Snapshot().Tasks))
	}
	return exitcode.Success
}
