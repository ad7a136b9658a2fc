package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tasklist/internal/exitcode"
	"tasklist/internal/output"
	"tasklist/internal/tasklist"
)

// ErrTaskIDRequired is returned when no task id is given.
var ErrTaskIDRequired = errors.New("task id required")

// ParseTaskID parses the single positional task id.
func ParseTaskID(args []string) (int, error) {
	if len(args) == 0 {
		return 0, ErrTaskIDRequired
	}
	if len(args) > 1 {
		return 0, fmt.Errorf("too many arguments: %s", strings.Join(args[1:], " "))
	}
	id, err := strconv.Atoi(strings.TrimPrefix(args[0], "#"))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid task id: %s", args[0])
	}
	return id, nil
}

// reportRollback shows the controller's message once and clears it.
func reportRollback(ctl *tasklist.Controller, errOut io.Writer) int {
	output.FormatError(errOut, ctl.Snapshot().Err)
	ctl.ClearError()
	return exitcode.BackendError
}

// reportIgnored explains why a toggle or delete did nothing.
func reportIgnored(ctl *tasklist.Controller, id int, errOut io.Writer) int {
	for _, t := range ctl.Snapshot().Tasks {
		if t.ID == id {
			fmt.Fprintf(errOut, "error: task busy: %d\n", id)
			return exitcode.UserError
		}
	}
	fmt.Fprintf(errOut, "error: task not found: %d\n", id)
	return exitcode.UserError
}
