// Package tasklist holds the in-memory task list and reconciles it with the
// remote service through optimistic updates.
package tasklist

import (
	"fmt"
	"strings"

	"tasklist/internal/service"
)

// Filter selects which tasks the view shows.
type Filter int

const (
	All Filter = iota
	Completed
	Pending
)

func (f Filter) String() string {
	switch f {
	case Completed:
		return "completed"
	case Pending:
		return "pending"
	default:
		return "all"
	}
}

// ParseFilter parses a filter name (case-insensitive, trimmed).
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "":
		return All, nil
	case "completed", "done":
		return Completed, nil
	case "pending", "open":
		return Pending, nil
	default:
		return All, fmt.Errorf("invalid filter: %s", s)
	}
}

// Match reports whether t passes the filter.
func (f Filter) Match(t service.Task) bool {
	switch f {
	case Completed:
		return t.Completed
	case Pending:
		return !t.Completed
	default:
		return true
	}
}

// Phase tracks the initial load.
type Phase int

const (
	Idle Phase = iota
	Loading
	Ready
	Failed
)

// State is a snapshot of the controller. Tasks is never shared with the
// controller, so callers may keep or modify it.
type State struct {
	Tasks      []service.Task
	Filter     Filter
	Phase      Phase
	Err        string
	Submitting bool
}

// Visible returns the tasks matching the filter, in display order.
func (s State) Visible() []service.Task {
	out := make([]service.Task, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		if s.Filter.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Counts returns the total and completed task counts, ignoring the filter.
func (s State) Counts() (total, completed int) {
	for _, t := range s.Tasks {
		if t.Completed {
			completed++
		}
	}
	return len(s.Tasks), completed
}

// View is the read-only derived view shown to the user.
type View struct {
	Tasks     []service.Task
	Total     int
	Completed int
	Filter    Filter
	Phase     Phase
	Err       string
}

// View derives the filtered view from the snapshot.
func (s State) View() View {
	total, completed := s.Counts()
	return View{
		Tasks:     s.Visible(),
		Total:     total,
		Completed: completed,
		Filter:    s.Filter,
		Phase:     s.Phase,
		Err:       s.Err,
	}
}

func (s State) clone() State {
	s.Tasks = append([]service.Task(nil), s.Tasks...)
	return s
}

// Pure list transitions. Each returns a new slice and leaves its input alone.

func indexOf(tasks []service.Task, id int) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func prepend(tasks []service.Task, t service.Task) []service.Task {
	out := make([]service.Task, 0, len(tasks)+1)
	out = append(out, t)
	return append(out, tasks...)
}

func appendTask(tasks []service.Task, t service.Task) []service.Task {
	out := make([]service.Task, 0, len(tasks)+1)
	out = append(out, tasks...)
	return append(out, t)
}

func removeByID(tasks []service.Task, id int) []service.Task {
	out := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

func setCompleted(tasks []service.Task, id int, completed bool) []service.Task {
	out := make([]service.Task, len(tasks))
	for i, t := range tasks {
		if t.ID == id {
			t.Completed = completed
		}
		out[i] = t
	}
	return out
}
