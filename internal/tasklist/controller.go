package tasklist

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"tasklist/internal/service"
)

// User-facing messages. A new message replaces the previous one.
const (
	MsgLoadFailed   = "Failed to load tasks. Please try again later."
	MsgAddFailed    = "Failed to add task. Please try again."
	MsgUpdateFailed = "Failed to update task. Please try again."
	MsgDeleteFailed = "Failed to delete task. Please try again."
)

// DefaultOwnerID is the owner tag given to new tasks.
const DefaultOwnerID = 1

// Outcome is how a mutation ended.
type Outcome int

const (
	// Ignored means a precondition failed and nothing changed.
	Ignored Outcome = iota
	// Confirmed means the remote call succeeded and the optimistic change stands.
	Confirmed
	// RolledBack means the remote call failed and the change was undone.
	RolledBack
)

func (o Outcome) String() string {
	switch o {
	case Confirmed:
		return "confirmed"
	case RolledBack:
		return "rolled back"
	default:
		return "ignored"
	}
}

// Controller owns the task list and is safe for concurrent use. The lock
// is held only while state changes, never across a remote call.
type Controller struct {
	svc     service.Service
	ids     IDSource
	log     *zap.Logger
	ownerID int

	mu       sync.Mutex
	state    State
	inflight map[int]struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithIDSource sets where local task ids come from.
func WithIDSource(ids IDSource) Option {
	return func(c *Controller) { c.ids = ids }
}

// WithOwnerID sets the owner tag copied onto new tasks.
func WithOwnerID(id int) Option {
	return func(c *Controller) { c.ownerID = id }
}

// New creates a Controller over svc with an empty list.
func New(svc service.Service, opts ...Option) *Controller {
	c := &Controller{
		svc:      svc,
		ids:      NewClockIDs(),
		log:      zap.NewNop(),
		ownerID:  DefaultOwnerID,
		inflight: make(map[int]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// View derives the filtered view from the current state.
func (c *Controller) View() View {
	return c.Snapshot().View()
}

// SetFilter changes which tasks the view shows.
func (c *Controller) SetFilter(f Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Filter = f
}

// ClearError drops the current message.
func (c *Controller) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Err = ""
}

// Load replaces the list with the remote one. On failure the list is left
// empty and the phase is Failed. It is not retried.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	c.state.Phase = Loading
	c.mu.Unlock()

	tasks, err := c.svc.ListTasks(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.log.Warn("load failed", zap.Error(err))
		c.state.Tasks = nil
		c.state.Err = MsgLoadFailed
		c.state.Phase = Failed
		return err
	}
	c.log.Debug("loaded tasks", zap.Int("count", len(tasks)))
	c.state.Tasks = append([]service.Task(nil), tasks...)
	c.state.Err = ""
	c.state.Phase = Ready
	return nil
}

// Add prepends a task titled title and creates it remotely. Blank titles
// and adds issued while another add is in flight are ignored. The local
// task and id stay authoritative; the remote's echo is discarded.
func (c *Controller) Add(ctx context.Context, title string) (Outcome, error) {
	title = strings.TrimSpace(title)
	var task service.Task

	return c.optimistic(ctx, mutation{
		name: "add",
		begin: func(s *State) bool {
			if title == "" || s.Submitting {
				return false
			}
			s.Submitting = true
			task = service.Task{
				ID:      c.freshID(s.Tasks),
				Title:   title,
				OwnerID: c.ownerID,
			}
			s.Tasks = prepend(s.Tasks, task)
			return true
		},
		remote: func(ctx context.Context) error {
			_, err := c.svc.CreateTask(ctx, service.NewTask{
				Title:     task.Title,
				Completed: task.Completed,
				OwnerID:   task.OwnerID,
			})
			return err
		},
		rollback: func(s *State) {
			s.Tasks = removeByID(s.Tasks, task.ID)
			s.Err = MsgAddFailed
		},
		finish: func(s *State) {
			s.Submitting = false
		},
	})
}

// Toggle flips the completed flag of task id and updates it remotely.
func (c *Controller) Toggle(ctx context.Context, id int) (Outcome, error) {
	var previous bool

	return c.optimistic(ctx, mutation{
		name:    "toggle",
		id:      id,
		perTask: true,
		begin: func(s *State) bool {
			i := indexOf(s.Tasks, id)
			if i < 0 {
				return false
			}
			previous = s.Tasks[i].Completed
			s.Tasks = setCompleted(s.Tasks, id, !previous)
			return true
		},
		remote: func(ctx context.Context) error {
			next := !previous
			_, err := c.svc.UpdateTask(ctx, id, service.TaskPatch{Completed: &next})
			return err
		},
		rollback: func(s *State) {
			s.Tasks = setCompleted(s.Tasks, id, previous)
			s.Err = MsgUpdateFailed
		},
	})
}

// Delete removes task id and deletes it remotely. A failed delete puts the
// task back at the end of the list, unless a reload already brought it back.
func (c *Controller) Delete(ctx context.Context, id int) (Outcome, error) {
	var captured service.Task

	return c.optimistic(ctx, mutation{
		name:    "delete",
		id:      id,
		perTask: true,
		begin: func(s *State) bool {
			i := indexOf(s.Tasks, id)
			if i < 0 {
				return false
			}
			captured = s.Tasks[i]
			s.Tasks = removeByID(s.Tasks, id)
			return true
		},
		remote: func(ctx context.Context) error {
			return c.svc.DeleteTask(ctx, id)
		},
		rollback: func(s *State) {
			if indexOf(s.Tasks, captured.ID) < 0 {
				s.Tasks = appendTask(s.Tasks, captured)
			}
			s.Err = MsgDeleteFailed
		},
	})
}

// freshID returns an id unused in tasks.
func (c *Controller) freshID(tasks []service.Task) int {
	for {
		id := c.ids.Next()
		if indexOf(tasks, id) < 0 {
			return id
		}
	}
}
