// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"sync"

	"tasklist/internal/service"
)

// ErrNotFound is returned when a task is not found.
var ErrNotFound = errors.New("not found")

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu     sync.Mutex
	tasks  []service.Task
	nextID int
	calls  map[service.Op]int

	gate    chan struct{}
	entered chan service.Op

	// Error injection for testing. Injected errors are returned wrapped
	// in a *service.Error for the failing operation.
	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error
}

// NewFakeService creates a FakeService holding the given tasks.
func NewFakeService(tasks ...service.Task) *FakeService {
	f := &FakeService{calls: make(map[service.Op]int)}
	for _, t := range tasks {
		f.AddTask(t)
	}
	return f
}

// AddTask stores a task directly.
func (f *FakeService) AddTask(t service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, t)
	if t.ID >= f.nextID {
		f.nextID = t.ID + 1
	}
}

// Tasks returns a copy of the stored tasks.
func (f *FakeService) Tasks() []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]service.Task, len(f.tasks))
	copy(result, f.tasks)
	return result
}

// Calls returns how many times op has been invoked.
func (f *FakeService) Calls(op service.Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Hold makes every following call block until release is called. Each
// held call sends its op on entered before blocking, so a test can wait
// for a call to reach the service and inspect the state in between.
func (f *FakeService) Hold() (entered <-chan service.Op, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.entered = make(chan service.Op, 16)
	gate := f.gate
	var once sync.Once
	return f.entered, func() { once.Do(func() { close(gate) }) }
}

// Unhold lets calls made from now on through without blocking. Calls
// already held keep waiting for their release.
func (f *FakeService) Unhold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = nil
	f.entered = nil
}

// enter records the call and blocks on the gate if one is set.
func (f *FakeService) enter(ctx context.Context, op service.Op) error {
	f.mu.Lock()
	f.calls[op]++
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if gate == nil {
		return nil
	}
	entered <- op
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return service.NewError(op, ctx.Err())
	}
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	if err := f.enter(ctx, service.OpFetch); err != nil {
		return nil, err
	}
	if f.ListErr != nil {
		return nil, service.NewError(service.OpFetch, f.ListErr)
	}
	tasks := f.Tasks()
	if len(tasks) > service.ListLimit {
		tasks = tasks[:service.ListLimit]
	}
	return tasks, nil
}

// CreateTask implements service.Service. Like a mock REST store it assigns
// its own id, which callers are free to ignore.
func (f *FakeService) CreateTask(ctx context.Context, in service.NewTask) (service.Task, error) {
	if err := f.enter(ctx, service.OpCreate); err != nil {
		return service.Task{}, err
	}
	if f.CreateErr != nil {
		return service.Task{}, service.NewError(service.OpCreate, f.CreateErr)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nextID == 0 {
		f.nextID = 1
	}
	t := service.Task{ID: f.nextID, Title: in.Title, Completed: in.Completed, OwnerID: in.OwnerID}
	f.nextID++
	f.tasks = append(f.tasks, t)
	return t, nil
}

// UpdateTask implements service.Service. Unknown ids are echoed back
// without being stored, since locally created tasks never reach the store
// under their local id.
func (f *FakeService) UpdateTask(ctx context.Context, id int, patch service.TaskPatch) (service.Task, error) {
	if err := f.enter(ctx, service.OpUpdate); err != nil {
		return service.Task{}, err
	}
	if f.UpdateErr != nil {
		return service.Task{}, service.NewError(service.OpUpdate, f.UpdateErr)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks[i] = patch.Apply(t)
			return f.tasks[i], nil
		}
	}
	return patch.Apply(service.Task{ID: id}), nil
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id int) error {
	if err := f.enter(ctx, service.OpDelete); err != nil {
		return err
	}
	if f.DeleteErr != nil {
		return service.NewError(service.OpDelete, f.DeleteErr)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return nil
}
