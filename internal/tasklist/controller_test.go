package tasklist_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"tasklist/internal/service"
	"tasklist/internal/tasklist"
	"tasklist/internal/testutil"
)

var errRemote = errors.New("remote down")

// seqIDs hands out 1000, 1001, ...
type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.n == 0 {
		s.n = 1000
	}
	s.n++
	return s.n - 1
}

func seeded() []service.Task {
	return []service.Task{
		{ID: 1, Title: "first", Completed: true, OwnerID: 1},
		{ID: 2, Title: "second", Completed: false, OwnerID: 1},
		{ID: 3, Title: "third", Completed: false, OwnerID: 2},
	}
}

// loaded returns a controller that has loaded the seeded tasks.
func loaded(t *testing.T, svc *testutil.FakeService, opts ...tasklist.Option) *tasklist.Controller {
	t.Helper()
	opts = append([]tasklist.Option{tasklist.WithIDSource(&seqIDs{})}, opts...)
	ctl := tasklist.New(svc, opts...)
	if err := ctl.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return ctl
}

type result struct {
	outcome tasklist.Outcome
	err     error
}

// async runs fn in a goroutine and returns a channel with its result.
func async(fn func() (tasklist.Outcome, error)) <-chan result {
	ch := make(chan result, 1)
	go func() {
		o, err := fn()
		ch <- result{o, err}
	}()
	return ch
}

func find(tasks []service.Task, id int) (service.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

func TestLoad_Success(t *testing.T) {
	svc := testutil.NewFakeService(seeded()...)
	ctl := loaded(t, svc)

	s := ctl.Snapshot()
	if s.Phase != tasklist.Ready {
		t.Errorf("expected Ready, got %v", s.Phase)
	}
	if s.Err != "" {
		t.Errorf("expected no message, got %q", s.Err)
	}
	if !reflect.DeepEqual(s.Tasks, seeded()) {
		t.Errorf("expected seeded tasks, got %+v", s.Tasks)
	}
}

func TestLoad_Failure(t *testing.T) {
	svc := testutil.NewFakeService(seeded()...)
	svc.ListErr = errRemote
	ctl := tasklist.New(svc)

	err := ctl.Load(context.Background())
	if !errors.Is(err, service.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}

	s := ctl.Snapshot()
	if s.Phase != tasklist.Failed || s.Err != tasklist.MsgLoadFailed || len(s.Tasks) != 0 {
		t.Errorf("unexpected state %+v", s)
	}
	if svc.Calls(service.OpFetch) != 1 {
		t.Errorf("expected exactly one fetch, got %d", svc.Calls(service.OpFetch))
	}
}

func TestLoad_ReloadClearsError(t *testing.T) {
	svc := testutil.NewFakeService(seeded()...)
	svc.ListErr = errRemote
	ctl := tasklist.New(svc)
	_ = ctl.Load(context.Background())

	svc.ListErr = nil
	if err := ctl.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := ctl.Snapshot()
	if s.Phase != tasklist.Ready || s.Err != "" || len(s.Tasks) != 3 {
		t.Errorf("unexpected state %+v", s)
	}
}

func TestAdd_BlankTitleIgnored(t *testing.T) {
	for _, title := range []string{"", "   ", "\t\n"} {
		svc := testutil.NewFakeService(seeded()...)
		ctl := loaded(t, svc)

		outcome, err := ctl.Add(context.Background(), title)
		if outcome != tasklist.Ignored || err != nil {
			t.Errorf("Add(%q): expected ignored, got %v %v", title, outcome, err)
		}
		if !reflect.DeepEqual(ctl.Snapshot().Tasks, seeded()) {
			t.Errorf("Add(%q): tasks changed", title)
		}
		if svc.Calls(service.OpCreate) != 0 {
			t.Errorf("Add(%q): expected no remote call", title)
		}
	}
}

func TestAdd_OptimisticThenConfirmed(t *testing.T) {
	svc := testutil.NewFakeService(seeded()...)
	ctl := loaded(t, svc)

	entered, release := svc.Hold()
	done := async(func() (tasklist.Outcome, error) { return ctl.Add(context.Background(), "  Buy milk ") })
	<-entered

	s := ctl.Snapshot()
	if len(s.Tasks) != 4 || s.Tasks[0].Title != "Buy milk" || s.Tasks[0].Completed {
		t.Fatalf("expected optimistic task first, got %+v", s.Tasks)
	}
	if !s.Submitting {
		t.Error("expected Submitting while create is in flight")
	}

	release()
	r := <-done
	if r.outcome != tasklist.Confirmed || r.err != nil {
		t.Fatalf("expected confirmed, got %v %v", r.outcome, r.err)
	}

	s = ctl.Snapshot()
	if len(s.Tasks) != 4 {
		t.Errorf("expected exactly one new task, got %d tasks", len(s.Tasks))
	}
	if s.Submitting {
		t.Error("expected Submitting cleared")
	}
	if s.Tasks[0].ID != 1000 || s.Tasks[0].OwnerID != tasklist.DefaultOwnerID {
		t.Errorf("expected local id and default owner, got %+v", s.Tasks[0])
	}
}

func TestAdd_RemoteEchoDiscarded(t *testing.T) {
	svc := testutil.NewFakeService(seeded()...)
	ctl := loaded(t, svc, tasklist.WithOwnerID(9))

	if _, err := ctl.Add(context.Background(), "Buy milk"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The fake assigned id 4 remotely; the local id must win.
	s := ctl.Snapshot()
	if _, ok := find(s.Tasks, 4); ok {
		t.Error("remote id leaked into the list")
	}
	if s.Tasks[0].ID != 1000 || s.Tasks[0].OwnerID != 9 {
		t.Errorf("unexpected new task %+v", s.Tasks[0])
	}
	stored := svc.Tasks()
	if got := stored[len(stored)-1]; got.Title != "Buy milk" || got.OwnerID != 9 || got.Completed {
		t.Errorf("unexpected create payload %+v", got)
	}
}

func TestAdd_FailureRestoresList(t *testing.T) {
	svc := testutil.NewFakeService(seeded()...)
	svc.CreateErr = errRemote
	ctl := loaded(t, svc)
	before := ctl.Snapshot().Tasks

	outcome, err := ctl.Add(context.Background(), "Buy milk")
	if outcome != tasklist.RolledBack || !errors.Is(err, service.ErrCreate) {
		t.Fatalf("expected rollback with create error, got %v %v", outcome, err)
	}

	s := ctl.Snapshot()
	if !reflect.DeepEqual(s.Tasks, before) {
		t.Errorf("expected %+v, got %+v", before, s.Tasks)
	}
	if s.Err != tasklist.MsgAddFailed {
		t.Errorf("expected add message, got %q", s.Err)
	}
	if s.Submitting {
		t.Error("expected Submitting cleared after failure")
	}
}

func TestAdd_IgnoredWhileSubmitting(t *testing.T) {
	svc := testutil.NewFakeService(seeded()...)
	ctl := loaded(t, svc)

	entered, release := svc.Hold()
	done := async(func() (tasklist.Outcome, error) { return ctl.Add(context.Background(), "first add") })
	<-entered

	outcome, err := ctl.Add(context.Background(), "second add")
	if outcome != tasklist.Ignored || err != nil {
		t.Errorf("expected second add ignored, got %v %v", outcome, err)
	}

	release()
	<-done
	if n := len(ctl.Snapshot().Tasks); n != 4 {
		t.Errorf("expected one added task, got %d tasks", n)
	}
	if svc.Calls(service.OpCreate) != 1 {
		t.Errorf("expected one create call, got %d", svc.Calls(service.OpCreate))
	}

	// The guard lifts once the first add settles.
	if outcome, _ := ctl.Add(context.Background(), "third add"); outcome != tasklist.Confirmed {
		t.Errorf("expected third add confirmed, got %v", outcome)
	}
}

func TestAdd_IDsUniqueUnderRapidAdds(t *testing.T) {
	svc := testutil.NewFakeService()
	ctl := tasklist.New(svc)
	_ = ctl.Load(context.Background())

	for i := 0; i < 50; i++ {
		if outcome, err := ctl.Add(context.Background(), "task"); outcome != tasklist.Confirmed {
			t.Fatalf("add %d: %v %v", i, outcome, err)
		}
	}

	seen := make(map[int]bool)
	for _, task := range ctl.Snapshot().Tasks {
		if seen[task.ID] {
			t.Fatalf("duplicate id %d", task.ID)
		}
		seen[task.ID] = true
	}
}

func TestAdd_SkipsIDsAlreadyInList(t *testing.T) {
	svc := testutil.NewFakeService(service.Task{ID: 1000, Title: "taken"})
	ctl := loaded(t, svc)

	if _, err := ctl.Add(context.Background(), "new"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id := ctl.Snapshot().Tasks[0].ID; id != 1001 {
		t.Errorf("expected id 1001, got %d", id)
	}
}

func TestToggle_RoundTrip(t *testing.T) {
	svc := testutil.NewFakeService(seeded()...)
	ctl := loaded(t, svc)

	for i := 0; i < 2; i++ {
		if outcome, err := ctl.Toggle(context.Background(), 2); outcome != tasklist.Confirmed {
			t.Fatalf("toggle %d: %v %v", i, outcome, err)
		}
	}
	task, _ := find(ctl.Snapshot().Tasks, 2)
	if task.Completed {
		t.Error("expected completed to return to false")
	}
	if svc.Calls(service.OpUpdate) != 2 {
		t.Errorf("expected 2 update calls, got %d", svc.Calls(service.OpUpdate))
	}
}

func TestToggle_OptimisticSendsNewValue(t *testing.T) {
	svc := testutil.NewFakeService(seeded()...)
	ctl := loaded(t, svc)

	entered, release := svc.Hold()
	done := async(func() (tasklist.Outcome, error) { return ctl.Toggle(context.Background(), 1) })
	<-entered

	if task, _ := find(ctl.Snapshot().Tasks, 1); task.Completed {
		t.Error("expected optimistic flip to false")
	}
	release()
	<-done

	stored, _ := find(svc.Tasks(), 1)
	if stored.Completed {
		t.Error("expected remote to receive completed=false")
	}
}

func TestToggle_Rollback(t *testing.T) {
	svc := testutil.NewFakeService(seeded()...)
	svc.UpdateErr = errRemote
	ctl := loaded(t, svc)

	outcome, err := ctl.Toggle(context.Background(), 1)
	if outcome != tasklist.RolledBack || !errors.Is(err, service.ErrUpdate) {
		t.Fatalf("expected rollback with update error, got %v %v", outcome, err)
	}

	s := ctl.Snapshot()
	task, _ := find(s.Tasks, 1)
	if !task.Completed {
		t.Error("expected completed restored to true")
	}
	if s.Err != tasklist.MsgUpdateFailed {
		t.Errorf("expected update message, got %q", s.Err)
	}
}

func TestToggle_MissingIgnored(t *testing.T) {
	svc := testutil.NewFakeService(seeded()...)
	ctl := loaded(t, svc)

	if outcome, err := ctl.Toggle(context.Background(), 42); outcome != tasklist.Ignored || err != nil {
		t.Errorf("expected ignored, got %v %v", outcome, err)
	}
	if svc.Calls(service.OpUpdate) != 0 {
		t.Error("expected no remote call")
	}
}

func TestToggle_SameIDWhileInFlightIgnored(t *testing.T) {
	svc := testutil.NewFakeService(seeded()...)
	ctl := loaded(t, svc)

	entered, release := svc.Hold()
	done := async(func() (tasklist.Outcome, error) { return ctl.Toggle(context.Background(), 2) })
	<-entered

	if outcome, _ := ctl.Toggle(context.Background(), 2); outcome != tasklist.Ignored {
		t.Errorf("expected overlapping toggle ignored, got %v", outcome)
	}
	if outcome, _ := ctl.Delete(context.Background(), 2); outcome != tasklist.Ignored {
		t.Errorf("expected overlapping delete ignored, got %v", outcome)
	}

	release()
	<-done
	task, _ := find(ctl.Snapshot().Tasks, 2)
	if !task.Completed {
		t.Error("expected the single toggle to stand")
	}
}

func TestToggle_DifferentIDsInterleave(t *testing.T) {
	svc := testutil.NewFakeService(seeded()...)
	ctl := loaded(t, svc)

	entered, release := svc.Hold()
	a := async(func() (tasklist.Outcome, error) { return ctl.Toggle(context.Background(), 2) })
	b := async(func() (tasklist.Outcome, error) { return ctl.Toggle(context.Background(), 3) })
	<-entered
	<-entered
	release()

	for _, ch := range []<-chan result{a, b} {
		if r := <-ch; r.outcome != tasklist.Confirmed {
			t.Errorf("expected confirmed, got %v %v", r.outcome, r.err)
		}
	}
	s := ctl.Snapshot()
	for _, id := range []int{2, 3} {
		if task, _ := find(s.Tasks, id); !task.Completed {
			t.Errorf("task %d: expected completed", id)
		}
	}
}

func TestDelete_Success(t *testing.T) {
	svc := testutil.NewFakeService(seeded()...)
	ctl := loaded(t, svc)

	if outcome, err := ctl.Delete(context.Background(), 2); outcome != tasklist.Confirmed {
		t.Fatalf("expected confirmed, got %v %v", outcome, err)
	}
	if _, ok := find(ctl.Snapshot().Tasks, 2); ok {
		t.Error("expected task removed")
	}
}

func TestDelete_RollbackAppends(t *testing.T) {
	svc := testutil.NewFakeService(seeded()...)
	svc.DeleteErr = errRemote
	ctl := loaded(t, svc)
	original, _ := find(ctl.Snapshot().Tasks, 1)

	entered, release := svc.Hold()
	done := async(func() (tasklist.Outcome, error) { return ctl.Delete(context.Background(), 1) })
	<-entered
	if _, ok := find(ctl.Snapshot().Tasks, 1); ok {
		t.Error("expected task removed optimistically")
	}
	release()

	r := <-done
	if r.outcome != tasklist.RolledBack || !errors.Is(r.err, service.ErrDelete) {
		t.Fatalf("expected rollback with delete error, got %v %v", r.outcome, r.err)
	}

	s := ctl.Snapshot()
	if len(s.Tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(s.Tasks))
	}
	if last := s.Tasks[len(s.Tasks)-1]; last != original {
		t.Errorf("expected %+v appended at the end, got %+v", original, last)
	}
	if s.Err != tasklist.MsgDeleteFailed {
		t.Errorf("expected delete message, got %q", s.Err)
	}
}

func TestDelete_RollbackAfterReloadKeepsIDsUnique(t *testing.T) {
	svc := testutil.NewFakeService(seeded()...)
	svc.DeleteErr = errRemote
	ctl := loaded(t, svc)

	entered, release := svc.Hold()
	done := async(func() (tasklist.Outcome, error) { return ctl.Delete(context.Background(), 1) })
	<-entered

	// The reload brings task 1 back while its delete is still outstanding.
	svc.Unhold()
	if err := ctl.Load(context.Background()); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	release()

	if r := <-done; r.outcome != tasklist.RolledBack {
		t.Fatalf("expected rollback, got %v %v", r.outcome, r.err)
	}

	s := ctl.Snapshot()
	seen := 0
	for _, task := range s.Tasks {
		if task.ID == 1 {
			seen++
		}
	}
	if seen != 1 {
		t.Errorf("expected task 1 once, found %d times in %+v", seen, s.Tasks)
	}
	if len(s.Tasks) != len(seeded()) {
		t.Errorf("expected %d tasks, got %d", len(seeded()), len(s.Tasks))
	}
	if s.Err != tasklist.MsgDeleteFailed {
		t.Errorf("expected delete message, got %q", s.Err)
	}
}

func TestDelete_MissingIgnored(t *testing.T) {
	svc := testutil.NewFakeService(seeded()...)
	ctl := loaded(t, svc)

	if outcome, _ := ctl.Delete(context.Background(), 42); outcome != tasklist.Ignored {
		t.Errorf("expected ignored, got %v", outcome)
	}
	if svc.Calls(service.OpDelete) != 0 {
		t.Error("expected no remote call")
	}
}

func TestMessageOverwrittenAndFailuresDoNotBlock(t *testing.T) {
	svc := testutil.NewFakeService(seeded()...)
	svc.UpdateErr = errRemote
	svc.DeleteErr = errRemote
	ctl := loaded(t, svc)

	_, _ = ctl.Toggle(context.Background(), 1)
	_, _ = ctl.Delete(context.Background(), 2)
	if got := ctl.Snapshot().Err; got != tasklist.MsgDeleteFailed {
		t.Errorf("expected latest message only, got %q", got)
	}

	svc.UpdateErr = nil
	if outcome, _ := ctl.Toggle(context.Background(), 1); outcome != tasklist.Confirmed {
		t.Errorf("expected later toggle to succeed, got %v", outcome)
	}

	ctl.ClearError()
	if got := ctl.Snapshot().Err; got != "" {
		t.Errorf("expected message cleared, got %q", got)
	}
}

func TestView_FollowsFilter(t *testing.T) {
	svc := testutil.NewFakeService(seeded()...)
	ctl := loaded(t, svc)

	ctl.SetFilter(tasklist.Pending)
	v := ctl.View()
	if len(v.Tasks) != 2 || v.Total != 3 || v.Completed != 1 || v.Filter != tasklist.Pending {
		t.Errorf("unexpected view %+v", v)
	}

	// A toggle shows up in the next read without any refresh.
	_, _ = ctl.Toggle(context.Background(), 2)
	if v := ctl.View(); len(v.Tasks) != 1 || v.Completed != 2 {
		t.Errorf("expected view to follow state, got %+v", v)
	}
}

func TestSnapshot_IsCopy(t *testing.T) {
	svc := testutil.NewFakeService(seeded()...)
	ctl := loaded(t, svc)

	s := ctl.Snapshot()
	s.Tasks[0].Title = "changed"
	if ctl.Snapshot().Tasks[0].Title != "first" {
		t.Error("snapshot shares memory with controller")
	}
}
