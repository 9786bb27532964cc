package core

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/valter-silva-au/flowboard/pkg/models"
	"pgregory.net/rapid"
)

func newTestBoard(t *testing.T, tasks ...models.Task) (*Board, *fakePersister, *fakeEvents) {
	t.Helper()
	p := &fakePersister{loaded: tasks}
	ev := &fakeEvents{}
	store := NewTaskStore(p, ev, nullLogger())
	b := NewBoard(store,
		WithIDGenerator(&seqIDs{}),
		WithClock(fixedNow),
		WithEventLogger(ev),
		WithLogger(nullLogger()),
	)
	t.Cleanup(b.Close)
	return b, p, ev
}

func TestBoard_InitialView(t *testing.T) {
	b, _, _ := newTestBoard(t,
		task("A", models.StatusTodo, 1),
		task("B", models.StatusTodo, 0),
		task("C", models.StatusDone, 0),
	)

	view := b.View()
	if got := ids(view.Column(models.StatusTodo)); !reflect.DeepEqual(got, []string{"B", "A"}) {
		t.Errorf("todo = %v, want [B A]", got)
	}
	if view.Count(models.StatusDone) != 1 {
		t.Errorf("done count = %d, want 1", view.Count(models.StatusDone))
	}
	if opts := b.Options(); opts.Filter != models.FilterAll || opts.Sort != models.SortManual {
		t.Errorf("default options = %+v", opts)
	}
}

func TestBoard_SaveTaskCreatesAndRefreshes(t *testing.T) {
	b, p, ev := newTestBoard(t)

	created, err := b.SaveTask(TaskDraft{Title: "Write docs"})
	if err != nil {
		t.Fatalf("SaveTask: %v", err)
	}
	if created.ID != "id-1" || created.Status != models.StatusTodo || created.Priority != models.PriorityMedium {
		t.Errorf("created = %+v", created)
	}
	if got := ids(b.View().Column(models.StatusTodo)); !reflect.DeepEqual(got, []string{"id-1"}) {
		t.Errorf("todo = %v, want [id-1]", got)
	}
	if len(p.saved) != 1 {
		t.Errorf("saves = %d, want 1", len(p.saved))
	}
	if !reflect.DeepEqual(ev.types, []string{EventTaskCreated}) {
		t.Errorf("events = %v", ev.types)
	}
}

func TestBoard_SaveTaskRejectsEmptyTitle(t *testing.T) {
	b, p, _ := newTestBoard(t)

	_, err := b.SaveTask(TaskDraft{Title: "   "})
	if !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("err = %v, want ErrEmptyTitle", err)
	}
	if len(b.Tasks()) != 0 || len(p.saved) != 0 {
		t.Error("invalid draft reached the store")
	}
}

func TestBoard_EditMovesBetweenColumns(t *testing.T) {
	b, _, _ := newTestBoard(t, task("A", models.StatusTodo, 0), task("B", models.StatusDone, 0))

	draft := DraftFromTask(task("A", models.StatusTodo, 0))
	draft.Status = models.StatusDone
	if _, err := b.SaveTask(draft); err != nil {
		t.Fatalf("SaveTask: %v", err)
	}

	view := b.View()
	if view.Count(models.StatusTodo) != 0 {
		t.Errorf("todo count = %d, want 0", view.Count(models.StatusTodo))
	}
	if got := ids(view.Column(models.StatusDone)); !reflect.DeepEqual(got, []string{"B", "A"}) {
		t.Errorf("done = %v, want [B A]", got)
	}
}

func TestBoard_DeleteTask(t *testing.T) {
	b, _, ev := newTestBoard(t, task("A", models.StatusTodo, 0), task("B", models.StatusTodo, 1))

	b.BeginDrag("A")
	b.DeleteTask("A")

	if b.DraggingID() != "" {
		t.Error("deleting the dragged task should cancel the drag")
	}
	if got := ids(b.Tasks()); !reflect.DeepEqual(got, []string{"B"}) {
		t.Errorf("tasks = %v, want [B]", got)
	}
	if b.View().Total() != 1 {
		t.Errorf("view total = %d, want 1", b.View().Total())
	}
	if !reflect.DeepEqual(ev.types, []string{EventTaskDeleted}) {
		t.Errorf("events = %v", ev.types)
	}

	b.DeleteTask("missing")
	if len(b.Tasks()) != 1 {
		t.Error("deleting an unknown id changed the board")
	}
}

func TestBoard_DragAndDrop(t *testing.T) {
	b, _, ev := newTestBoard(t, task("A", models.StatusTodo, 0), task("B", models.StatusTodo, 1))

	if b.BeginDrag("missing") {
		t.Error("BeginDrag accepted an unknown task")
	}
	if !b.BeginDrag("A") {
		t.Fatal("BeginDrag(A) = false")
	}
	if b.DraggingID() != "A" {
		t.Fatalf("DraggingID = %q", b.DraggingID())
	}
	if got := ids(b.View().Column(models.StatusTodo)); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Error("picking up a task must not change the board")
	}

	if !b.Drop(models.TaskTarget("B")) {
		t.Fatal("Drop returned false")
	}
	if b.DraggingID() != "" {
		t.Error("drag still active after drop")
	}
	if got := ids(b.View().Column(models.StatusTodo)); !reflect.DeepEqual(got, []string{"B", "A"}) {
		t.Errorf("todo = %v, want [B A]", got)
	}

	if len(ev.types) != 1 || ev.types[0] != EventTaskMoved {
		t.Fatalf("events = %v, want one task.moved", ev.types)
	}
	if ev.data[0]["from_status"] != "todo" || ev.data[0]["to_status"] != "todo" {
		t.Errorf("event data = %v", ev.data[0])
	}
}

func TestBoard_CancelDrag(t *testing.T) {
	b, p, _ := newTestBoard(t, task("A", models.StatusTodo, 0))

	b.BeginDrag("A")
	b.CancelDrag()

	if b.Drop(models.ColumnTarget(models.StatusDone)) {
		t.Error("Drop after cancel should do nothing")
	}
	if got, _ := b.Task("A"); got.Status != models.StatusTodo {
		t.Errorf("A.status = %s, want todo", got.Status)
	}
	if len(p.saved) != 0 {
		t.Error("cancelled drag was persisted")
	}
}

func TestBoard_MoveAcrossColumns(t *testing.T) {
	b, p, ev := newTestBoard(t, task("A", models.StatusTodo, 5), task("B", models.StatusDone, 0))

	if !b.Move(models.DragEvent{MovedTaskID: "A", Target: models.TaskTarget("B")}) {
		t.Fatal("Move returned false")
	}
	view := b.View()
	if got := ids(view.Column(models.StatusDone)); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("done = %v, want [A B]", got)
	}
	if view.Count(models.StatusTodo) != 0 {
		t.Error("A still shown in todo")
	}
	if len(p.saved) != 1 {
		t.Errorf("saves = %d, want 1", len(p.saved))
	}
	if ev.data[0]["from_status"] != "todo" || ev.data[0]["to_status"] != "done" {
		t.Errorf("event data = %v", ev.data[0])
	}
}

func TestBoard_NoOpMoveIsNotCommitted(t *testing.T) {
	b, p, ev := newTestBoard(t, task("A", models.StatusTodo, 0))

	if b.Move(models.DragEvent{MovedTaskID: "A", Target: models.NoTarget()}) {
		t.Error("Move without a target reported a change")
	}
	if len(p.saved) != 0 || len(ev.types) != 0 {
		t.Error("no-op move had side effects")
	}
}

func TestBoard_FilterAndSort(t *testing.T) {
	low := task("L", models.StatusTodo, 0)
	low.Priority = models.PriorityLow
	low.CreatedAt = 2
	high := task("H", models.StatusTodo, 1)
	high.Priority = models.PriorityHigh
	high.CreatedAt = 1
	b, _, _ := newTestBoard(t, low, high)

	b.SetSort(models.SortPriority)
	if got := ids(b.View().Column(models.StatusTodo)); !reflect.DeepEqual(got, []string{"H", "L"}) {
		t.Errorf("priority sort = %v, want [H L]", got)
	}

	b.SetFilter(models.PriorityFilter(models.PriorityLow))
	if got := ids(b.View().Column(models.StatusTodo)); !reflect.DeepEqual(got, []string{"L"}) {
		t.Errorf("low filter = %v, want [L]", got)
	}
	if b.Options().Filter != models.PriorityFilter(models.PriorityLow) {
		t.Errorf("filter = %s", b.Options().Filter)
	}
	if len(b.Tasks()) != 2 {
		t.Error("filtering must not remove tasks from the store")
	}
}

func TestBoard_CloseStopsRefreshing(t *testing.T) {
	store := NewTaskStore(nil, nil, nullLogger())
	b := NewBoard(store, WithLogger(nullLogger()))
	b.Close()

	store.CreateOrUpdate(task("A", models.StatusTodo, 0))
	if b.View().Total() != 0 {
		t.Error("closed board kept following the store")
	}
	b.Close()
}

// After any sequence of edits, deletes and drags the view shows every task
// of a known status exactly once.
func TestProperty_BoardViewTracksStore(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := NewTaskStore(nil, nil, nullLogger())
		b := NewBoard(store, WithIDGenerator(&seqIDs{}), WithLogger(nullLogger()))
		defer b.Close()

		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			current := b.Tasks()
			switch rapid.IntRange(0, 3).Draw(rt, "op") {
			case 0:
				_, err := b.SaveTask(TaskDraft{
					Title:    "t",
					Status:   rapid.SampledFrom(models.Statuses()).Draw(rt, "status"),
					Priority: rapid.SampledFrom(models.Priorities()).Draw(rt, "priority"),
				})
				if err != nil {
					rt.Fatalf("SaveTask: %v", err)
				}
			case 1:
				if len(current) > 0 {
					b.DeleteTask(rapid.SampledFrom(current).Draw(rt, "del").ID)
				}
			default:
				b.Move(genEvent(rt, current))
			}

			tasks := b.Tasks()
			view := b.View()
			if view.Total() != len(tasks) {
				rt.Fatalf("view total %d, store has %d", view.Total(), len(tasks))
			}
			seen := map[string]bool{}
			for _, s := range view.Statuses {
				for _, t := range view.Column(s) {
					if seen[t.ID] {
						rt.Fatalf("%s shown twice", t.ID)
					}
					seen[t.ID] = true
					if t.Status != s {
						rt.Fatalf("%s in column %s has status %s", t.ID, s, t.Status)
					}
				}
			}
		}
	})
}

// slowPersister widens the window between reading and committing the
// collection.
type slowPersister struct {
	mu   sync.Mutex
	last []models.Task
}

func (p *slowPersister) Load() []models.Task { return nil }

func (p *slowPersister) Save(tasks []models.Task) error {
	time.Sleep(200 * time.Microsecond)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = slices.Clone(tasks)
	return nil
}

func TestBoard_ConcurrentMutationsKeepEveryTask(t *testing.T) {
	const rounds = 20
	seed := []models.Task{task("a", models.StatusTodo, 0), task("b", models.StatusTodo, 1)}
	for i := range 10 {
		seed = append(seed, task(fmt.Sprintf("old-%d", i), models.StatusDone, float64(i)))
	}

	p := &slowPersister{}
	store := NewTaskStore(p, nil, nullLogger())
	store.ReplaceAll(seed)
	b := NewBoard(store, WithIDGenerator(&seqIDs{}), WithClock(fixedNow), WithLogger(nullLogger()))
	t.Cleanup(b.Close)

	var (
		wg      sync.WaitGroup
		created = make([]string, rounds)
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		for range rounds {
			b.Move(models.DragEvent{MovedTaskID: "a", Target: models.TaskTarget("b")})
		}
	}()
	go func() {
		defer wg.Done()
		for i := range rounds {
			nt, err := b.SaveTask(TaskDraft{Title: fmt.Sprintf("new %d", i)})
			if err != nil {
				t.Errorf("SaveTask: %v", err)
				return
			}
			created[i] = nt.ID
		}
	}()
	go func() {
		defer wg.Done()
		for i := range 10 {
			b.DeleteTask(fmt.Sprintf("old-%d", i))
		}
	}()
	wg.Wait()

	want := append([]string{"a", "b"}, created...)
	got := ids(b.Tasks())
	slices.Sort(want)
	slices.Sort(got)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tasks = %v, want %v", got, want)
	}

	p.mu.Lock()
	saved := ids(p.last)
	p.mu.Unlock()
	slices.Sort(saved)
	if !reflect.DeepEqual(saved, want) {
		t.Errorf("last save = %v, want %v", saved, want)
	}
	if total := b.View().Total(); total != len(want) {
		t.Errorf("view total = %d, want %d", total, len(want))
	}
}
