package core

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/valter-silva-au/flowboard/pkg/models"
)

// Board is the handle the presentation layer holds. It routes form edits to
// the store, runs drag gestures through Reconcile, and keeps a projection of
// the store that is recomputed synchronously after every change.
type Board struct {
	store  TaskStore
	ids    IDGenerator
	now    func() time.Time
	events EventLogger
	log    logrus.FieldLogger

	mu       sync.RWMutex
	opts     ViewOptions
	view     BoardView
	dragging string
	unsub    func()
}

// BoardOption customises a Board.
type BoardOption func(*Board)

// WithIDGenerator sets the id supplier for new tasks.
func WithIDGenerator(ids IDGenerator) BoardOption {
	return func(b *Board) { b.ids = ids }
}

// WithClock sets the time source used for CreatedAt.
func WithClock(now func() time.Time) BoardOption {
	return func(b *Board) { b.now = now }
}

// WithEventLogger records task.moved events for committed drags.
func WithEventLogger(events EventLogger) BoardOption {
	return func(b *Board) { b.events = events }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) BoardOption {
	return func(b *Board) { b.log = log }
}

// WithViewOptions sets the initial filter, sort and columns.
func WithViewOptions(opts ViewOptions) BoardOption {
	return func(b *Board) { b.opts = opts }
}

// NewBoard wraps store and subscribes to its changes.
func NewBoard(store TaskStore, options ...BoardOption) *Board {
	b := &Board{
		store: store,
		ids:   NewIDGenerator(),
		now:   time.Now,
		log:   logrus.StandardLogger(),
		opts:  ViewOptions{Filter: models.FilterAll, Sort: models.SortManual},
	}
	for _, o := range options {
		o(b)
	}
	if b.opts.Filter == "" {
		b.opts.Filter = models.FilterAll
	}
	if b.opts.Sort == "" {
		b.opts.Sort = models.SortManual
	}
	b.view = Project(store.Tasks(), b.opts)
	b.unsub = store.Subscribe(func(tasks []models.Task) {
		b.mu.Lock()
		b.view = Project(tasks, b.opts)
		b.mu.Unlock()
	})
	return b
}

// Close detaches the board from its store.
func (b *Board) Close() {
	if b.unsub != nil {
		b.unsub()
		b.unsub = nil
	}
}

// View returns the latest projection.
func (b *Board) View() BoardView {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.view
}

// Options returns the active view options.
func (b *Board) Options() ViewOptions {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.opts
}

// SetFilter changes the priority filter and recomputes the view.
func (b *Board) SetFilter(f models.PriorityFilter) {
	b.mu.Lock()
	b.opts.Filter = f
	b.mu.Unlock()
	b.refresh()
}

// SetSort changes the sort option and recomputes the view.
func (b *Board) SetSort(o models.SortOption) {
	b.mu.Lock()
	b.opts.Sort = o
	b.mu.Unlock()
	b.refresh()
}

func (b *Board) refresh() {
	tasks := b.store.Tasks()
	b.mu.Lock()
	b.view = Project(tasks, b.opts)
	b.mu.Unlock()
}

// Tasks returns the canonical collection.
func (b *Board) Tasks() []models.Task {
	return b.store.Tasks()
}

// Task looks up a task by id.
func (b *Board) Task(id string) (models.Task, bool) {
	return b.store.Get(id)
}

// SaveTask validates a form submission and creates or updates the task.
// Invalid drafts are rejected here and never reach the store.
func (b *Board) SaveTask(draft TaskDraft) (models.Task, error) {
	task, err := b.store.Upsert(func(current []models.Task) (models.Task, error) {
		return BuildTask(draft, current, b.ids, b.now)
	})
	if err != nil {
		return models.Task{}, err
	}
	b.log.WithFields(logrus.Fields{"task_id": task.ID, "status": task.Status}).Debug("task saved")
	return task, nil
}

// DeleteTask removes a task; unknown ids are ignored.
func (b *Board) DeleteTask(id string) {
	b.mu.Lock()
	if b.dragging == id {
		b.dragging = ""
	}
	b.mu.Unlock()
	b.store.Delete(id)
}

// BeginDrag marks a task as being dragged. Nothing is committed until Drop.
// It returns false if the task does not exist.
func (b *Board) BeginDrag(id string) bool {
	if _, ok := b.store.Get(id); !ok {
		return false
	}
	b.mu.Lock()
	b.dragging = id
	b.mu.Unlock()
	return true
}

// DraggingID returns the id of the task being dragged, or "".
func (b *Board) DraggingID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dragging
}

// CancelDrag abandons the gesture. The collection is untouched.
func (b *Board) CancelDrag() {
	b.mu.Lock()
	b.dragging = ""
	b.mu.Unlock()
}

// Drop ends the current gesture on target and commits the result.
// It reports whether the collection changed.
func (b *Board) Drop(target models.DropTarget) bool {
	b.mu.Lock()
	id := b.dragging
	b.dragging = ""
	b.mu.Unlock()
	if id == "" {
		return false
	}
	return b.Move(models.DragEvent{MovedTaskID: id, Target: target})
}

// Move applies a complete drag gesture in one step. The gesture is
// reconciled against the collection as it is at commit time, so concurrent
// edits are never overwritten.
func (b *Board) Move(ev models.DragEvent) bool {
	var from, to models.Status
	changed := b.store.Update(func(current []models.Task) ([]models.Task, bool) {
		from = statusOf(current, ev.MovedTaskID)
		next, changed := Reconcile(current, ev)
		to = statusOf(next, ev.MovedTaskID)
		return next, changed
	})
	entry := b.log.WithFields(logrus.Fields{"task_id": ev.MovedTaskID, "target": ev.Target.String()})
	if !changed {
		entry.Debug("drop ignored")
		return false
	}
	entry.Debug("drop committed")

	if b.events != nil {
		if err := b.events.LogEvent(EventTaskMoved, map[string]any{
			"task_id":     ev.MovedTaskID,
			"target":      ev.Target.String(),
			"from_status": string(from),
			"to_status":   string(to),
		}); err != nil {
			b.log.WithError(err).Debug("event log write failed")
		}
	}
	return true
}

func statusOf(tasks []models.Task, id string) models.Status {
	if idx := indexOfTask(tasks, id); idx >= 0 {
		return tasks[idx].Status
	}
	return ""
}
