package core

import (
	"reflect"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/valter-silva-au/flowboard/pkg/models"
)

// TaskPersister is the subset of storage.TaskRepository that TaskStore needs.
// Load must never fail: an unreadable collection comes back empty.
type TaskPersister interface {
	Load() []models.Task
	Save(tasks []models.Task) error
}

// SharedTaskPersister is a TaskPersister other processes may write to as
// well. Update reads the saved collection, applies fn and saves the result
// under a lock those processes honour, returning what is saved afterwards.
type SharedTaskPersister interface {
	TaskPersister
	Update(fn func(current []models.Task) (next []models.Task, changed bool)) ([]models.Task, error)
}

// UpdateFunc derives the next collection from the current one. It receives
// a private copy and may be called more than once per update, so it must not
// have side effects beyond recording its result.
type UpdateFunc func(current []models.Task) (next []models.Task, changed bool)

// TaskStore owns the canonical task collection. Its mutators are the only
// write path; every mutation is persisted and announced to subscribers
// before the call returns.
type TaskStore interface {
	Tasks() []models.Task
	Get(id string) (models.Task, bool)
	CreateOrUpdate(task models.Task)
	// Upsert builds a task from the current collection and creates or
	// updates it in the same step. A build error leaves the store untouched.
	Upsert(build func(current []models.Task) (models.Task, error)) (models.Task, error)
	Delete(id string)
	ReplaceAll(tasks []models.Task)
	// Update commits fn's result atomically and reports whether it changed
	// anything.
	Update(fn UpdateFunc) bool
	Subscribe(fn func(tasks []models.Task)) (unsubscribe func())
}

type taskStore struct {
	mu    sync.RWMutex
	tasks []models.Task

	persister  TaskPersister
	persistOff bool
	events     EventLogger
	log        logrus.FieldLogger

	// version counts committed changes; notify drops snapshots older than
	// the last one delivered.
	version   uint64
	deliverMu sync.Mutex
	delivered uint64

	subMu     sync.Mutex
	nextSubID int
	subs      map[int]func([]models.Task)
}

// NewTaskStore loads the last saved collection from persister and returns a
// store writing back to it. persister and events may be nil, in which case
// the store is memory-only and silent respectively.
func NewTaskStore(persister TaskPersister, events EventLogger, log logrus.FieldLogger) TaskStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &taskStore{
		persister: persister,
		events:    events,
		log:       log,
		subs:      make(map[int]func([]models.Task)),
	}
	if persister != nil {
		s.tasks = persister.Load()
	}
	if s.tasks == nil {
		s.tasks = []models.Task{}
	}
	s.log.WithField("tasks", len(s.tasks)).Debug("task store loaded")
	return s
}

func (s *taskStore) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tasks)
}

func (s *taskStore) Get(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// CreateOrUpdate replaces the task with the same ID in place, or appends it.
func (s *taskStore) CreateOrUpdate(task models.Task) {
	_, _ = s.Upsert(func([]models.Task) (models.Task, error) { return task, nil })
}

func (s *taskStore) Upsert(build func(current []models.Task) (models.Task, error)) (models.Task, error) {
	var (
		task      models.Task
		buildErr  error
		eventType string
	)
	s.mu.Lock()
	snapshot, applied, dirty := s.updateLocked(func(current []models.Task) ([]models.Task, bool) {
		task, buildErr = build(current)
		if buildErr != nil {
			return nil, false
		}
		if idx := indexOfTask(current, task.ID); idx >= 0 {
			current[idx] = task
			eventType = EventTaskUpdated
		} else {
			current = append(current, task)
			eventType = EventTaskCreated
		}
		return current, true
	})
	version := s.version
	s.mu.Unlock()

	if dirty {
		s.notify(snapshot, version)
	}
	if !applied {
		return models.Task{}, buildErr
	}
	s.logEvent(eventType, map[string]any{
		"task_id":  task.ID,
		"status":   string(task.Status),
		"priority": string(task.Priority),
	})
	return task, nil
}

// Delete removes the task with the given id. Unknown ids are ignored.
func (s *taskStore) Delete(id string) {
	s.mu.Lock()
	snapshot, applied, dirty := s.updateLocked(func(current []models.Task) ([]models.Task, bool) {
		idx := indexOfTask(current, id)
		if idx < 0 {
			return nil, false
		}
		return slices.Delete(current, idx, idx+1), true
	})
	version := s.version
	s.mu.Unlock()

	if dirty {
		s.notify(snapshot, version)
	}
	if !applied {
		s.log.WithField("task_id", id).Debug("delete ignored: task not found")
		return
	}
	s.logEvent(EventTaskDeleted, map[string]any{"task_id": id})
}

// ReplaceAll swaps the whole collection in one step.
func (s *taskStore) ReplaceAll(tasks []models.Task) {
	s.Update(func([]models.Task) ([]models.Task, bool) {
		return slices.Clone(tasks), true
	})
}

func (s *taskStore) Update(fn UpdateFunc) bool {
	s.mu.Lock()
	snapshot, applied, dirty := s.updateLocked(fn)
	version := s.version
	s.mu.Unlock()
	if dirty {
		s.notify(snapshot, version)
	}
	return applied
}

func (s *taskStore) Subscribe(fn func(tasks []models.Task)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// updateLocked runs fn against the latest collection and installs its
// result. It must be called with s.mu held. applied reports whether fn
// changed anything; dirty whether the in-memory collection changed at all,
// which includes writes by other processes picked up from a shared
// persister. The returned snapshot is safe to hand to subscribers.
func (s *taskStore) updateLocked(fn UpdateFunc) (snapshot []models.Task, applied, dirty bool) {
	if shared, ok := s.persister.(SharedTaskPersister); ok && !s.persistOff {
		saved, err := shared.Update(func(current []models.Task) ([]models.Task, bool) {
			next, changed := fn(slices.Clone(current))
			applied = changed
			return next, changed
		})
		if err == nil {
			if saved == nil {
				saved = []models.Task{}
			}
			dirty = applied || !reflect.DeepEqual(saved, s.tasks)
			if dirty {
				s.version++
			}
			s.tasks = saved
			return slices.Clone(saved), applied, dirty
		}
		s.persistOff = true
		s.log.WithError(err).Warn("persisting tasks failed; continuing in memory only")
	}

	next, changed := fn(slices.Clone(s.tasks))
	if !changed {
		return nil, false, false
	}
	if next == nil {
		next = []models.Task{}
	}
	s.tasks = next
	s.version++
	if s.persister != nil && !s.persistOff {
		if err := s.persister.Save(next); err != nil {
			s.persistOff = true
			s.log.WithError(err).Warn("persisting tasks failed; continuing in memory only")
		}
	}
	return slices.Clone(next), true, true
}

func indexOfTask(tasks []models.Task, id string) int {
	return slices.IndexFunc(tasks, func(t models.Task) bool { return t.ID == id })
}

// notify hands the snapshot taken at version to every subscriber, in
// subscription order. Deliveries are serialised and a snapshot older than
// one already delivered is dropped, so subscribers never go back in time.
// Subscribers must not mutate the store.
func (s *taskStore) notify(tasks []models.Task, version uint64) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if version <= s.delivered {
		return
	}
	s.delivered = version

	s.subMu.Lock()
	fns := make([]func([]models.Task), 0, len(s.subs))
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(tasks)
	}
}

func (s *taskStore) logEvent(eventType string, data map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.LogEvent(eventType, data); err != nil {
		s.log.WithError(err).WithField("event", eventType).Debug("event log write failed")
	}
}
