package storage

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"
	"github.com/valter-silva-au/flowboard/pkg/models"
)

// TaskRepository loads and saves the whole task collection as a JSON array
// under TasksKey.
type TaskRepository interface {
	// Load returns the last saved collection. A missing, unreadable or
	// malformed value yields an empty collection.
	Load() []models.Task
	Save(tasks []models.Task) error
	// Update applies fn to the saved collection and saves its result while
	// holding the backend's write lock. It returns the collection saved
	// afterwards, which is the one fn saw when fn reports no change.
	Update(fn func(current []models.Task) (next []models.Task, changed bool)) ([]models.Task, error)
}

type kvTaskRepository struct {
	kv  KeyValueStore
	log logrus.FieldLogger
}

// NewTaskRepository returns a TaskRepository over kv.
func NewTaskRepository(kv KeyValueStore, log logrus.FieldLogger) TaskRepository {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &kvTaskRepository{kv: kv, log: log}
}

func (r *kvTaskRepository) Load() []models.Task {
	raw, found, err := r.kv.Get(TasksKey)
	if err != nil {
		r.log.WithError(err).Warn("loading tasks failed; starting empty")
		return []models.Task{}
	}
	return r.decode(raw, found)
}

func (r *kvTaskRepository) decode(raw []byte, found bool) []models.Task {
	if !found || len(raw) == 0 {
		return []models.Task{}
	}
	var tasks []models.Task
	if err := sonic.Unmarshal(raw, &tasks); err != nil {
		r.log.WithError(err).Warn("stored tasks are malformed; starting empty")
		return []models.Task{}
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks
}

func (r *kvTaskRepository) Save(tasks []models.Task) error {
	if tasks == nil {
		tasks = []models.Task{}
	}
	data, err := sonic.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("saving tasks: marshaling JSON: %w", err)
	}
	if err := r.kv.Put(TasksKey, data); err != nil {
		return fmt.Errorf("saving tasks: %w", err)
	}
	return nil
}

func (r *kvTaskRepository) Update(fn func([]models.Task) ([]models.Task, bool)) ([]models.Task, error) {
	var saved []models.Task
	err := r.kv.Update(TasksKey, func(raw []byte, found bool) ([]byte, bool, error) {
		current := r.decode(raw, found)
		next, changed := fn(current)
		if !changed {
			saved = current
			return nil, false, nil
		}
		if next == nil {
			next = []models.Task{}
		}
		data, err := sonic.Marshal(next)
		if err != nil {
			return nil, false, fmt.Errorf("marshaling JSON: %w", err)
		}
		saved = next
		return data, true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("updating tasks: %w", err)
	}
	return saved, nil
}
