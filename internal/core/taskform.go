package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/valter-silva-au/flowboard/pkg/models"
)

// ErrEmptyTitle is returned when a draft has no title after trimming.
var ErrEmptyTitle = errors.New("task title must not be empty")

// TaskDraft is the user-editable part of a task as submitted by a form.
// An empty ID means "create"; a known ID means "edit".
type TaskDraft struct {
	ID          string
	Title       string          `validate:"required"`
	Description string          `validate:"max=4000"`
	Status      models.Status   `validate:"omitempty,oneof=todo in-progress done"`
	Priority    models.Priority `validate:"omitempty,oneof=low medium high"`
}

var draftValidate = validator.New()

// DraftFromTask prefills a draft for editing an existing task.
func DraftFromTask(t models.Task) TaskDraft {
	return TaskDraft{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
	}
}

// Validate trims the draft, fills defaults (priority medium, status todo)
// and checks it. It returns the normalised draft.
func (d TaskDraft) Validate() (TaskDraft, error) {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	if d.Priority == "" {
		d.Priority = models.PriorityMedium
	}
	if d.Status == "" {
		d.Status = models.StatusTodo
	}

	if err := draftValidate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "Title" {
					return d, ErrEmptyTitle
				}
			}
			fe := verrs[0]
			return d, fmt.Errorf("invalid %s %q", strings.ToLower(fe.Field()), fe.Value())
		}
		return d, fmt.Errorf("validating task: %w", err)
	}
	return d, nil
}

// BuildTask turns a submitted draft into the task record to store.
//
// New tasks get a fresh id, CreatedAt = now and land at the end of their
// column. Edits keep ID and CreatedAt; they keep Order unless the status
// changed, in which case the task moves to the end of its new column. A draft
// whose ID is not in existing is treated as new under that ID.
func BuildTask(draft TaskDraft, existing []models.Task, ids IDGenerator, now func() time.Time) (models.Task, error) {
	d, err := draft.Validate()
	if err != nil {
		return models.Task{}, err
	}
	if now == nil {
		now = time.Now
	}

	var prev *models.Task
	if d.ID != "" {
		for i := range existing {
			if existing[i].ID == d.ID {
				prev = &existing[i]
				break
			}
		}
	}

	task := models.Task{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Status:      d.Status,
		Priority:    d.Priority,
	}

	if prev != nil {
		task.CreatedAt = prev.CreatedAt
		task.Order = prev.Order
		if prev.Status != task.Status {
			task.Order = nextOrder(existing, task.Status, task.ID)
		}
		return task, nil
	}

	if task.ID == "" {
		task.ID = ids.NewID()
	}
	task.CreatedAt = now().UnixMilli()
	task.Order = nextOrder(existing, task.Status, task.ID)
	return task, nil
}

// nextOrder returns the rank that places a task after every other task in
// the column, ignoring the task with id skip.
func nextOrder(tasks []models.Task, status models.Status, skip string) float64 {
	found := false
	var top float64
	for _, t := range tasks {
		if t.Status != status || t.ID == skip {
			continue
		}
		if !found || t.Order > top {
			top = t.Order
			found = true
		}
	}
	if !found {
		return 0
	}
	return top + 1
}
