package core

import (
	"cmp"
	"slices"

	"github.com/valter-silva-au/flowboard/pkg/models"
)

// ViewOptions are the user-selected inputs of a board projection.
type ViewOptions struct {
	// Statuses lists the columns to build, in display order. Empty means
	// models.Statuses().
	Statuses []models.Status
	Filter   models.PriorityFilter
	Sort     models.SortOption
}

// BoardView is a read-only partition of tasks into ordered columns.
type BoardView struct {
	Statuses []models.Status
	Filter   models.PriorityFilter
	Sort     models.SortOption
	buckets  map[models.Status][]models.Task
}

// Column returns the displayed tasks of a column in display order.
// The slice belongs to the view; callers must not modify it.
func (v BoardView) Column(status models.Status) []models.Task {
	return v.buckets[status]
}

// Count returns how many tasks a column displays.
func (v BoardView) Count(status models.Status) int {
	return len(v.buckets[status])
}

// Total returns how many tasks the whole view displays.
func (v BoardView) Total() int {
	n := 0
	for _, b := range v.buckets {
		n += len(b)
	}
	return n
}

// Project groups tasks by status, drops those the priority filter rejects and
// sorts every column by the sort option. Tasks with a status outside
// opts.Statuses appear in no column. The input slice is never modified.
func Project(tasks []models.Task, opts ViewOptions) BoardView {
	statuses := opts.Statuses
	if len(statuses) == 0 {
		statuses = models.Statuses()
	}
	view := BoardView{
		Statuses: slices.Clone(statuses),
		Filter:   opts.Filter,
		Sort:     opts.Sort,
		buckets:  make(map[models.Status][]models.Task, len(statuses)),
	}
	for _, s := range statuses {
		view.buckets[s] = []models.Task{}
	}

	for _, t := range tasks {
		bucket, ok := view.buckets[t.Status]
		if !ok || !opts.Filter.Matches(t.Priority) {
			continue
		}
		view.buckets[t.Status] = append(bucket, t)
	}

	cmpFn := sortFunc(opts.Sort)
	for s, bucket := range view.buckets {
		slices.SortStableFunc(bucket, cmpFn)
		view.buckets[s] = bucket
	}
	return view
}

func sortFunc(opt models.SortOption) func(a, b models.Task) int {
	switch opt {
	case models.SortCreated:
		return func(a, b models.Task) int { return cmp.Compare(b.CreatedAt, a.CreatedAt) }
	case models.SortPriority:
		return func(a, b models.Task) int { return cmp.Compare(b.Priority.Rank(), a.Priority.Rank()) }
	default:
		return byOrder
	}
}

func byOrder(a, b models.Task) int {
	return cmp.Compare(a.Order, b.Order)
}
