package core

import (
	"slices"

	"github.com/valter-silva-au/flowboard/pkg/models"
)

// Reconcile applies a completed drag gesture to tasks and returns the new
// collection. When the gesture changes nothing (no target, stale ids, a drop
// onto the moved task itself, or a drop onto its current slot) it returns
// tasks unchanged and false.
//
// Only Status and Order fields change, and every task keeps its position in
// the returned slice. The input slice is never modified.
func Reconcile(tasks []models.Task, ev models.DragEvent) ([]models.Task, bool) {
	moved := slices.IndexFunc(tasks, func(t models.Task) bool { return t.ID == ev.MovedTaskID })
	if moved < 0 {
		return tasks, false
	}

	switch ev.Target.Kind() {
	case models.DropColumn:
		return dropOnColumn(tasks, moved, ev.Target.Status())
	case models.DropTask:
		if ev.Target.TaskID() == ev.MovedTaskID {
			return tasks, false
		}
		over := slices.IndexFunc(tasks, func(t models.Task) bool { return t.ID == ev.Target.TaskID() })
		if over < 0 {
			return tasks, false
		}
		if tasks[over].Status == tasks[moved].Status {
			return reorderWithin(tasks, moved, over)
		}
		return moveAcross(tasks, moved, over)
	}
	return tasks, false
}

// dropOnColumn appends the moved task to the end of status's column.
func dropOnColumn(tasks []models.Task, moved int, status models.Status) ([]models.Task, bool) {
	if !status.Valid() {
		return tasks, false
	}

	var (
		maxOrder float64
		others   int
	)
	for i, t := range tasks {
		if i == moved || t.Status != status {
			continue
		}
		if others == 0 || t.Order > maxOrder {
			maxOrder = t.Order
		}
		others++
	}

	cur := tasks[moved]
	if cur.Status == status && (others == 0 || cur.Order > maxOrder) {
		// Already the last card of that column.
		return tasks, false
	}

	next := slices.Clone(tasks)
	next[moved].Status = status
	next[moved].Order = 0
	if others > 0 {
		next[moved].Order = maxOrder + 1
	}
	return next, true
}

// reorderWithin moves tasks[moved] to the slot held by tasks[over] inside
// their shared column and renumbers that column 0..n-1.
func reorderWithin(tasks []models.Task, moved, over int) ([]models.Task, bool) {
	column := bucketIndices(tasks, tasks[moved].Status, -1)
	from := slices.Index(column, moved)
	to := slices.Index(column, over)
	if from == to {
		return tasks, false
	}

	column = arrayMove(column, from, to)
	next := slices.Clone(tasks)
	for rank, i := range column {
		next[i].Order = float64(rank)
	}
	return next, true
}

// moveAcross inserts tasks[moved] into the column of tasks[over] at over's
// slot and renumbers the destination column. The origin column keeps its
// remaining ranks; gaps there do not affect ordering.
func moveAcross(tasks []models.Task, moved, over int) ([]models.Task, bool) {
	dest := tasks[over].Status
	column := bucketIndices(tasks, dest, moved)
	at := slices.Index(column, over)
	column = slices.Insert(column, at, moved)

	next := slices.Clone(tasks)
	next[moved].Status = dest
	for rank, i := range column {
		next[i].Order = float64(rank)
	}
	return next, true
}

// bucketIndices returns the positions in tasks of every task with the given
// status except skip, sorted by Order. Equal ranks keep array order.
func bucketIndices(tasks []models.Task, status models.Status, skip int) []int {
	var idx []int
	for i, t := range tasks {
		if i != skip && t.Status == status {
			idx = append(idx, i)
		}
	}
	slices.SortStableFunc(idx, func(a, b int) int { return byOrder(tasks[a], tasks[b]) })
	return idx
}

// arrayMove removes the element at from and reinserts it at to.
func arrayMove(s []int, from, to int) []int {
	v := s[from]
	s = slices.Delete(s, from, from+1)
	return slices.Insert(s, to, v)
}
