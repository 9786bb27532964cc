package models

import "fmt"

// PriorityFilter restricts which tasks a board view shows.
type PriorityFilter string

// FilterAll shows tasks of every priority.
const FilterAll PriorityFilter = "all"

// PriorityFilters returns every filter value in cycling order.
func PriorityFilters() []PriorityFilter {
	return []PriorityFilter{FilterAll, PriorityFilter(PriorityLow), PriorityFilter(PriorityMedium), PriorityFilter(PriorityHigh)}
}

// Valid reports whether f is "all" or a known priority.
func (f PriorityFilter) Valid() bool {
	return f == FilterAll || Priority(f).Valid()
}

// Matches reports whether a task with priority p passes the filter.
// The empty filter behaves like FilterAll.
func (f PriorityFilter) Matches(p Priority) bool {
	if f == "" || f == FilterAll {
		return true
	}
	return Priority(f) == p
}

// SortOption selects how tasks are ordered inside a column.
type SortOption string

const (
	// SortManual orders by ascending Order, the rank set by drag and drop.
	SortManual SortOption = "order"
	// SortCreated orders newest first.
	SortCreated SortOption = "createdAt"
	// SortPriority orders high before medium before low.
	SortPriority SortOption = "priority"
)

// SortOptions returns every sort option in cycling order.
func SortOptions() []SortOption {
	return []SortOption{SortManual, SortCreated, SortPriority}
}

// Valid reports whether o is a known sort option.
func (o SortOption) Valid() bool {
	switch o {
	case SortManual, SortCreated, SortPriority:
		return true
	}
	return false
}

// DropTargetKind classifies where a drag gesture ended.
type DropTargetKind int

const (
	// DropNone means the gesture ended outside any task or column.
	DropNone DropTargetKind = iota
	// DropTask means the gesture ended over a task card.
	DropTask
	// DropColumn means the gesture ended over a column's empty area.
	DropColumn
)

func (k DropTargetKind) String() string {
	switch k {
	case DropTask:
		return "task"
	case DropColumn:
		return "column"
	}
	return "none"
}

// DropTarget is the resolved end point of a drag: nothing, a task, or the
// empty area of a column. Build one with NoTarget, TaskTarget or ColumnTarget.
type DropTarget struct {
	kind   DropTargetKind
	taskID string
	status Status
}

// NoTarget is a drop released outside any column or task.
func NoTarget() DropTarget {
	return DropTarget{}
}

// TaskTarget is a drop onto the task with the given id.
func TaskTarget(id string) DropTarget {
	return DropTarget{kind: DropTask, taskID: id}
}

// ColumnTarget is a drop onto the empty area of a column.
func ColumnTarget(status Status) DropTarget {
	return DropTarget{kind: DropColumn, status: status}
}

// Kind returns which variant the target holds.
func (t DropTarget) Kind() DropTargetKind { return t.kind }

// TaskID returns the target task id; empty unless Kind is DropTask.
func (t DropTarget) TaskID() string { return t.taskID }

// Status returns the target column; empty unless Kind is DropColumn.
func (t DropTarget) Status() Status { return t.status }

func (t DropTarget) String() string {
	switch t.kind {
	case DropTask:
		return fmt.Sprintf("task:%s", t.taskID)
	case DropColumn:
		return fmt.Sprintf("column:%s", t.status)
	}
	return "none"
}

// DragEvent is a completed drag gesture.
type DragEvent struct {
	MovedTaskID string
	Target      DropTarget
}

// Theme is the board colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}
