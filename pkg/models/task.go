package models

// Status is the board column a task belongs to.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses returns the fixed board columns in display order.
func Statuses() []Status {
	return []Status{StatusTodo, StatusInProgress, StatusDone}
}

// Valid reports whether s is one of the three board columns.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Title returns the column heading shown on the board.
func (s Status) Title() string {
	switch s {
	case StatusTodo:
		return "Todo"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

// Priority represents the urgency level of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities returns all priorities from lowest to highest.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// Rank returns the sort weight of a priority: high=3, medium=2, low=1.
// Unknown priorities rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Task is a single work item on the board.
//
// Order ranks the task among tasks sharing its Status. Only the relative
// order inside a column is meaningful; values need not be contiguous.
// CreatedAt is epoch milliseconds.
type Task struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Status      Status   `json:"status" yaml:"status"`
	Priority    Priority `json:"priority" yaml:"priority"`
	Order       float64  `json:"order" yaml:"order"`
	CreatedAt   int64    `json:"createdAt" yaml:"created_at"`
}
