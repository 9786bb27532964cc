// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the board as MCP tools for AI assistants.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/flowboard/internal/core"
	"github.com/valter-silva-au/flowboard/internal/observability"
	"github.com/valter-silva-au/flowboard/pkg/models"
)

// BoardService is the subset of *core.Board the server drives.
type BoardService interface {
	Tasks() []models.Task
	Task(id string) (models.Task, bool)
	Options() core.ViewOptions
	SaveTask(draft core.TaskDraft) (models.Task, error)
	DeleteTask(id string)
	Move(ev models.DragEvent) bool
}

// Server wraps the board and exposes it as MCP tools.
type Server struct {
	server      *gomcp.Server
	board       BoardService
	metricsCalc observability.MetricsCalculator
}

// NewServer creates a new MCP server over board.
// metricsCalc may be nil if the event log is disabled.
func NewServer(board BoardService, metricsCalc observability.MetricsCalculator, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		board:       board,
		metricsCalc: metricsCalc,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "flowboard", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run serves over stdio, blocking until the client disconnects or the
// context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type taskOutput struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	Order       float64 `json:"order"`
	CreatedAt   int64   `json:"createdAt"`
	Created     string  `json:"created"`
}

type columnOutput struct {
	Status string       `json:"status"`
	Title  string       `json:"title"`
	Count  int          `json:"count"`
	Tasks  []taskOutput `json:"tasks"`
}

type listBoardInput struct {
	Filter string `json:"filter,omitempty" jsonschema:"priority filter: all, low, medium or high. Defaults to the board's filter."`
	Sort   string `json:"sort,omitempty" jsonschema:"column order: order, createdAt or priority. Defaults to the board's sort."`
}

type boardOutput struct {
	Filter  string         `json:"filter"`
	Sort    string         `json:"sort"`
	Columns []columnOutput `json:"columns"`
	Total   int            `json:"total"`
}

type getTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"the task id"`
}

type saveTaskInput struct {
	ID          string `json:"task_id,omitempty" jsonschema:"id of the task to edit. Omit to create a new task."`
	Title       string `json:"title" jsonschema:"task title, must not be blank"`
	Description string `json:"description,omitempty" jsonschema:"free-form description"`
	Status      string `json:"status,omitempty" jsonschema:"todo, in-progress or done. Defaults to todo."`
	Priority    string `json:"priority,omitempty" jsonschema:"low, medium or high. Defaults to medium."`
}

type deleteTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"the task id"`
}

type messageOutput struct {
	Message string `json:"message"`
}

type moveTaskInput struct {
	TaskID       string `json:"task_id" jsonschema:"the task being moved"`
	TargetTaskID string `json:"target_task_id,omitempty" jsonschema:"drop onto this task: take its place in its column"`
	TargetColumn string `json:"target_column,omitempty" jsonschema:"drop onto this column: append at the end (todo, in-progress, done)"`
}

type moveTaskOutput struct {
	Changed bool       `json:"changed"`
	Task    taskOutput `json:"task"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	TasksCreated  int            `json:"tasks_created"`
	TasksUpdated  int            `json:"tasks_updated"`
	TasksDeleted  int            `json:"tasks_deleted"`
	TasksMoved    int            `json:"tasks_moved"`
	MovesByStatus map[string]int `json:"moves_by_status"`
	EventCount    int            `json:"event_count"`
	OldestEvent   string         `json:"oldest_event,omitempty"`
	NewestEvent   string         `json:"newest_event,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_board",
		Description: "List the board as columns (todo, in-progress, done) with tasks in display order. Optional priority filter and sort.",
	}, s.handleListBoard)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get a task by id.",
	}, s.handleGetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "save_task",
		Description: "Create a task, or edit one when task_id is given. New tasks are placed at the end of their column.",
	}, s.handleSaveTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "delete_task",
		Description: "Delete a task by id.",
	}, s.handleDeleteTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "move_task",
		Description: "Move a task the way a drag and drop would: onto another task (take its position) or onto a column (append). Renumbers the destination column.",
	}, s.handleMoveTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get board activity counts from the event log: tasks created, updated, deleted and moved.",
	}, s.handleGetMetrics)
}

// --- Tool handlers ---

func (s *Server) handleListBoard(_ context.Context, _ *gomcp.CallToolRequest, input listBoardInput) (*gomcp.CallToolResult, boardOutput, error) {
	opts := s.board.Options()
	if input.Filter != "" {
		f := models.PriorityFilter(input.Filter)
		if !f.Valid() {
			return errorResult(fmt.Sprintf("invalid filter %q: must be one of all, low, medium, high", input.Filter)), boardOutput{}, nil
		}
		opts.Filter = f
	}
	if input.Sort != "" {
		o := models.SortOption(input.Sort)
		if !o.Valid() {
			return errorResult(fmt.Sprintf("invalid sort %q: must be one of order, createdAt, priority", input.Sort)), boardOutput{}, nil
		}
		opts.Sort = o
	}

	view := core.Project(s.board.Tasks(), opts)
	out := boardOutput{
		Filter:  string(view.Filter),
		Sort:    string(view.Sort),
		Columns: make([]columnOutput, 0, len(view.Statuses)),
		Total:   view.Total(),
	}
	for _, st := range view.Statuses {
		col := view.Column(st)
		c := columnOutput{
			Status: string(st),
			Title:  st.Title(),
			Count:  len(col),
			Tasks:  make([]taskOutput, len(col)),
		}
		for i, t := range col {
			c.Tasks[i] = taskToOutput(t)
		}
		out.Columns = append(out.Columns, c)
	}

	return nil, out, nil
}

func (s *Server) handleGetTask(_ context.Context, _ *gomcp.CallToolRequest, input getTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}

	task, ok := s.board.Task(input.TaskID)
	if !ok {
		return errorResult(fmt.Sprintf("task %s not found", input.TaskID)), taskOutput{}, nil
	}

	return nil, taskToOutput(task), nil
}

func (s *Server) handleSaveTask(_ context.Context, _ *gomcp.CallToolRequest, input saveTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	task, err := s.board.SaveTask(core.TaskDraft{
		ID:          input.ID,
		Title:       input.Title,
		Description: input.Description,
		Status:      models.Status(input.Status),
		Priority:    models.Priority(input.Priority),
	})
	if err != nil {
		return errorResult(fmt.Sprintf("saving task: %s", err)), taskOutput{}, nil
	}

	return nil, taskToOutput(task), nil
}

func (s *Server) handleDeleteTask(_ context.Context, _ *gomcp.CallToolRequest, input deleteTaskInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), messageOutput{}, nil
	}
	if _, ok := s.board.Task(input.TaskID); !ok {
		return errorResult(fmt.Sprintf("task %s not found", input.TaskID)), messageOutput{}, nil
	}

	s.board.DeleteTask(input.TaskID)
	return nil, messageOutput{Message: fmt.Sprintf("task %s deleted", input.TaskID)}, nil
}

func (s *Server) handleMoveTask(_ context.Context, _ *gomcp.CallToolRequest, input moveTaskInput) (*gomcp.CallToolResult, moveTaskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), moveTaskOutput{}, nil
	}
	target, err := dropTarget(input.TargetTaskID, input.TargetColumn)
	if err != nil {
		return errorResult(err.Error()), moveTaskOutput{}, nil
	}
	if _, ok := s.board.Task(input.TaskID); !ok {
		return errorResult(fmt.Sprintf("task %s not found", input.TaskID)), moveTaskOutput{}, nil
	}

	changed := s.board.Move(models.DragEvent{MovedTaskID: input.TaskID, Target: target})
	task, _ := s.board.Task(input.TaskID)
	return nil, moveTaskOutput{Changed: changed, Task: taskToOutput(task)}, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (event log may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		TasksCreated:  metrics.TasksCreated,
		TasksUpdated:  metrics.TasksUpdated,
		TasksDeleted:  metrics.TasksDeleted,
		TasksMoved:    metrics.TasksMoved,
		MovesByStatus: metrics.MovesByStatus,
		EventCount:    metrics.EventCount,
	}
	if out.MovesByStatus == nil {
		out.MovesByStatus = make(map[string]int)
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

// --- Helpers ---

func taskToOutput(t models.Task) taskOutput {
	return taskOutput{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Order:       t.Order,
		CreatedAt:   t.CreatedAt,
		Created:     time.UnixMilli(t.CreatedAt).UTC().Format(time.RFC3339),
	}
}

// dropTarget builds the target of a move. At most one of onto and column may
// be set; neither yields the no-target case.
func dropTarget(onto, column string) (models.DropTarget, error) {
	switch {
	case onto != "" && column != "":
		return models.NoTarget(), errors.New("set either target_task_id or target_column, not both")
	case onto != "":
		return models.TaskTarget(onto), nil
	case column != "":
		st := models.Status(column)
		if !st.Valid() {
			return models.NoTarget(), fmt.Errorf("invalid column %q: must be one of todo, in-progress, done", column)
		}
		return models.ColumnTarget(st), nil
	}
	return models.NoTarget(), nil
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{MovesByStatus: make(map[string]int)}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
