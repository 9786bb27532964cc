package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/valter-silva-au/flowboard/internal/core"
	"github.com/valter-silva-au/flowboard/internal/observability"
	"github.com/valter-silva-au/flowboard/pkg/models"
)

// --- Fake implementations ---

type fakeMetricsCalculator struct {
	metrics *observability.Metrics
}

func (f *fakeMetricsCalculator) Calculate(_ time.Time) (*observability.Metrics, error) {
	return f.metrics, nil
}

// --- Test helpers ---

func newBoard(t *testing.T, tasks ...models.Task) *core.Board {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store := core.NewTaskStore(nil, nil, logger)
	store.ReplaceAll(tasks)
	b := core.NewBoard(store, core.WithLogger(logger))
	t.Cleanup(b.Close)
	return b
}

func sampleTasks() []models.Task {
	return []models.Task{
		{ID: "a", Title: "Write docs", Status: models.StatusTodo, Priority: models.PriorityHigh, Order: 0, CreatedAt: 1736935200000},
		{ID: "b", Title: "Fix login", Status: models.StatusTodo, Priority: models.PriorityLow, Order: 1, CreatedAt: 1736935300000},
		{ID: "c", Title: "Release", Status: models.StatusDone, Priority: models.PriorityMedium, Order: 0, CreatedAt: 1736935400000},
	}
}

// callTool is a helper that connects a client to the server and calls a tool.
func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	ctx := context.Background()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	t1, t2 := gomcp.NewInMemoryTransports()

	// Connect server (non-blocking).
	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()

	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}

	return result
}

// decode reads a successful tool result into out, preferring the structured
// content and falling back to the text content.
func decode(t *testing.T, result *gomcp.CallToolResult, out any) {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}
	if result.StructuredContent != nil {
		data, err := sonic.Marshal(result.StructuredContent)
		if err != nil {
			t.Fatalf("marshalling structured content: %v", err)
		}
		if err := sonic.Unmarshal(data, out); err != nil {
			t.Fatalf("unmarshalling structured content: %v", err)
		}
		return
	}
	text := extractText(result)
	if err := sonic.UnmarshalString(text, out); err != nil {
		t.Fatalf("unmarshalling output: %v (text was: %s)", err, text)
	}
}

func extractText(result *gomcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*gomcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func columnIDs(out boardOutput, status models.Status) []string {
	for _, c := range out.Columns {
		if c.Status == string(status) {
			ids := make([]string, len(c.Tasks))
			for i, t := range c.Tasks {
				ids[i] = t.ID
			}
			return ids
		}
	}
	return nil
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- Tests ---

func TestListBoard(t *testing.T) {
	srv := NewServer(newBoard(t, sampleTasks()...), nil, "test")

	var out boardOutput
	decode(t, callTool(t, srv, "list_board", map[string]any{}), &out)

	if len(out.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(out.Columns))
	}
	if out.Columns[1].Title != "In Progress" || out.Columns[1].Count != 0 {
		t.Errorf("in-progress column = %+v", out.Columns[1])
	}
	if got := columnIDs(out, models.StatusTodo); !equal(got, []string{"a", "b"}) {
		t.Errorf("todo = %v, want [a b]", got)
	}
	if out.Total != 3 || out.Filter != "all" || out.Sort != "order" {
		t.Errorf("board = total %d filter %s sort %s", out.Total, out.Filter, out.Sort)
	}
}

func TestListBoardWithFilterAndSort(t *testing.T) {
	srv := NewServer(newBoard(t, sampleTasks()...), nil, "test")

	var out boardOutput
	decode(t, callTool(t, srv, "list_board", map[string]any{"filter": "low"}), &out)
	if got := columnIDs(out, models.StatusTodo); !equal(got, []string{"b"}) {
		t.Errorf("low filter todo = %v, want [b]", got)
	}

	decode(t, callTool(t, srv, "list_board", map[string]any{"sort": "createdAt"}), &out)
	if got := columnIDs(out, models.StatusTodo); !equal(got, []string{"b", "a"}) {
		t.Errorf("newest first todo = %v, want [b a]", got)
	}
}

func TestListBoardInvalidFilter(t *testing.T) {
	srv := NewServer(newBoard(t), nil, "test")

	result := callTool(t, srv, "list_board", map[string]any{"filter": "urgent"})
	if !result.IsError {
		t.Fatal("expected error result for invalid filter")
	}
}

func TestGetTask(t *testing.T) {
	srv := NewServer(newBoard(t, sampleTasks()...), nil, "test")

	var out taskOutput
	decode(t, callTool(t, srv, "get_task", map[string]any{"task_id": "c"}), &out)

	if out.ID != "c" || out.Status != "done" || out.Priority != "medium" {
		t.Errorf("task = %+v", out)
	}
	if out.Created != "2025-01-15T10:03:20Z" {
		t.Errorf("created = %s", out.Created)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	srv := NewServer(newBoard(t), nil, "test")

	result := callTool(t, srv, "get_task", map[string]any{"task_id": "missing"})
	if !result.IsError {
		t.Fatal("expected error result for non-existent task")
	}
	if extractText(result) == "" {
		t.Fatal("expected error message in result content")
	}
}

func TestSaveTaskCreatesAndEdits(t *testing.T) {
	board := newBoard(t, sampleTasks()...)
	srv := NewServer(board, nil, "test")

	var created taskOutput
	decode(t, callTool(t, srv, "save_task", map[string]any{"title": "  New card  ", "priority": "high"}), &created)

	if created.ID == "" || created.Title != "New card" || created.Status != "todo" {
		t.Errorf("created = %+v", created)
	}
	if created.Order != 2 {
		t.Errorf("order = %v, want 2 (end of todo)", created.Order)
	}
	if _, ok := board.Task(created.ID); !ok {
		t.Fatal("created task not on the board")
	}

	var edited taskOutput
	decode(t, callTool(t, srv, "save_task", map[string]any{"task_id": created.ID, "title": "Renamed", "status": "done"}), &edited)
	if edited.ID != created.ID || edited.CreatedAt != created.CreatedAt || edited.Status != "done" {
		t.Errorf("edited = %+v", edited)
	}
	if len(board.Tasks()) != 4 {
		t.Errorf("edit created a new task: %d tasks", len(board.Tasks()))
	}
}

func TestSaveTaskRejectsBlankTitle(t *testing.T) {
	board := newBoard(t)
	srv := NewServer(board, nil, "test")

	result := callTool(t, srv, "save_task", map[string]any{"title": "   "})
	if !result.IsError {
		t.Fatal("expected error result for blank title")
	}
	if len(board.Tasks()) != 0 {
		t.Error("blank draft reached the store")
	}
}

func TestDeleteTask(t *testing.T) {
	board := newBoard(t, sampleTasks()...)
	srv := NewServer(board, nil, "test")

	var out messageOutput
	decode(t, callTool(t, srv, "delete_task", map[string]any{"task_id": "b"}), &out)
	if _, ok := board.Task("b"); ok {
		t.Error("task b still present")
	}

	result := callTool(t, srv, "delete_task", map[string]any{"task_id": "b"})
	if !result.IsError {
		t.Error("expected error deleting a missing task")
	}
	if len(board.Tasks()) != 2 {
		t.Errorf("tasks = %d, want 2", len(board.Tasks()))
	}
}

func TestMoveTaskOntoTask(t *testing.T) {
	board := newBoard(t, sampleTasks()...)
	srv := NewServer(board, nil, "test")

	var out moveTaskOutput
	decode(t, callTool(t, srv, "move_task", map[string]any{"task_id": "a", "target_task_id": "c"}), &out)

	if !out.Changed || out.Task.Status != "done" || out.Task.Order != 0 {
		t.Errorf("move = %+v", out)
	}
	if c, _ := board.Task("c"); c.Order != 1 {
		t.Errorf("c.order = %v, want 1", c.Order)
	}
}

func TestMoveTaskOntoColumn(t *testing.T) {
	board := newBoard(t, sampleTasks()...)
	srv := NewServer(board, nil, "test")

	var out moveTaskOutput
	decode(t, callTool(t, srv, "move_task", map[string]any{"task_id": "b", "target_column": "in-progress"}), &out)
	if !out.Changed || out.Task.Status != "in-progress" || out.Task.Order != 0 {
		t.Errorf("move = %+v", out)
	}

	decode(t, callTool(t, srv, "move_task", map[string]any{"task_id": "b", "target_column": "in-progress"}), &out)
	if out.Changed {
		t.Error("second drop on the same column should be a no-op")
	}
}

func TestMoveTaskInvalid(t *testing.T) {
	srv := NewServer(newBoard(t, sampleTasks()...), nil, "test")

	tests := []struct {
		name string
		args map[string]any
	}{
		{"both targets", map[string]any{"task_id": "a", "target_task_id": "b", "target_column": "done"}},
		{"unknown column", map[string]any{"task_id": "a", "target_column": "archived"}},
		{"unknown task", map[string]any{"task_id": "zz", "target_column": "done"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := callTool(t, srv, "move_task", tt.args); !result.IsError {
				t.Error("expected error result")
			}
		})
	}
}

func TestGetMetrics(t *testing.T) {
	now := time.Now().UTC()
	calc := &fakeMetricsCalculator{metrics: &observability.Metrics{
		TasksCreated:  3,
		TasksMoved:    2,
		MovesByStatus: map[string]int{"done": 2},
		EventCount:    5,
		OldestEvent:   &now,
		NewestEvent:   &now,
	}}
	srv := NewServer(newBoard(t), calc, "test")

	var out metricsOutput
	decode(t, callTool(t, srv, "get_metrics", map[string]any{"since": "30d"}), &out)

	if out.TasksCreated != 3 || out.TasksMoved != 2 || out.MovesByStatus["done"] != 2 {
		t.Errorf("metrics = %+v", out)
	}
	if out.OldestEvent == "" {
		t.Error("expected oldest_event to be set")
	}
}

func TestGetMetricsDisabled(t *testing.T) {
	srv := NewServer(newBoard(t), nil, "test")

	result := callTool(t, srv, "get_metrics", map[string]any{})
	if !result.IsError {
		t.Fatal("expected error result when metrics are disabled")
	}
}

func TestGetMetricsBadSince(t *testing.T) {
	srv := NewServer(newBoard(t), &fakeMetricsCalculator{metrics: &observability.Metrics{}}, "test")

	result := callTool(t, srv, "get_metrics", map[string]any{"since": "7w"})
	if !result.IsError {
		t.Fatal("expected error result for unsupported suffix")
	}
}

func TestParseSince(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"24h", 24 * time.Hour, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"d", 0, true},
		{"xd", 0, true},
		{"3m", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSince(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d := time.Since(got); d < tt.want-time.Minute || d > tt.want+time.Minute {
				t.Errorf("parseSince(%q) is %v ago, want about %v", tt.in, d, tt.want)
			}
		})
	}
}
