package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/valter-silva-au/flowboard/pkg/models"
	"gopkg.in/yaml.v3"
)

func TestExport_YAML(t *testing.T) {
	tasks := []models.Task{sampleTask("a", models.StatusTodo, 0), sampleTask("b", models.StatusDone, 1)}
	useBoard(t, tasks...)

	out, err := runCmd(t, exportCmd, nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "title: Task a") || !strings.Contains(out, "status: done") {
		t.Errorf("unexpected yaml:\n%s", out)
	}

	var got []models.Task
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("parsing yaml: %v", err)
	}
	if !reflect.DeepEqual(got, tasks) {
		t.Errorf("yaml export = %+v, want %+v", got, tasks)
	}
}

func TestExport_JSONToFile(t *testing.T) {
	tasks := []models.Task{sampleTask("a", models.StatusInProgress, 2)}
	useBoard(t, tasks...)
	path := filepath.Join(t.TempDir(), "board.json")

	out, err := runCmd(t, exportCmd, map[string]string{"format": "json", "output": path})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "Exported 1 task(s)") {
		t.Errorf("unexpected output %q", out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !strings.Contains(string(data), `"createdAt"`) {
		t.Errorf("json export should use the storage field names:\n%s", data)
	}
	var got []models.Task
	if err := sonic.Unmarshal(data, &got); err != nil {
		t.Fatalf("parsing json: %v", err)
	}
	if !reflect.DeepEqual(got, tasks) {
		t.Errorf("json export = %+v, want %+v", got, tasks)
	}
}

func TestExport_InvalidFormat(t *testing.T) {
	useBoard(t)
	_, err := runCmd(t, exportCmd, map[string]string{"format": "csv"})
	if err == nil || !strings.Contains(err.Error(), "invalid --format") {
		t.Errorf("err = %v", err)
	}
}
