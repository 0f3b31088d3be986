package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/iotodash/internal/dashboard"
	"github.com/starford/iotodash/internal/ioto"
	"github.com/starford/iotodash/internal/testutil"
)

const weekDoc = `---
Project: Alpha
---
# Week

## Input (LEARN)
- [ ] read book
- [x] read paper

## Output (THINK)
- [ ] write post
`

func testServer(t *testing.T) (*Server, string) {
	t.Helper()

	root, v := testutil.TestVault(t)
	testutil.WriteNote(t, root, "1-input/alpha.md", "---\nProject: Alpha\nStatus: draft\n---\n# Alpha\n")
	testutil.WriteNote(t, root, "2-output/essay.md", "# Essay\n")
	testutil.WriteNote(t, root, "3-tasks/week.md", weekDoc)
	testutil.SyncVault(t, v)

	logger := testutil.DiscardLogger()
	svc := dashboard.NewService(v, testutil.TestSettings(t), ioto.NewSource("", "en", logger), logger,
		dashboard.WithDebounce(10*time.Millisecond))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(svc.Close)
	return New(svc), root
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_tasks":
		result, err = srv.listTasks(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "list_saved_queries":
		result, err = srv.listSavedQueries(ctx, req)
	case "toggle_task":
		result, err = srv.toggleTask(ctx, req)
	case "get_conventions":
		result, err = srv.getConventions(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func decodeResult[T any](t *testing.T, r *mcp.CallToolResult) T {
	t.Helper()
	if r.IsError {
		t.Fatalf("tool error: %s", resultText(r))
	}
	var v T
	if err := json.Unmarshal([]byte(resultText(r)), &v); err != nil {
		t.Fatalf("decode %q: %v", resultText(r), err)
	}
	return v
}

func TestListTasks(t *testing.T) {
	srv, _ := testServer(t)

	all := decodeResult[[]taskOut](t, callTool(t, srv, "list_tasks", map[string]interface{}{}))
	if len(all) != 3 {
		t.Fatalf("tasks = %+v, want 3", all)
	}
	if all[0].Project != "Alpha" {
		t.Errorf("project = %q, want Alpha", all[0].Project)
	}

	open := decodeResult[[]taskOut](t, callTool(t, srv, "list_tasks", map[string]interface{}{"status": "incomplete"}))
	for _, tk := range open {
		if tk.Done {
			t.Errorf("done task %q in open list", tk.Text)
		}
	}
	if len(open) != 2 {
		t.Errorf("open = %d, want 2", len(open))
	}

	output := decodeResult[[]taskOut](t, callTool(t, srv, "list_tasks", map[string]interface{}{"type": "output"}))
	if len(output) != 1 || output[0].Text != "write post" {
		t.Errorf("output tasks = %+v", output)
	}

	limited := decodeResult[[]taskOut](t, callTool(t, srv, "list_tasks", map[string]interface{}{"limit": 1}))
	if len(limited) != 1 {
		t.Errorf("limited = %d, want 1", len(limited))
	}
}

func TestListTasks_InvalidArguments(t *testing.T) {
	srv, _ := testServer(t)

	for _, args := range []map[string]interface{}{
		{"status": "maybe"},
		{"date_preset": "yesterday"},
		{"type": "notes"},
	} {
		if r := callTool(t, srv, "list_tasks", args); !r.IsError {
			t.Errorf("args %v: expected error", args)
		}
	}
}

func TestListNotes(t *testing.T) {
	srv, _ := testServer(t)

	all := decodeResult[[]noteOut](t, callTool(t, srv, "list_notes", map[string]interface{}{}))
	if len(all) != 2 {
		t.Fatalf("notes = %+v, want 2", all)
	}

	alpha := decodeResult[[]noteOut](t, callTool(t, srv, "list_notes", map[string]interface{}{"project": "alp"}))
	if len(alpha) != 1 || alpha[0].Name != "alpha" || alpha[0].Type != "Input" || alpha[0].Status != "draft" {
		t.Errorf("alpha = %+v", alpha)
	}

	output := decodeResult[[]noteOut](t, callTool(t, srv, "list_notes", map[string]interface{}{"type": "output"}))
	if len(output) != 1 || output[0].Path != "2-output/essay.md" {
		t.Errorf("output = %+v", output)
	}
}

func TestListSavedQueries(t *testing.T) {
	srv, _ := testServer(t)

	sess, err := srv.svc.Session(dashboard.KindNotes)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sess.SaveQuery(context.Background(), "Recent"); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "list_saved_queries", map[string]interface{}{"view": "notes"})
	if text := resultText(r); !strings.Contains(text, `"Recent"`) {
		t.Errorf("notes queries = %s", text)
	}
	r = callTool(t, srv, "list_saved_queries", map[string]interface{}{"view": "tasks"})
	if text := strings.TrimSpace(resultText(r)); text != "[]" {
		t.Errorf("tasks queries = %s, want []", text)
	}
	if r := callTool(t, srv, "list_saved_queries", map[string]interface{}{"view": "calendar"}); !r.IsError {
		t.Error("expected error for unknown view")
	}
}

func TestToggleTask(t *testing.T) {
	srv, root := testServer(t)

	got := decodeResult[taskOut](t, callTool(t, srv, "toggle_task", map[string]interface{}{
		"path": "3-tasks/week.md",
		"line": 6,
	}))
	if !got.Done || got.Text != "read book" {
		t.Errorf("toggled = %+v", got)
	}
	data, err := os.ReadFile(filepath.Join(root, "3-tasks", "week.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "- [x] read book") {
		t.Errorf("file not updated:\n%s", data)
	}

	if r := callTool(t, srv, "toggle_task", map[string]interface{}{"path": "3-tasks/week.md", "line": 3}); !r.IsError {
		t.Error("expected error for heading line")
	}
	if r := callTool(t, srv, "toggle_task", map[string]interface{}{"path": "3-tasks/week.md"}); !r.IsError {
		t.Error("expected error for missing line")
	}
}

func TestGetConventions(t *testing.T) {
	srv, _ := testServer(t)

	text := resultText(callTool(t, srv, "get_conventions", nil))
	for _, want := range []string{"`1-input/`", "`3-tasks/`", "`Input (LEARN)`", "`Outcome (DO)`"} {
		if !strings.Contains(text, want) {
			t.Errorf("conventions missing %s", want)
		}
	}
}
