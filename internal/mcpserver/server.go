// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the dashboard's note and task queries over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"

	"github.com/starford/iotodash/internal/dashboard"
	"github.com/starford/iotodash/internal/filter"
	"github.com/starford/iotodash/internal/models"
)

const defaultLimit = 50

// Server wraps the MCP server with the dashboard tools.
type Server struct {
	mcp *server.MCPServer
	svc *dashboard.Service
}

// New creates a new MCP server with all dashboard tools registered.
func New(svc *dashboard.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"iotodash",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List checklist tasks from the task folder. Only tasks under the "+
			"Input, Output or Outcome section headings are returned."),
		mcp.WithString("name", mcp.Description("Substring of the task text (case-insensitive)")),
		mcp.WithString("project", mcp.Description("Substring of the owning note's Project field")),
		mcp.WithString("status", mcp.Description("Completion filter"), mcp.Enum("all", "completed", "incomplete")),
		mcp.WithString("date_preset", mcp.Description("Modification window"),
			mcp.Enum("all", "last1day", "last3days", "last7days", "last14days", "last30days")),
		mcp.WithString("type", mcp.Description("Section to keep"), mcp.Enum("input", "output", "outcome")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of tasks (default 50)")),
	), s.listTasks)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes from the Input, Output and Outcome folders, most recently modified first."),
		mcp.WithString("name", mcp.Description("Substring of the note name (case-insensitive)")),
		mcp.WithString("project", mcp.Description("Substring of the Project field")),
		mcp.WithString("date_preset", mcp.Description("Modification window"),
			mcp.Enum("all", "last1day", "last3days", "last7days", "last14days", "last30days")),
		mcp.WithString("type", mcp.Description("Folder to keep"), mcp.Enum("input", "output", "outcome")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of notes (default 50)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("list_saved_queries",
		mcp.WithDescription("List saved queries, optionally for one view."),
		mcp.WithString("view", mcp.Description("View name"), mcp.Enum("dashboard", "notes", "tasks")),
	), s.listSavedQueries)

	s.mcp.AddTool(mcp.NewTool("toggle_task",
		mcp.WithDescription("Toggle the checkbox of a task line in its note. "+
			"A blank box becomes [x]; any other state becomes blank."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault path of the note (e.g. 3-tasks/week.md)")),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("0-indexed line number of the task")),
	), s.toggleTask)

	s.mcp.AddTool(mcp.NewTool("get_conventions",
		mcp.WithDescription("Returns the vault layout and task conventions the dashboard reads."),
	), s.getConventions)

	s.mcp.AddResource(
		mcp.NewResource(conventionsURI, "Vault Conventions",
			mcp.WithResourceDescription("Folder layout, section headings and filter vocabulary."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readConventionsResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type noteOut struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Project  string    `json:"project,omitempty"`
	Status   string    `json:"status,omitempty"`
	Modified time.Time `json:"modified"`
}

type taskOut struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Text    string `json:"text"`
	Done    bool   `json:"done"`
	Type    string `json:"type"`
	Project string `json:"project,omitempty"`
}

// searchFrom builds a one-off search from the tool arguments.
func searchFrom(req mcp.CallToolRequest, kind filter.Kind) (dashboard.Search, error) {
	st := filter.Default()
	st.Name = req.GetString("name", "")
	st.Project = req.GetString("project", "")

	preset := filter.DatePreset(req.GetString("date_preset", string(filter.DateAll)))
	if err := validation.Validate(preset, validation.In(
		filter.DateAll, filter.DateLast1Day, filter.DateLast3Days,
		filter.DateLast7Days, filter.DateLast14Days, filter.DateLast30Days,
	)); err != nil {
		return dashboard.Search{}, fmt.Errorf("date_preset: %w", err)
	}
	st.DateRange = preset
	st.DateType = filter.DateModified

	if kind == filter.KindTasks {
		status := filter.TaskStatus(req.GetString("status", string(filter.StatusAll)))
		if err := validation.Validate(status, validation.In(filter.StatusAll, filter.StatusCompleted, filter.StatusIncomplete)); err != nil {
			return dashboard.Search{}, fmt.Errorf("status: %w", err)
		}
		st.TaskStatus = status
	}

	if raw := req.GetString("type", ""); raw != "" {
		c, err := models.ParseCategory(raw)
		if err != nil || !c.IsSection() {
			return dashboard.Search{}, fmt.Errorf("type: must be input, output or outcome")
		}
		if kind == filter.KindTasks {
			st.TaskTypes = filter.NewCategorySet(c)
		} else {
			st.NoteTypes = filter.NewCategorySet(c)
		}
	}

	return dashboard.Search{Filters: st, Limit: req.GetInt("limit", defaultLimit)}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := searchFrom(req, filter.KindTasks)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	recs, err := s.svc.SearchTasks(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := make([]taskOut, 0, len(recs))
	for _, r := range recs {
		out = append(out, toTaskOut(r))
	}
	return jsonResult(out)
}

func (s *Server) listNotes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := searchFrom(req, filter.KindNotes)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	docs := s.svc.SearchNotes(q)
	out := make([]noteOut, 0, len(docs))
	for _, d := range docs {
		out = append(out, noteOut{
			Path:     d.Path,
			Name:     d.Basename,
			Type:     d.Category.String(),
			Project:  field(d, filter.ProjectField),
			Status:   field(d, filter.StatusField),
			Modified: d.Modified,
		})
	}
	return jsonResult(out)
}

func (s *Server) listSavedQueries(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view := req.GetString("view", "")
	if view == "" {
		return jsonResult(orEmpty(s.svc.SavedQueries()))
	}
	k, err := dashboard.ParseKind(view)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess, err := s.svc.Session(k)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(orEmpty(sess.Queries()))
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (s *Server) toggleTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	line, err := req.RequireInt("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, changed, err := s.svc.ToggleTaskAt(ctx, path, line)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !changed {
		return mcp.NewToolResultText(fmt.Sprintf("unchanged: %s:%d", path, line)), nil
	}
	return jsonResult(toTaskOut(rec))
}

func (s *Server) getConventions(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.conventions()), nil
}

func (s *Server) readConventionsResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      conventionsURI,
			MIMEType: "text/markdown",
			Text:     s.conventions(),
		},
	}, nil
}

func toTaskOut(r models.TaskRecord) taskOut {
	out := taskOut{
		Path: r.Path(),
		Line: r.Line,
		Text: r.Content,
		Done: r.Done(),
		Type: r.Category.String(),
	}
	if r.Document != nil {
		out.Project = field(r.Document, filter.ProjectField)
	}
	return out
}

func field(d *models.Document, key string) string {
	v, ok := d.Field(key)
	if !ok {
		return ""
	}
	return cast.ToString(v)
}
