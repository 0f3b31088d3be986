package tasks

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/iotodash/internal/models"
)

var toggleRe = regexp.MustCompile(`^(\s*(?:[-*+]|\d+[.)])\s*\[)(.)(\].*)$`)

// Store reads and writes raw document content.
type Store interface {
	Read(ctx context.Context, path string) (string, error)
	Write(ctx context.Context, path, content string) error
}

// ToggleLine flips the checkbox on the given 0-indexed line: a blank state
// becomes "x", anything else becomes blank. It reports false and returns
// content unchanged when the line is out of range or no longer a task.
func ToggleLine(content string, line int) (string, string, bool) {
	lines := strings.Split(content, "\n")
	if line < 0 || line >= len(lines) {
		return content, "", false
	}
	m := toggleRe.FindStringSubmatch(lines[line])
	if m == nil {
		return content, "", false
	}
	next := " "
	if m[2] == " " {
		next = "x"
	}
	lines[line] = m[1] + next + m[3]
	return strings.Join(lines, "\n"), next, true
}

// DeleteLine removes the given 0-indexed line when it is still a task line.
func DeleteLine(content string, line int) (string, bool) {
	lines := strings.Split(content, "\n")
	if line < 0 || line >= len(lines) || !toggleRe.MatchString(lines[line]) {
		return content, false
	}
	lines = append(lines[:line], lines[line+1:]...)
	return strings.Join(lines, "\n"), true
}

// Toggle re-reads the owning document, flips the task's checkbox and writes
// the result back. A stale line reference is a no-op reported as unchanged.
func Toggle(ctx context.Context, s Store, task models.TaskRecord) (string, bool, error) {
	path := task.Path()
	content, err := s.Read(ctx, path)
	if err != nil {
		return "", false, fmt.Errorf("tasks: read %s: %w", path, err)
	}
	updated, status, ok := ToggleLine(content, task.Line)
	if !ok {
		return "", false, nil
	}
	if err := s.Write(ctx, path, updated); err != nil {
		return "", false, fmt.Errorf("tasks: write %s: %w", path, err)
	}
	return status, true, nil
}

// Delete re-reads the owning document and removes the task's line.
func Delete(ctx context.Context, s Store, task models.TaskRecord) (bool, error) {
	path := task.Path()
	content, err := s.Read(ctx, path)
	if err != nil {
		return false, fmt.Errorf("tasks: read %s: %w", path, err)
	}
	updated, ok := DeleteLine(content, task.Line)
	if !ok {
		return false, nil
	}
	if err := s.Write(ctx, path, updated); err != nil {
		return false, fmt.Errorf("tasks: write %s: %w", path, err)
	}
	return true, nil
}
