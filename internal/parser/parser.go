// Package parser extracts frontmatter and the structural cache (headings and
// list items) from Markdown content.
package parser

import (
	"bytes"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/starford/iotodash/internal/models"
)

const fmDelim = "---"

// taskStateRe captures the checkbox state character of a task list line.
var taskStateRe = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+\[(.)\](?:\s|$)`)

var md = goldmark.New()

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	Structure   *models.Structure
}

// Parse extracts frontmatter and the structural cache from raw Markdown
// bytes. Line numbers in the structure count from the first line of the
// file, frontmatter included.
func Parse(data []byte) *Result {
	fm, bodyStart := splitFrontmatter(data)

	src := data
	if bodyStart > 0 {
		// Blank the frontmatter so goldmark does not read the closing
		// delimiter as a setext underline, keeping line numbers intact.
		masked := make([]byte, 0, len(data))
		masked = append(masked, bytes.Repeat([]byte("\n"), bytes.Count(data[:bodyStart], []byte("\n")))...)
		masked = append(masked, data[bodyStart:]...)
		src = masked
	}

	return &Result{
		Frontmatter: fm,
		Structure:   parseStructure(src),
	}
}

// splitFrontmatter parses a leading YAML block delimited by --- lines and
// returns it with the byte offset at which the body begins. Without a
// complete block the offset is 0. Invalid YAML yields a nil map but the
// block is still skipped.
func splitFrontmatter(data []byte) (map[string]any, int) {
	if !bytes.HasPrefix(data, []byte(fmDelim)) {
		return nil, 0
	}
	firstNL := bytes.IndexByte(data, '\n')
	if firstNL < 0 || strings.TrimRight(string(data[:firstNL]), " \t\r") != fmDelim {
		return nil, 0
	}

	off := firstNL + 1
	for off <= len(data) {
		nl := bytes.IndexByte(data[off:], '\n')
		end, next := len(data), len(data)
		if nl >= 0 {
			end, next = off+nl, off+nl+1
		}
		if strings.TrimRight(string(data[off:end]), " \t\r") == fmDelim {
			var fm map[string]any
			if err := yaml.Unmarshal(data[firstNL+1:off], &fm); err != nil {
				return nil, next
			}
			return fm, next
		}
		if nl < 0 {
			break
		}
		off = next
	}
	return nil, 0
}

func parseStructure(src []byte) *models.Structure {
	doc := md.Parser().Parse(text.NewReader(src))
	starts := computeLineStarts(src)
	st := &models.Structure{}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.Heading:
			if node.Lines().Len() == 0 {
				return ast.WalkSkipChildren, nil
			}
			st.Headings = append(st.Headings, models.Heading{
				Text:  headingText(node, src),
				Level: node.Level,
				Line:  offsetToLine(starts, node.Lines().At(0).Start),
			})
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			line, ok := listItemLine(node, starts)
			if !ok {
				return ast.WalkContinue, nil
			}
			st.ListItems = append(st.ListItems, models.ListItem{
				Line: line,
				Task: taskState(src, starts, line),
			})
		}
		return ast.WalkContinue, nil
	})

	return st
}

// listItemLine returns the line of the first text block inside item.
func listItemLine(item *ast.ListItem, starts []int) (int, bool) {
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() == ast.TypeBlock && c.Lines().Len() > 0 {
			return offsetToLine(starts, c.Lines().At(0).Start), true
		}
	}
	return 0, false
}

func taskState(src []byte, starts []int, line int) string {
	if line >= len(starts) {
		return ""
	}
	end := len(src)
	if line+1 < len(starts) {
		end = starts[line+1]
	}
	m := taskStateRe.FindSubmatch(bytes.TrimRight(src[starts[line]:end], "\r\n"))
	if m == nil {
		return ""
	}
	return string(m[1])
}

func headingText(h *ast.Heading, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(h, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func computeLineStarts(src []byte) []int {
	starts := []int{0}
	for i, c := range src {
		if c == '\n' && i+1 < len(src) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func offsetToLine(starts []int, offset int) int {
	return sort.SearchInts(starts, offset+1) - 1
}
