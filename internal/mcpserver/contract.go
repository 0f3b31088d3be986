package mcpserver

import (
	"fmt"
	"strings"
)

const conventionsURI = "iotodash://conventions"

// conventions renders the vault conventions with the configured folders and
// the current section headings.
func (s *Server) conventions() string {
	f := s.svc.Folders()
	var b strings.Builder

	b.WriteString("# Vault Conventions\n\n")
	b.WriteString("## Folders\n\n")
	fmt.Fprintf(&b, "- Input notes: `%s/`\n", f.Input)
	fmt.Fprintf(&b, "- Output notes: `%s/`\n", f.Output)
	fmt.Fprintf(&b, "- Outcome notes: `%s/`\n", f.Outcome)
	fmt.Fprintf(&b, "- Task notes: `%s/`\n\n", f.Task)

	b.WriteString("## Task sections\n\n")
	b.WriteString("A checklist item in a task note is listed only when it sits under one of these\n")
	b.WriteString("headings. The section ends at the next heading of the same or higher level.\n\n")
	for _, sec := range s.svc.Sections() {
		fmt.Fprintf(&b, "- %s: `%s`\n", sec.Category, sec.Heading)
	}

	b.WriteString(`
## Checkboxes

- ` + "`- [ ] text`" + ` is open; any other single character in the box counts as done.
- Toggling writes ` + "`[x]`" + ` into a blank box and a blank into any other state.
- Line numbers are 0-indexed and count frontmatter lines.

## Frontmatter

- ` + "`Project`" + ` and ` + "`Status`" + ` are matched as case-insensitive substrings.
- Date presets compare the file modification time: last1day, last3days,
  last7days, last14days, last30days.
`)
	return b.String()
}
