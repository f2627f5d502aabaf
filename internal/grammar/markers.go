// Package grammar holds the regular expressions of the timeline markup: the
// event-start date grammars and the per-line markers the parser classifies.
package grammar

import "regexp"

var (
	PageBreak  = regexp.MustCompile(`^\s*_-_-_break_-_-_\s*$`)
	GroupStart = regexp.MustCompile(`(?i)^(\s*)(group|section)(?:\s+(.*?))?\s*$`)
	GroupEnd   = regexp.MustCompile(`(?i)^\s*end\s*(?:group|section)\s*$`)
	Comment    = regexp.MustCompile(`^\s*//`)

	TagColor    = regexp.MustCompile(`^\s*#([\w-]+)\s*:\s*(\S.*?)\s*$`)
	DateFormat  = regexp.MustCompile(`(?i)^\s*dateFormat\s*:\s*(\S+)\s*$`)
	Title       = regexp.MustCompile(`(?i)^\s*title\s*:\s*(.+?)\s*$`)
	Description = regexp.MustCompile(`(?i)^\s*description\s*:\s*(.+?)\s*$`)
	Viewers     = regexp.MustCompile(`(?i)^\s*view\s*:\s*(.*?)\s*$`)
	Editors     = regexp.MustCompile(`(?i)^\s*edit\s*:\s*(.*?)\s*$`)
	TagsOnly    = regexp.MustCompile(`^\s*(?:#[\w-]+\s*)+$`)

	Tag        = regexp.MustCompile(`(?:^|\s)#([\w-]+)`)
	EventID    = regexp.MustCompile(`(?:^|\s)!([\w-]+)`)
	ListItem   = regexp.MustCompile(`^(\s*)[-*]\s+(?:\[([ xX])\]\s*)?(.*?)\s*$`)
	Completion = regexp.MustCompile(`(?:^|\s)(\d{1,3})%(?:\s|$)`)
	Link       = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	At         = regexp.MustCompile(`(^|\s)@([\w.-]+)`)
	ListSplit  = regexp.MustCompile(`[\s,]+`)
)

// StartsBlock reports whether line opens a new block that ends the body of
// the event above it: an event start, a group start or a page break. When
// nested is true a group end also counts.
func StartsBlock(line string, nested bool) bool {
	return MatchEDTF(line) != nil ||
		EventStart.MatchString(line) ||
		GroupStart.MatchString(line) ||
		PageBreak.MatchString(line) ||
		(nested && GroupEnd.MatchString(line))
}
