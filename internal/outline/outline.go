// Package outline renders parsed timelines as an indented, colored tree
// for terminals.
package outline

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"marktime/internal/dates"
	"marktime/internal/timeline"
)

// paletteColors maps the parser's tag palette names onto terminal colors.
var paletteColors = map[string]lipgloss.Color{
	"green":  lipgloss.Color("#10B981"),
	"blue":   lipgloss.Color("#3B82F6"),
	"red":    lipgloss.Color("#EF4444"),
	"yellow": lipgloss.Color("#F59E0B"),
	"indigo": lipgloss.Color("#6366F1"),
	"purple": lipgloss.Color("#8B5CF6"),
	"pink":   lipgloss.Color("#EC4899"),
	"teal":   lipgloss.Color("#14B8A6"),
	"orange": lipgloss.Color("#F97316"),
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8B5CF6"))
	pageStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	groupStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4"))
	dateStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
)

var layouts = map[dates.Granularity]string{
	dates.Year:    "2006",
	dates.Month:   "2006-01",
	dates.Day:     "2006-01-02",
	dates.Instant: "2006-01-02 15:04",
}

// Render draws every page of ts. Pages after the first are introduced by a
// separator line.
func Render(ts timeline.Timelines) string {
	var b strings.Builder
	for i, tl := range ts.Timelines {
		if i > 0 {
			b.WriteString(pageStyle.Render(fmt.Sprintf("── page %d ──", i+1)))
			b.WriteString("\n")
		}
		renderPage(&b, tl)
	}
	return b.String()
}

func renderPage(b *strings.Builder, tl timeline.Timeline) {
	if tl.Metadata.Title != "" {
		b.WriteString(titleStyle.Render(tl.Metadata.Title))
		b.WriteString("\n")
	}
	tl.Tree.Walk(func(n *timeline.Node, path timeline.Path) bool {
		indent := strings.Repeat("  ", len(path)-1)
		b.WriteString(indent)
		if n.IsGroup() {
			b.WriteString(groupStyle.Render("▸ " + groupTitle(n.Group)))
		} else {
			renderEvent(b, n.Event, tl.Tags)
		}
		b.WriteString("\n")
		return true
	})
}

func groupTitle(g *timeline.Group) string {
	if g.Title != "" {
		return g.Title
	}
	return string(g.Style)
}

func renderEvent(b *strings.Builder, e *timeline.Event, tags map[string]string) {
	dr := e.DateRange
	layout := layouts[dr.Granularity]
	when := dr.From.Format(layout)
	if last := lastInstant(dr); !last.Equal(dr.From) && last.Format(layout) != when {
		when += " → " + last.Format(layout)
	}
	b.WriteString(dateStyle.Render(when))
	b.WriteString("  ")
	b.WriteString(e.Description.Summary())
	for _, tag := range e.Description.Tags {
		b.WriteString(" ")
		b.WriteString(lipgloss.NewStyle().Foreground(tagColor(tags[tag])).Render("#" + tag))
	}
	if e.Recurrence != nil {
		b.WriteString(" ")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("(every %d %s)", e.Recurrence.Interval, e.Recurrence.Unit)))
	}
}

// lastInstant is the last moment inside the range for date granularities,
// so a one-year event shows a single year rather than two.
func lastInstant(dr timeline.DateRangePart) time.Time {
	if !dr.Granularity.AllDay() || !dr.To.After(dr.From) {
		return dr.To
	}
	return dr.To.Add(-time.Nanosecond)
}

func tagColor(c string) lipgloss.Color {
	if strings.HasPrefix(c, "#") {
		return lipgloss.Color(c)
	}
	if pc, ok := paletteColors[c]; ok {
		return pc
	}
	return lipgloss.Color("#94A3B8")
}
