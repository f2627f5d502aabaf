package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTreePaths(t *testing.T) {
	tree := NewTree()
	a := tree.AddEvent(Root, &Event{DateText: "2020"})
	g := tree.AddGroup(Root, &Group{Title: "work", Style: StyleGroup})
	b := tree.AddEvent(g, &Event{DateText: "2021"})
	inner := tree.AddGroup(g, &Group{Title: "inner", Style: StyleSection})
	c := tree.AddEvent(inner, &Event{DateText: "2022"})

	require.Equal(t, Path{0}, tree.PathOf(a))
	require.Equal(t, Path{1, 0}, tree.PathOf(b))
	require.Equal(t, Path{1, 1, 0}, tree.PathOf(c))
	require.Empty(t, tree.PathOf(Root))

	n, ok := tree.At(Path{1, 1, 0})
	require.True(t, ok)
	require.Equal(t, c, n.ID)
	require.Equal(t, inner, n.Parent)

	_, ok = tree.At(Path{3})
	require.False(t, ok)

	var texts []string
	for _, e := range tree.Events() {
		texts = append(texts, e.DateText)
	}
	require.Equal(t, []string{"2020", "2021", "2022"}, texts)
}

func TestTreeWalkStops(t *testing.T) {
	tree := NewTree()
	tree.AddEvent(Root, &Event{})
	tree.AddEvent(Root, &Event{})
	tree.AddEvent(Root, &Event{})

	visited := 0
	tree.Walk(func(n *Node, _ Path) bool {
		visited++
		return visited < 2
	})
	require.Equal(t, 2, visited)
}

func TestNewEventDescription(t *testing.T) {
	d := NewEventDescription([]string{"!launch Ship v1 #work 40%", "more detail #release", ""}, nil)
	require.Equal(t, "launch", d.ID)
	require.Equal(t, []string{"work", "release"}, d.Tags)
	require.NotNil(t, d.Completion)
	require.Equal(t, 40, *d.Completion)
	require.Equal(t, "Ship v1 40%", d.Summary())
	require.Equal(t, "more detail #release", d.Body())
	require.Equal(t, "Ship v1 40%", d.InnerHTML)

	d = NewEventDescription([]string{"Review <draft> with @ana, see [notes](example.com/n)"}, nil)
	require.Equal(t, `Review &lt;draft&gt; with <a class="underline" href="/ana">@ana</a>, see <a class="underline" href="http://example.com/n">notes</a>`, d.InnerHTML)
}

func TestEmptyTimelineDefaults(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	tl := Empty(now)
	require.Equal(t, time.Date(2019, time.June, 1, 12, 0, 0, 0, time.UTC), tl.Metadata.Earliest)
	require.Equal(t, time.Date(2029, time.June, 1, 12, 0, 0, 0, time.UTC), tl.Metadata.Latest)
	require.Equal(t, 366*24*time.Hour, tl.Metadata.MaxDuration)
	require.Empty(t, tl.Events())
}
