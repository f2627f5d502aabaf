package markup

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToInnerHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain",
			in:   "Moved house",
			want: "Moved house",
		},
		{
			name: "escapes",
			in:   "a < b & c > d",
			want: "a &lt; b &amp; c &gt; d",
		},
		{
			name: "link",
			in:   "see [docs](example.com/x) now",
			want: `see <a class="underline" href="http://example.com/x">docs</a> now`,
		},
		{
			name: "mention",
			in:   "with @rob",
			want: `with <a class="underline" href="/rob">@rob</a>`,
		},
		{
			name: "link and mention",
			in:   "@ann read [this](https://a.b/c?d=1&e=2)",
			want: `<a class="underline" href="/ann">@ann</a> read <a class="underline" href="https://a.b/c?d=1&amp;e=2">this</a>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ToInnerHTML(tt.in))
		})
	}
}

func TestAddHTTPIfNeeded(t *testing.T) {
	require.Equal(t, "http://example.com", AddHTTPIfNeeded("example.com"))
	require.Equal(t, "https://example.com", AddHTTPIfNeeded("https://example.com"))
	require.Equal(t, "/local", AddHTTPIfNeeded("/local"))
}
