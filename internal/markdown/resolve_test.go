package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xamyl/wikii/internal/docs"
)

func TestResolve(t *testing.T) {
	known := docs.NewSourceSet("about.md", "my page.md", "images", "images/logo.png").WithRoot("docs")

	tests := []struct {
		target string
		want   bool
	}{
		{"about.md", true},
		{"./about.md", true},
		{"about.md#section", true},
		{"about.md?v=1", true},
		{"my%20page.md", true},
		{"images", true},
		{"images/logo.png", true},
		{"images/../about.md", true},
		{"missing.md", false},
		{"", false},
		{"#top", false},
		{"?q=1", false},
		{"/about.md", true},
		{"/images/logo.png", true},
		{"/", false},
		{"../about.md", false},
		{"../docs/about.md", true},
		{"../docs/images/../about.md", true},
		{"../docs", false},
		{"../other/about.md", false},
		{"../../docs/about.md", false},
		{"..", false},
		{".", false},
		{"https://example.com/about.md", false},
		{"mailto:someone@example.com", false},
		{"//example.com/about.md", false},
		{"bad%zzescape.md", false},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(known, tt.target))
		})
	}
}

func TestResolveWithoutRootName(t *testing.T) {
	known := docs.NewSourceSet("about.md")

	assert.True(t, Resolve(known, "/about.md"))
	assert.False(t, Resolve(known, "../docs/about.md"))
	assert.False(t, Resolve(known, "../about.md"))
}

func TestHasScheme(t *testing.T) {
	assert.True(t, hasScheme("http://x"))
	assert.True(t, hasScheme("git+ssh://x"))
	assert.False(t, hasScheme("about.md"))
	assert.False(t, hasScheme("dir/a:b.md"))
	assert.False(t, hasScheme(":nothing"))
	assert.False(t, hasScheme("1abc:x"))
}
