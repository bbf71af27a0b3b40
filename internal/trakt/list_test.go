package trakt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListSlug(t *testing.T) {
	tests := map[string]string{
		"Favourites":        "favourites",
		"Sci-Fi & Horror":   "sci-fi-and-horror",
		"Top 10 (2024)!":    "top-10-2024",
		"Films à voir":      "films-a-voir",
		"what/why?":         "whatwhy",
		"already-a-slug":    "already-a-slug",
		"two  spaces":       "two--spaces",
		"snake_case_list":   "snake_case_list",
		"a+b=c":             "abc",
		`back\slash|pipe`:   "backslashpipe",
		"[Best] {of} 100%":  "best-of-100",
		"Don't Miss: Vol.2": "don't-miss:-vol.2",
		"Ünïcödé Fävörïtës": "unicode-favorites",
	}
	for in, want := range tests {
		assert.Equal(t, want, ListSlug(in), in)
	}
}

func TestIsReservedList(t *testing.T) {
	assert.True(t, IsReservedList("collection"))
	assert.True(t, IsReservedList("watchlist"))
	assert.True(t, IsReservedList("watched"))
	assert.False(t, IsReservedList("Watchlist"))
	assert.False(t, IsReservedList("my list"))
}
