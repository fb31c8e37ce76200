package main

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/timeline/progress"
)

func TestDefaultTimeline(t *testing.T) {
	tl, err := loadTimeline("")
	require.NoError(t, err)

	require.Len(t, tl.Years, len(progress.Years))
	for i, y := range progress.Years {
		assert.Equal(t, y, tl.Years[i].Year)
	}

	want := map[progress.Year]int{2019: 5, 2020: 8, 2021: 9, 2022: 9, 2023: 9, 2024: 11, 2025: 6, 2026: 1}
	for _, c := range tl.Years {
		assert.Equal(t, want[c.Year], c.Photos, "year %d", c.Year)
		assert.NotEmpty(t, c.CaptionHTML(), "year %d", c.Year)
	}

	c, ok := tl.year(progress.Year2019)
	require.True(t, ok)
	assert.Contains(t, string(c.CaptionHTML()), "<strong>19 moves</strong>")
}

func TestParseTimelineSanitizesCaptions(t *testing.T) {
	tl, err := parseTimeline([]byte(`
years:
  - year: 2020
    caption: "hello <script>alert(1)</script> [link](javascript:alert(1)) *there*"
`))
	require.NoError(t, err)

	c, ok := tl.year(progress.Year2020)
	require.True(t, ok)

	html := string(c.CaptionHTML())
	assert.NotContains(t, html, "<script")
	assert.NotContains(t, html, "javascript:")
	assert.Contains(t, html, "<em>there</em>")
}

func TestParseTimelineFillsMissingYears(t *testing.T) {
	tl, err := parseTimeline([]byte("title: Mine\nyears:\n  - year: 2024\n    title: Jobs\n"))
	require.NoError(t, err)

	assert.Equal(t, "Mine", tl.Title)
	require.Len(t, tl.Years, len(progress.Years))

	c, ok := tl.year(progress.Year2019)
	require.True(t, ok)
	assert.Equal(t, "2019", c.Title)
	assert.Zero(t, c.Photos)

	c, _ = tl.year(progress.Year2024)
	assert.Equal(t, "Jobs", c.Title)
}

func TestParseTimelineRejects(t *testing.T) {
	tests := map[string]string{
		"unknown year":   "years:\n  - year: 2018\n",
		"duplicate year": "years:\n  - year: 2019\n  - year: 2019\n",
		"negative":       "years:\n  - year: 2019\n    photos: -1\n",
		"unknown field":  "colour: red\n",
		"not yaml":       "years: [",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseTimeline([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadTimelineFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: From disk\n"), 0o644))

	tl, err := loadTimeline(path)
	require.NoError(t, err)
	assert.Equal(t, "From disk", tl.Title)

	_, err = loadTimeline(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPhotosLayout(t *testing.T) {
	tl, err := loadTimeline("")
	require.NoError(t, err)

	photos := tl.photos("/grad", progress.Year2024, rand.New(rand.NewPCG(1, 2)))
	require.Len(t, photos, 11)

	assert.Equal(t, "/grad/media/images/gallery/2024/1.jpg", photos[0].Src)
	assert.Equal(t, "/grad/media/images/gallery/2024/11.jpg", photos[10].Src)
	for _, p := range photos {
		assert.True(t, strings.HasPrefix(p.Src, "/grad/media/"))
		assert.GreaterOrEqual(t, p.Rotation, -15)
		assert.Less(t, p.Rotation, 15)
		assert.GreaterOrEqual(t, p.X, 5)
		assert.Less(t, p.X, 75)
		assert.GreaterOrEqual(t, p.Y, 5)
		assert.Less(t, p.Y, 55)
	}

	assert.Nil(t, tl.photos("", progress.Year(1999), rand.New(rand.NewPCG(1, 2))))
}
