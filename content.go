/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"math/rand/v2"
	"os"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"

	"github.com/Seednode/timeline/progress"
)

//go:embed content/timeline.yaml
var defaultTimeline []byte

type Position struct {
	Top  float64 `yaml:"top"`
	Left float64 `yaml:"left"`
}

// YearContent is everything the page shows for one year besides its game.
type YearContent struct {
	Year    progress.Year `yaml:"year"`
	Title   string        `yaml:"title"`
	Top     float64       `yaml:"top"`
	Left    float64       `yaml:"left"`
	Photos  int           `yaml:"photos"`
	Caption string        `yaml:"caption"`

	captionHTML template.HTML
}

func (y YearContent) CaptionHTML() template.HTML {
	return y.captionHTML
}

type Timeline struct {
	Title      string        `yaml:"title"`
	Background string        `yaml:"background"`
	Music      string        `yaml:"music"`
	Video      string        `yaml:"video"`
	Instagram  string        `yaml:"instagram"`
	Gallery    Position      `yaml:"gallery"`
	Guestbook  Position      `yaml:"guestbook"`
	Years      []YearContent `yaml:"years"`
}

// Photo is one polaroid on the gallery table.
type Photo struct {
	Src      string `json:"src"`
	Rotation int    `json:"rotation"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

func loadTimeline(path string) (*Timeline, error) {
	if path == "" {
		return parseTimeline(defaultTimeline)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return parseTimeline(data)
}

func parseTimeline(data []byte) (*Timeline, error) {
	var t Timeline

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("parse timeline: %w", err)
	}

	md := goldmark.New()
	policy := bluemonday.UGCPolicy()

	seen := make(map[progress.Year]bool, len(progress.Years))
	for i := range t.Years {
		y := &t.Years[i]

		if !y.Year.Valid() {
			return nil, fmt.Errorf("parse timeline: unknown year %d", y.Year)
		}
		if seen[y.Year] {
			return nil, fmt.Errorf("parse timeline: year %d listed twice", y.Year)
		}
		if y.Photos < 0 {
			return nil, fmt.Errorf("parse timeline: negative photo count for %d", y.Year)
		}
		seen[y.Year] = true

		var buf bytes.Buffer
		if err := md.Convert([]byte(strings.TrimSpace(y.Caption)), &buf); err != nil {
			return nil, fmt.Errorf("render caption for %d: %w", y.Year, err)
		}
		y.captionHTML = template.HTML(policy.Sanitize(buf.String()))
	}

	for _, y := range progress.Years {
		if !seen[y] {
			t.Years = append(t.Years, YearContent{Year: y, Title: y.String()})
		}
	}

	sort.Slice(t.Years, func(i, j int) bool {
		return t.Years[i].Year < t.Years[j].Year
	})

	if t.Title == "" {
		t.Title = "Timeline"
	}

	return &t, nil
}

func (t *Timeline) year(y progress.Year) (YearContent, bool) {
	for _, c := range t.Years {
		if c.Year == y {
			return c, true
		}
	}

	return YearContent{}, false
}

// photos lays out a year's gallery with a fresh scatter each time.
func (t *Timeline) photos(prefix string, y progress.Year, r *rand.Rand) []Photo {
	c, ok := t.year(y)
	if !ok {
		return nil
	}

	out := make([]Photo, 0, c.Photos)
	for i := 1; i <= c.Photos; i++ {
		out = append(out, Photo{
			Src:      fmt.Sprintf("%s/media/images/gallery/%d/%d.jpg", prefix, y, i),
			Rotation: r.IntN(30) - 15,
			X:        5 + r.IntN(70),
			Y:        5 + r.IntN(50),
		})
	}

	return out
}
