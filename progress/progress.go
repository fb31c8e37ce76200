/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package progress tracks, per timeline year, whether that year's game has
// been completed and how many failed attempts were made. State lives for one
// browser session and is written through to session-scoped storage on every
// change.
package progress

import (
	"encoding/json"
	"strconv"
	"time"
)

// Year identifies one entry on the timeline.
type Year int

const (
	Year2019 Year = 2019
	Year2020 Year = 2020
	Year2021 Year = 2021
	Year2022 Year = 2022
	Year2023 Year = 2023
	Year2024 Year = 2024
	Year2025 Year = 2025
	Year2026 Year = 2026
)

// Years is the fixed key set of every Table, in timeline order.
var Years = []Year{
	Year2019,
	Year2020,
	Year2021,
	Year2022,
	Year2023,
	Year2024,
	Year2025,
	Year2026,
}

func (y Year) Valid() bool {
	return y >= Year2019 && y <= Year2026
}

func (y Year) String() string {
	return strconv.Itoa(int(y))
}

// ParseYear converts a path or message value into a Year.
func ParseYear(s string) (Year, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}

	y := Year(n)

	return y, y.Valid()
}

// Record is the progress of a single year.
type Record struct {
	Completed  bool       `json:"completed"`
	Attempts   int        `json:"attempts"`
	LastPlayed *time.Time `json:"lastPlayed,omitempty"`
}

// Table maps every year to its record.
type Table map[Year]Record

// NewTable returns a table with every year zeroed.
func NewTable() Table {
	t := make(Table, len(Years))
	for _, y := range Years {
		t[y] = Record{}
	}

	return t
}

// Clone returns a deep copy, so observers can't mutate store state.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for y, r := range t {
		if r.LastPlayed != nil {
			ts := *r.LastPlayed
			r.LastPlayed = &ts
		}
		out[y] = r
	}

	return out
}

// decodeTable reads a persisted document. Years missing from the document
// keep their default record and keys outside the fixed set are dropped.
func decodeTable(data []byte) (Table, error) {
	var raw map[string]Record
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	t := NewTable()
	for k, r := range raw {
		y, ok := ParseYear(k)
		if !ok {
			continue
		}
		if r.Attempts < 0 {
			r.Attempts = 0
		}
		t[y] = r
	}

	return t, nil
}

func encodeTable(t Table) ([]byte, error) {
	raw := make(map[string]Record, len(t))
	for y, r := range t {
		raw[y.String()] = r
	}

	return json.Marshal(raw)
}
