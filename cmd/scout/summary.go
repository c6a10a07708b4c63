package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	app "github.com/okian/scout/internal/app"
)

const columnGap = "  "

func writeSummary(w io.Writer, s app.Summary) error {
	tables := make([][]string, len(s.Tables))
	for i, t := range s.Tables {
		tables[i] = []string{t.Table, strconv.FormatInt(t.Rows, 10)}
	}
	if err := writeTable(w, []string{"TABLE", "ROWS"}, tables); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	seasons := make([][]string, len(s.Seasons))
	for i, c := range s.Seasons {
		seasons[i] = []string{c.Season, strconv.FormatInt(c.Rows, 10)}
	}
	return writeTable(w, []string{"SEASON", "UNIVERSE ROWS"}, seasons)
}

// writeTable aligns by display width. The first column is left-aligned and
// the rest, which are counts, right-aligned.
func writeTable(w io.Writer, header []string, rows [][]string) error {
	widths := make([]int, len(header))
	for _, row := range append([][]string{header}, rows...) {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
		}
	}
	for _, row := range append([][]string{header}, rows...) {
		cells := make([]string, len(widths))
		for i := range widths {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			if i == 0 {
				cells[i] = runewidth.FillRight(cell, widths[i])
			} else {
				cells[i] = runewidth.FillLeft(cell, widths[i])
			}
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, columnGap), " ")); err != nil {
			return err
		}
	}
	return nil
}

func joinKey(key []string) string {
	return strings.Join(key, ",")
}
