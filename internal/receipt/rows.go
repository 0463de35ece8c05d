package receipt

import (
	"sort"
	"strings"
)

// TextFragment is a piece of recognized text with its bounding box origin
type TextFragment struct {
	Text   string
	X      int
	Y      int
	Height int
}

// AssembleRows joins fragments that sit on the same printed row, left to right.
// OCR engines often split a receipt into an item column and a price column;
// fragments whose tops are within half a line height share a row.
func AssembleRows(fragments []TextFragment) string {
	if len(fragments) == 0 {
		return ""
	}

	frags := make([]TextFragment, len(fragments))
	copy(frags, fragments)
	sort.SliceStable(frags, func(i, j int) bool { return frags[i].Y < frags[j].Y })

	var rows [][]TextFragment
	for _, f := range frags {
		if n := len(rows); n > 0 && sameRow(rows[n-1][0], f) {
			rows[n-1] = append(rows[n-1], f)
			continue
		}
		rows = append(rows, []TextFragment{f})
	}

	out := make([]string, 0, len(rows))
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })
		parts := make([]string, 0, len(row))
		for _, f := range row {
			if t := strings.TrimSpace(f.Text); t != "" {
				parts = append(parts, t)
			}
		}
		out = append(out, strings.Join(parts, "   "))
	}
	return strings.Join(out, "\n")
}

func sameRow(anchor, f TextFragment) bool {
	tolerance := anchor.Height / 2
	if tolerance < 4 {
		tolerance = 4
	}
	d := f.Y - anchor.Y
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}
