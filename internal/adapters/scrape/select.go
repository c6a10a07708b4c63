package scrape

import (
	"github.com/okian/scout/internal/domain/table"
)

// PlayerColumn is the header label that marks a player stats table.
const PlayerColumn = "Player"

// Select picks the candidate with a Player column and the most rows. When no
// candidate has one it falls back to the largest table overall and reports
// false. Ties go to the earliest candidate.
func Select(candidates []table.Raw) (table.Raw, bool) {
	best := -1
	for i, c := range candidates {
		if c.ColumnIndex(PlayerColumn) < 0 {
			continue
		}
		if best < 0 || c.NumRows() > candidates[best].NumRows() {
			best = i
		}
	}
	if best >= 0 {
		return candidates[best], true
	}

	for i, c := range candidates {
		if best < 0 || c.NumRows() > candidates[best].NumRows() {
			best = i
		}
	}
	if best < 0 {
		return table.Raw{}, false
	}
	return candidates[best], false
}
