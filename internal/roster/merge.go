package roster

import (
	"strconv"
	"strings"

	"github.com/fleetline/rosterwatch/internal/shift"
)

// FilterAll matches every player regardless of shift data presence.
const FilterAll = "all"

// ViewRow is one rendered table row: a player joined with their shift
// assignment (or placeholders when the license has none).
type ViewRow struct {
	SourceID int    `json:"source"`
	Name     string `json:"playerName"`
	License  string `json:"license"`
	ICName   string `json:"icName"`
	Role     string `json:"role"`
}

// Merge joins players with shift assignments by normalized license and
// applies the shift filter and free-text search. Player ordering is
// preserved; Merge never re-sorts.
func Merge(players []PlayerRecord, shiftMap shift.Map, filter, search string) []ViewRow {
	search = strings.ToLower(strings.TrimSpace(search))

	rows := make([]ViewRow, 0, len(players))
	for _, p := range players {
		assignment, assigned := shiftMap[shift.NormalizeLicense(p.License)]

		row := ViewRow{
			SourceID: p.SourceID,
			Name:     p.Name,
			License:  p.License,
			ICName:   shift.Placeholder,
			Role:     shift.Placeholder,
		}
		if assigned {
			row.ICName = assignment.ICName
			row.Role = assignment.Role
		}

		if !matchesFilter(row.Role, assigned, filter) {
			continue
		}
		if !matchesSearch(row, search) {
			continue
		}

		rows = append(rows, row)
	}

	return rows
}

// matchesFilter implements the role-set rules: a filter is satisfied when
// the role set contains the filter tag, and the shift filters additionally
// accept "Full Shift" members. Players without shift data only pass the
// "all" filter.
func matchesFilter(role string, assigned bool, filter string) bool {
	if filter == "" || filter == FilterAll {
		return true
	}
	if !assigned {
		return false
	}

	set := make(map[string]bool)
	for _, tag := range shift.Roles(role) {
		set[tag] = true
	}

	switch filter {
	case "Full Shift", "Staff":
		return set[filter]
	default:
		return set[filter] || set["Full Shift"]
	}
}

// matchesSearch is a case-insensitive substring match over player name,
// slot id, license and resolved IC name.
func matchesSearch(row ViewRow, search string) bool {
	if search == "" {
		return true
	}
	for _, field := range []string{
		row.Name,
		strconv.Itoa(row.SourceID),
		row.License,
		row.ICName,
	} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}
