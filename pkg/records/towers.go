package records

import "sort"

// TowerTable is a read-only cell_id -> location lookup, loaded once per run.
type TowerTable struct {
	byCell map[string]TowerLocation
}

// NewTowerTable indexes locations by cell ID. A later entry for the same
// cell replaces an earlier one.
func NewTowerTable(locations []TowerLocation) *TowerTable {
	byCell := make(map[string]TowerLocation, len(locations))
	for _, loc := range locations {
		if loc.CellID == "" {
			continue
		}
		byCell[loc.CellID] = loc
	}
	return &TowerTable{byCell: byCell}
}

// Lookup returns the location of a cell. A nil table knows no cells.
func (t *TowerTable) Lookup(cellID string) (TowerLocation, bool) {
	if t == nil {
		return TowerLocation{}, false
	}
	loc, ok := t.byCell[cellID]
	return loc, ok
}

// Len returns the number of known cells.
func (t *TowerTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byCell)
}

// CellIDs returns the known cell IDs in ascending order.
func (t *TowerTable) CellIDs() []string {
	if t == nil {
		return nil
	}
	ids := make([]string, 0, len(t.byCell))
	for id := range t.byCell {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
