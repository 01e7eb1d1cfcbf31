package ingest

import (
	"context"
	"database/sql"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dd0wney/cluso-telco/pkg/records"
	"github.com/dd0wney/cluso-telco/pkg/validation"
)

// towerQuery reads the whole cell table of a tower database.
const towerQuery = `
	SELECT cell_id, latitude, longitude,
	       COALESCE(operator, ''), COALESCE(technology, '')
	  FROM towers`

// sqliteDSN builds a file: URI for path. The path is percent-escaped so that
// '?' and '#' in directory or file names are not read as URI delimiters.
func sqliteDSN(path, mode string) string {
	u := url.URL{Path: filepath.ToSlash(path)}
	return "file:" + u.EscapedPath() + "?mode=" + mode
}

// IsTowerDB reports whether path names a SQLite cell database.
func IsTowerDB(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// Towers loads a tower location table from CSV, XLSX or a SQLite database.
// Rows whose coordinates are not valid latitude/longitude are skipped.
func (l *Loader) Towers(ctx context.Context, path string) (*records.TowerTable, LoadStats, error) {
	stats := LoadStats{Table: TowerSchema.Table, Path: path}

	var (
		rows []validation.TowerRow
		meta [][2]string
	)
	if IsTowerDB(path) {
		var err error
		rows, meta, err = queryTowerDB(ctx, path)
		if err != nil {
			return nil, stats, err
		}
	} else {
		t, err := openTable(TowerSchema, path)
		if err != nil {
			return nil, stats, err
		}
		stats.Skipped = t.unreadable
		for _, row := range t.rows {
			rows = append(rows, validation.TowerRow{
				CellID:    t.get(row, "cell_id"),
				Latitude:  t.get(row, "latitude"),
				Longitude: t.get(row, "longitude"),
			})
			meta = append(meta, [2]string{t.get(row, "operator"), t.get(row, "technology")})
		}
	}
	stats.Rows = len(rows) + stats.Skipped

	locations := make([]records.TowerLocation, 0, len(rows))
	for i, r := range rows {
		if validation.ValidateTowerRow(&r) != nil {
			stats.Skipped++
			continue
		}
		lat, _ := strconv.ParseFloat(r.Latitude, 64)
		lon, _ := strconv.ParseFloat(r.Longitude, 64)
		locations = append(locations, records.TowerLocation{
			CellID:     r.CellID,
			Latitude:   lat,
			Longitude:  lon,
			Operator:   meta[i][0],
			Technology: meta[i][1],
		})
	}

	table := records.NewTowerTable(locations)
	stats.Loaded = table.Len()
	return table, l.finish(stats, nil), nil
}

func queryTowerDB(ctx context.Context, path string) ([]validation.TowerRow, [][2]string, error) {
	fail := func(err error) ([]validation.TowerRow, [][2]string, error) {
		return nil, nil, &InputError{Op: "query", Table: TowerSchema.Table, Path: path, Cause: err}
	}

	if err := statInput(TowerSchema, path); err != nil {
		return nil, nil, err
	}

	db, err := sql.Open("sqlite3", sqliteDSN(path, "ro"))
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	res, err := db.QueryContext(ctx, towerQuery)
	if err != nil {
		return fail(err)
	}
	defer res.Close()

	var (
		rows []validation.TowerRow
		meta [][2]string
	)
	for res.Next() {
		var (
			operator, technology string
			cell, lat, lon       sql.NullString
		)
		if err := res.Scan(&cell, &lat, &lon, &operator, &technology); err != nil {
			return fail(err)
		}
		rows = append(rows, validation.TowerRow{
			CellID:    strings.TrimSpace(cell.String),
			Latitude:  strings.TrimSpace(lat.String),
			Longitude: strings.TrimSpace(lon.String),
		})
		meta = append(meta, [2]string{operator, technology})
	}
	if err := res.Err(); err != nil {
		return fail(err)
	}
	return rows, meta, nil
}
