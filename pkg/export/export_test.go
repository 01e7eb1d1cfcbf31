package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dd0wney/cluso-telco/pkg/algorithms"
	"github.com/dd0wney/cluso-telco/pkg/correlation"
	"github.com/dd0wney/cluso-telco/pkg/geo"
	"github.com/dd0wney/cluso-telco/pkg/logging"
)

var at = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriterCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w, err := NewWriter(dir, logging.NewNopLogger())
	require.NoError(t, err)

	table := TowerTable([]correlation.TowerMatch{{
		CallTimestamp:   at,
		TowerTimestamp:  at.Add(10 * time.Minute),
		PhoneNumber:     "5551000",
		CalledNumber:    "5552000",
		CellID:          "C1",
		IMSI:            "310150000000001",
		TimeDiffMinutes: 10,
	}})
	require.NoError(t, w.CSV(table))

	rows := readCSV(t, filepath.Join(dir, TowerCorrelation+".csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, table.Header, rows[0])
	assert.Equal(t, []string{"2024-03-01 10:00:00", "2024-03-01 10:10:00", "5551000", "5552000", "C1", "310150000000001", "10"}, rows[1])

	written := w.Written()
	require.Len(t, written, 1)
	assert.Equal(t, 1, written[0].Rows)

	info, err := os.Stat(written[0].Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePermissions), info.Mode().Perm())
}

func TestWriterEmptyTableKeepsHeader(t *testing.T) {
	w, err := NewWriter(t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, w.CSV(IPTable(nil)))

	rows := readCSV(t, filepath.Join(w.Dir(), IPCorrelation+".csv"))
	require.Len(t, rows, 1)
	assert.Equal(t, "match_basis", rows[0][len(rows[0])-1])
}

func TestWriterFailedWriteKeepsPreviousFile(t *testing.T) {
	w, err := NewWriter(t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, w.File("report.txt", func(out io.Writer) error {
		_, err := io.WriteString(out, "first run")
		return err
	}))

	boom := errors.New("boom")
	err = w.File("report.txt", func(out io.Writer) error {
		io.WriteString(out, "partial")
		return boom
	})
	require.ErrorIs(t, err, boom)

	data, err := os.ReadFile(filepath.Join(w.Dir(), "report.txt"))
	require.NoError(t, err)
	assert.Equal(t, "first run", string(data))

	entries, err := os.ReadDir(w.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file should be removed")
}

func TestWriterJSON(t *testing.T) {
	w, err := NewWriter(t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, w.JSON("summary.json", map[string]int{"calls": 3}))

	data, err := os.ReadFile(filepath.Join(w.Dir(), "summary.json"))
	require.NoError(t, err)
	var got map[string]int
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 3, got["calls"])
}

func TestNewWriterRequiresDir(t *testing.T) {
	_, err := NewWriter("", nil)
	assert.Error(t, err)
}

func TestCentralityTable(t *testing.T) {
	table := CentralityTable([]algorithms.NodeCentrality{
		{Node: "A", Degree: 1, Betweenness: 0.5, PageRank: 0.4},
		{Node: "B", Degree: 0.5, PageRank: 0.3},
	})
	assert.Equal(t, []string{"Node", "Degree Centrality", "Betweenness Centrality", "PageRank"}, table.Header)
	assert.Equal(t, []string{"A", "1", "0.5", "0.4"}, table.Rows[0])
	assert.Equal(t, 2, table.Len())
}

func TestMovementAndCoLocationTables(t *testing.T) {
	moves := MovementTable(MovementSpeed, []geo.Movement{{
		IMSI: "I1", FromTower: "C1", ToTower: "C2", Timestamp: at,
		DistanceKm: 12.5, TimeHours: 0.25, SpeedKmh: 50,
	}})
	assert.Equal(t, []string{"imsi", "from_tower", "to_tower", "timestamp", "distance_km", "time_hours", "speed_kmh"}, moves.Header)
	assert.Equal(t, []string{"I1", "C1", "C2", "2024-03-01 10:00:00", "12.5", "0.25", "50"}, moves.Rows[0])

	co := CoLocationTable(CoLocation, []geo.CoLocation{{
		IMSI1: "I1", IMSI2: "I2", CellID: "C1", Timestamp1: at, Timestamp2: at.Add(45 * time.Minute), TimeDiffMinutes: 45,
	}})
	assert.Equal(t, CoLocation, co.Name)
	assert.Equal(t, "45", co.Rows[0][5])
}

func TestComponentsTable(t *testing.T) {
	table := ComponentsTable(&algorithms.ComponentResult{Components: []*algorithms.Component{
		{ID: 0, Nodes: []string{"A", "B", "C"}, Size: 3, Edges: 2, Weight: 5, Density: 2.0 / 3.0},
	}})
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "A;B;C", table.Rows[0][5])
	assert.Empty(t, ComponentsTable(nil).Rows)
}

func TestCarrierTable(t *testing.T) {
	table := CarrierTable([]correlation.CarrierMatch{
		{SourceNumber: "5551000", CallTimestamp: at, Carrier: "Acme"},
		{SourceNumber: "5559999", Anomaly: true},
	})
	assert.Equal(t, "false", table.Rows[0][6])
	assert.Equal(t, "true", table.Rows[1][6])
	assert.Equal(t, "", table.Rows[1][2])
}

func TestWorkbook(t *testing.T) {
	w, err := NewWriter(t.TempDir(), nil)
	require.NoError(t, err)

	book, err := NewWorkbook()
	require.NoError(t, err)
	require.NoError(t, book.AddRows("summary", [][]string{{"Run", "abc"}, {"Calls", "3"}}, false))
	require.NoError(t, book.AddTable("centrality", CentralityTable([]algorithms.NodeCentrality{{Node: "A", PageRank: 1}})))
	assert.Equal(t, []string{"summary", "centrality"}, book.Sheets())
	require.NoError(t, w.Workbook(book))

	f, err := excelize.OpenFile(filepath.Join(w.Dir(), WorkbookName))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"summary", "centrality"}, f.GetSheetList())
	rows, err := f.GetRows("centrality")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Node", rows[0][0])
	assert.Equal(t, "A", rows[1][0])

	value, err := f.GetCellValue("summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "abc", value)
}
