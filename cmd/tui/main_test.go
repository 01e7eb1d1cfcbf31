package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-telco/pkg/export"
	"github.com/dd0wney/cluso-telco/pkg/pipeline"
)

func writeOutputs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		export.Centrality + ".csv":    "Node,Degree Centrality,Betweenness Centrality,PageRank\nA,1,0.5,0.5\nB,0.5,0,0.25\n",
		export.MovementSpeed + ".csv": "imsi,from_tower,to_tower,timestamp,distance_km,time_hours,speed_kmh\n",
	}
	var outputs []map[string]any
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		outputs = append(outputs, map[string]any{"name": name, "path": path})
	}

	summary, err := json.Marshal(map[string]any{
		"run_id":    "run-1",
		"records":   map[string]int{"calls": 3, "flows": 0, "pings": 2},
		"top_nodes": []map[string]any{{"node": "A", "pagerank": 0.5}},
		"findings":  map[string]int{},
		"outputs":   outputs,
		"warnings":  []string{"ipdr: input not found"},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, pipeline.SummaryName), summary, 0o644))
	return dir
}

func TestLoadResults(t *testing.T) {
	r := loadResults(writeOutputs(t))

	require.NoError(t, r.summaryErr)
	assert.Equal(t, "run-1", r.summary.RunID)
	require.Len(t, r.views, len(browsed))

	centrality := r.views[0]
	assert.Len(t, centrality.columns, 4)
	assert.Len(t, centrality.rows, 2)
	assert.Equal(t, "Node", centrality.columns[0].Title)
	assert.Equal(t, len("Degree Centrality"), centrality.columns[1].Width)

	for _, v := range r.views {
		switch v.file {
		case export.MovementSpeed + ".csv":
			assert.False(t, v.missing)
			assert.Empty(t, v.rows)
		case export.TowerCorrelation + ".csv":
			assert.True(t, v.stale)
		}
	}
}

func TestLoadResultsHidesEarlierRunOutputs(t *testing.T) {
	dir := writeOutputs(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, export.TowerCorrelation+".csv"),
		[]byte("call_timestamp,tdr_timestamp\n2024-03-01 10:00:00,2024-03-01 10:01:00\n"), 0o644))

	r := loadResults(dir)
	for _, v := range r.views {
		if v.file == export.TowerCorrelation+".csv" {
			assert.True(t, v.stale)
			assert.Empty(t, v.rows)
		}
	}

	require.NoError(t, os.Remove(filepath.Join(dir, pipeline.SummaryName)))
	r = loadResults(dir)
	for _, v := range r.views {
		if v.file == export.TowerCorrelation+".csv" {
			assert.False(t, v.stale)
			assert.Len(t, v.rows, 1)
		}
	}
}

func TestLoadResultsWithoutSummary(t *testing.T) {
	r := loadResults(t.TempDir())
	assert.Error(t, r.summaryErr)
	assert.Nil(t, r.summary)
}

func TestModelNavigation(t *testing.T) {
	dir := writeOutputs(t)
	var m tea.Model = initialModel(dir)

	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = m.Update(loadedMsg{results: loadResults(dir)})
	assert.Contains(t, m.View(), "run-1")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, m.(model).currentView)
	assert.Contains(t, m.View(), "Centrality")
	assert.Len(t, m.(model).table.Rows(), 2)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, len(browsed), m.(model).currentView)
	assert.Contains(t, m.View(), "Not produced by this run")
}
