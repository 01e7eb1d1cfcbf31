package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/table"

	"github.com/dd0wney/cluso-telco/pkg/export"
	"github.com/dd0wney/cluso-telco/pkg/pipeline"
)

const maxColumnWidth = 28

// dataView is one CSV output shown as a table.
type dataView struct {
	title   string
	file    string
	columns []table.Column
	rows    []table.Row
	missing bool
	stale   bool
	err     error
}

// browsed lists the outputs the browser shows, in tab order.
var browsed = []struct{ title, table string }{
	{"Centrality", export.Centrality},
	{"Components", export.Components},
	{"Call×Tower", export.TowerCorrelation},
	{"Call×IP", export.IPCorrelation},
	{"Co-location", export.AllCoLocation},
	{"Movement", export.MovementSpeed},
	{"Unusual", export.UnusualMovement},
	{"VoIP", export.VoIPCalls},
}

// results is everything loaded from one output directory.
type results struct {
	dir        string
	summary    *pipeline.Summary
	summaryErr error
	views      []dataView
}

func loadResults(dir string) *results {
	r := &results{dir: dir}
	r.summary, r.summaryErr = loadSummary(filepath.Join(dir, pipeline.SummaryName))
	produced := r.produced()
	for _, b := range browsed {
		v := dataView{title: b.title, file: b.table + ".csv"}
		if produced != nil && !produced[v.file] {
			// left in the directory by an earlier run
			v.stale = true
		} else {
			v = loadView(dir, b.title, b.table)
		}
		r.views = append(r.views, v)
	}
	return r
}

// produced returns the file names the summarised run wrote, or nil when
// there is no summary to check against.
func (r *results) produced() map[string]bool {
	if r.summary == nil {
		return nil
	}
	files := make(map[string]bool, len(r.summary.Outputs))
	for _, o := range r.summary.Outputs {
		files[filepath.Base(o.Path)] = true
	}
	return files
}

func loadSummary(path string) (*pipeline.Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s pipeline.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return &s, nil
}

func loadView(dir, title, name string) dataView {
	v := dataView{title: title, file: name + ".csv"}

	f, err := os.Open(filepath.Join(dir, v.file))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			v.missing = true
		} else {
			v.err = err
		}
		return v
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		v.err = fmt.Errorf("failed to read %s: %w", v.file, err)
		return v
	}
	if len(records) == 0 {
		return v
	}

	header := records[0]
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, rec := range records[1:] {
		for i, cell := range rec {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
		v.rows = append(v.rows, table.Row(rec))
	}
	for i, h := range header {
		v.columns = append(v.columns, table.Column{Title: h, Width: min(widths[i], maxColumnWidth)})
	}
	return v
}
