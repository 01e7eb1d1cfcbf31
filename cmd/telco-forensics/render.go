package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-telco/pkg/pipeline"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Width(24)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)
)

// view selects the sections a command prints.
type view int

const (
	viewAll view = iota
	viewCorrelation
	viewNetwork
	viewCoLocation
	viewMovement
)

func line(label string, value any) string {
	return labelStyle.Render(label) + fmt.Sprint(value)
}

func section(title string, lines ...string) string {
	return sectionStyle.Render(title) + "\n" + strings.Join(lines, "\n")
}

// render formats the result of a run for the terminal.
func render(res *pipeline.Result, v view) string {
	s := res.Summary
	parts := []string{
		titleStyle.Render("Telecom forensic analysis"),
		line("Run", s.RunID),
		line("Duration", fmt.Sprintf("%.2fs", s.DurationSeconds)),
		"",
		section("Records",
			line("Calls (CDR)", s.Records.Calls),
			line("IP flows (IPDR)", s.Records.Flows),
			line("Tower pings (TDR)", s.Records.Pings),
		),
	}
	if res.VoIPCalls != nil {
		parts = append(parts, line("SIP calls (capture)", s.VoIPCalls))
	}

	if c := s.Correlation; c != nil && (v == viewAll || v == viewCorrelation) {
		parts = append(parts, "", section("Correlation",
			line("Call×Tower matches", fmt.Sprintf("%d (±%d min)", c.TowerMatches, c.TowerWindowMinutes)),
			line("Call×IP matches", fmt.Sprintf("%d (±%d min, %s)", c.IPMatches, c.IPWindowMinutes, c.IPMatchBasis)),
			line("Comprehensive", c.ComprehensiveMatches),
		))
	}

	if g := s.Graph; g != nil && (v == viewAll || v == viewNetwork) {
		lines := []string{
			line("Numbers", g.Stats.Nodes),
			line("Contact pairs", g.Stats.Edges),
			line("Components", fmt.Sprintf("%d (largest %d)", g.Components, g.LargestComponent)),
			line("PageRank", fmt.Sprintf("%d iterations, converged %t", g.PageRankIterations, g.PageRankConverged)),
		}
		for i, n := range s.TopNodes {
			lines = append(lines, fmt.Sprintf("  %2d. %-18s pagerank %.6f  degree %.4f  betweenness %.4f",
				i+1, n.Node, n.PageRank, n.Degree, n.Betweenness))
		}
		parts = append(parts, "", section("Contact network", lines...))
	}

	if geo := res.Geo; geo != nil {
		if v == viewAll || v == viewCoLocation {
			pair := "-"
			if len(geo.Pair) == 2 {
				pair = geo.Pair[0] + " / " + geo.Pair[1]
			}
			parts = append(parts, "", section("Co-location",
				line("Pair", pair),
				line("Pair co-locations", len(geo.CoLocation)),
				line("All subject pairs", len(geo.AllCoLocation)),
			))
		}
		if v == viewAll || v == viewMovement {
			parts = append(parts, "", section("Movement",
				line("Movements", len(geo.Movement)),
				line("Unusual movements", len(geo.Unusual)),
				line("Unknown cells", geo.UnknownCells),
			))
		}
	}

	if p := res.Patterns; p != nil && v == viewAll {
		parts = append(parts, "", section("Patterns",
			line("Frequent contacts", len(p.FrequentContacts)),
			line("Unusual calls", len(p.UnusualCalls)),
			line("Traffic anomalies", len(p.TrafficAnomalies)),
		))
	}
	if res.CarrierMatches != nil && v == viewAll {
		parts = append(parts, "", section("Carriers", line("Correlated calls", len(res.CarrierMatches))))
	}

	if len(s.Warnings) > 0 {
		lines := make([]string, 0, len(s.Warnings))
		for _, w := range s.Warnings {
			lines = append(lines, warnStyle.Render("! ")+w)
		}
		parts = append(parts, "", section("Warnings", lines...))
	}

	parts = append(parts, "", line("Outputs", fmt.Sprintf("%d files in %s", len(s.Outputs), s.Config.Output.Dir)))
	return boxStyle.Render(strings.Join(parts, "\n"))
}
