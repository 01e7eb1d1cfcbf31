// Package config holds the settings of an analysis run. Values come from
// built-in defaults, an optional YAML file, an optional .env file and the
// environment, in that order, and finally from command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-telco/pkg/validation"
)

// Graph sources.
const (
	SourceCalls      = "calls"
	SourceCorrelated = "correlated"
)

// Config is the full configuration of one run.
type Config struct {
	Inputs      Inputs      `yaml:"inputs" json:"inputs"`
	Output      Output      `yaml:"output" json:"output"`
	Correlation Correlation `yaml:"correlation" json:"correlation"`
	CoLocation  CoLocation  `yaml:"colocation" json:"colocation"`
	Graph       Graph       `yaml:"graph" json:"graph"`
	Centrality  Centrality  `yaml:"centrality" json:"centrality"`
	Movement    Movement    `yaml:"movement" json:"movement"`
	Patterns    Patterns    `yaml:"patterns" json:"patterns"`
	Report      Report      `yaml:"report" json:"report"`
	LogLevel    string      `yaml:"log_level" json:"log_level"`
	LogFormat   string      `yaml:"log_format" json:"log_format"`
}

// Inputs names the input tables. Every input is optional.
type Inputs struct {
	CDR      string `yaml:"cdr" json:"cdr,omitempty"`
	IPDR     string `yaml:"ipdr" json:"ipdr,omitempty"`
	TDR      string `yaml:"tdr" json:"tdr,omitempty"`
	Towers   string `yaml:"towers" json:"towers,omitempty"`
	Carriers string `yaml:"carriers" json:"carriers,omitempty"`
}

// Output controls where results go.
type Output struct {
	Dir string `yaml:"dir" json:"dir"`
}

// Correlation holds the join windows.
type Correlation struct {
	TowerWindowMinutes int `yaml:"tower_window_minutes" json:"tower_window_minutes"`
	IPWindowMinutes    int `yaml:"ip_window_minutes" json:"ip_window_minutes"`
}

// CoLocation holds the bucket width and the optional subject pair.
type CoLocation struct {
	BucketMinutes int      `yaml:"bucket_minutes" json:"bucket_minutes"`
	Subjects      []string `yaml:"subjects" json:"subjects,omitempty"`
}

// Graph controls how the contact graph is built.
type Graph struct {
	Source    string `yaml:"source" json:"source"`
	SelfLoops bool   `yaml:"self_loops" json:"self_loops"`
}

// Centrality holds the PageRank parameters.
type Centrality struct {
	Damping       float64 `yaml:"damping" json:"damping"`
	MaxIterations int     `yaml:"max_iterations" json:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance" json:"tolerance"`
	Weighted      bool    `yaml:"weighted" json:"weighted"`
}

// Movement holds the unusual movement threshold.
type Movement struct {
	SpeedThresholdKmh float64 `yaml:"speed_threshold_kmh" json:"speed_threshold_kmh"`
}

// Patterns holds the record pattern thresholds.
type Patterns struct {
	FrequentContactThreshold int `yaml:"frequent_contact_threshold" json:"frequent_contact_threshold"`
	TopTalkers               int `yaml:"top_talkers" json:"top_talkers"`
}

// Report controls the investigative workbook.
type Report struct {
	TopNodes int  `yaml:"top_nodes" json:"top_nodes"`
	Workbook bool `yaml:"workbook" json:"workbook"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Output: Output{Dir: "output"},
		Correlation: Correlation{
			TowerWindowMinutes: 30,
			IPWindowMinutes:    5,
		},
		CoLocation: CoLocation{BucketMinutes: 60},
		Graph:      Graph{Source: SourceCalls},
		Centrality: Centrality{
			Damping:       0.85,
			MaxIterations: 100,
			Tolerance:     1e-6,
			Weighted:      true,
		},
		Movement: Movement{SpeedThresholdKmh: 100},
		Patterns: Patterns{
			FrequentContactThreshold: 5,
			TopTalkers:               10,
		},
		Report:    Report{TopNodes: 10, Workbook: true},
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// TowerWindow returns the Call×Tower window.
func (c *Config) TowerWindow() time.Duration {
	return time.Duration(c.Correlation.TowerWindowMinutes) * time.Minute
}

// IPWindow returns the Call×IP window.
func (c *Config) IPWindow() time.Duration {
	return time.Duration(c.Correlation.IPWindowMinutes) * time.Minute
}

// Bucket returns the co-location bucket width.
func (c *Config) Bucket() time.Duration {
	return time.Duration(c.CoLocation.BucketMinutes) * time.Minute
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	const week = 7 * 24 * time.Hour
	return validation.NewConfigValidator("config").
		Required("output.dir", c.Output.Dir).
		InputPath("inputs.cdr", c.Inputs.CDR).
		InputPath("inputs.ipdr", c.Inputs.IPDR).
		InputPath("inputs.tdr", c.Inputs.TDR).
		InputPath("inputs.towers", c.Inputs.Towers).
		InputPath("inputs.carriers", c.Inputs.Carriers).
		RangeDuration("correlation.tower_window_minutes", c.TowerWindow(), time.Minute, week).
		RangeDuration("correlation.ip_window_minutes", c.IPWindow(), time.Minute, week).
		RangeDuration("colocation.bucket_minutes", c.Bucket(), time.Minute, week).
		When(len(c.CoLocation.Subjects) > 0, func(v *validation.ConfigValidator) {
			v.Custom("colocation.subjects", func() error {
				if len(c.CoLocation.Subjects) != 2 || c.CoLocation.Subjects[0] == "" || c.CoLocation.Subjects[1] == "" {
					return errors.New("exactly two IMSIs are required")
				}
				return nil
			})
		}).
		OneOf("graph.source", c.Graph.Source, []string{SourceCalls, SourceCorrelated}).
		OpenRangeFloat("centrality.damping", c.Centrality.Damping, 0, 1).
		Positive("centrality.max_iterations", c.Centrality.MaxIterations).
		PositiveFloat("centrality.tolerance", c.Centrality.Tolerance).
		PositiveFloat("movement.speed_threshold_kmh", c.Movement.SpeedThresholdKmh).
		NonNegative("patterns.frequent_contact_threshold", c.Patterns.FrequentContactThreshold).
		Positive("patterns.top_talkers", c.Patterns.TopTalkers).
		Positive("report.top_nodes", c.Report.TopNodes).
		OneOf("log_level", c.LogLevel, []string{"debug", "info", "warn", "error"}).
		OneOf("log_format", c.LogFormat, []string{"json", "text"}).
		Validate()
}
