package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-telco/pkg/config"
)

// options holds the flag values of one invocation. A flag only overrides the
// configuration when it was set on the command line.
type options struct {
	configPath string
	envFile    string
	inputs     config.Inputs
	outputDir  string
	logLevel   string
	logFormat  string
	noWorkbook bool

	towerWindow int
	ipWindow    int

	graphSource string
	selfLoops   bool
	topNodes    int

	bucket int
	imsi1  string
	imsi2  string

	speedThreshold float64
}

func (o *options) correlationFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&o.towerWindow, "tower-window", 30, "Call×Tower window in minutes (±)")
	f.IntVar(&o.ipWindow, "ip-window", 5, "Call×IP window in minutes (±)")
}

func (o *options) graphFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.graphSource, "graph-source", config.SourceCalls, "Build the graph from raw calls or correlated rows (calls, correlated)")
	f.BoolVar(&o.selfLoops, "self-loops", false, "Keep calls a number made to itself")
	f.IntVar(&o.topNodes, "top", 10, "Numbers listed in the summary and workbook")
}

func (o *options) colocationFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&o.bucket, "bucket-minutes", 60, "Co-location time bucket in minutes")
	f.StringVar(&o.imsi1, "imsi1", "", "First subject of the co-location pair")
	f.StringVar(&o.imsi2, "imsi2", "", "Second subject of the co-location pair")
}

func (o *options) movementFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&o.speedThreshold, "speed-threshold", 100, "Speed in km/h above which a movement is unusual")
}

// config resolves the configuration: defaults, then the YAML file, then the
// environment, then explicit flags.
func (o *options) config(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	if err := o.apply(cmd, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *options) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	for _, in := range []struct {
		flag string
		src  string
		dst  *string
	}{
		{"cdr", o.inputs.CDR, &cfg.Inputs.CDR},
		{"ipdr", o.inputs.IPDR, &cfg.Inputs.IPDR},
		{"tdr", o.inputs.TDR, &cfg.Inputs.TDR},
		{"towers", o.inputs.Towers, &cfg.Inputs.Towers},
		{"carriers", o.inputs.Carriers, &cfg.Inputs.Carriers},
		{"output", o.outputDir, &cfg.Output.Dir},
		{"log-level", o.logLevel, &cfg.LogLevel},
		{"log-format", o.logFormat, &cfg.LogFormat},
		{"graph-source", o.graphSource, &cfg.Graph.Source},
	} {
		if changed(in.flag) {
			*in.dst = in.src
		}
	}

	if changed("no-workbook") {
		cfg.Report.Workbook = !o.noWorkbook
	}
	if changed("tower-window") {
		cfg.Correlation.TowerWindowMinutes = o.towerWindow
	}
	if changed("ip-window") {
		cfg.Correlation.IPWindowMinutes = o.ipWindow
	}
	if changed("self-loops") {
		cfg.Graph.SelfLoops = o.selfLoops
	}
	if changed("top") {
		cfg.Report.TopNodes = o.topNodes
	}
	if changed("bucket-minutes") {
		cfg.CoLocation.BucketMinutes = o.bucket
	}
	if changed("speed-threshold") {
		cfg.Movement.SpeedThresholdKmh = o.speedThreshold
	}

	switch {
	case changed("imsi1") && changed("imsi2"):
		cfg.CoLocation.Subjects = []string{o.imsi1, o.imsi2}
	case changed("imsi1") || changed("imsi2"):
		return fmt.Errorf("--imsi1 and --imsi2 must be given together")
	}
	return nil
}
