package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-telco/pkg/logging"
	"github.com/dd0wney/cluso-telco/pkg/pipeline"
)

func newRootCmd() *cobra.Command {
	return buildCommands(&options{})
}

func buildCommands(o *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "telco-forensics",
		Short: "Correlate and analyse call, IP and tower records",
		Long: `telco-forensics joins call detail records (CDR), IP detail records (IPDR)
and tower dump records (TDR) of an investigation, ranks the numbers of the
contact network and reconstructs subject movement.

Every command reads the same inputs and writes its results as CSV files,
an XLSX workbook, summary.json and metrics.prom to the output directory.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", "", "YAML configuration file")
	pf.StringVar(&o.envFile, "env-file", ".env", "Optional .env file read before the environment")
	pf.StringVar(&o.inputs.CDR, "cdr", "", "Call detail records (.csv or .xlsx)")
	pf.StringVar(&o.inputs.IPDR, "ipdr", "", "IP detail records (.csv or .xlsx)")
	pf.StringVar(&o.inputs.TDR, "tdr", "", "Tower dump records (.csv or .xlsx)")
	pf.StringVar(&o.inputs.Towers, "towers", "", "Tower locations (.csv, .xlsx or SQLite .db)")
	pf.StringVar(&o.inputs.Carriers, "carriers", "", "Offline carrier directory (.csv or .xlsx)")
	pf.StringVarP(&o.outputDir, "output", "o", "", "Output directory")
	pf.StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&o.logFormat, "log-format", "", "Log format: json or text")
	pf.BoolVar(&o.noWorkbook, "no-workbook", false, "Skip analysis_report.xlsx")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "telco-forensics v%s (%s)\n", version, commit)
		},
	})

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run every analysis and write all outputs",
		Args:  cobra.NoArgs,
		RunE:  o.run(viewAll),
	}
	o.correlationFlags(analyzeCmd)
	o.graphFlags(analyzeCmd)
	o.colocationFlags(analyzeCmd)
	o.movementFlags(analyzeCmd)
	rootCmd.AddCommand(analyzeCmd)

	correlateCmd := &cobra.Command{
		Use:   "correlate",
		Short: "Join calls with tower pings and IP flows by time",
		Args:  cobra.NoArgs,
		RunE:  o.run(viewCorrelation, pipeline.StageCorrelate),
	}
	o.correlationFlags(correlateCmd)
	rootCmd.AddCommand(correlateCmd)

	networkCmd := &cobra.Command{
		Use:   "network",
		Short: "Build the contact graph and rank its numbers",
		Args:  cobra.NoArgs,
		RunE:  o.run(viewNetwork, pipeline.StageGraph),
	}
	o.graphFlags(networkCmd)
	o.correlationFlags(networkCmd)
	rootCmd.AddCommand(networkCmd)

	colocateCmd := &cobra.Command{
		Use:   "colocate",
		Short: "Find subjects seen on the same cell in the same time bucket",
		Args:  cobra.NoArgs,
		RunE:  o.run(viewCoLocation, pipeline.StageGeo),
	}
	o.colocationFlags(colocateCmd)
	rootCmd.AddCommand(colocateCmd)

	movementCmd := &cobra.Command{
		Use:   "movement",
		Short: "Reconstruct subject movement between towers",
		Args:  cobra.NoArgs,
		RunE:  o.run(viewMovement, pipeline.StageGeo),
	}
	o.movementFlags(movementCmd)
	rootCmd.AddCommand(movementCmd)

	return rootCmd
}

// run builds the RunE of an analysis command.
func (o *options) run(v view, stages ...pipeline.Stage) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := o.config(cmd)
		if err != nil {
			return err
		}

		logger := logging.New(cmd.ErrOrStderr(), logging.ParseLevel(cfg.LogLevel), logging.ParseFormat(cfg.LogFormat)).
			With(logging.Component("cli"))

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, err := pipeline.New(cfg, logger, stages...).Run(ctx)
		if err != nil {
			logger.Error("analysis failed", logging.Error(err))
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), render(res, v))
		return nil
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
