package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"choromap/internal/config"
	cerrors "choromap/internal/errors"
	"choromap/internal/logger"
)

var version = "0.1.0"

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for bad invocations and configuration, 1 for everything else.
func exitCode(err error) int {
	switch cerrors.KindOf(err) {
	case cerrors.KindConfig, cerrors.KindValidation:
		return 2
	}
	return 1
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rf := &rootFlags{}
	root := &cobra.Command{
		Use:   "choromap",
		Short: "choromap - join geometries to a dataset and map the result",
		Long: `choromap joins geometry records (GeoJSON, CSV, KML, WKT) to a tabular
dataset (CSV, TSV, JSON) on a shared key and prints the merged entries or
renders them as a choropleth in the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&rf.configPath, "config", "", "Path to a YAML configuration file")
	root.PersistentFlags().StringVar(&rf.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "choromap v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})
	root.AddCommand(newMergeCmd(rf))
	root.AddCommand(newViewCmd(rf))
	return root
}

// loadConfig reads the config file, if any, and applies the root flags.
func (rf *rootFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if rf.configPath != "" {
		var err error
		if cfg, err = config.Load(rf.configPath); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = rf.logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	return log.With(zap.String("component", "choromap")), nil
}
