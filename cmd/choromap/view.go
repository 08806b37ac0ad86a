package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"choromap/internal/classify"
	"choromap/internal/config"
	"choromap/internal/geom"
	"choromap/internal/merge"
	"choromap/internal/tui"
	"choromap/internal/watch"
)

func newViewCmd(rf *rootFlags) *cobra.Command {
	mf := &mergeFlags{}
	var watchInputs bool
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Merge and render the result as a terminal choropleth",
		Long: `Merge as "choromap merge" does and open an interactive map with every
entry shaded by the class of its value.

Example:
  choromap view -g states.geojson -d votes.csv --join code --value vote --classes 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolve(cmd, rf, mf)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			res, err := run(cfg, log)
			if err != nil {
				return err
			}
			p := tea.NewProgram(newViewModel(cfg, res, log), tea.WithAltScreen(), tea.WithMouseAllMotion())
			// merge warnings reach the status line once the map is up
			live := sessionLogger(cfg, log)
			if watchInputs {
				w, err := watch.New([]string{cfg.Geometry.Path, cfg.Dataset.Path}, 300*time.Millisecond, live)
				if err != nil {
					return err
				}
				defer w.Stop()
				ctx, cancel := context.WithCancel(cmd.Context())
				defer cancel()
				if err := w.Start(ctx, func(paths []string) {
					live.Debug("inputs changed", zap.Strings("paths", paths))
					p.Send(reload(cfg, live))
				}); err != nil {
					return err
				}
			}
			_, err = p.Run()
			return err
		},
	}
	mf.register(cmd)
	cmd.Flags().BoolVarP(&watchInputs, "watch", "w", false, "Re-merge and redraw when an input file changes")
	return cmd
}

// sessionLogger returns the logger used while the map holds the terminal.
// Logs bound for a terminal stream would draw over the map, so only logs
// configured to go to files are kept.
func sessionLogger(cfg *config.Config, log *zap.Logger) *zap.Logger {
	if len(cfg.Log.OutputPaths) == 0 {
		return zap.NewNop()
	}
	for _, path := range cfg.Log.OutputPaths {
		if path == "stderr" || path == "stdout" {
			return zap.NewNop()
		}
	}
	return log
}

// reload re-runs the merge for a live view.
func reload(cfg *config.Config, log *zap.Logger) tui.ReloadMsg {
	res, err := run(cfg, log)
	if err != nil {
		return tui.ReloadMsg{Err: err}
	}
	return tui.ReloadMsg{Result: res, Classifier: classifierFor(cfg, res, log)}
}

// classifierFor bins the entry values. A result without numeric values is
// drawn unclassified.
func classifierFor(cfg *config.Config, res *merge.Result[geom.Data], log *zap.Logger) *classify.Classifier {
	if cfg.Merge.Value == "" {
		return nil
	}
	cls, err := classify.New(res.Values(), cfg.Classify.Classes, cfg.ClassifyMethod())
	if err != nil {
		log.Warn("drawing unclassified", zap.Error(err))
		return nil
	}
	return cls
}

func newViewModel(cfg *config.Config, res *merge.Result[geom.Data], log *zap.Logger) tui.Model {
	cls := classifierFor(cfg, res, log)
	title := filepath.Base(cfg.Geometry.Path)
	if cfg.Merge.Value != "" {
		title = fmt.Sprintf("%s by %s", title, cfg.Merge.Value)
	}
	return tui.New(title, res, cfg.Merge.Value, cls)
}
