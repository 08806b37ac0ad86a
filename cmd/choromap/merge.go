package main

import (
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"choromap/internal/config"
	"choromap/internal/dataset"
	cerrors "choromap/internal/errors"
	"choromap/internal/geom"
	"choromap/internal/merge"
	"choromap/internal/source"
)

// mergeFlags mirror the merge section of the config file. Only flags set on
// the command line override file values.
type mergeFlags struct {
	geometry  string
	data      string
	join      string
	joinMap   map[string]string
	value     string
	index     []string
	onMiss    string
	trimSpace bool
	foldCase  bool
	delimiter string
	method    string
	classes   int
}

func (f *mergeFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.geometry, "geometry", "g", "", "Geometry file (.geojson, .json, .csv, .kml, .wkt)")
	fl.StringVarP(&f.data, "data", "d", "", "Dataset file (.csv, .tsv, .txt, .json)")
	fl.StringVar(&f.join, "join", "", "Key present on both sides")
	fl.StringToStringVar(&f.joinMap, "join-map", nil, "Record attribute to dataset column pairs, e.g. STATE=code")
	fl.StringVar(&f.value, "value", "", "Dataset column carried as the entry value")
	fl.StringSliceVar(&f.index, "index", nil, "Fields forming the entry index (default: input position)")
	fl.StringVar(&f.onMiss, "on-miss", "skip", "What to do with records without a dataset row (skip, abort)")
	fl.BoolVar(&f.trimSpace, "trim-space", false, "Trim surrounding whitespace from string keys")
	fl.BoolVar(&f.foldCase, "fold-case", false, "Compare string keys case-insensitively")
	fl.StringVar(&f.delimiter, "delimiter", "", "Dataset CSV delimiter")
	fl.StringVar(&f.method, "classify", "quantile", "Classification method (quantile, equal)")
	fl.IntVar(&f.classes, "classes", 5, "Number of classes")
}

// apply copies explicitly set flags over cfg.
func (f *mergeFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fl := cmd.Flags()
	if fl.Changed("geometry") {
		cfg.Geometry.Path = f.geometry
	}
	if fl.Changed("data") {
		cfg.Dataset.Path = f.data
	}
	if fl.Changed("join") {
		cfg.Merge.Join = f.join
		cfg.Merge.JoinMap = nil
	}
	if fl.Changed("join-map") {
		cfg.Merge.JoinMap = f.joinMap
	}
	if fl.Changed("value") {
		cfg.Merge.Value = f.value
	}
	if fl.Changed("index") {
		cfg.Merge.Index = f.index
	}
	if fl.Changed("on-miss") {
		cfg.Merge.OnMiss = f.onMiss
	}
	if fl.Changed("trim-space") {
		cfg.Merge.TrimSpace = f.trimSpace
		cfg.Dataset.TrimSpace = f.trimSpace
	}
	if fl.Changed("fold-case") {
		cfg.Merge.FoldCase = f.foldCase
	}
	if fl.Changed("delimiter") {
		cfg.Dataset.Delimiter = f.delimiter
	}
	if fl.Changed("classify") {
		cfg.Classify.Method = f.method
	}
	if fl.Changed("classes") {
		cfg.Classify.Classes = f.classes
	}
}

// resolve builds the effective configuration for a merge or view run.
func resolve(cmd *cobra.Command, rf *rootFlags, mf *mergeFlags) (*config.Config, error) {
	cfg, err := rf.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	mf.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Geometry.Path == "" || cfg.Dataset.Path == "" {
		return nil, cerrors.New(cerrors.KindConfig, "geometry and dataset paths are required")
	}
	return cfg, nil
}

// run loads both sides concurrently and merges them.
func run(cfg *config.Config, log *zap.Logger) (*merge.Result[geom.Data], error) {
	var (
		records []source.Record
		ds      *dataset.Dataset
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		records, err = source.LoadGeometry(cfg.Geometry.Path)
		return err
	})
	g.Go(func() error {
		var err error
		ds, err = source.LoadDataset(cfg.Dataset.Path, cfg.CSVOptions())
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Debug("loaded inputs",
		zap.String("geometry", cfg.Geometry.Path),
		zap.Int("records", len(records)),
		zap.String("dataset", cfg.Dataset.Path),
		zap.Int("rows", ds.Len()))

	res, err := merge.Merge(records, ds, cfg.Spec().Logger(log))
	if err != nil {
		return nil, err
	}
	log.Info("merge complete",
		zap.Int("entries", len(res.Entries)),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}

func newMergeCmd(rf *rootFlags) *cobra.Command {
	mf := &mergeFlags{}
	var format string
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Join geometries to a dataset and print the merged entries",
		Long: `Join geometry records to dataset rows on a shared key and print one line
per merged entry in input order. Warnings go to the log on stderr.

Example:
  choromap merge -g states.geojson -d votes.csv --join code --value vote`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" {
				return cerrors.New(cerrors.KindValidation, "format must be table or json").WithDetail("format", format)
			}
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
			if format == "json" {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return writeTable(cmd.OutOrStdout(), res)
		},
	}
	mf.register(cmd)
	cmd.Flags().StringVar(&format, "format", "table", "Output format (table, json)")
	return cmd
}

type jsonEntry struct {
	Index      []any          `json:"index"`
	Value      any            `json:"value"`
	Attributes map[string]any `json:"attributes"`
	Position   int            `json:"position"`
	Row        int            `json:"row"`
	BBox       [4]float64     `json:"bbox"`
}

func writeJSON(w io.Writer, res *merge.Result[geom.Data]) error {
	out := make([]jsonEntry, 0, len(res.Entries))
	for _, e := range res.Entries {
		b := e.Geometry.BBox
		out = append(out, jsonEntry{
			Index:      e.Index,
			Value:      e.Value,
			Attributes: e.Attributes,
			Position:   e.Position,
			Row:        e.Row,
			BBox:       [4]float64{b.MinX, b.MinY, b.MaxX, b.MaxY},
		})
	}
	enc := gojson.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeTable(w io.Writer, res *merge.Result[geom.Data]) error {
	rows := make([][]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		value := ""
		if e.HasValue {
			value = cellString(e.Value)
		}
		rows = append(rows, []string{e.Index.String(), value, strconv.Itoa(e.Position), strconv.Itoa(e.Row)})
	}
	t := ltable.New().
		Border(lipgloss.NormalBorder()).
		Headers("INDEX", "VALUE", "POSITION", "ROW").
		Rows(rows...)
	_, err := io.WriteString(w, t.String()+"\n")
	return err
}

func cellString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	}
	b, err := gojson.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
