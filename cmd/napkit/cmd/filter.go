package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/napkit/data"
	"github.com/RyanBlaney/napkit/logging"
	"github.com/RyanBlaney/napkit/preprocessing"
)

var filterOpts struct {
	in, out, filtersOut string
	field, output       string
	btype, fsField      string
	wn                  []float64
	fs                  float64
	order               int
}

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Apply a zero-phase Butterworth filter to every trial",
	Long: `Filters the columns of a matrix field of every trial forward and
backward with a Butterworth design. The sampling rate comes from a field
of each trial (--fs-field) or is shared by all trials (--fs).

Settings not given on the command line come from the filter section of
the config file.`,
	RunE: runFilter,
}

func init() {
	f := filterCmd.Flags()
	f.StringVar(&filterOpts.in, "in", "", "input trial data (JSON)")
	f.StringVar(&filterOpts.out, "out", "", "output trial data (JSON)")
	f.StringVar(&filterOpts.filtersOut, "filters", "", "write the designed filters to this JSON file")
	f.StringVar(&filterOpts.field, "field", "", "field to filter")
	f.StringVar(&filterOpts.output, "output-field", "", "field for the result (default: overwrite --field)")
	f.StringVar(&filterOpts.btype, "btype", "", "lowpass, highpass, bandpass or bandstop")
	f.Float64SliceVar(&filterOpts.wn, "wn", nil, "critical frequencies in Hz")
	f.StringVar(&filterOpts.fsField, "fs-field", "", "field holding each trial's sampling rate")
	f.Float64Var(&filterOpts.fs, "fs", 0, "sampling rate shared by all trials")
	f.IntVar(&filterOpts.order, "order", 0, "filter order")
	_ = filterCmd.MarkFlagRequired("in")
	_ = filterCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(filterCmd)
}

func runFilter(cmd *cobra.Command, args []string) error {
	fc := cfg.Filter
	flags := cmd.Flags()
	if flags.Changed("field") {
		fc.Field = filterOpts.field
	}
	if flags.Changed("btype") {
		fc.BType = filterOpts.btype
	}
	if flags.Changed("wn") {
		fc.Wn = filterOpts.wn
	}
	if flags.Changed("fs-field") {
		fc.FsField = filterOpts.fsField
		fc.Fs = 0
	}
	if flags.Changed("fs") {
		fc.Fs = filterOpts.fs
	}
	if flags.Changed("order") {
		fc.Order = filterOpts.order
	}
	if filterOpts.filtersOut != "" {
		fc.ReturnFilters = true
	}

	butter, err := fc.ButterConfig()
	if err != nil {
		return err
	}

	d, err := data.Load(filterOpts.in)
	if err != nil {
		return err
	}

	out := filterOpts.output
	if out == "" {
		out = fc.Field
	}
	res, err := preprocessing.FilterButterField(d, fc.Field, out, butter)
	if err != nil {
		return err
	}

	if err := d.Save(filterOpts.out); err != nil {
		return err
	}
	if filterOpts.filtersOut != "" {
		if err := writeJSON(filterOpts.filtersOut, res.Filters); err != nil {
			return fmt.Errorf("failed to write filters: %w", err)
		}
	}

	logging.Info("Filtered trials", logging.Fields{
		"trials": d.Len(),
		"field":  out,
		"output": filterOpts.out,
	})
	return nil
}
