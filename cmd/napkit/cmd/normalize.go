package cmd

import (
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/napkit/algorithms/common"
	"github.com/RyanBlaney/napkit/data"
	"github.com/RyanBlaney/napkit/logging"
	"github.com/RyanBlaney/napkit/preprocessing"
)

var normalizeOpts struct {
	in, out       string
	field, output string
	method        string
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Scale every channel of a matrix field",
	RunE:  runNormalize,
}

func init() {
	f := normalizeCmd.Flags()
	f.StringVar(&normalizeOpts.in, "in", "", "input trial data (JSON)")
	f.StringVar(&normalizeOpts.out, "out", "", "output trial data (JSON)")
	f.StringVar(&normalizeOpts.field, "field", "", "field to normalize")
	f.StringVar(&normalizeOpts.output, "output-field", "", "field for the result (default: overwrite --field)")
	f.StringVar(&normalizeOpts.method, "method", "", "zscore or minmax")
	_ = normalizeCmd.MarkFlagRequired("in")
	_ = normalizeCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	nc := cfg.Normalize
	if cmd.Flags().Changed("field") {
		nc.Field = normalizeOpts.field
	}
	if cmd.Flags().Changed("method") {
		nc.Method = normalizeOpts.method
	}

	method, err := common.ParseNormalizationType(nc.Method)
	if err != nil {
		return err
	}

	d, err := data.Load(normalizeOpts.in)
	if err != nil {
		return err
	}

	out, err := preprocessing.Normalize(d, data.FieldName(nc.Field), method)
	if err != nil {
		return err
	}

	name := normalizeOpts.output
	if name == "" {
		name = nc.Field
	}
	if err := d.SetMatrices(name, out); err != nil {
		return err
	}
	if err := d.Save(normalizeOpts.out); err != nil {
		return err
	}

	logging.Info("Normalized trials", logging.Fields{"trials": d.Len(), "method": method.String()})
	return nil
}
