package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/napkit/features"
	"github.com/RyanBlaney/napkit/logging"
)

var alignOpts struct {
	audioDir, textDir, outDir string
	summary                   string
}

var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Force-align recordings with their transcripts",
	Long: `Runs the configured forced aligner over every .wav and .flac file in
--audio-dir. Each recording needs a transcript <name>.txt in --text-dir.
Phoneme (.phn) and word (.wrd) alignments are written to --out-dir.`,
	RunE: runAlign,
}

func init() {
	f := alignCmd.Flags()
	f.StringVar(&alignOpts.audioDir, "audio-dir", "", "directory of recordings")
	f.StringVar(&alignOpts.textDir, "text-dir", "", "directory of transcripts")
	f.StringVar(&alignOpts.outDir, "out-dir", "", "directory for .phn and .wrd files")
	f.StringVar(&alignOpts.summary, "summary", "", "also write all alignments to this JSON file")
	_ = alignCmd.MarkFlagRequired("audio-dir")
	_ = alignCmd.MarkFlagRequired("text-dir")
	rootCmd.AddCommand(alignCmd)
}

func runAlign(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := cfg.Aligner.Options()
	if alignOpts.outDir != "" {
		opts.OutputDir = alignOpts.outDir
	}

	results, err := features.NewAligner(opts).AlignFiles(ctx, alignOpts.audioDir, alignOpts.textDir)
	if err != nil {
		return err
	}

	logging.Info("Aligned recordings", logging.Fields{"count": len(results), "output_dir": opts.OutputDir})
	if alignOpts.summary != "" {
		return writeJSON(alignOpts.summary, results)
	}
	return nil
}
