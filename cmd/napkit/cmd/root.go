package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/napkit/config"
	"github.com/RyanBlaney/napkit/logging"
)

var (
	cfgFile  string
	logLevel string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "napkit",
	Short: "Neural and audio preprocessing toolkit",
	Long: `napkit prepares neural recordings and speech audio for analysis.

Commands:
  filter     - zero-phase Butterworth filtering of trial data
  normalize  - per-channel z-score or min-max scaling
  labels     - frame-level phoneme and word labels from alignments
  audspec    - auditory or linear spectrograms of audio files
  align      - forced alignment of a directory of recordings`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command and reports any error on stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (.yaml, .toml or .json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
	} else {
		cfg = config.Default()
	}

	if logLevel != "" {
		if _, ok := logging.ParseLevel(logLevel); !ok {
			return fmt.Errorf("unknown log level %q", logLevel)
		}
		cfg.Logging.Level = logLevel
	}

	logger := logging.NewDefaultLogger()
	logger.SetLevel(cfg.Logging.LogLevel())
	logging.SetGlobalLogger(logger)
	return nil
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

func writeJSON(path string, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if path == "" || path == "-" {
		_, err = os.Stdout.Write(append(out, '\n'))
		return err
	}
	return os.WriteFile(path, append(out, '\n'), 0o644)
}
