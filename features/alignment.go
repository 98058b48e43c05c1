// Package features turns time alignments and audio into frame-level
// features: phoneme and word label vectors, articulatory feature matrices,
// forced alignment through an external aligner, and auditory spectrograms.
package features

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Segment is one labeled time interval of an alignment, in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Label string  `json:"label"`
}

// Duration returns End - Start.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// ReadAlignment reads an alignment file of "start end label" lines.
func ReadAlignment(path string) ([]Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open alignment")
	}
	defer f.Close()

	segs, err := ParseAlignment(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return segs, nil
}

// ParseAlignment parses "start end label" lines with times in seconds.
// Blank lines and lines starting with '#' are skipped. A label may contain
// spaces.
func ParseAlignment(r io.Reader) ([]Segment, error) {
	var segs []Segment
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: want \"start end label\", got %q", line, text)
		}
		start, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad start time: %w", line, err)
		}
		end, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad end time: %w", line, err)
		}
		if start < 0 || end < start {
			return nil, fmt.Errorf("line %d: invalid interval [%g, %g]", line, start, end)
		}

		segs = append(segs, Segment{Start: start, End: end, Label: strings.Join(fields[2:], " ")})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return segs, nil
}

// WriteAlignment writes segments in the format read by ParseAlignment.
func WriteAlignment(w io.Writer, segs []Segment) error {
	bw := bufio.NewWriter(w)
	for _, s := range segs {
		label := s.Label
		if strings.TrimSpace(label) == "" {
			label = "sil"
		}
		if _, err := fmt.Fprintf(bw, "%s %s %s\n", formatSeconds(s.Start), formatSeconds(s.End), label); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteAlignmentFile writes segments to path, replacing any existing file.
func WriteAlignmentFile(path string, segs []Segment) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create alignment file")
	}
	if err := WriteAlignment(f, segs); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return f.Close()
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
