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

// TextGrid is a Praat annotation with interval tiers.
type TextGrid struct {
	XMin  float64
	XMax  float64
	Tiers []Tier
}

// Tier is one named tier of a TextGrid. Only interval tiers carry
// intervals; point tiers are kept with their name and class.
type Tier struct {
	Class     string
	Name      string
	XMin      float64
	XMax      float64
	Intervals []Segment
}

// Tier finds a tier by name, ignoring case. Aligners that prefix tier names
// with a speaker ("spk1 - words") are matched on the suffix.
func (tg *TextGrid) Tier(name string) (*Tier, bool) {
	name = strings.ToLower(name)
	for i := range tg.Tiers {
		t := strings.ToLower(tg.Tiers[i].Name)
		if t == name || strings.HasSuffix(t, " - "+name) {
			return &tg.Tiers[i], true
		}
	}
	return nil, false
}

// ReadTextGrid parses a long-format TextGrid file.
func ReadTextGrid(path string) (*TextGrid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open TextGrid")
	}
	defer f.Close()

	tg, err := ParseTextGrid(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return tg, nil
}

// ParseTextGrid parses the long ("ooTextFile") TextGrid format. Intervals
// with empty text are labeled "sil".
func ParseTextGrid(r io.Reader) (*TextGrid, error) {
	tg := &TextGrid{}
	scanner := bufio.NewScanner(r)

	tier := -1
	interval := -1
	line := 0
	header := false

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if text == "" {
			continue
		}

		if !header {
			if !strings.Contains(text, "ooTextFile") {
				return nil, fmt.Errorf("line %d: not a TextGrid file", line)
			}
			header = true
			continue
		}

		switch {
		case strings.HasPrefix(text, "item [") && text != "item []:":
			tg.Tiers = append(tg.Tiers, Tier{})
			tier = len(tg.Tiers) - 1
			interval = -1
			continue
		case strings.HasPrefix(text, "intervals ["):
			if tier < 0 {
				return nil, fmt.Errorf("line %d: interval outside a tier", line)
			}
			tg.Tiers[tier].Intervals = append(tg.Tiers[tier].Intervals, Segment{Label: "sil"})
			interval = len(tg.Tiers[tier].Intervals) - 1
			continue
		case strings.HasPrefix(text, "points ["):
			interval = -1
			continue
		}

		key, value, ok := strings.Cut(text, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if err := tg.set(tier, interval, key, value); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !header {
		return nil, fmt.Errorf("empty TextGrid")
	}
	return tg, nil
}

func (tg *TextGrid) set(tier, interval int, key, value string) error {
	var (
		xmin, xmax *float64
		label      *string
	)
	switch {
	case tier < 0:
		xmin, xmax = &tg.XMin, &tg.XMax
	case interval < 0:
		t := &tg.Tiers[tier]
		switch key {
		case "class":
			t.Class = unquote(value)
			return nil
		case "name":
			t.Name = unquote(value)
			return nil
		}
		xmin, xmax = &t.XMin, &t.XMax
	default:
		iv := &tg.Tiers[tier].Intervals[interval]
		xmin, xmax, label = &iv.Start, &iv.End, &iv.Label
	}

	switch key {
	case "xmin", "xmax":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("bad %s: %w", key, err)
		}
		if key == "xmin" {
			*xmin = v
		} else {
			*xmax = v
		}
	case "text":
		if label != nil {
			if s := strings.TrimSpace(unquote(value)); s != "" {
				*label = s
			}
		}
	}
	return nil
}

// unquote strips surrounding double quotes and undoes Praat's "" escaping.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.ReplaceAll(s, `""`, `"`)
}
