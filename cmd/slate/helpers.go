package main

import (
	"encoding/json"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"slate/internal/catalog"
)

const (
	ansiGreen = "\033[32m"
	ansiRed   = "\033[31m"
	ansiBlue  = "\033[34m"
	ansiReset = "\033[0m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorStatus(passed bool, label string, colorize bool) string {
	if !colorize {
		return label
	}
	if passed {
		return ansiGreen + label + ansiReset
	}
	return ansiRed + label + ansiReset
}

func formatTimestamp(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Local().Format("2006-01-02 15:04:05")
}

func truncate(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}

// sortLiveSeriesByTitle orders series with locale-aware collation so
// titles with accents and mixed case list the way a person expects.
func sortLiveSeriesByTitle(series []*catalog.LiveSeries) {
	collator := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(series, func(i, j int) bool {
		return collator.CompareString(series[i].Title, series[j].Title) < 0
	})
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}

// writeJSON backs the --json flag on the listing commands: indented
// output on the command's stdout so it pipes cleanly into jq.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
