package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"pitchdna/internal/rescache"
	"pitchdna/internal/stageexec"
)

// runReport is the --json payload of a stage command.
type runReport struct {
	stageexec.Result
	LogPath string          `json:"log_path,omitempty"`
	Cache   *rescache.Stats `json:"cache,omitempty"`
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSummary(w io.Writer, report runReport) {
	s := report.Summary
	overview := [][]string{
		{"Stage", s.Stage},
		{"Rows", humanize.Comma(int64(s.Total))},
		{"Started at row", humanize.Comma(int64(s.Start))},
		{"Processed", humanize.Comma(int64(s.Processed))},
		{"Next offset", humanize.Comma(int64(s.NextOffset))},
		{"Checkpoints", fmt.Sprintf("%d (%d failed)", s.Flushes, s.FlushFailures)},
		{"Elapsed", s.Elapsed.Round(time.Millisecond).String()},
		{"Output", report.Output},
	}
	if report.Resumed {
		overview = append(overview, []string{"Resumed", "yes"})
	}
	if report.Cache != nil {
		overview = append(overview, []string{"Catalog fetches", fmt.Sprintf("%s keys, %s hits",
			humanize.Comma(int64(report.Cache.Keys)), humanize.Comma(report.Cache.Hits))})
	}
	if report.LogPath != "" {
		overview = append(overview, []string{"Log", report.LogPath})
	}
	fmt.Fprintln(w, renderTable("Run", nil, overview, nil))

	statuses := make([][]string, 0, len(s.Kinds)+len(s.Statuses))
	for _, status := range []string{"resolved", "ambiguous", "unresolved"} {
		statuses = append(statuses, []string{status, humanize.Comma(int64(s.Statuses[status]))})
	}
	for _, kind := range sortedKinds(s.Kinds) {
		statuses = append(statuses, []string{"  " + kind, humanize.Comma(int64(s.Kinds[kind]))})
	}
	fmt.Fprintln(w, renderTable("Outcomes", []string{"Status", "Rows"}, statuses, []columnAlignment{alignLeft, alignRight}))
}

func sortedKinds(kinds map[string]int) []string {
	keys := make([]string, 0, len(kinds))
	for k, n := range kinds {
		if strings.TrimSpace(k) != "" && n > 0 {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable draws rows in a rounded box. A nil headers slice draws a
// key/value table without a header row.
func renderTable(title string, headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	for _, row := range rows {
		columns = max(columns, len(row))
	}
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if title != "" {
		tw.SetTitle(title)
	}
	if len(headers) > 0 {
		header := make(table.Row, columns)
		for i := range columns {
			if i < len(headers) {
				header[i] = headers[i]
			}
		}
		tw.AppendHeader(header)
	}
	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}
