package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. maxWidth caps free-form cells (titles,
// error details, links); zero leaves the column unbounded.
type column struct {
	header   string
	right    bool
	maxWidth int
}

func col(header string) column           { return column{header: header} }
func colRight(header string) column      { return column{header: header, right: true} }
func colMax(header string, w int) column { return column{header: header, maxWidth: w} }

// renderTable renders rows with the shared rounded style. Short rows are
// padded; cells beyond the column cap are trimmed with an ellipsis.
func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	for i, c := range columns {
		header[i] = c.header
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, c := range columns {
		align := text.AlignLeft
		if c.right {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:           i + 1,
			Align:            align,
			AlignHeader:      text.AlignLeft,
			WidthMax:         c.maxWidth,
			WidthMaxEnforcer: trimCell,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func trimCell(cell string, maxLen int) string {
	if maxLen <= 3 || text.RuneWidthWithoutEscSequences(cell) <= maxLen {
		return text.Trim(cell, maxLen)
	}
	return text.Trim(cell, maxLen-3) + "..."
}
