package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/modoterra/tailcat/pkg/core"
)

// renderSummary tabulates the size of each collected buffer with a total
// row when more than one buffer was collected.
func renderSummary(logs []core.BufferLog) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Buffer", "Lines", "Bytes"})

	var lines, bytes int
	for _, l := range logs {
		tw.AppendRow(table.Row{bufferLabel(l.Name), l.Lines, len(l.Text)})
		lines += l.Lines
		bytes += len(l.Text)
	}
	if len(logs) > 1 {
		tw.AppendFooter(table.Row{"total", lines, bytes})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignFooter: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
