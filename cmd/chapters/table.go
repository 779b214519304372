package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/podsmith/chapters"
)

// renderChapterTable renders a chapter list for terminal display.
func renderChapterTable(list []chapters.Chapter) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Start", "End", "Name"})

	for i, ch := range list {
		tw.AppendRow(table.Row{
			i + 1,
			formatMillis(ch.Start),
			formatMillis(ch.End),
			ch.Name,
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})

	return tw.Render()
}

// formatMillis renders a millisecond timestamp as h:mm:ss.
func formatMillis(ms uint32) string {
	d := time.Duration(ms) * time.Millisecond
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
