package main

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
)

// newTableWriter returns a table writer with rounded borders on terminals
// and a plain machine-friendly style when output is piped.
func newTableWriter(out io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
		tw.Style().Options.DrawBorder = false
		tw.Style().Options.SeparateColumns = true
		tw.Style().Options.SeparateHeader = true
	}
	return tw
}
