package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Lesliefans0-0/dnnbrain/pkg/stimulus"
)

var stimRows int

var stimCmd = &cobra.Command{
	Use:   "stim",
	Short: "Stimulus description files (*.stim.csv)",
}

var stimShowCmd = &cobra.Command{
	Use:   "show FILE",
	Short: "Print the header and the first rows of a stimulus file",
	Args:  cobra.ExactArgs(1),
	RunE:  runStimShow,
}

func init() {
	stimShowCmd.Flags().IntVarP(&stimRows, "rows", "n", 5, "Number of rows to print (-1 for all)")
	stimCmd.AddCommand(stimShowCmd)
}

func runStimShow(cmd *cobra.Command, args []string) error {
	desc, err := stimulus.NewFile(args[0], stimulus.WithLogger(logger)).Read()
	if err != nil {
		return err
	}
	printStimulus(cmd.OutOrStdout(), desc, stimRows)
	return nil
}

func printStimulus(w io.Writer, desc *stimulus.Description, limit int) {
	fmt.Fprintf(w, "Type:  %s\n", desc.Type)
	fmt.Fprintf(w, "Title: %s\n", desc.Title)
	fmt.Fprintf(w, "Path:  %s\n", desc.Path)
	for _, m := range desc.Meta {
		fmt.Fprintf(w, "%s: %s\n", m.Key, m.Value)
	}

	cols := make([]string, len(desc.Data.Columns))
	for i, c := range desc.Data.Columns {
		cols[i] = fmt.Sprintf("%s (%s)", c.Name, c.Kind)
	}
	rows := desc.Data.NumRows()
	fmt.Fprintf(w, "Columns: %s\n", strings.Join(cols, ", "))
	fmt.Fprintf(w, "Rows: %d\n", rows)

	if limit < 0 || limit > rows {
		limit = rows
	}
	if limit == 0 || len(desc.Data.Columns) == 0 {
		return
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(desc.Data.Names(), "\t"))
	cells := make([]string, len(desc.Data.Columns))
	for i := 0; i < limit; i++ {
		for j, c := range desc.Data.Columns {
			if c.Kind == stimulus.KindFloat {
				cells[j] = strconv.FormatFloat(c.Floats[i], 'g', -1, 64)
			} else {
				cells[j] = c.Text[i]
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()
}
