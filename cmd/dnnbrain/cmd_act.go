package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Lesliefans0-0/dnnbrain/internal/fsutil"
	"github.com/Lesliefans0-0/dnnbrain/pkg/activation"
	dnnerrors "github.com/Lesliefans0-0/dnnbrain/pkg/errors"
	"github.com/Lesliefans0-0/dnnbrain/pkg/export"
)

var (
	actLayers   []string
	actOutput   string
	actHashJSON bool
)

var actCmd = &cobra.Command{
	Use:   "act",
	Short: "Activation files (*.act.h5)",
}

var actShowCmd = &cobra.Command{
	Use:   "show FILE",
	Short: "List the layers of an activation file",
	Args:  cobra.ExactArgs(1),
	RunE:  runActShow,
}

var actExportCmd = &cobra.Command{
	Use:   "export FILE LAYER",
	Short: "Export one layer as a CSV table (rows = first axis)",
	Args:  cobra.ExactArgs(2),
	RunE:  runActExport,
}

var actHashCmd = &cobra.Command{
	Use:   "hash FILE",
	Short: "Print a content fingerprint of an activation file",
	Args:  cobra.ExactArgs(1),
	RunE:  runActHash,
}

func init() {
	actShowCmd.Flags().StringSliceVar(&actLayers, "layer", nil, "Only show these layers")
	actExportCmd.Flags().StringVarP(&actOutput, "output", "o", "", "Output file (default: stdout)")
	actHashCmd.Flags().BoolVar(&actHashJSON, "json", false, "Print the full fingerprint as JSON")

	actCmd.AddCommand(actShowCmd)
	actCmd.AddCommand(actExportCmd)
	actCmd.AddCommand(actHashCmd)
}

func openActivation(path string) *activation.File {
	return activation.NewFile(path, activation.WithLogger(logger))
}

func runActShow(cmd *cobra.Command, args []string) error {
	f := openActivation(args[0])

	var (
		coll activation.Collection
		err  error
	)
	if len(actLayers) > 0 {
		coll, err = f.ReadLayers(actLayers...)
	} else {
		coll, err = f.Read()
	}
	if err != nil {
		return err
	}
	printCollection(cmd.OutOrStdout(), coll)
	return nil
}

func printCollection(w io.Writer, coll activation.Collection) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LAYER\tDTYPE\tSHAPE\tRAW SHAPE")
	for _, name := range coll.Names() {
		l := coll[name]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, l.Data.DType(), formatShape(l.Data.Shape), formatShape(l.RawShape))
	}
	tw.Flush()
}

func formatShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = fmt.Sprint(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func runActExport(cmd *cobra.Command, args []string) error {
	path, name := args[0], args[1]
	coll, err := openActivation(path).ReadLayers(name)
	if err != nil {
		return err
	}

	data, err := layerCSV(name, coll[name])
	if err != nil {
		if de, ok := dnnerrors.AsDnnError(err); ok {
			de.WithContext("path", path)
		}
		return err
	}

	if actOutput == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := fsutil.WriteFileAtomic(actOutput, data, 0644); err != nil {
		return dnnerrors.FromOS(err, actOutput, true)
	}
	logger.Info("exported layer",
		zap.String("layer", name),
		zap.String("from", path),
		zap.String("to", actOutput))
	return nil
}

// layerCSV renders one layer with the configured CSV options.
func layerCSV(name string, layer activation.Layer) ([]byte, error) {
	var buf bytes.Buffer
	if err := export.WriteLayerCSV(&buf, name, layer, &cfg.Export); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func runActHash(cmd *cobra.Command, args []string) error {
	coll, err := openActivation(args[0]).Read()
	if err != nil {
		return err
	}

	fp := export.FingerprintCollection(coll)
	if actHashJSON {
		out, err := fp.ToJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", fp.Hash, args[0])
	return nil
}
