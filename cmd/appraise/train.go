package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/paveg/appraise"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newTrainCmd(g *globalFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Tune both estimators and report the ensemble's test R²",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			model, err := g.train(cmd)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), model.Report(), format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "report format: text, json or yaml")
	return cmd
}

func writeReport(w io.Writer, r appraise.Report, format string) error {
	switch format {
	case "text":
		_, err := io.WriteString(w, r.String())
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(r)
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}
