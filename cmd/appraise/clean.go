package main

import (
	"fmt"
	stdio "io"
	"os"
	"path/filepath"
	"strings"

	"github.com/paveg/appraise/internal/dataframe"
	"github.com/paveg/appraise/internal/io"
	"github.com/spf13/cobra"
)

func newCleanCmd(g *globalFlags) *cobra.Command {
	var (
		out         string
		compression string
	)
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Apply the profile's cleaning rules and write the table",
		Long: `clean writes the training table after cleaning. The output format
follows the --out extension: .parquet writes Parquet, anything else CSV.
Without --out the CSV goes to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := g.pipeline(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			cleaned, err := p.Clean()
			if err != nil {
				return err
			}
			defer cleaned.Release()

			if out == "" {
				return writeTable(cmd.OutOrStdout(), cleaned, false, compression)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			parquet := strings.EqualFold(filepath.Ext(out), ".parquet")
			if err := writeTable(f, cleaned, parquet, compression); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", cleaned.Len(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (.csv or .parquet)")
	cmd.Flags().StringVar(&compression, "compression", "snappy", "parquet compression: snappy, gzip, zstd or uncompressed")
	return cmd
}

func writeTable(w stdio.Writer, df *dataframe.DataFrame, parquet bool, compression string) error {
	return tableWriter(w, parquet, compression).Write(df)
}

func tableWriter(w stdio.Writer, parquet bool, compression string) io.DataWriter {
	if parquet {
		opts := io.DefaultParquetOptions()
		opts.Compression = compression
		return io.NewParquetWriter(w, opts)
	}
	return io.NewCSVWriter(w, io.DefaultCSVOptions())
}
