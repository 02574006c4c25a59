package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newPredictCmd(g *globalFlags) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Train on the dataset and predict the price of one record",
		Example: `  appraise predict --dataset ac.csv \
    --set Power_Consumption="1450 W" --set Noise_level="38 dB" \
    --set Refrigerant=R-32 --set Condenser_Coil=Copper`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			record, err := parseSets(sets)
			if err != nil {
				return err
			}
			model, err := g.train(cmd)
			if err != nil {
				return err
			}
			price, err := model.Predict(record)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %.2f\n", color.GreenString("Predicted Price:"), price)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "raw input value as column=value (repeatable)")
	return cmd
}

// parseSets turns column=value pairs into a record. The value may be empty.
func parseSets(sets []string) (map[string]string, error) {
	if len(sets) == 0 {
		return nil, fmt.Errorf("at least one --set column=value is required")
	}
	record := make(map[string]string, len(sets))
	for _, s := range sets {
		column, value, ok := strings.Cut(s, "=")
		column = strings.TrimSpace(column)
		if !ok || column == "" {
			return nil, fmt.Errorf("invalid --set %q: want column=value", s)
		}
		if _, dup := record[column]; dup {
			return nil, fmt.Errorf("column %q set twice", column)
		}
		record[column] = value
	}
	return record, nil
}
