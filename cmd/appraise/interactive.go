package main

import (
	"fmt"

	"github.com/paveg/appraise/internal/interactive"
	"github.com/spf13/cobra"
)

func newInteractiveCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Train, then choose feature values from menus and get predictions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			model, err := g.train(cmd)
			if err != nil {
				return err
			}
			session, err := model.NewSession()
			if err != nil {
				return err
			}
			report := model.Report()
			banner := []string{fmt.Sprintf("Voting Regressor R² on test set: %.4f", report.Test.R2)}
			for _, s := range report.Searches {
				banner = append(banner, fmt.Sprintf("Best %s R²: %.4f", s.Label, s.Result.BestScore))
			}
			console := interactive.NewConsole(session, cmd.InOrStdin(), cmd.OutOrStdout(), model.Title(), banner...)
			return console.Run(cmd.Context())
		},
	}
}
