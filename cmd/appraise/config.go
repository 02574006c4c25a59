package main

import (
	"fmt"

	"github.com/paveg/appraise/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or write configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration and system information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.config(cmd)
			if err != nil {
				return err
			}
			resolved, warnings, err := config.NewConfigValidator().Validate(cfg)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(struct {
				Config   config.Config     `yaml:"config"`
				System   config.SystemInfo `yaml:"system"`
				Warnings []string          `yaml:"warnings,omitempty"`
			}{resolved, config.GetSystemInfo(), warnings})
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write the resolved configuration as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(cfg, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(show, initCmd)
	return cmd
}
