package main

import (
	forecaster "github.com/pasar-banyumas/pangan-forecaster"
	"github.com/spf13/cobra"
)

func evaluateCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score one-step predictions of the model over every history",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := forecaster.New(cfg, nil)
			if err != nil {
				return err
			}
			evals, err := f.Evaluate(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return forecaster.WriteEvaluationsJSON(cmd.OutOrStdout(), evals)
			}
			return forecaster.WriteEvaluations(cmd.OutOrStdout(), evals)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print scores as JSON")
	return cmd
}
