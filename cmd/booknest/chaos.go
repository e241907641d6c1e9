// cmd/booknest/chaos.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"booknest/internal/chaos"
)

var chaosStock int

var chaosCmd = &cobra.Command{
	Use:   "chaos",
	Short: "Run the fault injection game day against an in-memory marketplace",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		sb, err := chaos.NewSandbox(cmd.Context(), chaosStock, log.Named("sandbox"))
		if err != nil {
			return err
		}
		engine := chaos.NewEngine(log.Named("chaos"))

		failed := 0
		for i, exp := range sb.Experiments() {
			fmt.Printf("Experiment %d: %s\n  Hypothesis: %s\n", i+1, exp.Name, exp.Hypothesis)
			report, err := engine.Run(cmd.Context(), exp)
			if err != nil {
				fmt.Printf("  Aborted: %v\n", err)
				failed++
				continue
			}
			if report.HypothesisHeld {
				fmt.Println("  Hypothesis held")
			} else {
				fmt.Println("  Hypothesis violated")
				failed++
			}
			for _, v := range report.Violations {
				fmt.Printf("    %s: expected %.2f, got %.2f\n", v.Probe, v.Expected, v.Actual)
			}
			for _, e := range report.Errors {
				fmt.Printf("    error: %s\n", e)
			}
			if report.MTTR != nil {
				fmt.Printf("  MTTR: %s\n", *report.MTTR)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d experiment(s) failed", failed)
		}
		return nil
	},
}

func init() {
	chaosCmd.Flags().IntVar(&chaosStock, "stock", 5, "copies of the sandbox listing")
}
