package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	triageGene    string
	triageDisease string
)

var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Triage a single target against a disease",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		disease, err := env.Orchestrator.ResolveDisease(ctx, triageDisease)
		if err != nil {
			return err
		}
		zap.L().Info("disease resolved",
			zap.String("query", triageDisease),
			zap.String("id", disease.ID),
			zap.String("name", disease.Name),
		)

		report, err := env.Orchestrator.TriageTarget(ctx, triageGene, disease.ID, disease.Name)
		if err != nil {
			return eris.Wrap(err, "triage target")
		}

		if err := env.Store.CreateTargetReport(ctx, report); err != nil {
			return eris.Wrap(err, "persist report")
		}

		zap.L().Info("triage complete",
			zap.String("target", report.Target.Symbol),
			zap.String("verdict", string(report.Decision.Verdict)),
			zap.Float64("composite", report.Scores.CompositeScore),
			zap.String("report_id", report.ID),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	triageCmd.Flags().StringVar(&triageGene, "gene", "", "gene symbol (required)")
	triageCmd.Flags().StringVar(&triageDisease, "disease", "", "disease name or EFO ID (required)")
	_ = triageCmd.MarkFlagRequired("gene")
	_ = triageCmd.MarkFlagRequired("disease")
	rootCmd.AddCommand(triageCmd)
}
