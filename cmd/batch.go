package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	batchGenes   []string
	batchDisease string
	batchFile    string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Triage a list of targets against a disease",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		genes, err := collectGenes()
		if err != nil {
			return err
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		disease, err := env.Orchestrator.ResolveDisease(ctx, batchDisease)
		if err != nil {
			return err
		}

		job, err := env.Orchestrator.StartBatch(ctx, disease.ID, disease.Name, genes)
		if err != nil {
			return err
		}
		zap.L().Info("batch job created",
			zap.String("job", job.ID),
			zap.Int("genes", len(genes)),
			zap.String("disease", disease.Name),
		)

		if err := env.Orchestrator.RunJob(ctx, job.ID); err != nil {
			return eris.Wrap(err, "run batch job")
		}

		report, err := env.Store.GetTriageReport(ctx, job.ID)
		if err != nil {
			return eris.Wrap(err, "load triage report")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

// collectGenes merges the --genes flag with an optional newline-delimited
// gene file, preserving order and dropping blanks and duplicates.
func collectGenes() ([]string, error) {
	genes := append([]string(nil), batchGenes...)

	if batchFile != "" {
		data, err := os.ReadFile(batchFile)
		if err != nil {
			return nil, eris.Wrap(err, "read gene file")
		}
		for _, line := range strings.Split(string(data), "\n") {
			genes = append(genes, strings.TrimSpace(line))
		}
	}

	seen := make(map[string]bool, len(genes))
	out := make([]string, 0, len(genes))
	for _, g := range genes {
		g = strings.TrimSpace(g)
		if g == "" || seen[strings.ToUpper(g)] {
			continue
		}
		seen[strings.ToUpper(g)] = true
		out = append(out, g)
	}
	if len(out) == 0 {
		return nil, eris.New("no genes given: use --genes or --file")
	}
	return out, nil
}

func init() {
	batchCmd.Flags().StringSliceVar(&batchGenes, "genes", nil, "comma-separated gene symbols")
	batchCmd.Flags().StringVar(&batchFile, "file", "", "newline-delimited gene symbol file")
	batchCmd.Flags().StringVar(&batchDisease, "disease", "", "disease name or EFO ID (required)")
	_ = batchCmd.MarkFlagRequired("disease")
	rootCmd.AddCommand(batchCmd)
}
