package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/meridian-bio/triage-cli/internal/model"
	"github.com/meridian-bio/triage-cli/internal/store"
)

var (
	jobsStatus string
	jobsLimit  int
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect triage jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List triage jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		jobs, err := st.ListJobs(ctx, store.JobFilter{
			Status: model.JobStatus(jobsStatus),
			Limit:  jobsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list jobs")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDISEASE\tGENES\tSTATUS\tPROGRESS\tSTARTED")
		for _, job := range jobs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d%%\t%s\n",
				job.ID, job.DiseaseName, len(job.Genes), job.Status, job.Progress,
				job.StartedAt.Format("2006-01-02 15:04"),
			)
		}
		return w.Flush()
	},
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show one job with its triage report, if finished",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		jobID := args[0]

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		job, err := st.GetJob(ctx, jobID)
		if err != nil {
			return eris.Wrapf(err, "get job %s", jobID)
		}

		out := struct {
			Job    *model.TriageJob    `json:"job"`
			Report *model.TriageReport `json:"report,omitempty"`
		}{Job: job}

		report, err := st.GetTriageReport(ctx, jobID)
		if err == nil {
			out.Report = report
		} else if !eris.Is(err, store.ErrNotFound) {
			return eris.Wrap(err, "get triage report")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	jobsListCmd.Flags().StringVar(&jobsStatus, "status", "", "filter by status (pending/running/completed/failed)")
	jobsListCmd.Flags().IntVar(&jobsLimit, "limit", 20, "max jobs to list")
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsShowCmd)
	rootCmd.AddCommand(jobsCmd)
}
