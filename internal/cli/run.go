package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewRunCmd создаёт группу команд для управления runs.
func NewRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Manage runs",
	}

	cmd.AddCommand(
		newRunListCmd(clientFn, outputFn),
		newRunStartCmd(clientFn, outputFn),
		newRunShowCmd(clientFn, outputFn),
		newRunCancelCmd(clientFn, outputFn),
		newRunReportCmd(clientFn, outputFn),
	)

	return cmd
}

func newRunListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var specID string
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			runs, err := client.ListRuns(ListRunsOpts{
				SpecID: specID,
				Status: status,
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "SPEC_ID", "VERSION", "STATUS", "CREATED"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{r.ID, r.SpecID, strconv.Itoa(r.Version), r.Status, r.CreatedAt}
			}

			out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&specID, "spec-id", "", "Filter by spec ID")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, RUNNING, SUCCEEDED, FAILED, CANCELLED)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newRunStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var version int
	var idempotencyKey string

	cmd := &cobra.Command{
		Use:   "start SPEC_ID",
		Short: "Start a new run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := CreateRunRequest{
				IdempotencyKey: idempotencyKey,
			}

			if cmd.Flags().Changed("version") {
				req.Version = &version
			}

			run, err := client.CreateRun(args[0], req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Run started: %s", run.ID))
			out.Print(
				[]string{"ID", "SPEC_ID", "VERSION", "STATUS", "CREATED"},
				[][]string{{run.ID, run.SpecID, strconv.Itoa(run.Version), run.Status, run.CreatedAt}},
				run,
			)
			return nil
		},
	}

	cmd.Flags().IntVar(&version, "version", 0, "Spec version (latest if not specified)")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key to deduplicate starts")

	return cmd
}

func newRunShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.GetRun(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "SPEC_ID", "VERSION", "STATUS", "ERROR", "CREATED"},
				[][]string{{run.ID, run.SpecID, strconv.Itoa(run.Version), run.Status, run.Error, run.CreatedAt}},
				run,
			)
			return nil
		},
	}
}

func newRunCancelCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID",
		Short: "Request cancellation of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.CancelRun(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Cancellation requested: %s", run.ID))
			return nil
		},
	}
}

func newRunReportCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "report RUN_ID",
		Short: "Show per-branch report of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			report, err := client.GetRunReport(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Report status: %s", report.Status))

			headers := []string{"BRANCH", "PHASE", "SUBJECT", "STATUS", "TASKS", "ERROR"}
			rows := make([][]string, len(report.Branches))
			for i, b := range report.Branches {
				rows[i] = []string{
					b.BranchID, b.Phase, b.Subject, b.Status,
					formatTasks(b.Tasks), b.Error,
				}
			}

			out.Print(headers, rows, report)
			return nil
		},
	}
}

// formatTasks сворачивает задачи ветки в компактную строку вида
// "ModelDeploy:SUCCEEDED EndpointDeploy:FAILED(3)".
func formatTasks(tasks []TaskResult) string {
	s := ""
	for i, t := range tasks {
		if i > 0 {
			s += " "
		}
		s += t.Kind + ":" + t.Status
		if t.Attempts > 1 {
			s += "(" + strconv.Itoa(t.Attempts) + ")"
		}
	}
	return s
}
