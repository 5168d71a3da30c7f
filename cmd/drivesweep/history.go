package main

import (
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vfa-khuongdv/drivesweep"
	"github.com/vfa-khuongdv/drivesweep/internal/database"
)

func newHistoryCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded sweep runs",
		Long:  "List recorded sweep runs, newest first. With a run id, list the grants that run revoked.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withManager(func(m *drivesweep.Manager) error {
				if len(args) == 1 {
					history, revoked, err := m.GetSweepRun(args[0])
					if err != nil {
						return err
					}
					if flagJSON {
						return printJSON(os.Stdout, runResponse{SweepHistory: history, Revoked: revoked})
					}
					printHistory(os.Stdout, isTerminal(os.Stdout), []database.SweepHistory{*history})
					printRevoked(os.Stdout, isTerminal(os.Stdout), revoked)
					return nil
				}

				runs, err := m.GetSweepHistory(limit, offset)
				if err != nil {
					return err
				}
				if flagJSON {
					return printJSON(os.Stdout, runs)
				}
				printHistory(os.Stdout, isTerminal(os.Stdout), runs)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of runs to skip")

	return cmd
}

func printHistory(w io.Writer, pretty bool, runs []database.SweepHistory) {
	rows := make([][]string, 0, len(runs))
	for i := range runs {
		run := &runs[i]
		rows = append(rows, []string{
			run.RunID,
			run.ConfigName,
			run.Status,
			strconv.Itoa(run.FileCount),
			strconv.Itoa(run.SharedCount),
			strconv.Itoa(run.RevokedCount),
			formatTime(&run.StartedAt),
		})
	}
	printRows(w, pretty, []string{"RUN", "CONFIG", "STATUS", "FILES", "PUBLIC", "REVOKED", "STARTED"}, rows)
}

func printRevoked(w io.Writer, pretty bool, revoked []database.RevokedPermission) {
	if len(revoked) == 0 {
		return
	}

	rows := make([][]string, 0, len(revoked))
	for _, r := range revoked {
		rows = append(rows, []string{r.FileID, r.PermissionID, r.FileName})
	}
	printRows(w, pretty, []string{"FILE", "PERMISSION", "NAME"}, rows)
}
