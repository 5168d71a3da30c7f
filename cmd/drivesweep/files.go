package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vfa-khuongdv/drivesweep"
	"github.com/vfa-khuongdv/drivesweep/pkg/gdrive"
)

func newLsCmd() *cobra.Command {
	var (
		recursive   bool
		foldersOnly bool
	)

	cmd := &cobra.Command{
		Use:   "ls [folder-id]",
		Short: "List files and their public sharing state",
		Long: `List the files in a folder (My Drive when omitted) and report whether each
is shared by public link. Stale sharing grants found while listing are revoked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folderID := ""
			if len(args) == 1 {
				folderID = args[0]
			}

			return withManager(func(m *drivesweep.Manager) error {
				if foldersOnly {
					folders, err := m.ListFolders(cmd.Context(), folderID)
					if err != nil {
						return err
					}
					if flagJSON {
						return printJSON(os.Stdout, folders)
					}
					printFolders(os.Stdout, isTerminal(os.Stdout), folders)
					return nil
				}

				files, err := m.Collect(cmd.Context(), folderID, recursive)
				if err != nil {
					return err
				}
				if flagJSON {
					return printJSON(os.Stdout, files)
				}
				printFiles(os.Stdout, isTerminal(os.Stdout), files)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "descend into subfolders")
	cmd.Flags().BoolVarP(&foldersOnly, "folders", "d", false, "list subfolders instead of files")

	return cmd
}

func newShareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "share <file-id>",
		Short: "Share a file by public read-only link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(func(m *drivesweep.Manager) error {
				perm, err := m.Share(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				if flagJSON {
					return printJSON(os.Stdout, perm)
				}
				statusf("Shared %s with anyone (%s)\n", args[0], perm.Role)
				fmt.Println(perm.ID)
				return nil
			})
		},
	}
}

func newSweepCmd() *cobra.Command {
	var (
		recursive  bool
		configName string
	)

	cmd := &cobra.Command{
		Use:   "sweep [folder-id]",
		Short: "Audit a folder and revoke stale sharing grants",
		Long: `Run a sweep over a folder (My Drive when omitted) and print the revoked
grants. With --name the stored sweep configuration is run and recorded in history.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if configName != "" && len(args) > 0 {
				return fmt.Errorf("--name and a folder id are mutually exclusive")
			}

			return withManager(func(m *drivesweep.Manager) error {
				if configName != "" {
					if err := m.SyncNotifications(); err != nil {
						return err
					}
					if err := m.SyncSweepConfig(); err != nil {
						return err
					}

					history, err := m.RunSweep(cmd.Context(), configName)
					if err != nil {
						return err
					}
					if flagJSON {
						return printJSON(os.Stdout, history)
					}
					statusf("Run %s: %d files, %d public, %d revoked\n",
						history.RunID, history.FileCount, history.SharedCount, history.RevokedCount)
					return nil
				}

				folderID := ""
				if len(args) == 1 {
					folderID = args[0]
				}

				report, err := m.Sweep(cmd.Context(), folderID, recursive)
				if err != nil {
					return err
				}
				if flagJSON {
					return printJSON(os.Stdout, report)
				}
				printReport(os.Stdout, isTerminal(os.Stdout), report)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "descend into subfolders")
	cmd.Flags().StringVar(&configName, "name", "", "run the stored sweep configuration with this name")

	return cmd
}

func printFiles(w io.Writer, pretty bool, files []gdrive.FileSummary) {
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		size := f.Size
		if pretty {
			size = formatSize(f.Size)
		}
		rows = append(rows, []string{f.ID, size, formatBool(f.Shared), f.Name})
	}
	printRows(w, pretty, []string{"ID", "SIZE", "PUBLIC", "NAME"}, rows)
}

func printFolders(w io.Writer, pretty bool, folders []gdrive.Entry) {
	rows := make([][]string, 0, len(folders))
	for _, f := range folders {
		rows = append(rows, []string{f.ID, f.Name})
	}
	printRows(w, pretty, []string{"ID", "NAME"}, rows)
}

func printReport(w io.Writer, pretty bool, report *gdrive.SweepReport) {
	rows := make([][]string, 0, len(report.Revoked))
	for _, r := range report.Revoked {
		rows = append(rows, []string{r.FileID, r.PermissionID, r.FileName})
	}
	if len(rows) > 0 {
		printRows(w, pretty, []string{"FILE", "PERMISSION", "NAME"}, rows)
	}

	statusf("%s files (%s), %s public, %s revoked\n",
		humanize.Comma(int64(len(report.Files))),
		humanize.Bytes(report.TotalBytes()),
		humanize.Comma(int64(report.SharedCount())),
		humanize.Comma(int64(len(report.Revoked))))
}
