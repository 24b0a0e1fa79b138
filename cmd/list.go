package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/andresmejia3/facenroll/internal/roster"
	"github.com/andresmejia3/facenroll/internal/utils"
	"github.com/spf13/cobra"
)

var (
	listLogFile string
	listDataDir string
	listFromDB  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all enrollments in the roster",
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		if listFromDB {
			if DB == nil {
				utils.Die("Failed to list enrollments", fmt.Errorf("--from-db needs --db or POSTGRES_HOST"), nil)
			}
			err = listDatabase(cmd.Context(), os.Stdout)
		} else {
			err = listRoster(os.Stdout, listLogFile, listDataDir)
		}
		if err != nil {
			utils.Die("Failed to list enrollments", err, nil)
		}
	},
}

func init() {
	listCmd.Flags().StringVar(&listLogFile, "log-file", roster.DefaultLogPath, "Roster log to read")
	listCmd.Flags().StringVar(&listDataDir, "data-dir", roster.DefaultDataDir, "Directory holding captured images")
	listCmd.Flags().BoolVar(&listFromDB, "from-db", false, "Read enrollments from PostgreSQL instead of the roster log")
	rootCmd.AddCommand(listCmd)
}

func listRoster(out io.Writer, logFile, dataDir string) error {
	records, err := roster.ReadAll(logFile)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No enrollments found in roster.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBRANCH\tIMAGES")
	fmt.Fprintln(w, "--\t----\t------\t------")

	for _, rec := range records {
		n, err := roster.ImageCount(dataDir, rec.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", rec.ID, rec.Name, rec.Branch, n)
	}
	return w.Flush()
}

func listDatabase(ctx context.Context, out io.Writer) error {
	enrollments, err := DB.ListEnrollments(ctx)
	if err != nil {
		return err
	}
	if len(enrollments) == 0 {
		fmt.Fprintln(out, "No enrollments found in database.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBRANCH\tIMAGES\tCREATED")
	fmt.Fprintln(w, "--\t----\t------\t------\t-------")

	for _, e := range enrollments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", e.Record.ID, e.Record.Name, e.Record.Branch, e.ImageCount, e.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
