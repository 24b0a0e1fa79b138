package cmd

import (
	"fmt"
	"os"

	"github.com/andresmejia3/facenroll/internal/roster"
	"github.com/andresmejia3/facenroll/internal/utils"
	"github.com/spf13/cobra"
)

var (
	exportOutput  string
	exportLogFile string
	exportDataDir string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the roster to an Excel workbook",
	Run: func(cmd *cobra.Command, args []string) {
		records, err := roster.ReadAll(exportLogFile)
		if err != nil {
			utils.Die("Failed to read roster", err, nil)
		}
		if err := roster.ExportXLSX(records, exportDataDir, exportOutput); err != nil {
			utils.Die("Failed to export roster", err, nil)
		}
		fmt.Fprintf(os.Stderr, "📄 Exported %d enrollments to %s\n", len(records), exportOutput)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "roster.xlsx", "Workbook to write")
	exportCmd.Flags().StringVar(&exportLogFile, "log-file", roster.DefaultLogPath, "Roster log to read")
	exportCmd.Flags().StringVar(&exportDataDir, "data-dir", roster.DefaultDataDir, "Directory holding captured images")
	rootCmd.AddCommand(exportCmd)
}
