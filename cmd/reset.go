package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/andresmejia3/facenroll/internal/roster"
	"github.com/andresmejia3/facenroll/internal/utils"
	"github.com/spf13/cobra"
)

var (
	resetTables  bool
	resetFiles   bool
	resetDataDir string
	resetLogFile string
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset enrollment state (Database, Images, Roster log)",
	Long:  "Clears all data. By default, it resets everything. Use flags to clear specific components.",
	Run: func(cmd *cobra.Command, args []string) {
		// If no flags are set, default to clearing EVERYTHING
		if !resetTables && !resetFiles {
			resetTables = true
			resetFiles = true
		}

		reader := bufio.NewReader(os.Stdin)

		if resetTables {
			if DB == nil {
				fmt.Println("ℹ️  No database configured, skipping.")
			} else if confirm(reader, "⚠️  Are you sure you want to DROP all database tables?") {
				fmt.Println("🗑️  Clearing Database...")
				if err := DB.Reset(cmd.Context()); err != nil {
					utils.Die("Failed to reset database", err, nil)
				}
			}
		}

		if resetFiles {
			if confirm(reader, fmt.Sprintf("⚠️  Are you sure you want to delete %s and %s?", resetDataDir, resetLogFile)) {
				fmt.Println("🗑️  Clearing Files (Images, Roster log)...")
				removePath(resetDataDir)
				removePath(resetLogFile)
			}
		}

		fmt.Println("✨ Reset Complete.")
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetTables, "tables", false, "Drop the PostgreSQL tables (connection from --db or POSTGRES_*)")
	resetCmd.Flags().BoolVar(&resetFiles, "files", false, "Clear captured images and the roster log")
	resetCmd.Flags().StringVar(&resetDataDir, "data-dir", roster.DefaultDataDir, "Directory holding captured images")
	resetCmd.Flags().StringVar(&resetLogFile, "log-file", roster.DefaultLogPath, "Roster log")
	rootCmd.AddCommand(resetCmd)
}

func confirm(r *bufio.Reader, prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	res, _ := r.ReadString('\n')
	res = strings.TrimSpace(strings.ToLower(res))
	return res == "y" || res == "yes"
}

func removePath(path string) {
	if err := os.RemoveAll(path); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Failed to remove %s: %v\n", path, err)
	}
}
