package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andresmejia3/facenroll/internal/logging"
	"github.com/andresmejia3/facenroll/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// DB mirrors enrollments into Postgres. It is nil unless a database is configured.
	DB *store.Store
	// Log is the shared structured logger
	Log *zap.Logger

	dbURL    string
	logLevel string
	logJSON  bool
)

// Version is the application version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "facenroll",
	Short:   "Voice-guided face image enrollment",
	Version: Version, // This enables the --version flag
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logLevel
		if !cmd.Flags().Changed("log-level") {
			level = logging.LevelFromEnv(logLevel)
		}

		var err error
		Log, err = logging.New(level, logJSON)
		if err != nil {
			return err
		}

		url := resolveDBURL(dbURL)
		if url == "" {
			Log.Debug("no database configured, text roster only")
			return nil
		}

		// Use the command's context (which will be cancellable) for the connection
		DB, err = store.New(cmd.Context(), url)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if DB != nil {
			// Use Background here because the main context might be cancelled already (due to Ctrl+C)
			// and we still need to send the "Close" command to the DB.
			DB.Close(context.Background())
		}
		if Log != nil {
			_ = Log.Sync()
		}
	},
}

// resolveDBURL returns the flag value, else a URL assembled from POSTGRES_* variables,
// else "" (no database).
func resolveDBURL(flag string) string {
	if flag != "" {
		return flag
	}
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		return ""
	}
	user := os.Getenv("POSTGRES_USER")
	pass := os.Getenv("POSTGRES_PASSWORD")
	name := os.Getenv("POSTGRES_DB")
	port := os.Getenv("POSTGRES_PORT")
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, pass, host, port, name)
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// This tells Cobra not to print the version in the help text, which is cleaner.
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "PostgreSQL connection string for mirroring enrollments (default: disabled, or built from POSTGRES_* env)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error (env FACENROLL_LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit JSON logs instead of console output")
}
