// internal/cli/root.go
// Operator CLI (matchctl): read-only reporting over the archived match
// history, without going through the HTTP API or talking to a live
// actor. Grounded on the cobra rootCmd + PersistentFlags pattern from
// the broader example pack's csmetrics CLI.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"
)

// mysqlDSN is the MySQL data source name, set via the --mysql-dsn flag or
// the MYSQL_DSN environment variable.
var mysqlDSN string

// rootCmd is the top-level cobra command for matchctl.
var rootCmd = &cobra.Command{
	Use:   "matchctl",
	Short: "Operator tool for the music-battle match archive",
	Long:  "Inspect archived match/round history stored in MySQL, without going through the HTTP API or a live actor.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&mysqlDSN, "mysql-dsn", os.Getenv("MYSQL_DSN"), "MySQL data source name")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(replayCmd)
}

// openDB opens the MySQL connection pool used by every subcommand.
func openDB() (*sql.DB, error) {
	if mysqlDSN == "" {
		return nil, fmt.Errorf("--mysql-dsn (or MYSQL_DSN) is required")
	}
	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}
