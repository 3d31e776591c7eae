package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"evabot/internal/config"
	"evabot/internal/corpus"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Run diagnostic checks on configuration and corpus",
		Long: `Verifies that the configuration, corpus files, database, and metrics
port are correctly set up. Reports pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			fmt.Printf("Evabot Validate v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			if _, err := os.Stat(cfgPath); err != nil {
				printFail("Config file", fmt.Sprintf("not found at %s", cfgPath))
				fmt.Printf("\nRun 'evabot init' to create a default configuration.\n")
				return fmt.Errorf("1 check(s) failed")
			}
			printPass("Config file", cfgPath)
			passed++

			cfg, err := config.Load(cfgPath)
			if err != nil {
				printFail("Config validation", err.Error())
				failed++
				fmt.Printf("\n%d passed, %d failed\n", passed, failed)
				return fmt.Errorf("%d check(s) failed", failed)
			}
			printPass("Config validation", "valid")
			passed++

			// Corpus must load completely: any malformed entry aborts.
			if knowledge, err := corpus.Load(cfg.Corpus.Dir, logger); err != nil {
				printFail("Corpus", err.Error())
				failed++
			} else {
				printPass("Corpus", fmt.Sprintf("%d topics, %d listings, %d keywords",
					len(knowledge.Topics()), len(knowledge.Listings()), len(knowledge.AllKeywords())))
				passed++
			}

			if cfg.Store.Enabled {
				if err := checkDatabase(cfg.Store.DBPath); err != nil {
					printFail("Database", err.Error())
					failed++
				} else {
					printPass("Database", cfg.Store.DBPath)
					passed++
				}
			} else {
				printWarn("Database", "persistence disabled; /stats will be unavailable")
				warned++
			}

			if cfg.Metrics.Enabled {
				if err := checkPort(cfg.Metrics.Port); err != nil {
					printWarn("Metrics port", fmt.Sprintf("port %d may be in use: %v", cfg.Metrics.Port, err))
					warned++
				} else {
					printPass("Metrics port", fmt.Sprintf(":%d available", cfg.Metrics.Port))
					passed++
				}
			}

			channels := 0
			if cfg.Channels.Telegram.Enabled {
				channels++
				printPass("Channel: telegram", "enabled")
				passed++
			}
			if cfg.Channels.Discord.Enabled {
				channels++
				printPass("Channel: discord", "enabled")
				passed++
			}
			if channels == 0 {
				printWarn("Channels", "no chat channels enabled; only 'evabot chat' will work")
				warned++
			}

			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before running evabot.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\nEvabot should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed! Evabot is ready to run.\n")
			}
			return nil
		},
	}
}

func checkDatabase(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("cannot create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("cannot open: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("cannot ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS _validate_test (id INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	db.ExecContext(ctx, "DROP TABLE IF EXISTS _validate_test")

	return nil
}

func checkPort(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	ln.Close()
	return nil
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-20s %s\n", check, detail)
}
