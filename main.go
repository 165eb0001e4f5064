package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"wordler/cmd"
	"wordler/config"
	"wordler/database"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "wordler",
	Short:         "Discord bot that tracks Wordle results and leaderboards",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBot,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Discord and start recording results",
	RunE:  runBot,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the postgres stats schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		url, err := migrationURL()
		if err != nil {
			return err
		}
		return database.MigrateUp(url)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations (default 1 step)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid steps %q: must be a positive integer", args[0])
			}
			steps = n
		}
		url, err := migrationURL()
		if err != nil {
			return err
		}
		return database.MigrateDown(url, steps)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		url, err := migrationURL()
		if err != nil {
			return err
		}
		status, err := database.MigrateStatus(url)
		if err != nil {
			return err
		}
		if !status.Applied {
			fmt.Fprintln(c.OutOrStdout(), "No migrations applied")
			return nil
		}
		fmt.Fprintf(c.OutOrStdout(), "Version: %d, dirty: %t\n", status.Version, status.Dirty)
		return nil
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Print the current leaderboard from the stats store",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		cfg, err := loadOffline()
		if err != nil {
			return err
		}
		return cmd.PrintLeaderboard(c.Context(), cfg, c.OutOrStdout())
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <author-id>",
	Short: "Print one player's stats from the stats store",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		cfg, err := loadOffline()
		if err != nil {
			return err
		}
		return cmd.PrintStats(c.Context(), cfg, args[0], c.OutOrStdout())
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	rootCmd.AddCommand(runCmd, migrateCmd, leaderboardCmd, statsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.WithError(err).Error("wordler exited with error")
		stop()
		os.Exit(1)
	}
}

func runBot(c *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cmd.SetupLogging(cfg)
	return cmd.Run(c.Context(), cfg)
}

func loadOffline() (*config.Config, error) {
	cfg, err := config.LoadForStore()
	if err != nil {
		return nil, err
	}
	cmd.SetupLogging(cfg)
	return cfg, nil
}

func migrationURL() (string, error) {
	cfg, err := loadOffline()
	if err != nil {
		return "", err
	}
	if cfg.DatabaseURL == "" {
		return "", fmt.Errorf("%w: DATABASE_URL is required for migrations", config.ErrConfiguration)
	}
	return cfg.GetDatabaseURL(), nil
}
