package main

import (
	"fmt"

	"clipshare/internal/dbmysql"
	"clipshare/internal/logger"
	"clipshare/internal/seed"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the configured database with fake users, items and reactions",
	Long: `Seed writes directly to the database from the environment (.env), not through the platform service.

Examples:
  clipctl seed
  clipctl seed --users 50 --items 500 --seed 42`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logger.Initialize(cfg.Logging.Level, "")
		if err != nil {
			return err
		}
		defer logger.Close()

		db, err := dbmysql.Open(cfg, log)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		opts := seed.DefaultOptions()
		opts.MediaBaseURL = cfg.Server.MediaBaseURL
		opts.Users, _ = cmd.Flags().GetInt("users")
		opts.Items, _ = cmd.Flags().GetInt("items")
		opts.Comments, _ = cmd.Flags().GetInt("comments")
		opts.Seed, _ = cmd.Flags().GetUint64("seed")
		opts.Password, _ = cmd.Flags().GetString("password")

		sum, err := seed.NewSeeder(db, log).Seed(cmd.Context(), opts)
		if err != nil {
			return err
		}
		if output == "json" {
			return printJSON(sum)
		}
		fmt.Printf("Seeded %d users, %d items, %d reactions, %d comments\n", sum.Users, sum.Items, sum.Memberships, sum.Comments)
		return nil
	},
}

func init() {
	d := seed.DefaultOptions()
	seedCmd.Flags().Int("users", d.Users, "Number of accounts")
	seedCmd.Flags().Int("items", d.Items, "Number of images, gifs and clips")
	seedCmd.Flags().Int("comments", d.Comments, "Number of comments")
	seedCmd.Flags().Uint64("seed", 0, "Random seed; 0 picks one")
	seedCmd.Flags().String("password", d.Password, "Password set on every seeded account")
}
