package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/recommender/internal/database"
)

// MigrateCommand creates the recommendation table when it is missing
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create the database schema",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "database-url",
				Usage: "Database URL (overrides database.url and DATABASE_URL)",
			},
		},
		Action: runMigrate,
	}
}

func runMigrate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	url := cfg.Database.URL
	if c.IsSet("database-url") {
		url = c.String("database-url")
	}

	db, err := database.NewDB(url)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.EnsureSchema(c.Context, db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(c.App.Writer, "Schema is up to date")
	return nil
}
