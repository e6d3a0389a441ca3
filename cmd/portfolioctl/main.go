// Command portfolioctl runs maintenance tasks for the portfolio backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/portfolio/backend/internal/logging"
	"github.com/portfolio/backend/internal/migrate"
	"github.com/portfolio/backend/pkg/auth"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()
	_ = godotenv.Load("../.env")
	logging.Setup()

	app := &cli.App{
		Name:  "portfolioctl",
		Usage: "portfolio backend maintenance",
		Commands: []*cli.Command{
			migrateCommand(),
			adminTokenCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		logging.Fatal("portfolioctl failed", "error", err)
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:      "migrate",
		Usage:     "Apply database migrations",
		ArgsUsage: "[up|reset|fresh]",
		Description: `Modes:
  up (default)  差分マイグレーションを適用
  reset         全テーブルを DROP し、集約スキーマで再作成
  fresh         全テーブルを DROP し、全マイグレーションを順番に適用`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "PostgreSQL connection string",
				EnvVars:  []string{"DATABASE_URL"},
				Required: true,
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Directory holding the SQL files (default: ./migrations or ../migrations)",
			},
		},
		Action: func(c *cli.Context) error {
			mode := c.Args().First()
			if mode == "" {
				mode = "up"
			}
			if mode != "up" && mode != "reset" && mode != "fresh" {
				return fmt.Errorf("unknown mode %q (want up, reset or fresh)", mode)
			}

			dir := c.String("dir")
			if dir == "" {
				dir = migrate.FindDir()
			}

			ctx := context.Background()
			pool, err := pgxpool.New(ctx, c.String("database-url"))
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer pool.Close()

			runner := migrate.NewRunner(pool, dir, nil)
			switch mode {
			case "reset":
				return runner.Reset(ctx)
			case "fresh":
				_, err = runner.Fresh(ctx)
			default:
				_, err = runner.Up(ctx)
			}
			return err
		},
	}
}

func adminTokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin-token",
		Usage: "Print a bearer token for the admin API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "secret",
				Usage:   "Signing secret; must match the server's ADMIN_SECRET",
				EnvVars: []string{"ADMIN_SECRET"},
			},
		},
		Action: func(c *cli.Context) error {
			secret := c.String("secret")
			if secret == "" {
				return errors.New("ADMIN_SECRET is not set")
			}
			fmt.Fprintln(c.App.Writer, auth.CreateSessionToken(auth.AdminSubject, auth.SessionSecretBytes(secret)))
			return nil
		},
	}
}
