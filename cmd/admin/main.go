// Command admin changes ban status, lists users and rolls back schema
// migrations for the local user store.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/clipfeed/clipfeed/internal/app"
	"github.com/clipfeed/clipfeed/internal/config"
	"github.com/clipfeed/clipfeed/internal/db"
	"github.com/clipfeed/clipfeed/internal/logger"
	"github.com/clipfeed/clipfeed/internal/service"
)

const usage = `usage: admin <command> [args]

commands:
  ban <username|id>     ban a user
  unban <username|id>   lift a ban
  users                 list users
  migrate-down          roll back the latest migration (USER_STORE=sql)`

var errNoDatabase = errors.New("migrate-down requires USER_STORE=sql")

func main() {
	os.Exit(realMain(os.Args[1:]))
}

// realMain returns the exit code so deferred cleanup runs before exit.
func realMain(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, usage)
		return 2
	}

	cfg := config.Load()
	logger.Init(logger.Options{IsDev: cfg.IsDevelopment(), LogFile: cfg.LogFile})

	if cfg.IdentityMode != config.IdentityLocal {
		fmt.Fprintln(os.Stderr, "admin commands require IDENTITY_MODE=local")
		return 1
	}

	users, database, err := app.OpenUserRepository(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() {
		err := db.Close(database)
		if err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	cmd := &admin{
		out:    os.Stdout,
		auth:   service.NewAuthService(users, cfg.JWTSecret, cfg.JWTExpiry),
		db:     database,
		driver: cfg.DBDriver,
	}

	err = cmd.run(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

type admin struct {
	out    io.Writer
	auth   *service.AuthService
	db     *sqlx.DB // nil for the JSON user store
	driver string
}

func (a *admin) run(args []string) error {
	switch args[0] {
	case "ban", "unban":
		if len(args) != 2 {
			return fmt.Errorf("usage: admin %s <username|id>", args[0])
		}
		user, err := a.auth.SetBanned(args[1], args[0] == "ban")
		if err != nil {
			return fmt.Errorf("%s %s: %w", args[0], args[1], err)
		}
		fmt.Fprintf(a.out, "%s banned=%t\n", user.Username, user.Banned)
		return nil

	case "users":
		list, err := a.auth.Users()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tUSERNAME\tDISPLAY NAME\tBANNED\tCREATED")
		for _, u := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", u.ID, u.Username, u.DisplayName, u.Banned, u.CreatedAt.Format(time.RFC3339))
		}
		return tw.Flush()

	case "migrate-down":
		if a.db == nil {
			return errNoDatabase
		}
		err := db.MigrateDown(a.db.DB, a.driver)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, "rolled back one migration")
		return nil

	default:
		return fmt.Errorf("unknown command %q\n\n%s", args[0], usage)
	}
}
