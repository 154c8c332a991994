package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/goliatone/go-authz"
	"github.com/goliatone/go-authz/repository"
	"github.com/goliatone/go-print"
	"github.com/uptrace/bun"
)

const usage = `usage: authzctl [flags] <command> [args]

commands:
  migrate                          apply pending migrations
  rollback                         revert the last migration group
  role <name> [description]        create a role
  permission <name> [description]  create a permission
  grant <role> <permission>        grant a permission to a role
  assign <username> <role>         assign a role to a user
  unassign <username> <role>       remove a role from a user
  activate <username>              mark a user active
  deactivate <username>            mark a user inactive
  delete-user <username>           delete a user and its role assignments
  show-user <username>             print a user with roles and permissions
`

func main() {
	log.SetFlags(0)
	var (
		driver  = flag.String("driver", envOr("AUTHZ_DB_DRIVER", repository.DriverSQLite), "database driver: sqlite or postgres")
		dsn     = flag.String("dsn", os.Getenv("AUTHZ_DB_DSN"), "database DSN")
		timeout = flag.Duration("timeout", 30*time.Second, "command timeout")
	)
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := repository.Open(ctx, *driver, *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := run(ctx, db, flag.Args(), os.Stdout); err != nil {
		log.Fatalf("%s: %v", flag.Arg(0), err)
	}
}

func run(ctx context.Context, db *bun.DB, args []string, out io.Writer) error {
	cmd, args := args[0], args[1:]

	switch cmd {
	case "migrate":
		applied, err := repository.Migrate(ctx, db)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "applied %d migrations %v\n", len(applied), applied)
		return nil
	case "rollback":
		reverted, err := repository.Rollback(ctx, db)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "reverted %d migrations %v\n", len(reverted), reverted)
		return nil
	}

	repo := auth.NewRepositoryManager(db)

	switch cmd {
	case "role":
		if err := wantArgs(args, 1, 2); err != nil {
			return err
		}
		role, err := repo.Roles().CreateRole(ctx, args[0], optional(args, 1))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "role %s created\n", role.Name)
	case "permission":
		if err := wantArgs(args, 1, 2); err != nil {
			return err
		}
		perm, err := repo.Roles().CreatePermission(ctx, args[0], optional(args, 1))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "permission %s created\n", perm.Name)
	case "grant":
		if err := wantArgs(args, 2, 2); err != nil {
			return err
		}
		if err := repo.Roles().GrantPermission(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(out, "granted %s to %s\n", args[1], args[0])
	case "assign", "unassign":
		if err := wantArgs(args, 2, 2); err != nil {
			return err
		}
		user, err := repo.Users().GetByUsername(ctx, args[0])
		if err != nil {
			return err
		}
		if cmd == "assign" {
			err = repo.Roles().AssignRole(ctx, user.ID.String(), args[1])
		} else {
			err = repo.Roles().UnassignRole(ctx, user.ID.String(), args[1])
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s %s\n", cmd, args[1], user.Username)
	case "activate", "deactivate":
		if err := wantArgs(args, 1, 1); err != nil {
			return err
		}
		user, err := repo.Users().GetByUsername(ctx, args[0])
		if err != nil {
			return err
		}
		if err := repo.Users().SetActive(ctx, user.ID.String(), cmd == "activate"); err != nil {
			return err
		}
		fmt.Fprintf(out, "%sd %s\n", cmd, user.Username)
	case "delete-user":
		if err := wantArgs(args, 1, 1); err != nil {
			return err
		}
		user, err := repo.Users().GetByUsername(ctx, args[0])
		if err != nil {
			return err
		}
		if err := repo.Users().Remove(ctx, user.ID.String()); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted %s\n", user.Username)
	case "show-user":
		if err := wantArgs(args, 1, 1); err != nil {
			return err
		}
		return showUser(ctx, repo, args[0], out)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	return nil
}

func showUser(ctx context.Context, repo auth.RepositoryManager, username string, out io.Writer) error {
	user, err := repo.Users().GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	user, err = repo.Users().GetWithRoles(ctx, user.ID.String())
	if err != nil {
		return err
	}

	roles := user.RoleNames()
	permissions, err := repo.Roles().PermissionNamesOf(ctx, roles)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, print.MaybePrettyJSON(map[string]any{
		"profile":     user.Profile(),
		"is_active":   user.IsActive,
		"roles":       roles,
		"permissions": permissions,
	}))
	return nil
}

func wantArgs(args []string, lo, hi int) error {
	if len(args) < lo || len(args) > hi {
		if lo == hi {
			return fmt.Errorf("expected %d arguments, got %d", lo, len(args))
		}
		return fmt.Errorf("expected %d to %d arguments, got %d", lo, hi, len(args))
	}
	return nil
}

func optional(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
