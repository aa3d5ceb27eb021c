// Command ledgerctl runs ledger imports, result previews and template
// exports straight against the database.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	auth "github.com/mind-engage/mindengage-results/internal/auth/middleware"
	"github.com/mind-engage/mindengage-results/internal/db"
	"github.com/mind-engage/mindengage-results/internal/ledger"
	"github.com/mind-engage/mindengage-results/internal/rbac"
	"github.com/mind-engage/mindengage-results/internal/result"
	"github.com/mind-engage/mindengage-results/internal/storage"
)

type globals struct {
	driver  *string
	dsn     *string
	actor   *string
	role    *string
	verbose *bool
}

type conn struct {
	DB     *sql.DB
	Driver db.Driver
}

func (g globals) open(ctx context.Context) (*conn, error) {
	d := db.NormalizeDriver(*g.driver)
	h, err := db.Open(ctx, d, *g.dsn)
	if err != nil {
		return nil, err
	}
	return &conn{DB: h, Driver: d}, nil
}

func (g globals) who() rbac.Actor { return rbac.Actor{ID: *g.actor, Role: *g.role} }

func (g globals) logger() *log.Logger {
	l := log.New("ledgerctl")
	l.SetOutput(os.Stderr)
	l.SetLevel(log.WARN)
	if *g.verbose {
		l.SetLevel(log.DEBUG)
	}
	return l
}

func main() {
	rootFS := flag.NewFlagSet("ledgerctl", flag.ExitOnError)
	g := globals{
		driver:  rootFS.String("db-driver", "sqlite", "sqlite or postgres"),
		dsn:     rootFS.String("db-dsn", "", "database DSN"),
		actor:   rootFS.String("actor", "ledgerctl", "actor id stamped on writes"),
		role:    rootFS.String("role", rbac.RoleStaff, "actor role"),
		verbose: rootFS.Bool("v", false, "debug logging"),
	}
	_ = rootFS.String("config", "", "config file (optional), json format")

	root := &ffcli.Command{
		Name:        "ledgerctl",
		ShortUsage:  "ledgerctl [flags] <subcommand> [flags] [args]",
		FlagSet:     rootFS,
		Options: []ff.Option{
			ff.WithEnvVarPrefix("LEDGERCTL"),
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ff.JSONParser),
			ff.WithAllowMissingConfigFile(true),
		},
		Subcommands: []*ffcli.Command{importCmd(g), previewCmd(g), templateCmd(g), tokenCmd()},
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
	}
	if err := root.ParseAndRun(context.Background(), os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "ledgerctl: %v\n", err)
		os.Exit(1)
	}
}

func envOptions() []ff.Option {
	return []ff.Option{ff.WithEnvVarPrefix("LEDGERCTL")}
}

func importCmd(g globals) *ffcli.Command {
	fs := flag.NewFlagSet("ledgerctl import", flag.ExitOnError)
	examID := fs.String("exam", "", "exam id")
	strict := fs.Bool("strict", false, "fail when compulsory columns and catalog subjects differ in number")
	archive := fs.String("archive", "", "directory to keep a copy of the upload in")
	return &ffcli.Command{
		Name:       "import",
		ShortUsage: "ledgerctl import -exam <id> <file.xlsx|file.csv>",
		ShortHelp:  "import a marks ledger",
		FlagSet:    fs,
		Options:    envOptions(),
		Exec: func(ctx context.Context, args []string) error {
			if *examID == "" || len(args) != 1 {
				return flag.ErrHelp
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			wb, err := ledger.ReadWorkbook(args[0], data)
			if err != nil {
				return err
			}
			c, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer c.DB.Close()

			opts := []ledger.Option{ledger.WithLogger(g.logger())}
			if *strict {
				opts = append(opts, ledger.WithStrictCompulsoryColumns())
			}
			if *archive != "" {
				bs, err := storage.NewFSStore(*archive)
				if err != nil {
					return err
				}
				opts = append(opts, ledger.WithArchive(bs))
			}
			rep, err := ledger.NewImporter(c.DB, c.Driver, opts...).Import(ctx, g.who(), *examID, wb)
			if err != nil {
				return err
			}
			return printJSON(rep)
		},
	}
}

func previewCmd(g globals) *ffcli.Command {
	fs := flag.NewFlagSet("ledgerctl preview", flag.ExitOnError)
	examID := fs.String("exam", "", "exam id")
	enrollmentID := fs.String("enrollment", "", "enrollment id")
	return &ffcli.Command{
		Name:       "preview",
		ShortUsage: "ledgerctl preview -exam <id> -enrollment <id>",
		ShortHelp:  "compute a result without storing it",
		FlagSet:    fs,
		Options:    envOptions(),
		Exec: func(ctx context.Context, _ []string) error {
			if *examID == "" || *enrollmentID == "" {
				return flag.ErrHelp
			}
			c, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer c.DB.Close()
			res, err := result.NewSQLComputer(c.DB).Compute(ctx, *examID, *enrollmentID)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
}

func templateCmd(g globals) *ffcli.Command {
	fs := flag.NewFlagSet("ledgerctl template", flag.ExitOnError)
	examID := fs.String("exam", "", "exam id")
	out := fs.String("out", "", "output file (default ledger-<exam>.xlsx)")
	return &ffcli.Command{
		Name:       "template",
		ShortUsage: "ledgerctl template -exam <id> [-out file.xlsx]",
		ShortHelp:  "write the blank ledger of an exam",
		FlagSet:    fs,
		Options:    envOptions(),
		Exec: func(ctx context.Context, _ []string) error {
			if *examID == "" {
				return flag.ErrHelp
			}
			c, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer c.DB.Close()
			buf, err := ledger.BuildTemplate(ctx, c.DB, *examID)
			if err != nil {
				return err
			}
			path := *out
			if path == "" {
				path = "ledger-" + *examID + ".xlsx"
			}
			if err := os.WriteFile(path, buf, 0o644); err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}

func tokenCmd() *ffcli.Command {
	fs := flag.NewFlagSet("ledgerctl token", flag.ExitOnError)
	secret := fs.String("secret", "", "HMAC secret shared with resultsd")
	sub := fs.String("sub", "", "token subject")
	role := fs.String("role", rbac.RoleStaff, "token role")
	ttl := fs.Duration("ttl", 8*time.Hour, "token lifetime")
	return &ffcli.Command{
		Name:       "token",
		ShortUsage: "ledgerctl token -secret <s> -sub <id> [-role staff]",
		ShortHelp:  "issue a bearer token for resultsd",
		FlagSet:    fs,
		Options:    envOptions(),
		Exec: func(_ context.Context, _ []string) error {
			if *secret == "" || *sub == "" {
				return flag.ErrHelp
			}
			tok, err := auth.NewAuthService(*secret).IssueJWT(*sub, *role, *ttl)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
