package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/autostore-backend/pkg/config"
	"github.com/angelmondragon/autostore-backend/pkg/db"
	"github.com/angelmondragon/autostore-backend/pkg/logger"
	"github.com/angelmondragon/autostore-backend/pkg/migrate"
)

type options struct {
	dir     string
	name    string
	version string
}

type command struct {
	offline func(opts options) error
	online  func(ctx context.Context, conn *sql.DB, dialect string, opts options) error
}

func gooseCommand(name string) command {
	return command{online: func(ctx context.Context, conn *sql.DB, dialect string, opts options) error {
		return migrate.Run(ctx, conn, dialect, opts.dir, name)
	}}
}

var commands = map[string]command{
	"up":     gooseCommand("up"),
	"down":   gooseCommand("down"),
	"status": gooseCommand("status"),
	"version": {online: func(ctx context.Context, conn *sql.DB, dialect string, opts options) error {
		if opts.version == "" {
			return errors.New("-version is required")
		}
		return migrate.MigrateToVersion(ctx, conn, dialect, opts.dir, opts.version)
	}},
	"create": {offline: func(opts options) error {
		if opts.name == "" {
			return errors.New("-name is required")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	}},
	"validate": {offline: func(opts options) error {
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		fmt.Println("migrations valid:", opts.dir)
		return nil
	}},
}

func main() {
	_ = godotenv.Load()

	name := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate")
	var opts options
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name (create)")
	flag.StringVar(&opts.version, "version", "", "target version YYYYMMDDHHMMSS (version)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	ctx := logg.WithFields(context.Background(), map[string]any{"cmd": *name, "dir": opts.dir})

	cmd, ok := commands[*name]
	if !ok {
		fail(ctx, logg, "unknown migration command", fmt.Errorf("unknown -cmd %q", *name))
	}
	if cmd.offline != nil {
		if err := cmd.offline(opts); err != nil {
			fail(ctx, logg, "migration command failed", err)
		}
		return
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		fail(ctx, logg, "failed to load database config", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		fail(ctx, logg, "failed to connect database", err)
	}
	defer dbClient.Close()

	conn, err := dbClient.DB().DB()
	if err != nil {
		fail(ctx, logg, "failed to get sql handle", err)
	}
	if err := cmd.online(ctx, conn, dbClient.Dialect(), opts); err != nil {
		_ = dbClient.Close()
		fail(ctx, logg, "migration command failed", err)
	}
	logg.Info(ctx, "migration command completed")
}

func fail(ctx context.Context, logg *logger.Logger, msg string, err error) {
	logg.Error(ctx, msg, err)
	os.Exit(1)
}
