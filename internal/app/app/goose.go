package app

import (
	"aishop/internal/app/logger"
	"database/sql"
	"embed"
	"fmt"
	"github.com/pressly/goose/v3"
	"strings"
)

// gooseLogger routes migration output into the component logger.
type gooseLogger struct {
	l logger.Logger
}

func (g gooseLogger) Fatal(v ...interface{}) {
	g.l.Fatal().Msg(strings.TrimSpace(fmt.Sprint(v...)))
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.l.Fatal().Msgf(strings.TrimSpace(format), v...)
}

func (g gooseLogger) Print(v ...interface{}) {
	g.l.Info().Msg(strings.TrimSpace(fmt.Sprint(v...)))
}

func (g gooseLogger) Println(v ...interface{}) {
	g.l.Info().Msg(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.l.Info().Msgf(strings.TrimSpace(format), v...)
}

func applyMigrations(embedMigrations embed.FS, db *sql.DB, l logger.Logger) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{l: l.WithComponent("Migrations")})

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("goose version: %w", err)
	}
	l.Info().Int64("schema_version", version).Msg("Migrations applied")

	return nil
}
