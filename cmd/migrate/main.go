package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/noah-isme/quiz-grade-api/pkg/config"
	"github.com/noah-isme/quiz-grade-api/pkg/logger"
)

func main() {
	var dir string
	flag.StringVar(&dir, "path", "migrations", "directory holding the .sql migrations")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck
	sugar := logr.Sugar()

	args := flag.Args()
	if len(args) < 1 {
		usage()
		return
	}

	m, err := migrate.New("file://"+dir, cfg.Database.URL())
	if err != nil {
		sugar.Fatalw("migration init failed", "error", err)
	}
	defer m.Close()

	switch args[0] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			sugar.Fatalw("migrate up failed", "error", err)
		}
	case "down":
		if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			sugar.Fatalw("migrate down failed", "error", err)
		}
	case "version":
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			sugar.Fatalw("read version failed", "error", err)
		}
		sugar.Infow("schema version", "version", version, "dirty", dirty)
		return
	case "force":
		if len(args) < 2 {
			sugar.Fatalw("force requires a version")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			sugar.Fatalw("invalid version", "value", args[1], "error", err)
		}
		if err := m.Force(v); err != nil {
			sugar.Fatalw("force failed", "error", err)
		}
	default:
		usage()
		return
	}
	sugar.Infow("migration finished", "command", args[0])
}

func usage() {
	fmt.Println("Usage: migrate [-path dir] up|down|version|force <version>")
	flag.PrintDefaults()
}
