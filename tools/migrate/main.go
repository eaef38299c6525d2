package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"sort"

	"attendance.service/internal/config"
	"attendance.service/pkg/database"
	"attendance.service/pkg/logger"
	"github.com/rs/zerolog/log"
)

// Applies every migrations/*.sql file in name order. The scripts use
// IF NOT EXISTS, so running this twice is harmless.
func main() {
	dir := flag.String("dir", "migrations", "directory holding the .sql files")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}
	logger.Setup(cfg.IsLocalDev)

	files, err := filepath.Glob(filepath.Join(*dir, "*.sql"))
	if err != nil || len(files) == 0 {
		log.Fatal().Err(err).Str("dir", *dir).Msg("No migrations found")
	}
	sort.Strings(files)

	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}
	defer db.Close()

	for _, file := range files {
		script, err := os.ReadFile(file)
		if err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("Failed to read migration")
		}
		if _, err := db.ExecContext(context.Background(), string(script)); err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("Migration failed")
		}
		log.Info().Str("file", filepath.Base(file)).Msg("Migration applied")
	}
}
