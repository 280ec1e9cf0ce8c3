package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/joho/godotenv"

	"ms-booking/internal/config"
	"ms-booking/internal/database"
	"ms-booking/internal/database/migrations"
	"ms-booking/internal/logger"
)

func main() {
	down := flag.Bool("down", false, "roll back every migration")
	to := flag.Uint("to", 0, "migrate up or down to this version")
	seed := flag.Bool("seed", false, "also apply the demo data seed")
	flag.Parse()

	log := logger.NewLogger()
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()

	bunDB, err := database.Connect(context.Background(), cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	runner := migrations.NewRunner(bunDB.DB, migrations.MigrateOptions{SeedData: *seed}, log)
	defer runner.Close()

	switch {
	case *down:
		log.Info("DATABASE", "Rolling back all migrations...")
		err = runner.MigrateDown()
	case *to > 0:
		log.Info("DATABASE", fmt.Sprintf("Migrating to version %d...", *to))
		err = runner.MigrateTo(*to)
	default:
		err = runner.RunMigrations()
	}
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	log.Info("DATABASE", "Done")
}
