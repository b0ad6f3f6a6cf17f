// Command migrate applies or rolls back the postgres schema migrations.
// On sqlite it creates the tables from the models instead.
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/joho/godotenv"

	"controle-acesso/internal/access/db"
	"controle-acesso/internal/config"
	"controle-acesso/internal/database"
	"controle-acesso/internal/database/migrations"
	"controle-acesso/internal/logger"
)

func main() {
	_ = godotenv.Load() // Loads .env file if present

	cfg := config.Load()
	down := flag.Bool("down", false, "roll back every migration")
	dir := flag.String("dir", cfg.Database.MigrationsDir, "migrations directory")
	flag.Parse()

	log := logger.NewLogger()
	defer log.Close()

	ctx := context.Background()
	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if cfg.Database.Driver != "postgres" {
		if *down {
			log.Fatal("MIGRATE", "rollback is only supported on postgres")
		}
		if err := (&db.DB{Bun: bunDB}).CreateSchema(ctx); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to create schema: %v", err))
		}
		log.Info("MIGRATE", "✅ sqlite schema ready")
		return
	}

	opts := migrations.DefaultOptions()
	opts.MigrationsDir = *dir
	runner := migrations.NewRunner(bunDB, opts, log)
	defer runner.Close()

	if *down {
		if err := runner.MigrateDown(); err != nil {
			log.Fatal("MIGRATE", err.Error())
		}
		log.Info("MIGRATE", "✅ All migrations rolled back")
		return
	}

	if err := runner.RunMigrations(); err != nil {
		log.Fatal("MIGRATE", err.Error())
	}
	log.Info("MIGRATE", "✅ Migrations applied")
}
