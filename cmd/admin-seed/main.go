// Command admin-seed creates the administrator account, or resets its
// password when the username already exists.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"controle-acesso/internal/access/db"
	"controle-acesso/internal/auth"
	"controle-acesso/internal/config"
	"controle-acesso/internal/database"
	"controle-acesso/internal/logger"
	"controle-acesso/internal/models"
)

func main() {
	_ = godotenv.Load() // Loads .env file if present

	cfg := config.Load()
	username := flag.String("username", cfg.Admin.Username, "admin username")
	password := flag.String("password", cfg.Admin.Password, "admin password (defaults to ADMIN_PASSWORD)")
	flag.Parse()

	log := logger.NewLogger()
	defer log.Close()

	if *password == "" {
		log.Fatal("CONFIG", "ADMIN_PASSWORD not set and no -password given")
	}
	if len(*password) < 8 {
		log.Fatal("CONFIG", "admin password must have at least 8 characters")
	}

	ctx := context.Background()
	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	store := &db.DB{Bun: bunDB}
	if cfg.Database.Driver != "postgres" {
		if err := store.CreateSchema(ctx); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to create schema: %v", err))
		}
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatal("AUTH", fmt.Sprintf("Failed to hash password: %v", err))
	}

	_, err = store.GetUserByUsername(ctx, *username)
	existed := err == nil

	err = store.UpsertUser(ctx, models.User{
		ID:           uuid.NewString(),
		Username:     *username,
		PasswordHash: hash,
		IsAdmin:      true,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to save admin user: %v", err))
	}

	if existed {
		log.LogAdmin("RESET_PASSWORD", *username, "admin password reset")
	} else {
		log.LogAdmin("CREATE_ADMIN", *username, "admin user created")
	}
}
