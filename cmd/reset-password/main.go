package main

import (
	"context"
	"flag"
	"log"

	"go-pos-inventory/internal/config"
	"go-pos-inventory/internal/repository"
	"go-pos-inventory/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	username := flag.String("username", "admin", "account to reset")
	password := flag.String("password", "admin123", "new password, at least 6 characters")
	flag.Parse()

	if len(*password) < 6 {
		log.Fatalf("password must be at least 6 characters")
	}

	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// 2. Setup Database
	db, err := database.ConnectDB(database.Options{
		DSN:          cfg.DatabaseURL,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx := context.Background()
	users := repository.NewUserRepo(db)

	// 3. Find user
	user, err := users.FindByUsername(ctx, *username)
	if err != nil {
		log.Fatalf("user %s not found in database: %v", *username, err)
	}

	// 4. Hash and store the new password
	if err := user.SetPassword(*password); err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	if err := users.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		log.Fatalf("failed to update password in DB: %v", err)
	}

	// 5. Sign out every open session
	if err := users.UpdateTokenVersion(ctx, user.ID, uuid.New().String()); err != nil {
		log.Fatalf("failed to revoke sessions: %v", err)
	}

	log.Printf("Password for %s has been reset; existing sessions were signed out", user.Username)
}
