//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/Nathan-Yinka/Project-management-application/internal/auth"
	"github.com/Nathan-Yinka/Project-management-application/internal/database"
	"github.com/Nathan-Yinka/Project-management-application/internal/orgs"
	"github.com/Nathan-Yinka/Project-management-application/pkg/config"
	"github.com/Nathan-Yinka/Project-management-application/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService, nil)
	orgService := orgs.NewService(db, nil, logger)

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	username := os.Getenv("ADMIN_USERNAME")

	if email == "" {
		email = "admin@example.com"
	}
	if password == "" {
		password = "admin123!"
	}
	if username == "" {
		username = "admin"
	}

	resp, err := authService.Register(context.Background(), auth.RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		if err == auth.ErrUserExists {
			fmt.Printf("Admin user already exists: %s\n", email)
			return
		}
		log.Fatalf("failed to create admin user: %v", err)
	}

	org, err := orgService.Create(context.Background(), orgs.CreateInput{
		Name:        "Default Organization",
		Description: "Seeded organization",
		CreatedByID: resp.User.ID,
	})
	if err != nil && err != orgs.ErrOrganizationExists {
		log.Fatalf("failed to create organization: %v", err)
	}

	fmt.Printf("Admin user created successfully!\n")
	fmt.Printf("Email: %s\n", resp.User.Email)
	if org != nil {
		fmt.Printf("Organization: %s\n", org.Name)
	}
	fmt.Printf("Token: %s\n", resp.Token)
}
