package main

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/usuariosapp/accounts-api/config"
	"github.com/usuariosapp/accounts-api/internal/domain/entity"
	"github.com/usuariosapp/accounts-api/pkg/helpers"
)

// Seeds a Manager account for local development.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "admin@example.com"
	password := "Admin123!"
	name := "Default Manager"

	hash, err := helpers.BcryptHasher{}.Hash(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id uuid.UUID
	err = db.QueryRow(`
		INSERT INTO users (id, name, email, password_hash, permission, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, uuid.New(), name, email, hash, int(entity.PermissionManager)).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed manager: %v", err)
	}
	fmt.Printf("seeded manager: id=%s email=%s password=%s\n", id, email, password)
}
