// seed inserts development sample accounts for local testing.
// Idempotent: skips inserts if the dev admin (admin@example.com) already exists.
package main

import (
	"context"
	"log"

	"authcore/backend/internal/clock"
	"authcore/backend/internal/config"
	"authcore/backend/internal/db"
	"authcore/backend/internal/ids"
	"authcore/backend/internal/security"
	"authcore/backend/internal/user/domain"
	userrepo "authcore/backend/internal/user/repository"
)

const (
	adminEmail  = "admin@example.com"
	memberEmail = "member@example.com"
	devPassword = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	if cfg.Env == "production" {
		log.Fatal("seed: refusing to run with APP_ENV=production")
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	existing, err := users.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("seed: lookup: %v", err)
	}
	if existing != nil {
		log.Printf("seed: %s already present, nothing to do", adminEmail)
		return
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	digest, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("seed: hash: %v", err)
	}

	clk := clock.System()
	idgen := ids.NewULID()

	accounts := []struct {
		email string
		name  string
		role  domain.Role
	}{
		{adminEmail, "Dev Admin", domain.RoleAdmin},
		{memberEmail, "Dev Member", domain.RoleUser},
	}
	for _, a := range accounts {
		now := clk.Now()
		id, err := idgen.NewID(now)
		if err != nil {
			log.Fatalf("seed: id: %v", err)
		}
		u := &domain.User{
			ID:           id,
			Email:        a.email,
			Name:         a.name,
			PasswordHash: digest,
			Role:         a.role,
			IsActive:     true,
			IsVerified:   true,
			CreatedAt:    now,
		}
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("seed: create %s: %v", a.email, err)
		}
		log.Printf("seed: created %s (%s)", a.email, a.role)
	}
	log.Printf("seed: done; password for both accounts is %q", devPassword)
}
