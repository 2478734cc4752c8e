// sweeper periodically removes retired sessions, spent one-time tokens, and
// old login history past the retention window. Correctness never depends on
// it; expiry is derived at read time.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"authcore/backend/internal/clock"
	"authcore/backend/internal/config"
	"authcore/backend/internal/db"
	loginrepo "authcore/backend/internal/login/repository"
	onetimerepo "authcore/backend/internal/onetime/repository"
	sessionrepo "authcore/backend/internal/session/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	sessions := sessionrepo.NewPostgresRepository(conn)
	tokens := onetimerepo.NewPostgresRepository(conn)
	logins := loginrepo.NewPostgresRepository(conn)
	clk := clock.System()

	interval := cfg.SweepIntervalDuration()
	retention := cfg.SweepRetentionDuration()
	log.Printf("sweeper: every %s, retention %s", interval, retention)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sweep := func() {
		cutoff := clk.Now().Add(-retention)
		sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		if n, err := sessions.DeleteExpiredBefore(sweepCtx, cutoff); err != nil {
			log.Printf("sweeper: sessions: %v", err)
		} else if n > 0 {
			log.Printf("sweeper: removed %d sessions", n)
		}
		if n, err := tokens.DeleteExpiredBefore(sweepCtx, cutoff); err != nil {
			log.Printf("sweeper: one-time tokens: %v", err)
		} else if n > 0 {
			log.Printf("sweeper: removed %d one-time tokens", n)
		}
		if n, err := logins.DeleteBefore(sweepCtx, cutoff); err != nil {
			log.Printf("sweeper: logins: %v", err)
		} else if n > 0 {
			log.Printf("sweeper: removed %d login rows", n)
		}
	}

	sweep()
	for {
		select {
		case <-ctx.Done():
			log.Println("sweeper: stopped")
			return
		case <-ticker.C:
			sweep()
		}
	}
}
