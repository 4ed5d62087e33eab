package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/boardgame-cafe-booking/internal/config"
	"github.com/iliyamo/boardgame-cafe-booking/internal/database"
	"github.com/iliyamo/boardgame-cafe-booking/internal/handler"
	"github.com/iliyamo/boardgame-cafe-booking/internal/queue"
	"github.com/iliyamo/boardgame-cafe-booking/internal/repository"
	"github.com/iliyamo/boardgame-cafe-booking/internal/router"
	"github.com/iliyamo/boardgame-cafe-booking/internal/sweeper"
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	tables := repository.NewTableRepo(db)
	games := repository.NewGameRepo(db)
	reservations := repository.NewReservationRepo(db)
	loans := repository.NewLoanRepo(db)
	stats := repository.NewStatisticRepo(db)

	h := router.Handlers{
		Auth:  handler.NewAuthHandler(cfg, users, tokens),
		Table: handler.NewTableHandler(tables, reservations, stats),
		Game:  handler.NewGameHandler(games, reservations, loans, stats),
		Admin: handler.NewAdminHandler(tables, games, stats),
	}

	rdb := config.NewRedisClient() // nil when REDIS_ADDR is unset

	e := echo.New()
	router.Register(e, h, cfg, rdb)

	// Background expiry sweep: frees tables and returns games once a
	// reservation's window has passed.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sw := sweeper.New(reservations, loans, games, cfg.SweepInterval())
	go sw.Start(ctx)

	// Consume reservation.expired events into logs/expiry.log.
	go func() {
		if err := queue.StartExpiryConsumer(); err != nil {
			log.Printf("expiry consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
