// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/boardgame-cafe-booking/internal/config"
	"github.com/iliyamo/boardgame-cafe-booking/internal/handler"
	"github.com/iliyamo/boardgame-cafe-booking/internal/middleware"
)

// Handlers groups every handler the router needs.  Keeping them in one
// struct keeps the registration signature stable as endpoints grow.
type Handlers struct {
	Auth  *handler.AuthHandler
	Table *handler.TableHandler
	Game  *handler.GameHandler
	Admin *handler.AdminHandler
}

// Register mounts all routes on the Echo instance.
//
// Route map:
//
//	/healthz                     liveness probe, no auth
//	/auth/*                      register / login / refresh / logout
//	/tables, /game (GET)         public browse endpoints, cached
//	/tables/reserve, /game/*     booking and lending, JWT required
//	/admin/*                     inventory and statistics, admin role
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	// Rate limiting applies to everything below; the middleware is a
	// no-op when REDIS_ADDR or RATELIMIT_ENABLED is unset.
	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	e.Use(rl)

	// Browse responses change only when an admin edits inventory or a
	// booking lands, so a short-TTL redis cache in front of them is safe.
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	auth := e.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	// Public browse: table list, slot availability and the game shelf.
	e.GET("/tables", h.Table.ListTables, cache)
	e.GET("/tables/available", h.Table.GetAvailableTime)
	e.GET("/game", h.Game.ListGames, cache)
	e.GET("/game/filter", h.Game.FilterGames, cache)

	// Booking and lending require a logged-in user.
	user := e.Group("")
	user.Use(middleware.JWTAuth(cfg.JWTSecret))
	user.Use(middleware.RequireRole("user", "admin"))
	user.GET("/me", h.Auth.Me)
	user.POST("/tables/reserve", h.Table.ReserveTable)
	user.GET("/tables/my/:userID", h.Table.MyReservations)
	user.POST("/game/borrow", h.Game.BorrowGame)
	user.POST("/game/return", h.Game.ReturnGame)
	user.GET("/game/borrowed/:rentTablesID", h.Game.BorrowedGames)

	// Admin console: inventory CRUD and the statistics view.
	admin := e.Group("/admin")
	admin.Use(middleware.JWTAuth(cfg.JWTSecret))
	admin.Use(middleware.RequireRole("admin"))
	admin.GET("/tables", h.Admin.ListTables)
	admin.POST("/tables", h.Admin.CreateTable)
	admin.PUT("/tables/:id", h.Admin.UpdateTable)
	admin.DELETE("/tables/:id", h.Admin.DeleteTable)
	admin.GET("/games", h.Admin.ListGames)
	admin.POST("/games", h.Admin.CreateGame)
	admin.PUT("/games/:id", h.Admin.UpdateGame)
	admin.DELETE("/games/:id", h.Admin.DeleteGame)
	admin.GET("/statistics", h.Admin.GetStatistics)
}
