// Package app wires the stores, services, realtime relay and HTTP routes
// into one gin engine.
package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jo-service/marketplace-backend/internal/config"
	"github.com/jo-service/marketplace-backend/internal/handlers"
	"github.com/jo-service/marketplace-backend/internal/middleware"
	"github.com/jo-service/marketplace-backend/internal/realtime"
	"github.com/jo-service/marketplace-backend/internal/routes"
	"github.com/jo-service/marketplace-backend/internal/services"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const eventBuffer = 256

type App struct {
	Router        *gin.Engine
	Registry      *realtime.Registry
	Relay         *realtime.Relay
	Messages      *services.MessageStore
	Events        *services.MessageEvents
	Notifications *services.NotificationService
	Bookings      *services.BookingService
	Ratings       *services.RatingService
	Admin         *services.AdminService

	stopConsumer context.CancelFunc
}

// New builds the application on db. rdb may be nil, in which case presence
// is answered from the local registry only.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	a := &App{
		Registry: realtime.NewRegistry(),
		Messages: services.NewMessageStore(db),
		Events:   services.NewMessageEvents(eventBuffer),
	}

	a.Notifications = services.NewNotificationService(db, services.LogPushSender{}, a.Registry)
	a.Bookings = services.NewBookingService(db, a.Notifications)
	a.Ratings = services.NewRatingService(db, a.Notifications)
	a.Admin = services.NewAdminService(db, a.Notifications)

	ctx, cancel := context.WithCancel(context.Background())
	a.stopConsumer = cancel
	go a.Notifications.Consume(ctx, a.Events.C())

	relayOpts := []realtime.Option{realtime.WithEvents(a.Events)}
	if rdb != nil {
		relayOpts = append(relayOpts, realtime.WithPresence(realtime.NewRedisPresence(rdb, cfg.PresenceTTL)))
	}
	if cfg.Env == "production" {
		relayOpts = append(relayOpts, realtime.WithCheckOrigin(func(r *http.Request) bool {
			return r.Header.Get("Origin") == cfg.FrontendURL
		}))
	}
	a.Relay = realtime.NewRelay(a.Registry, a.Messages, middleware.VerifyToken, relayOpts...)

	a.Router = a.router(cfg)
	return a
}

func (a *App) router(cfg *config.Config) *gin.Engine {
	r := gin.New()

	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.SecurityHeaders())

	r.GET("/health", handlers.HealthCheck(a.Registry))
	routes.RegisterRealtimeRoutes(r, a.Relay)

	api := r.Group("/api")
	api.Use(middleware.GeneralRateLimit())
	{
		auth := api.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		routes.RegisterAuthRoutes(auth)

		routes.RegisterBookingRoutes(api, handlers.NewBookingHandler(a.Bookings))
		routes.RegisterChatRoutes(api, handlers.NewChatHandler(a.Messages, a.Relay, a.Registry, a.Events, cfg.HistoryLimit))
		routes.RegisterNotificationRoutes(api, handlers.NewNotificationHandler(a.Notifications))
		routes.RegisterRatingRoutes(api, handlers.NewRatingHandler(a.Ratings))
		routes.RegisterAdminRoutes(api, handlers.NewAdminHandler(a.Admin))
	}
	return r
}

// Shutdown closes live connections and stops the notification consumer.
// Queued message events are dropped.
func (a *App) Shutdown() {
	a.Relay.Shutdown()
	a.Events.Close()
	a.stopConsumer()
}
