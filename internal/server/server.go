package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/converse-chat/converse/internal/auth"
	"github.com/converse-chat/converse/internal/handlers"
	"github.com/converse-chat/converse/internal/metrics"
	"github.com/converse-chat/converse/internal/middleware"
	"github.com/converse-chat/converse/internal/ws"
)

type Deps struct {
	Log           *zap.SugaredLogger
	Tokens        *auth.TokenManager
	RateLimit     *middleware.IPRateLimiter
	Auth          *handlers.AuthHandler
	Users         *handlers.UserHandler
	Conversations *handlers.ConversationHandler
	Messages      *handlers.MessageHandler
	Media         *handlers.MediaHandler
	WS            *ws.Handler
}

// New assembles the fiber app and all routes.
func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(middleware.RequestLogger(d.Log))
	if d.RateLimit != nil {
		app.Use(d.RateLimit.Handler())
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	// public
	api.Post("/register", d.Auth.Register)
	api.Post("/login", d.Auth.Login)
	api.Get("/auth/:provider", d.Auth.OAuthRedirect)
	api.Get("/auth/callback/:provider", d.Auth.OAuthCallback)

	// authenticated
	authed := api.Group("", middleware.JWTAuth(d.Tokens))
	authed.Get("/users", d.Users.List)
	authed.Get("/me", d.Users.Me)
	authed.Post("/settings", d.Users.UpdateSettings)

	authed.Get("/conversations", d.Conversations.List)
	authed.Post("/conversations", d.Conversations.Create)
	authed.Get("/conversations/:id", d.Conversations.Get)
	authed.Delete("/conversations/:id", d.Conversations.Delete)
	authed.Post("/conversations/:id/seen", d.Conversations.Seen)

	authed.Get("/conversations/:id/messages", d.Messages.List)
	authed.Post("/conversations/:id/messages", d.Messages.Create)

	authed.Post("/media", d.Media.Upload)

	// websocket push channel, token in query
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(d.WS.Serve))

	return app
}
