package handlers

import (
	"time"

	"github.com/Anchal0410/peer-connect/internal/handlers/ws"
	"github.com/Anchal0410/peer-connect/internal/httpx"
	"github.com/Anchal0410/peer-connect/internal/middleware"
	"github.com/Anchal0410/peer-connect/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// Services is everything the HTTP surface talks to.
type Services struct {
	Auth       *service.AuthService
	Users      *service.UserService
	Activities *service.ActivityService
	Chat       *service.ChatService
	Avatars    *service.AvatarService
	Presence   *service.PresenceTracker
	Hub        *ws.Hub
}

type RouteOptions struct {
	AllowedOrigins string
	// AuthRateLimit caps register/login requests per IP per minute; 0 disables it.
	AuthRateLimit int
	AppName       string
}

// Register mounts the REST API, the websocket endpoint and /health on app.
func Register(app *fiber.App, svc Services, opts RouteOptions, log *zap.Logger) {
	authHandler := NewAuthHandler(svc.Auth)
	userHandler := NewUserHandler(svc.Users)
	activityHandler := NewActivityHandler(svc.Activities)
	chatHandler := NewChatHandler(svc.Chat)
	avatarHandler := NewAvatarHandler(svc.Avatars)
	mediaHandler := NewMediaHandler(svc.Avatars, log)
	wsHandler := NewWebSocketHandler(svc.Hub, svc.Presence, svc.Chat, log)

	requireAuth := middleware.AuthRequired(svc.Auth)
	api := app.Group("/api", middleware.OriginAllowed(opts.AllowedOrigins))

	// Public routes
	auth := api.Group("/auth")
	authLimit := func(c *fiber.Ctx) error { return c.Next() }
	if opts.AuthRateLimit > 0 {
		authLimit = limiter.New(limiter.Config{
			Max:        opts.AuthRateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return httpx.Error(c, fiber.StatusTooManyRequests, "rate_limited", "Too many requests, please try again later")
			},
		})
	}
	auth.Post("/register", authLimit, authHandler.Register)
	auth.Post("/login", authLimit, authHandler.Login)

	// Protected routes
	auth.Get("/me", requireAuth, authHandler.GetCurrentUser)
	auth.Post("/logout", requireAuth, authHandler.Logout)
	auth.Put("/profile", requireAuth, userHandler.UpdateProfile)

	users := api.Group("/users", requireAuth)
	users.Get("/online", userHandler.GetOnlineUsers)
	users.Get("/search", userHandler.SearchUsers)
	users.Get("/suggestions", userHandler.GetSuggestions)
	users.Put("/profile", userHandler.UpdateProfile)
	users.Post("/me/avatar", avatarHandler.UploadMyAvatar)
	users.Delete("/me/avatar", avatarHandler.DeleteMyAvatar)
	users.Get("/:id", userHandler.GetUser)

	api.Get("/media/avatars/*", requireAuth, mediaHandler.GetAvatar)

	activities := api.Group("/activities", requireAuth)
	activities.Get("/", activityHandler.GetActivities)
	activities.Post("/", activityHandler.CreateActivity)
	activities.Get("/user", activityHandler.GetUserActivities)
	activities.Get("/:id", activityHandler.GetActivity)
	activities.Put("/:id", activityHandler.UpdateActivity)
	activities.Delete("/:id", activityHandler.DeleteActivity)
	activities.Post("/:id/join", activityHandler.JoinActivity)
	activities.Post("/:id/leave", activityHandler.LeaveActivity)
	activities.Get("/:id/users", activityHandler.GetOnlineParticipants)

	chat := api.Group("/chat", requireAuth)
	chat.Get("/conversations", chatHandler.GetConversations)
	chat.Post("/conversations", chatHandler.CreateConversation)
	chat.Get("/conversations/:id", chatHandler.GetConversation)
	chat.Get("/conversations/:id/messages", chatHandler.GetMessages)
	chat.Post("/conversations/:id/messages", chatHandler.SendMessage)
	chat.Get("/conversations/:id/unread", chatHandler.GetUnreadCount)
	chat.Put("/conversations/:id/read", chatHandler.MarkRead)
	chat.Post("/users/status", userHandler.GetUsersStatus)

	// The handshake middleware authenticates and marks the user online.
	app.Use("/ws",
		middleware.OriginAllowed(opts.AllowedOrigins),
		middleware.WebSocketAuth(svc.Auth, svc.Presence),
	)
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "ok",
			"message":     opts.AppName + " is running",
			"connections": svc.Hub.Count(),
		})
	})
}
