package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "chatrelay/docs"
	"chatrelay/internal/api/handlers"
	"chatrelay/internal/api/middleware"
	"chatrelay/internal/repository"
	"chatrelay/internal/webhook"
)

// Hub é o que o roteador precisa do fan-out em tempo real.
type Hub interface {
	handlers.Publisher
	handlers.WebSocketServer
	handlers.ClientCounter
}

type Dependencies struct {
	Repositories   *repository.Repositories
	WebhookManager *webhook.Manager
	Hub            Hub
	AllowOrigins   []string
	RecentLimit    int
}

func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()

	mw := middleware.New()
	r.Use(mw.Recovery())
	r.Use(mw.RequestID())
	r.Use(mw.Logger())
	r.Use(mw.Allow(map[string]string{"/webhook": handlers.WebhookAllowedMethods}))
	r.Use(mw.CORS(deps.AllowOrigins))
	r.Use(mw.Security())

	repos := deps.Repositories

	healthHandler := handlers.NewHealthHandler(repos, deps.Hub)
	sessionHandler := handlers.NewSessionHandler(repos.Session, repos.Message, deps.RecentLimit)
	messageHandler := handlers.NewMessageHandler(repos.Message, deps.Hub)
	webhookHandler := handlers.NewWebhookHandler(deps.WebhookManager)
	settingsHandler := handlers.NewSettingsHandler(repos.Setting)
	realtimeHandler := handlers.NewRealtimeHandler(deps.Hub)

	r.GET("/health", healthHandler.Check)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	sessions := r.Group("/sessions")
	{
		sessions.GET("", sessionHandler.ListSessions)
		sessions.POST("", sessionHandler.CreateSession)
		sessions.PUT("", sessionHandler.UpsertSession)
		sessions.PATCH("", sessionHandler.PatchSession)
		sessions.DELETE("", sessionHandler.DeleteSession)
		sessions.GET("/summary", sessionHandler.Summary)
		sessions.GET("/dates", sessionHandler.Dates)
		sessions.GET("/:id/messages", sessionHandler.SessionMessages)
	}

	messages := r.Group("/messages")
	{
		messages.GET("", messageHandler.ListMessages)
		messages.POST("", messageHandler.CreateMessage)
		messages.PATCH("", messageHandler.PatchMessage)
		messages.DELETE("", messageHandler.DeleteMessage)
	}

	hook := r.Group("/webhook")
	{
		hook.POST("", webhookHandler.Relay)
		hook.HEAD("", webhookHandler.Head)
		hook.OPTIONS("", webhookHandler.Options)
		hook.POST("/debug", webhookHandler.Debug)
		hook.POST("/test", webhookHandler.Test)
		hook.GET("/stats", webhookHandler.Stats)
		hook.GET("/config", webhookHandler.GetURL)
		hook.POST("/config", webhookHandler.SetURL)
		hook.DELETE("/config", webhookHandler.ClearConfig)
	}

	r.GET("/webhook-config", webhookHandler.GetFullConfig)
	r.POST("/webhook-config", webhookHandler.SaveFullConfig)

	r.GET("/config", settingsHandler.GetConfig)
	r.POST("/config", settingsHandler.SaveConfig)

	if deps.Hub != nil {
		r.GET("/ws", realtimeHandler.Serve)
	}

	return r
}
