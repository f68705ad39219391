package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"chatrelay/internal/api/router"
	"chatrelay/internal/config"
	"chatrelay/internal/db"
	"chatrelay/internal/logger"
	"chatrelay/internal/realtime"
	"chatrelay/internal/repository"
	"chatrelay/internal/webhook"
)

type App struct {
	config *config.Config
	db     *db.DB
	hub    *realtime.Hub
	server *http.Server

	cancelHub context.CancelFunc
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("erro ao carregar configuração: %w", err)
	}

	logger.Init(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
		File:   cfg.Log.File,
	})

	log := logger.WithComponent("app")
	log.Info("Iniciando aplicação", "env", cfg.App.Env, "driver", cfg.Database.Driver)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	database, err := db.NewConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("erro ao conectar ao banco: %w", err)
	}

	repos := repository.NewRepositories(database)

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := repos.Migrate(migrateCtx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("erro ao executar migrações: %w", err)
	}

	store := webhook.NewConfigStore(repos.WebhookConfig)
	enricher := webhook.NewEnricher(repos.Session)
	manager := webhook.NewManager(store, enricher, webhook.Options{
		Timeout:   cfg.Webhook.Timeout,
		UserAgent: cfg.Webhook.UserAgent,
	})

	hub := realtime.NewHub(nil)

	handler := router.NewRouter(router.Dependencies{
		Repositories:   repos,
		WebhookManager: manager,
		Hub:            hub,
		AllowOrigins:   cfg.CORS.AllowOrigins,
		RecentLimit:    cfg.Sessions.RecentLimit,
	})

	// WriteTimeout acima do timeout do webhook para a resposta 504 chegar ao cliente
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Webhook.Timeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &App{
		config: cfg,
		db:     database,
		hub:    hub,
		server: server,
	}, nil
}

func (a *App) Run() error {
	appLogger := logger.WithComponent("server")

	hubCtx, cancelHub := context.WithCancel(context.Background())
	a.cancelHub = cancelHub
	go a.hub.Run(hubCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info("Servidor iniciado", "porta", a.config.Server.Port, "health", fmt.Sprintf("http://localhost:%d/health", a.config.Server.Port))

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		appLogger.Error("Erro ao iniciar servidor", "error", err)
		cancelHub()
		return err
	case <-quit:
	}
	appLogger.Info("Parando servidor...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cancelHub()

	if err := a.server.Shutdown(ctx); err != nil {
		appLogger.Error("Erro ao parar servidor", "error", err)
		return err
	}

	appLogger.Info("Servidor parado")
	return nil
}

func (a *App) Close() error {
	if a.cancelHub != nil {
		a.cancelHub()
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logger.Error("Erro ao fechar banco de dados", "error", err)
			return err
		}
	}

	return nil
}
