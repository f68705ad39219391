package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chatrelay/internal/api/dto"
	"chatrelay/internal/logger"
	"chatrelay/internal/repository"
	"chatrelay/internal/webhook"
)

type BaseHandler struct {
	logger logger.Logger
}

func NewBaseHandler(component string) *BaseHandler {
	return &BaseHandler{
		logger: logger.NewForComponent(component),
	}
}

func (h *BaseHandler) respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(status, message))
}

// respondStorage registra o erro completo e devolve só a mensagem genérica.
func (h *BaseHandler) respondStorage(c *gin.Context, err error, message string, fields ...any) {
	if errors.Is(err, repository.ErrNotFound) {
		h.respondError(c, http.StatusNotFound, "Registro não encontrado")
		return
	}
	var invalid *repository.ValidationError
	if errors.As(err, &invalid) {
		h.respondError(c, http.StatusBadRequest, invalid.Error())
		return
	}
	h.logger.Error(message, append([]any{"error", err}, fields...)...)
	h.respondError(c, http.StatusInternalServerError, message)
}

var kindStatus = map[webhook.Kind]int{
	webhook.KindValidation:    http.StatusBadRequest,
	webhook.KindNotConfigured: http.StatusBadRequest,
	webhook.KindFiltered:      http.StatusForbidden,
	webhook.KindTimeout:       http.StatusGatewayTimeout,
	webhook.KindUnavailable:   http.StatusServiceUnavailable,
	webhook.KindUnexpected:    http.StatusInternalServerError,
	webhook.KindStorage:       http.StatusInternalServerError,
}

func StatusForKind(kind webhook.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func (h *BaseHandler) respondWebhookError(c *gin.Context, err error) {
	var we *webhook.Error
	if !errors.As(err, &we) {
		h.logger.Error("Erro inesperado no webhook", "error", err)
		h.respondError(c, http.StatusInternalServerError, webhook.MsgUnexpected)
		return
	}

	status := StatusForKind(we.Kind)
	if status >= http.StatusInternalServerError && we.Err != nil {
		h.logger.Error("Falha no webhook", "kind", we.Kind, "error", we.Err)
	}
	h.respondError(c, status, we.Message)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type ClientCounter interface {
	ClientCount() int
}

type HealthHandler struct {
	*BaseHandler
	db      Pinger
	clients ClientCounter
}

func NewHealthHandler(db Pinger, clients ClientCounter) *HealthHandler {
	return &HealthHandler{
		BaseHandler: NewBaseHandler("HealthHandler"),
		db:          db,
		clients:     clients,
	}
}

// @Summary      Verificar saúde da API
// @Description  Verifica se a API e o banco de dados estão respondendo
// @Tags         health
// @Produce      json
// @Success      200  {object}  dto.HealthResponse
// @Failure      503  {object}  dto.HealthResponse
// @Router       /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	resp := dto.HealthResponse{
		Status:    "ok",
		Service:   "chatrelay",
		Database:  "ok",
		Timestamp: time.Now().Unix(),
		Version:   "1.0.0",
	}
	if h.clients != nil {
		resp.WSClients = h.clients.ClientCount()
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("Banco de dados indisponível", "error", err)
		resp.Status = "degraded"
		resp.Database = "unavailable"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}
