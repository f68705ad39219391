package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatrelay/internal/api/dto"
	"chatrelay/internal/webhook"
)

type WebhookHandler struct {
	*BaseHandler
	manager *webhook.Manager
	store   *webhook.ConfigStore
}

func NewWebhookHandler(manager *webhook.Manager) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: NewBaseHandler("WebhookHandler"),
		manager:     manager,
		store:       manager.Store(),
	}
}

func requestInfo(c *gin.Context) webhook.RequestInfo {
	return webhook.RequestInfo{
		ForwardedFor: c.GetHeader("X-Forwarded-For"),
		RealIP:       c.GetHeader("X-Real-IP"),
		UserAgent:    c.GetHeader("User-Agent"),
	}
}

func (h *WebhookHandler) readInbound(c *gin.Context) (webhook.Inbound, bool) {
	body, err := c.GetRawData()
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "Não foi possível ler o corpo da requisição")
		return nil, false
	}

	in, err := webhook.ParseInbound(body)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "Payload JSON inválido")
		return nil, false
	}
	return in, true
}

// @Summary      Enviar evento ao webhook
// @Description  Enriquece o payload com dados da sessão e repassa ao destino configurado
// @Tags         webhook
// @Accept       json
// @Produce      json
// @Param        request  body      object  true  "Payload do evento (sessionId obrigatório)"
// @Success      200      {object}  webhook.Result
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      403      {object}  dto.ErrorResponse
// @Failure      503      {object}  dto.ErrorResponse
// @Failure      504      {object}  dto.ErrorResponse
// @Router       /webhook [post]
func (h *WebhookHandler) Relay(c *gin.Context) {
	in, ok := h.readInbound(c)
	if !ok {
		return
	}

	result, err := h.manager.Relay(c.Request.Context(), in, requestInfo(c))
	if err != nil {
		h.respondWebhookError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary      Verificar webhook
// @Tags         webhook
// @Success      200
// @Router       /webhook [head]
func (h *WebhookHandler) Head(c *gin.Context) {
	c.Header("Content-Type", "application/json")
	c.Header("X-Webhook-Status", "active")
	c.Status(http.StatusOK)
}

const WebhookAllowedMethods = "GET, POST, HEAD, OPTIONS"

// @Summary      Preflight do webhook
// @Tags         webhook
// @Success      200
// @Router       /webhook [options]
func (h *WebhookHandler) Options(c *gin.Context) {
	c.Header("Allow", WebhookAllowedMethods)
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", WebhookAllowedMethods)
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
	c.Status(http.StatusOK)
}

// @Summary      Pré-visualizar payload
// @Description  Executa o enriquecimento sem enviar nada ao destino
// @Tags         webhook
// @Accept       json
// @Produce      json
// @Param        request  body      object  true  "Payload do evento (sessionId obrigatório)"
// @Success      200      {object}  webhook.DebugReport
// @Failure      400      {object}  dto.ErrorResponse
// @Router       /webhook/debug [post]
func (h *WebhookHandler) Debug(c *gin.Context) {
	in, ok := h.readInbound(c)
	if !ok {
		return
	}

	report, err := h.manager.DebugRelay(c.Request.Context(), in, requestInfo(c))
	if err != nil {
		h.respondWebhookError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// @Summary      Testar webhook
// @Description  Envia um evento SEND_MESSAGE sintético pelo fluxo normal
// @Tags         webhook
// @Produce      json
// @Success      200  {object}  webhook.Result
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Failure      504  {object}  dto.ErrorResponse
// @Router       /webhook/test [post]
func (h *WebhookHandler) Test(c *gin.Context) {
	result, err := h.manager.TestRelay(c.Request.Context(), requestInfo(c))
	if err != nil {
		h.respondWebhookError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary      Estatísticas de entrega
// @Tags         webhook
// @Produce      json
// @Success      200  {object}  webhook.Stats
// @Router       /webhook/stats [get]
func (h *WebhookHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.GetStats())
}

// @Summary      Ler URL do webhook
// @Tags         webhook-config
// @Produce      json
// @Success      200  {object}  dto.WebhookURLResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /webhook/config [get]
func (h *WebhookHandler) GetURL(c *gin.Context) {
	cfg, err := h.store.Get(c.Request.Context())
	switch {
	case webhook.IsKind(err, webhook.KindNotConfigured):
		c.JSON(http.StatusOK, dto.WebhookURLResponse{WebhookURL: ""})
	case err != nil:
		h.respondWebhookError(c, err)
	default:
		c.JSON(http.StatusOK, dto.WebhookURLResponse{WebhookURL: cfg.Webhook.BaseURL})
	}
}

// @Summary      Definir URL do webhook
// @Tags         webhook-config
// @Accept       json
// @Produce      json
// @Param        request  body      dto.WebhookURLRequest  true  "Nova URL"
// @Success      200      {object}  dto.SuccessResponse
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      500      {object}  dto.ErrorResponse
// @Router       /webhook/config [post]
func (h *WebhookHandler) SetURL(c *gin.Context) {
	var req dto.WebhookURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, webhook.MsgInvalidURL)
		return
	}

	if _, err := h.store.SetURL(c.Request.Context(), req.WebhookURL); err != nil {
		h.respondWebhookError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// @Summary      Remover configuração do webhook
// @Tags         webhook-config
// @Produce      json
// @Success      200  {object}  dto.SuccessResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /webhook/config [delete]
func (h *WebhookHandler) ClearConfig(c *gin.Context) {
	if err := h.store.Clear(c.Request.Context()); err != nil {
		h.respondWebhookError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// @Summary      Ler configuração completa
// @Tags         webhook-config
// @Produce      json
// @Success      200  {object}  webhook.Config
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /webhook-config [get]
func (h *WebhookHandler) GetFullConfig(c *gin.Context) {
	cfg, err := h.store.Get(c.Request.Context())
	switch {
	case webhook.IsKind(err, webhook.KindNotConfigured):
		c.JSON(http.StatusOK, webhook.Config{
			Webhook:   webhook.Settings{Events: []string{}},
			Websocket: webhook.WebsocketSettings{Events: []string{}},
		})
	case err != nil:
		h.respondWebhookError(c, err)
	default:
		c.JSON(http.StatusOK, cfg)
	}
}

// @Summary      Salvar configuração completa
// @Tags         webhook-config
// @Accept       json
// @Produce      json
// @Param        request  body      webhook.Config  true  "Configuração"
// @Success      200      {object}  dto.SuccessResponse
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      500      {object}  dto.ErrorResponse
// @Router       /webhook-config [post]
func (h *WebhookHandler) SaveFullConfig(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "Dados inválidos")
		return
	}

	// aceita também os formatos antigos; a gravação é sempre canônica
	cfg, err := webhook.Normalize(body)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "Dados inválidos")
		return
	}

	saved, err := h.store.Save(c.Request.Context(), *cfg)
	if err != nil {
		h.respondWebhookError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Data: saved})
}

