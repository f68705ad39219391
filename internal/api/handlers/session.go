package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatrelay/internal/api/dto"
	"chatrelay/internal/repository"
)

type SessionHandler struct {
	*BaseHandler
	sessionRepo repository.SessionRepositoryInterface
	messageRepo repository.MessageRepositoryInterface
	recentLimit int
}

func NewSessionHandler(sessionRepo repository.SessionRepositoryInterface, messageRepo repository.MessageRepositoryInterface, recentLimit int) *SessionHandler {
	if recentLimit <= 0 {
		recentLimit = 20
	}
	return &SessionHandler{
		BaseHandler: NewBaseHandler("SessionHandler"),
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		recentLimit: recentLimit,
	}
}

// @Summary      Listar sessões
// @Description  Retorna todas as sessões com as mensagens mais recentes de cada uma
// @Tags         sessions
// @Produce      json
// @Success      200  {array}   models.SessionWithMessages
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions, err := h.sessionRepo.ListWithRecentMessages(c.Request.Context(), h.recentLimit)
	if err != nil {
		h.respondStorage(c, err, "Erro ao listar sessões")
		return
	}

	h.logger.Debug("Sessões listadas", "total", len(sessions))
	c.JSON(http.StatusOK, sessions)
}

// @Summary      Criar sessão
// @Description  Cria a sessão se o id ainda não existir
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        request  body      dto.SessionRequest  true  "Dados da sessão"
// @Success      201      {object}  models.Session
// @Success      200      {object}  models.Session
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      500      {object}  dto.ErrorResponse
// @Router       /sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req dto.SessionRequest
	if !h.bindSession(c, &req) {
		return
	}

	created, err := h.sessionRepo.Create(c.Request.Context(), req.ToModel())
	if err != nil {
		h.respondStorage(c, err, "Erro ao criar sessão", "sessionID", req.ID)
		return
	}

	session, err := h.sessionRepo.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		h.respondStorage(c, err, "Erro ao buscar sessão", "sessionID", req.ID)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.logger.Info("Sessão criada", "sessionID", session.ID)
	}
	c.JSON(status, session)
}

// @Summary      Criar ou substituir sessão
// @Description  Cria a sessão se necessário e aplica os campos informados
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        request  body      dto.SessionRequest  true  "Dados da sessão"
// @Success      200      {object}  models.Session
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      500      {object}  dto.ErrorResponse
// @Router       /sessions [put]
func (h *SessionHandler) UpsertSession(c *gin.Context) {
	var req dto.SessionRequest
	if !h.bindSession(c, &req) {
		return
	}

	session, err := h.sessionRepo.Upsert(c.Request.Context(), req.ID, req.Fields())
	if err != nil {
		h.respondStorage(c, err, "Erro ao salvar sessão", "sessionID", req.ID)
		return
	}

	c.JSON(http.StatusOK, session)
}

// @Summary      Atualizar sessão parcialmente
// @Description  Atualiza apenas os campos enviados; os demais são preservados
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        request  body      dto.SessionRequest  true  "Campos a atualizar"
// @Success      200      {object}  models.Session
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      404      {object}  dto.ErrorResponse
// @Failure      500      {object}  dto.ErrorResponse
// @Router       /sessions [patch]
func (h *SessionHandler) PatchSession(c *gin.Context) {
	var req dto.SessionRequest
	if !h.bindSession(c, &req) {
		return
	}

	session, err := h.sessionRepo.Update(c.Request.Context(), req.ID, req.Fields())
	if err != nil {
		h.respondStorage(c, err, "Erro ao atualizar sessão", "sessionID", req.ID)
		return
	}

	c.JSON(http.StatusOK, session)
}

// @Summary      Remover sessão
// @Description  Remove a sessão e todas as suas mensagens; id inexistente também responde 200
// @Tags         sessions
// @Produce      json
// @Param        id   query     string  true  "ID da sessão"
// @Success      200  {object}  dto.SuccessResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /sessions [delete]
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		h.respondError(c, http.StatusBadRequest, "id da sessão é obrigatório")
		return
	}

	err := h.sessionRepo.Delete(c.Request.Context(), id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		h.respondStorage(c, err, "Erro ao remover sessão", "sessionID", id)
		return
	}

	h.logger.Info("Sessão removida", "sessionID", id)
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// @Summary      Resumo das sessões
// @Description  Contagem de mensagens e última atividade por sessão, sem corpos de mensagem
// @Tags         sessions
// @Produce      json
// @Success      200  {array}   models.SessionSummary
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /sessions/summary [get]
func (h *SessionHandler) Summary(c *gin.Context) {
	summary, err := h.sessionRepo.Summary(c.Request.Context())
	if err != nil {
		h.respondStorage(c, err, "Erro ao gerar resumo das sessões")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// @Summary      Histórico da sessão
// @Description  Todas as mensagens da sessão em ordem cronológica
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "ID da sessão"
// @Success      200  {array}   models.Message
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /sessions/{id}/messages [get]
func (h *SessionHandler) SessionMessages(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		h.respondError(c, http.StatusBadRequest, "id da sessão é obrigatório")
		return
	}

	messages, err := h.messageRepo.ListBySession(c.Request.Context(), id)
	if err != nil {
		h.respondStorage(c, err, "Erro ao buscar mensagens", "sessionID", id)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// @Summary      Datas com atividade
// @Description  Dias (YYYY-MM-DD) com mensagens, do mais recente ao mais antigo
// @Tags         sessions
// @Produce      json
// @Success      200  {array}   string
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /sessions/dates [get]
func (h *SessionHandler) Dates(c *gin.Context) {
	dates, err := h.messageRepo.DistinctDates(c.Request.Context())
	if err != nil {
		h.respondStorage(c, err, "Erro ao buscar datas")
		return
	}

	c.JSON(http.StatusOK, dates)
}

func (h *SessionHandler) bindSession(c *gin.Context, req *dto.SessionRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Warn("Erro ao decodificar request", "error", err)
		h.respondError(c, http.StatusBadRequest, "Dados inválidos")
		return false
	}
	if err := req.Validate(); err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
