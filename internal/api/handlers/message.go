package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatrelay/internal/api/dto"
	"chatrelay/internal/repository"
)

// Publisher recebe as mensagens salvas para o fan-out em tempo real.
type Publisher interface {
	Publish(kind string, data any)
}

type MessageHandler struct {
	*BaseHandler
	messageRepo repository.MessageRepositoryInterface
	publisher   Publisher
}

func NewMessageHandler(messageRepo repository.MessageRepositoryInterface, publisher Publisher) *MessageHandler {
	return &MessageHandler{
		BaseHandler: NewBaseHandler("MessageHandler"),
		messageRepo: messageRepo,
		publisher:   publisher,
	}
}

// @Summary      Listar mensagens
// @Tags         messages
// @Produce      json
// @Param        sessionId  query     string  true  "ID da sessão"
// @Success      200        {array}   models.Message
// @Failure      400        {object}  dto.ErrorResponse
// @Failure      500        {object}  dto.ErrorResponse
// @Router       /messages [get]
func (h *MessageHandler) ListMessages(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		sessionID = c.Query("session_id")
	}
	if sessionID == "" {
		h.respondError(c, http.StatusBadRequest, "sessionId é obrigatório")
		return
	}

	messages, err := h.messageRepo.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		h.respondStorage(c, err, "Erro ao listar mensagens", "sessionID", sessionID)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// @Summary      Salvar mensagem
// @Description  Salva a mensagem criando a sessão automaticamente quando necessário
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        request  body      dto.CreateMessageRequest  true  "Mensagem"
// @Success      200      {object}  dto.SuccessResponse
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      500      {object}  dto.ErrorResponse
// @Router       /messages [post]
func (h *MessageHandler) CreateMessage(c *gin.Context) {
	var req dto.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Erro ao decodificar request", "error", err)
		h.respondError(c, http.StatusBadRequest, "Dados inválidos")
		return
	}

	message, err := req.ToModel()
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.messageRepo.Save(c.Request.Context(), message); err != nil {
		h.respondStorage(c, err, "Erro ao salvar mensagem", "sessionID", message.SessionID)
		return
	}

	h.logger.Debug("Mensagem salva", "sessionID", message.SessionID, "messageID", message.ID, "role", message.Role)

	if h.publisher != nil {
		h.publisher.Publish("message", message)
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Data: message})
}

// @Summary      Atualizar mensagem
// @Description  Correção parcial de uma mensagem existente
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        request  body      dto.UpdateMessageRequest  true  "Campos a atualizar"
// @Success      200      {object}  models.Message
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      404      {object}  dto.ErrorResponse
// @Failure      500      {object}  dto.ErrorResponse
// @Router       /messages [patch]
func (h *MessageHandler) PatchMessage(c *gin.Context) {
	var req dto.UpdateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "Dados inválidos")
		return
	}

	fields, err := req.Fields()
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	message, err := h.messageRepo.Update(c.Request.Context(), req.ID, fields)
	if err != nil {
		h.respondStorage(c, err, "Erro ao atualizar mensagem", "messageID", req.ID)
		return
	}

	c.JSON(http.StatusOK, message)
}

// @Summary      Remover mensagem
// @Tags         messages
// @Produce      json
// @Param        id   query     string  true  "ID da mensagem"
// @Success      200  {object}  dto.SuccessResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /messages [delete]
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		h.respondError(c, http.StatusBadRequest, "id da mensagem é obrigatório")
		return
	}

	if err := h.messageRepo.Delete(c.Request.Context(), id); err != nil {
		h.respondStorage(c, err, "Erro ao remover mensagem", "messageID", id)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}
