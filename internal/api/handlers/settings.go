package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatrelay/internal/api/dto"
	"chatrelay/internal/repository"
)

const n8nConfigKey = "n8n-config"

type SettingsHandler struct {
	*BaseHandler
	settingRepo repository.SettingRepositoryInterface
}

func NewSettingsHandler(settingRepo repository.SettingRepositoryInterface) *SettingsHandler {
	return &SettingsHandler{
		BaseHandler: NewBaseHandler("SettingsHandler"),
		settingRepo: settingRepo,
	}
}

// @Summary      Ler configuração do n8n
// @Tags         settings
// @Produce      json
// @Success      200  {object}  dto.SettingResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /config [get]
func (h *SettingsHandler) GetConfig(c *gin.Context) {
	value, err := h.settingRepo.Get(c.Request.Context(), n8nConfigKey)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusOK, dto.SettingResponse{OK: true, Config: nil})
		return
	}
	if err != nil {
		h.respondStorage(c, err, "Erro ao ler configuração", "key", n8nConfigKey)
		return
	}

	c.JSON(http.StatusOK, dto.SettingResponse{OK: true, Config: value})
}

// @Summary      Salvar configuração do n8n
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        request  body      object  true  "Valor JSON arbitrário"
// @Success      200      {object}  dto.SettingResponse
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      500      {object}  dto.ErrorResponse
// @Router       /config [post]
func (h *SettingsHandler) SaveConfig(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil || !json.Valid(body) {
		h.respondError(c, http.StatusBadRequest, "JSON inválido")
		return
	}

	if err := h.settingRepo.Save(c.Request.Context(), n8nConfigKey, body); err != nil {
		h.respondStorage(c, err, "Erro ao salvar configuração", "key", n8nConfigKey)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
