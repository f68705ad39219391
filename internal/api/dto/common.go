package dto

import "time"

type ErrorResponse struct {
	Success   bool   `json:"success" example:"false"`
	Error     string `json:"error" example:"sessionId é obrigatório"` // Mensagem legível, sem detalhes internos
	Code      int    `json:"code" example:"400"`                      // Status HTTP
	Timestamp int64  `json:"timestamp" example:"1700000000"`
}

func NewErrorResponse(status int, message string) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     message,
		Code:      status,
		Timestamp: time.Now().Unix(),
	}
}

type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
	Data    any  `json:"data,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status" example:"ok"`
	Service   string `json:"service" example:"chatrelay"`
	Database  string `json:"database" example:"ok"`
	WSClients int    `json:"ws_clients" example:"2"`
	Timestamp int64  `json:"timestamp" example:"1700000000"`
	Version   string `json:"version" example:"1.0.0"`
}
