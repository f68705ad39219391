package dto

type WebhookURLRequest struct {
	WebhookURL string `json:"webhookUrl" example:"https://n8n.example.com/webhook/chat"` // URL absoluta do destino
}

type WebhookURLResponse struct {
	WebhookURL string `json:"webhookUrl" example:"https://n8n.example.com/webhook/chat"` // Vazio quando não configurado
}

type SettingResponse struct {
	OK     bool `json:"ok" example:"true"`
	Config any  `json:"config"`
}
