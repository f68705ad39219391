package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chatrelay/internal/api/dto"
	"chatrelay/internal/logger"
)

const RequestIDHeader = "X-Request-ID"

type Middleware struct {
	logger logger.Logger
}

func New() *Middleware {
	return &Middleware{
		logger: logger.NewForComponent("Middleware"),
	}
}

func (m *Middleware) Logger() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		fields := []any{
			"method", param.Method,
			"path", param.Path,
			"status", param.StatusCode,
			"latency", param.Latency,
			"client_ip", param.ClientIP,
			"user_agent", param.Request.UserAgent(),
		}
		if id, ok := param.Keys["requestID"]; ok {
			fields = append(fields, "requestID", id)
		}

		if param.StatusCode >= http.StatusInternalServerError {
			m.logger.Error("Request processado", fields...)
		} else {
			m.logger.Info("Request processado", fields...)
		}
		return ""
	})
}

func (m *Middleware) Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		m.logger.Error("Panic recuperado",
			"error", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"client_ip", c.ClientIP(),
		)

		c.AbortWithStatusJSON(http.StatusInternalServerError,
			dto.NewErrorResponse(http.StatusInternalServerError, "Erro interno do servidor"))
	})
}

// CORS responde preflights com 200; "*" em allowOrigins libera qualquer origem.
func (m *Middleware) CORS(allowOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:              []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:              []string{"Accept", "Authorization", "Content-Type", "Origin", "X-Requested-With", RequestIDHeader},
		ExposeHeaders:             []string{RequestIDHeader, "X-Webhook-Status"},
		MaxAge:                    24 * time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	}

	if len(allowOrigins) == 0 || containsWildcard(allowOrigins) {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowOrigins
		cfg.AllowCredentials = true
	}

	return cors.New(cfg)
}

// Allow publica o cabeçalho Allow nas requisições OPTIONS das rotas listadas,
// inclusive nos preflights encerrados pelo CORS.
func (m *Middleware) Allow(methodsByPath map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			if methods, ok := methodsByPath[c.Request.URL.Path]; ok {
				c.Header("Allow", methods)
			}
		}
		c.Next()
	}
}

func (m *Middleware) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		c.Set("requestID", requestID)

		c.Next()
	}
}

func (m *Middleware) Security() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// CSP mais permissiva para Swagger UI
		if strings.HasPrefix(c.Request.URL.Path, "/swagger") {
			c.Header("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline' 'unsafe-eval'; img-src 'self' data: https:; connect-src 'self' http: https:")
		} else {
			c.Header("Content-Security-Policy", "default-src 'self'; connect-src 'self' http: https: ws: wss:")
		}

		c.Next()
	}
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}
