// @title           ChatRelay API
// @version         1.0
// @description     Persistência de conversas e repasse enriquecido de eventos para webhooks (n8n)

// @contact.name   Suporte da API

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @externalDocs.description  OpenAPI
// @externalDocs.url          https://swagger.io/resources/open-api/
package main

import (
	"log"
	"os"

	"chatrelay/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		log.Fatalf("Erro ao criar aplicação: %v", err)
	}

	defer func() {
		if err := application.Close(); err != nil {
			log.Printf("Erro ao fechar aplicação: %v", err)
		}
	}()

	if err := application.Run(); err != nil {
		log.Printf("Erro ao executar aplicação: %v", err)
		os.Exit(1)
	}
}
