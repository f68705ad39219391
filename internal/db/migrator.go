package db

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"chatrelay/internal/db/models"
	"chatrelay/internal/logger"
)

type Migrator struct {
	db     *bun.DB
	logger logger.Logger
}

func NewMigrator(db *bun.DB) *Migrator {
	return &Migrator{db: db, logger: logger.NewForComponent("Migrator")}
}

type tableSpec struct {
	model      any
	name       string
	foreignKey string
}

func createOrder() []tableSpec {
	return []tableSpec{
		{model: (*models.Session)(nil), name: "sessions"},
		{
			model:      (*models.Message)(nil),
			name:       "messages",
			foreignKey: `("session_id") REFERENCES "sessions" ("id") ON DELETE CASCADE`,
		},
		{model: (*models.Setting)(nil), name: "settings"},
		{model: (*models.WebhookConfig)(nil), name: "webhook_configs"},
	}
}

func dropOrder() []any {
	return []any{
		(*models.WebhookConfig)(nil),
		(*models.Setting)(nil),
		(*models.Message)(nil),
		(*models.Session)(nil),
	}
}

func (m *Migrator) AutoMigrate(ctx context.Context) error {
	m.logger.Info("Iniciando migrações automáticas")

	for _, table := range createOrder() {
		if err := m.createTable(ctx, table); err != nil {
			return fmt.Errorf("erro ao migrar modelo %T: %w", table.model, err)
		}
	}

	indexes := []struct {
		name    string
		columns []string
	}{
		{name: "idx_messages_session_created", columns: []string{"session_id", "created_at"}},
		{name: "idx_messages_created", columns: []string{"created_at"}},
	}
	for _, idx := range indexes {
		_, err := m.db.NewCreateIndex().
			Model((*models.Message)(nil)).
			Index(idx.name).
			Column(idx.columns...).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("falha ao criar índice %s: %w", idx.name, err)
		}
	}

	m.logger.Info("Migrações automáticas concluídas")
	return nil
}

func (m *Migrator) createTable(ctx context.Context, table tableSpec) error {
	q := m.db.NewCreateTable().
		Model(table.model).
		IfNotExists()

	if table.foreignKey != "" {
		q = q.ForeignKey(table.foreignKey)
	}

	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("falha ao criar tabela %s: %w", table.name, err)
	}

	m.logger.Debug("Tabela criada/verificada", "table", table.name)
	return nil
}

func (m *Migrator) DropAllTables(ctx context.Context) error {
	m.logger.Warn("Removendo todas as tabelas")

	for _, model := range dropOrder() {
		_, err := m.db.NewDropTable().
			Model(model).
			IfExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("falha ao remover tabela %T: %w", model, err)
		}
	}

	return nil
}
