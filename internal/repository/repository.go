package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"chatrelay/internal/db"
)

var ErrNotFound = errors.New("registro não encontrado")

// StorageError envolve qualquer falha do banco que não seja ausência de registro.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("erro de armazenamento (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ValidationError indica que o registro resultante violaria uma regra do modelo.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type Repositories struct {
	Session       SessionRepositoryInterface
	Message       MessageRepositoryInterface
	Setting       SettingRepositoryInterface
	WebhookConfig WebhookConfigRepositoryInterface
	db            *bun.DB
}

func New(bunDB *bun.DB) *Repositories {
	return &Repositories{
		Session:       NewSessionRepository(bunDB),
		Message:       NewMessageRepository(bunDB),
		Setting:       NewSettingRepository(bunDB),
		WebhookConfig: NewWebhookConfigRepository(bunDB),
		db:            bunDB,
	}
}

func NewRepositories(database *db.DB) *Repositories {
	return New(database.DB)
}

func (r *Repositories) GetDB() *bun.DB {
	return r.db
}

func (r *Repositories) Migrate(ctx context.Context) error {
	return db.NewMigrator(r.db).AutoMigrate(ctx)
}

func (r *Repositories) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
